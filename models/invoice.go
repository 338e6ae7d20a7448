package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceDraft = "draft"
	InvoiceSent  = "sent"
	InvoicePaid  = "paid"
)

type Invoice struct {
	ID          int             `json:"id" db:"id"`
	UserID      int             `json:"user_id" db:"user_id"`
	Number      string          `json:"number" db:"number"`
	ClientName  string          `json:"client_name" db:"client_name"`
	ClientEmail string          `json:"client_email" db:"client_email"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	VATAmount   decimal.Decimal `json:"vat_amount" db:"vat_amount"`
	Status      string          `json:"status" db:"status"`
	DueDate     time.Time       `json:"due_date" db:"due_date"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
