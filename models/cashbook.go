package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

type CashbookEntry struct {
	ID          int             `json:"id" db:"id"`
	UserID      int             `json:"user_id" db:"user_id"`
	EntryType   string          `json:"entry_type" db:"entry_type"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	EntryDate   time.Time       `json:"entry_date" db:"entry_date"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
