package models

import "time"

const (
	ObligationVAT  = "VAT"
	ObligationPAYE = "PAYE"
	ObligationWHT  = "WHT"
	ObligationCAC  = "CAC"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

type TaxObligation struct {
	ID                   int        `json:"id" db:"id"`
	UserID               int        `json:"user_id" db:"user_id"`
	ObligationType       string     `json:"obligation_type" db:"obligation_type"`
	Frequency            string     `json:"frequency" db:"frequency"`
	TaxPeriod            string     `json:"tax_period" db:"tax_period"`
	DueDate              time.Time  `json:"due_date" db:"due_date"`
	IsActive             bool       `json:"is_active" db:"is_active"`
	PaymentStatus        string     `json:"payment_status" db:"payment_status"`
	LastOverdueReminder  *time.Time `json:"last_overdue_reminder,omitempty" db:"last_overdue_reminder"`
	OverdueReminderCount int        `json:"overdue_reminder_count" db:"overdue_reminder_count"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// ValidObligationType reports whether t is one of the tracked filing types.
func ValidObligationType(t string) bool {
	switch t {
	case ObligationVAT, ObligationPAYE, ObligationWHT, ObligationCAC:
		return true
	}
	return false
}
