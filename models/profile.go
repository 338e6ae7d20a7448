package models

import "time"

// Plan tiers mirror the subscription products sold on the pricing page.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type Profile struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	BusinessName  string    `json:"business_name" db:"business_name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	Plan          string    `json:"plan" db:"plan"`
	CACNumber     string    `json:"cac_number" db:"cac_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// PlanAllowsEmailReminders reports whether the profile's plan includes
// email reminders (basic and above).
func PlanAllowsEmailReminders(plan string) bool {
	switch plan {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// PlanAllowsWhatsAppReminders reports whether the profile's plan includes
// WhatsApp reminders (pro and above).
func PlanAllowsWhatsAppReminders(plan string) bool {
	switch plan {
	case PlanPro, PlanEnterprise:
		return true
	}
	return false
}
