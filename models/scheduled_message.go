package models

import "time"

const (
	MessagePending   = "pending"
	MessageSent      = "sent"
	MessageFailed    = "failed"
	MessageCancelled = "cancelled"
)

// ScheduledMessage is a unit of deferred delivery work persisted with its
// due-fire-time. Onboarding drip steps and one-off admin/test messages both
// go through this table, so pending steps survive a process restart.
type ScheduledMessage struct {
	ID           int        `json:"id" db:"id"`
	UserID       int        `json:"user_id" db:"user_id"`
	Window       string     `json:"window" db:"window"`
	Subject      string     `json:"subject" db:"subject"`
	Body         string     `json:"body" db:"body"`
	TargetEmail  string     `json:"target_email" db:"target_email"`
	TargetPhone  string     `json:"target_phone" db:"target_phone"`
	ScheduledFor time.Time  `json:"scheduled_for" db:"scheduled_for"`
	Status       string     `json:"status" db:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
