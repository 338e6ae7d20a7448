package models

import "time"

const (
	EntityObligation   = "obligation"
	EntitySubscription = "subscription"
	EntityProfile      = "profile"
	EntityMessage      = "message"
)

const (
	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderEvent is one row of the reminder audit trail. Rows are append-only:
// they are written once after a delivery attempt and never updated or
// deleted, so the ledger doubles as the dedup source for the reminder
// engines and as the compliance history shown to the user.
type ReminderEvent struct {
	ID             int        `json:"id" db:"id"`
	UserID         int        `json:"user_id" db:"user_id"`
	EntityType     string     `json:"entity_type" db:"entity_type"`
	EntityID       int        `json:"entity_id" db:"entity_id"`
	Window         string     `json:"window" db:"window"`
	Channel        string     `json:"channel" db:"channel"`
	Status         string     `json:"status" db:"status"`
	ProviderID     string     `json:"provider_id" db:"provider_id"`
	MessageContent string     `json:"message_content" db:"message_content"`
	ErrorMessage   string     `json:"error_message" db:"error_message"`
	ScheduledAt    time.Time  `json:"scheduled_at" db:"scheduled_at"`
	SentAt         *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}
