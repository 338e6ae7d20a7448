package models

import "time"

const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

type Subscription struct {
	ID         int       `json:"id" db:"id"`
	UserID     int       `json:"user_id" db:"user_id"`
	Plan       string    `json:"plan" db:"plan"`
	Status     string    `json:"status" db:"status"`
	ExpiryDate time.Time `json:"expiry_date" db:"expiry_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
