package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/models"
)

func CreateSubscription(ctx context.Context, pool *pgxpool.Pool, sub *models.Subscription) error {
	if sub.ExpiryDate.IsZero() {
		return fmt.Errorf("subscription expiry date is required")
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionActive
	}

	query := `
		INSERT INTO subscriptions (user_id, plan, status, expiry_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := pool.QueryRow(ctx, query, sub.UserID, sub.Plan, sub.Status, sub.ExpiryDate).
		Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating subscription: %v", err)
	}
	return nil
}

func GetSubscriptionByUserID(ctx context.Context, pool *pgxpool.Pool, userID int) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan, status, expiry_date, created_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY expiry_date DESC
		LIMIT 1`

	sub := &models.Subscription{}
	err := pool.QueryRow(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Plan,
		&sub.Status,
		&sub.ExpiryDate,
		&sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no active subscription for user %d", userID)
		}
		return nil, fmt.Errorf("fetching subscription: %v", err)
	}
	return sub, nil
}

// ListActiveSubscriptions pages with the same keyset scheme as obligations.
func ListActiveSubscriptions(ctx context.Context, pool *pgxpool.Pool, afterID, limit int) ([]models.Subscription, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, user_id, plan, status, expiry_date, created_at
		FROM subscriptions
		WHERE status = 'active' AND id > $1
		ORDER BY id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing active subscriptions: %v", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.ExpiryDate, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning subscription: %v", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func RenewSubscription(ctx context.Context, pool *pgxpool.Pool, subscriptionID int, expiryDate time.Time) error {
	result, err := pool.Exec(ctx, `
		UPDATE subscriptions
		SET expiry_date = $1, status = 'active'
		WHERE id = $2`, expiryDate, subscriptionID)
	if err != nil {
		return fmt.Errorf("renewing subscription: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("subscription %d not found", subscriptionID)
	}
	return nil
}

func CancelSubscription(ctx context.Context, pool *pgxpool.Pool, subscriptionID int) error {
	result, err := pool.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'inactive'
		WHERE id = $1`, subscriptionID)
	if err != nil {
		return fmt.Errorf("cancelling subscription: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("subscription %d not found", subscriptionID)
	}
	return nil
}
