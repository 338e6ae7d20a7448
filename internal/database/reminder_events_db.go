package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/models"
)

// AppendReminderEvent writes one audit row. The ledger is append-only; there
// are deliberately no update or delete functions in this file.
func AppendReminderEvent(ctx context.Context, pool *pgxpool.Pool, event *models.ReminderEvent) error {
	query := `
		INSERT INTO reminder_events
			(user_id, entity_type, entity_id, "window", channel, status, provider_id, message_content, error_message, scheduled_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := pool.QueryRow(ctx, query,
		event.UserID,
		event.EntityType,
		event.EntityID,
		event.Window,
		event.Channel,
		event.Status,
		event.ProviderID,
		event.MessageContent,
		event.ErrorMessage,
		event.ScheduledAt,
		event.SentAt).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("appending reminder event: %v", err)
	}
	return nil
}

// ReminderEventExists reports whether a sent event for (entity, window) was
// ever recorded. Used for the discrete windows that fire once total.
func ReminderEventExists(ctx context.Context, pool *pgxpool.Pool, entityType string, entityID int, window string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_events
			WHERE entity_type = $1 AND entity_id = $2 AND "window" = $3 AND status = 'sent'
		)`, entityType, entityID, window).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying reminder events: %v", err)
	}
	return exists, nil
}

// ReminderEventExistsOn is the per-calendar-day variant used by the
// overdue-daily window.
func ReminderEventExistsOn(ctx context.Context, pool *pgxpool.Pool, entityType string, entityID int, window string, day time.Time) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_events
			WHERE entity_type = $1 AND entity_id = $2 AND "window" = $3 AND status = 'sent'
			  AND sent_at::date = $4::date
		)`, entityType, entityID, window, day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying reminder events: %v", err)
	}
	return exists, nil
}

// ReminderEventExistsSince checks sent events recorded at or after since.
// Used by the subscription engine so expiry dedup is scoped to the current
// expiry cycle rather than once ever.
func ReminderEventExistsSince(ctx context.Context, pool *pgxpool.Pool, entityType string, entityID int, window string, since time.Time) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_events
			WHERE entity_type = $1 AND entity_id = $2 AND "window" = $3 AND status = 'sent'
			  AND scheduled_at >= $4
		)`, entityType, entityID, window, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying reminder events: %v", err)
	}
	return exists, nil
}

func ListReminderEventsByUserID(ctx context.Context, pool *pgxpool.Pool, userID, limit int) ([]models.ReminderEvent, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, user_id, entity_type, entity_id, "window", channel, status, provider_id, message_content, error_message, scheduled_at, sent_at
		FROM reminder_events
		WHERE user_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reminder events: %v", err)
	}
	defer rows.Close()

	var events []models.ReminderEvent
	for rows.Next() {
		var ev models.ReminderEvent
		err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.EntityType,
			&ev.EntityID,
			&ev.Window,
			&ev.Channel,
			&ev.Status,
			&ev.ProviderID,
			&ev.MessageContent,
			&ev.ErrorMessage,
			&ev.ScheduledAt,
			&ev.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning reminder event: %v", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func CountRemindersSentSince(ctx context.Context, pool *pgxpool.Pool, userID int, since time.Time) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM reminder_events
		WHERE user_id = $1 AND status = 'sent' AND sent_at >= $2`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting reminder events: %v", err)
	}
	return count, nil
}
