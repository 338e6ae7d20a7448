package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/models"
)

func EnqueueScheduledMessage(ctx context.Context, pool *pgxpool.Pool, msg *models.ScheduledMessage) error {
	if msg.Status == "" {
		msg.Status = models.MessagePending
	}

	query := `
		INSERT INTO scheduled_messages
			(user_id, "window", subject, body, target_email, target_phone, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := pool.QueryRow(ctx, query,
		msg.UserID,
		msg.Window,
		msg.Subject,
		msg.Body,
		msg.TargetEmail,
		msg.TargetPhone,
		msg.ScheduledFor,
		msg.Status).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueueing scheduled message: %v", err)
	}
	return nil
}

// ListDueScheduledMessages returns pending messages whose fire time has
// arrived. Limit keeps one dispatch pass bounded.
func ListDueScheduledMessages(ctx context.Context, pool *pgxpool.Pool, now time.Time, limit int) ([]models.ScheduledMessage, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, user_id, "window", subject, body, target_email, target_phone, scheduled_for, status, sent_at, created_at
		FROM scheduled_messages
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY scheduled_for
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("listing due messages: %v", err)
	}
	defer rows.Close()

	var msgs []models.ScheduledMessage
	for rows.Next() {
		var msg models.ScheduledMessage
		err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Window,
			&msg.Subject,
			&msg.Body,
			&msg.TargetEmail,
			&msg.TargetPhone,
			&msg.ScheduledFor,
			&msg.Status,
			&msg.SentAt,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning scheduled message: %v", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func MarkScheduledMessageSent(ctx context.Context, pool *pgxpool.Pool, messageID int, at time.Time) error {
	return setScheduledMessageStatus(ctx, pool, messageID, models.MessageSent, &at)
}

func MarkScheduledMessageFailed(ctx context.Context, pool *pgxpool.Pool, messageID int) error {
	return setScheduledMessageStatus(ctx, pool, messageID, models.MessageFailed, nil)
}

func MarkScheduledMessageCancelled(ctx context.Context, pool *pgxpool.Pool, messageID int) error {
	return setScheduledMessageStatus(ctx, pool, messageID, models.MessageCancelled, nil)
}

func setScheduledMessageStatus(ctx context.Context, pool *pgxpool.Pool, messageID int, status string, sentAt *time.Time) error {
	result, err := pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = $1, sent_at = $2
		WHERE id = $3`, status, sentAt, messageID)
	if err != nil {
		return fmt.Errorf("updating scheduled message: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("scheduled message %d not found", messageID)
	}
	return nil
}

// HasScheduledMessage reports whether a non-failed message for (user, window)
// already exists, so onboarding steps are not enqueued twice.
func HasScheduledMessage(ctx context.Context, pool *pgxpool.Pool, userID int, window string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM scheduled_messages
			WHERE user_id = $1 AND "window" = $2 AND status IN ('pending', 'sent')
		)`, userID, window).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying scheduled messages: %v", err)
	}
	return exists, nil
}
