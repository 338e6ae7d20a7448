package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/internal/database"
	"github.com/forecourtlimited/compliancehub/models"
)

// Store is everything the reminder engines need from the data layer. The
// audit-ledger queries are the only coordination between concurrent passes:
// the engines keep no mutable in-memory state of their own.
type Store interface {
	ListActiveObligations(ctx context.Context, afterID, limit int) ([]models.TaxObligation, error)
	ListActiveSubscriptions(ctx context.Context, afterID, limit int) ([]models.Subscription, error)
	ProfileByUserID(ctx context.Context, userID int) (*models.Profile, error)

	MarkObligationOverdue(ctx context.Context, obligationID int) error
	MarkOverdueReminderSent(ctx context.Context, obligationID int, at time.Time) error

	AppendEvent(ctx context.Context, event *models.ReminderEvent) error
	EventExists(ctx context.Context, entityType string, entityID int, window Window) (bool, error)
	EventExistsOn(ctx context.Context, entityType string, entityID int, window Window, day time.Time) (bool, error)
	EventExistsSince(ctx context.Context, entityType string, entityID int, window Window, since time.Time) (bool, error)

	EnqueueMessage(ctx context.Context, msg *models.ScheduledMessage) error
	DueMessages(ctx context.Context, now time.Time, limit int) ([]models.ScheduledMessage, error)
	MarkMessageSent(ctx context.Context, messageID int, at time.Time) error
	MarkMessageFailed(ctx context.Context, messageID int) error
	MarkMessageCancelled(ctx context.Context, messageID int) error
	HasMessage(ctx context.Context, userID int, window Window) (bool, error)
}

// PGStore adapts the internal/database functions to the Store interface.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ListActiveObligations(ctx context.Context, afterID, limit int) ([]models.TaxObligation, error) {
	return database.ListActiveObligations(ctx, s.pool, afterID, limit)
}

func (s *PGStore) ListActiveSubscriptions(ctx context.Context, afterID, limit int) ([]models.Subscription, error) {
	return database.ListActiveSubscriptions(ctx, s.pool, afterID, limit)
}

func (s *PGStore) ProfileByUserID(ctx context.Context, userID int) (*models.Profile, error) {
	return database.GetProfileByUserID(ctx, s.pool, userID)
}

func (s *PGStore) MarkObligationOverdue(ctx context.Context, obligationID int) error {
	return database.MarkObligationOverdue(ctx, s.pool, obligationID)
}

func (s *PGStore) MarkOverdueReminderSent(ctx context.Context, obligationID int, at time.Time) error {
	return database.MarkOverdueReminderSent(ctx, s.pool, obligationID, at)
}

func (s *PGStore) AppendEvent(ctx context.Context, event *models.ReminderEvent) error {
	return database.AppendReminderEvent(ctx, s.pool, event)
}

func (s *PGStore) EventExists(ctx context.Context, entityType string, entityID int, window Window) (bool, error) {
	return database.ReminderEventExists(ctx, s.pool, entityType, entityID, string(window))
}

func (s *PGStore) EventExistsOn(ctx context.Context, entityType string, entityID int, window Window, day time.Time) (bool, error) {
	return database.ReminderEventExistsOn(ctx, s.pool, entityType, entityID, string(window), day)
}

func (s *PGStore) EventExistsSince(ctx context.Context, entityType string, entityID int, window Window, since time.Time) (bool, error) {
	return database.ReminderEventExistsSince(ctx, s.pool, entityType, entityID, string(window), since)
}

func (s *PGStore) EnqueueMessage(ctx context.Context, msg *models.ScheduledMessage) error {
	return database.EnqueueScheduledMessage(ctx, s.pool, msg)
}

func (s *PGStore) DueMessages(ctx context.Context, now time.Time, limit int) ([]models.ScheduledMessage, error) {
	return database.ListDueScheduledMessages(ctx, s.pool, now, limit)
}

func (s *PGStore) MarkMessageSent(ctx context.Context, messageID int, at time.Time) error {
	return database.MarkScheduledMessageSent(ctx, s.pool, messageID, at)
}

func (s *PGStore) MarkMessageFailed(ctx context.Context, messageID int) error {
	return database.MarkScheduledMessageFailed(ctx, s.pool, messageID)
}

func (s *PGStore) MarkMessageCancelled(ctx context.Context, messageID int) error {
	return database.MarkScheduledMessageCancelled(ctx, s.pool, messageID)
}

func (s *PGStore) HasMessage(ctx context.Context, userID int, window Window) (bool, error) {
	return database.HasScheduledMessage(ctx, s.pool, userID, string(window))
}
