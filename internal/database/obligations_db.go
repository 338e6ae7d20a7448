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

const obligationColumns = `id, user_id, obligation_type, frequency, tax_period, due_date,
	is_active, payment_status, last_overdue_reminder, overdue_reminder_count, created_at`

func CreateObligation(ctx context.Context, pool *pgxpool.Pool, ob *models.TaxObligation) error {
	if !models.ValidObligationType(ob.ObligationType) {
		return fmt.Errorf("unknown obligation type %q", ob.ObligationType)
	}
	if ob.DueDate.IsZero() {
		return fmt.Errorf("obligation due date is required")
	}
	if ob.PaymentStatus == "" {
		ob.PaymentStatus = models.PaymentStatusPending
	}
	if ob.Frequency == "" {
		if ob.ObligationType == models.ObligationCAC {
			ob.Frequency = "yearly"
		} else {
			ob.Frequency = "monthly"
		}
	}

	query := `
		INSERT INTO tax_obligations (user_id, obligation_type, frequency, tax_period, due_date, is_active, payment_status)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING id, created_at`
	err := pool.QueryRow(ctx, query,
		ob.UserID,
		ob.ObligationType,
		ob.Frequency,
		ob.TaxPeriod,
		ob.DueDate,
		ob.PaymentStatus).Scan(&ob.ID, &ob.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating obligation: %v", err)
	}
	ob.IsActive = true
	return nil
}

func GetObligationByID(ctx context.Context, pool *pgxpool.Pool, obligationID int) (*models.TaxObligation, error) {
	row := pool.QueryRow(ctx, `SELECT `+obligationColumns+` FROM tax_obligations WHERE id = $1`, obligationID)
	ob, err := scanObligation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("obligation %d not found", obligationID)
		}
		return nil, fmt.Errorf("fetching obligation: %v", err)
	}
	return ob, nil
}

func ListObligationsByUserID(ctx context.Context, pool *pgxpool.Pool, userID int) ([]models.TaxObligation, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+obligationColumns+`
		FROM tax_obligations
		WHERE user_id = $1
		ORDER BY due_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing obligations: %v", err)
	}
	defer rows.Close()
	return collectObligations(rows)
}

// ListActiveObligations pages through every active obligation using keyset
// pagination so a reminder pass never loads the whole table at once.
func ListActiveObligations(ctx context.Context, pool *pgxpool.Pool, afterID, limit int) ([]models.TaxObligation, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+obligationColumns+`
		FROM tax_obligations
		WHERE is_active = TRUE AND id > $1
		ORDER BY id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing active obligations: %v", err)
	}
	defer rows.Close()
	return collectObligations(rows)
}

func collectObligations(rows pgx.Rows) ([]models.TaxObligation, error) {
	var obligations []models.TaxObligation
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning obligation: %v", err)
		}
		obligations = append(obligations, *ob)
	}
	return obligations, rows.Err()
}

func scanObligation(row pgx.Row) (*models.TaxObligation, error) {
	ob := &models.TaxObligation{}
	err := row.Scan(
		&ob.ID,
		&ob.UserID,
		&ob.ObligationType,
		&ob.Frequency,
		&ob.TaxPeriod,
		&ob.DueDate,
		&ob.IsActive,
		&ob.PaymentStatus,
		&ob.LastOverdueReminder,
		&ob.OverdueReminderCount,
		&ob.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ob, nil
}

// UpdateObligationDueDate moves the deadline and resets the overdue reminder
// markers: the old markers belong to the old deadline and would otherwise
// suppress reminders for the new one.
func UpdateObligationDueDate(ctx context.Context, pool *pgxpool.Pool, obligationID int, dueDate time.Time, taxPeriod string) error {
	query := `
		UPDATE tax_obligations
		SET due_date = $1,
		    tax_period = $2,
		    last_overdue_reminder = NULL,
		    overdue_reminder_count = 0,
		    payment_status = CASE WHEN payment_status = 'overdue' THEN 'pending' ELSE payment_status END
		WHERE id = $3`
	result, err := pool.Exec(ctx, query, dueDate, taxPeriod, obligationID)
	if err != nil {
		return fmt.Errorf("updating obligation due date: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("obligation %d not found", obligationID)
	}
	return nil
}

func MarkObligationPaid(ctx context.Context, pool *pgxpool.Pool, obligationID int) error {
	result, err := pool.Exec(ctx, `
		UPDATE tax_obligations
		SET payment_status = 'paid'
		WHERE id = $1`, obligationID)
	if err != nil {
		return fmt.Errorf("marking obligation paid: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("obligation %d not found", obligationID)
	}
	return nil
}

func MarkObligationOverdue(ctx context.Context, pool *pgxpool.Pool, obligationID int) error {
	_, err := pool.Exec(ctx, `
		UPDATE tax_obligations
		SET payment_status = 'overdue'
		WHERE id = $1 AND payment_status = 'pending'`, obligationID)
	if err != nil {
		return fmt.Errorf("marking obligation overdue: %v", err)
	}
	return nil
}

func MarkOverdueReminderSent(ctx context.Context, pool *pgxpool.Pool, obligationID int, at time.Time) error {
	_, err := pool.Exec(ctx, `
		UPDATE tax_obligations
		SET last_overdue_reminder = $1,
		    overdue_reminder_count = overdue_reminder_count + 1
		WHERE id = $2`, at, obligationID)
	if err != nil {
		return fmt.Errorf("recording overdue reminder: %v", err)
	}
	return nil
}

// DeactivateObligation soft-deletes: reminder history references the row, so
// it is never removed outright.
func DeactivateObligation(ctx context.Context, pool *pgxpool.Pool, obligationID int) error {
	result, err := pool.Exec(ctx, `
		UPDATE tax_obligations
		SET is_active = FALSE
		WHERE id = $1`, obligationID)
	if err != nil {
		return fmt.Errorf("deactivating obligation: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("obligation %d not found", obligationID)
	}
	return nil
}
