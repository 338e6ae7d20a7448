package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/models"
)

// GetComplianceSummary aggregates the numbers shown on the dashboard,
// including how many reminders actually went out this month.
func GetComplianceSummary(ctx context.Context, pool *pgxpool.Pool, userID int) (*models.ComplianceSummary, error) {
	summary := &models.ComplianceSummary{}
	now := time.Now()

	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tax_obligations
		WHERE user_id = $1 AND is_active = TRUE AND payment_status = 'pending'
		  AND due_date BETWEEN $2 AND $3`,
		userID, now, now.AddDate(0, 0, 30)).Scan(&summary.UpcomingObligations)
	if err != nil {
		return nil, fmt.Errorf("counting upcoming obligations: %v", err)
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tax_obligations
		WHERE user_id = $1 AND is_active = TRUE AND payment_status = 'overdue'`,
		userID).Scan(&summary.OverdueObligations)
	if err != nil {
		return nil, fmt.Errorf("counting overdue obligations: %v", err)
	}

	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tax_obligations
		WHERE user_id = $1 AND payment_status = 'paid' AND due_date >= $2`,
		userID, yearStart).Scan(&summary.PaidThisYear)
	if err != nil {
		return nil, fmt.Errorf("counting paid obligations: %v", err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	summary.RemindersThisMonth, err = CountRemindersSentSince(ctx, pool, userID, monthStart)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
