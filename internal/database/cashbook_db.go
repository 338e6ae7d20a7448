package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forecourtlimited/compliancehub/models"
)

func CreateCashbookEntry(ctx context.Context, pool *pgxpool.Pool, entry *models.CashbookEntry) error {
	if entry.EntryType != models.EntryIncome && entry.EntryType != models.EntryExpense {
		return fmt.Errorf("unknown entry type %q", entry.EntryType)
	}
	if entry.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("entry amount must be positive")
	}

	query := `
		INSERT INTO cashbook_entries (user_id, entry_type, description, category, amount, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := pool.QueryRow(ctx, query,
		entry.UserID,
		entry.EntryType,
		entry.Description,
		entry.Category,
		entry.Amount,
		entry.EntryDate).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating cashbook entry: %v", err)
	}
	return nil
}

func GetCashbookEntryByID(ctx context.Context, pool *pgxpool.Pool, entryID int) (*models.CashbookEntry, error) {
	query := `
		SELECT id, user_id, entry_type, description, category, amount, entry_date, created_at
		FROM cashbook_entries
		WHERE id = $1`

	entry := &models.CashbookEntry{}
	err := pool.QueryRow(ctx, query, entryID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryType,
		&entry.Description,
		&entry.Category,
		&entry.Amount,
		&entry.EntryDate,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cashbook entry %d not found", entryID)
		}
		return nil, fmt.Errorf("fetching cashbook entry: %v", err)
	}
	return entry, nil
}

func ListCashbookEntriesByUserID(ctx context.Context, pool *pgxpool.Pool, userID int) ([]models.CashbookEntry, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, user_id, entry_type, description, category, amount, entry_date, created_at
		FROM cashbook_entries
		WHERE user_id = $1
		ORDER BY entry_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cashbook entries: %v", err)
	}
	defer rows.Close()

	var entries []models.CashbookEntry
	for rows.Next() {
		var entry models.CashbookEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.EntryType,
			&entry.Description,
			&entry.Category,
			&entry.Amount,
			&entry.EntryDate,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning cashbook entry: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func UpdateCashbookEntry(ctx context.Context, pool *pgxpool.Pool, entry *models.CashbookEntry) error {
	result, err := pool.Exec(ctx, `
		UPDATE cashbook_entries
		SET entry_type = $1, description = $2, category = $3, amount = $4, entry_date = $5
		WHERE id = $6`,
		entry.EntryType,
		entry.Description,
		entry.Category,
		entry.Amount,
		entry.EntryDate,
		entry.ID)
	if err != nil {
		return fmt.Errorf("updating cashbook entry: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cashbook entry %d not found", entry.ID)
	}
	return nil
}

func DeleteCashbookEntry(ctx context.Context, pool *pgxpool.Pool, entryID int) error {
	result, err := pool.Exec(ctx, `DELETE FROM cashbook_entries WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("deleting cashbook entry: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cashbook entry %d not found", entryID)
	}
	return nil
}
