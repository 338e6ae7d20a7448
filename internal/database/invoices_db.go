package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/models"
)

func CreateInvoice(ctx context.Context, pool *pgxpool.Pool, invoice *models.Invoice) error {
	if invoice.Amount.IsNegative() {
		return fmt.Errorf("invoice amount must not be negative")
	}
	if invoice.Number == "" {
		invoice.Number = "INV-" + strings.ToUpper(uuid.NewString()[:8])
	}
	if invoice.Status == "" {
		invoice.Status = models.InvoiceDraft
	}

	query := `
		INSERT INTO invoices (user_id, number, client_name, client_email, amount, vat_amount, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := pool.QueryRow(ctx, query,
		invoice.UserID,
		invoice.Number,
		invoice.ClientName,
		invoice.ClientEmail,
		invoice.Amount,
		invoice.VATAmount,
		invoice.Status,
		invoice.DueDate).Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating invoice: %v", err)
	}
	return nil
}

func GetInvoiceByID(ctx context.Context, pool *pgxpool.Pool, invoiceID int) (*models.Invoice, error) {
	query := `
		SELECT id, user_id, number, client_name, client_email, amount, vat_amount, status, due_date, created_at
		FROM invoices
		WHERE id = $1`

	invoice := &models.Invoice{}
	err := pool.QueryRow(ctx, query, invoiceID).Scan(
		&invoice.ID,
		&invoice.UserID,
		&invoice.Number,
		&invoice.ClientName,
		&invoice.ClientEmail,
		&invoice.Amount,
		&invoice.VATAmount,
		&invoice.Status,
		&invoice.DueDate,
		&invoice.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("fetching invoice: %v", err)
	}
	return invoice, nil
}

func ListInvoicesByUserID(ctx context.Context, pool *pgxpool.Pool, userID int) ([]models.Invoice, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, user_id, number, client_name, client_email, amount, vat_amount, status, due_date, created_at
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %v", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var invoice models.Invoice
		err := rows.Scan(
			&invoice.ID,
			&invoice.UserID,
			&invoice.Number,
			&invoice.ClientName,
			&invoice.ClientEmail,
			&invoice.Amount,
			&invoice.VATAmount,
			&invoice.Status,
			&invoice.DueDate,
			&invoice.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %v", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func UpdateInvoiceStatus(ctx context.Context, pool *pgxpool.Pool, invoiceID int, status string) error {
	switch status {
	case models.InvoiceDraft, models.InvoiceSent, models.InvoicePaid:
	default:
		return fmt.Errorf("unknown invoice status %q", status)
	}
	result, err := pool.Exec(ctx, `UPDATE invoices SET status = $1 WHERE id = $2`, status, invoiceID)
	if err != nil {
		return fmt.Errorf("updating invoice: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d not found", invoiceID)
	}
	return nil
}

func DeleteInvoice(ctx context.Context, pool *pgxpool.Pool, invoiceID int) error {
	result, err := pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status = 'draft'`, invoiceID)
	if err != nil {
		return fmt.Errorf("deleting invoice: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d not found or not a draft", invoiceID)
	}
	return nil
}
