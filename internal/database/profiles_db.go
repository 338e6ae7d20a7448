package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecourtlimited/compliancehub/models"
)

func CreateProfile(ctx context.Context, pool *pgxpool.Pool, profile *models.Profile) error {
	if profile.Plan == "" {
		profile.Plan = models.PlanFree
	}

	query := `
		INSERT INTO profiles (user_id, business_name, email, phone, email_verified, plan, cac_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := pool.QueryRow(ctx, query,
		profile.UserID,
		profile.BusinessName,
		profile.Email,
		profile.Phone,
		profile.EmailVerified,
		profile.Plan,
		profile.CACNumber).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating profile: %v", err)
	}
	return nil
}

func GetProfileByID(ctx context.Context, pool *pgxpool.Pool, profileID int) (*models.Profile, error) {
	return scanProfile(pool.QueryRow(ctx, `
		SELECT id, user_id, business_name, email, phone, email_verified, plan, cac_number, created_at
		FROM profiles
		WHERE id = $1`, profileID), profileID)
}

func GetProfileByUserID(ctx context.Context, pool *pgxpool.Pool, userID int) (*models.Profile, error) {
	return scanProfile(pool.QueryRow(ctx, `
		SELECT id, user_id, business_name, email, phone, email_verified, plan, cac_number, created_at
		FROM profiles
		WHERE user_id = $1`, userID), userID)
}

func scanProfile(row pgx.Row, id int) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.BusinessName,
		&profile.Email,
		&profile.Phone,
		&profile.EmailVerified,
		&profile.Plan,
		&profile.CACNumber,
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for id %d not found", id)
		}
		return nil, fmt.Errorf("fetching profile: %v", err)
	}
	return profile, nil
}

func UpdateProfile(ctx context.Context, pool *pgxpool.Pool, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET business_name = $1, email = $2, phone = $3, plan = $4, cac_number = $5
		WHERE id = $6`
	result, err := pool.Exec(ctx, query,
		profile.BusinessName,
		profile.Email,
		profile.Phone,
		profile.Plan,
		profile.CACNumber,
		profile.ID)
	if err != nil {
		return fmt.Errorf("updating profile: %v", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %d not found", profile.ID)
	}
	return nil
}

// MarkEmailVerified flips the verified flag. Returns true when the flag
// actually changed, so callers can kick off onboarding exactly once.
func MarkEmailVerified(ctx context.Context, pool *pgxpool.Pool, profileID int) (bool, error) {
	query := `
		UPDATE profiles
		SET email_verified = TRUE
		WHERE id = $1 AND email_verified = FALSE`
	result, err := pool.Exec(ctx, query, profileID)
	if err != nil {
		return false, fmt.Errorf("marking email verified: %v", err)
	}
	return result.RowsAffected() > 0, nil
}
