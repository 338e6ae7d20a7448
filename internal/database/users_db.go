package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/forecourtlimited/compliancehub/models"
)

func RegisterUser(ctx context.Context, pool *pgxpool.Pool, user *models.User) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %v", err)
	}

	query := `
		INSERT INTO users (email, password, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err = pool.QueryRow(ctx, query, user.Email, string(hash), user.Name).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("registering user: %v", err)
	}
	user.Password = ""
	return nil
}

func AuthenticateUser(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.User, error) {
	query := `
		SELECT id, email, password, name, is_admin, created_at
		FROM users
		WHERE email = $1`

	user := &models.User{}
	err := pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Name,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invalid email or password")
		}
		return nil, fmt.Errorf("fetching user: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	user.Password = ""
	return user, nil
}

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, userID int) (*models.User, error) {
	query := `
		SELECT id, email, name, is_admin, created_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := pool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d not found", userID)
		}
		return nil, fmt.Errorf("fetching user: %v", err)
	}
	return user, nil
}
