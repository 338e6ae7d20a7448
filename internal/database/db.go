package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Connect opens a pgx connection pool against the given URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %v", err)
	}
	return pool, nil
}

// ConnectFromEnv builds the connection string from .env variables. Used by
// the integration tests.
func ConnectFromEnv(ctx context.Context) (*pgxpool.Pool, error) {
	_ = godotenv.Load()

	if url := os.Getenv("DATABASE_URL"); url != "" {
		return Connect(ctx, url)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_HOST"), 5432, os.Getenv("DB_NAME"))
	return Connect(ctx, connStr)
}
