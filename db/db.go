package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"storefront/config"
)

// DB holds the journal database connection, nil when no database is configured
var DB *sql.DB

var schema = []string{`
CREATE TABLE IF NOT EXISTS storefront_activity (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT        NOT NULL,
	username    TEXT,
	product_id  TEXT,
	qty         INTEGER     NOT NULL DEFAULT 0,
	query       TEXT,
	outcome     TEXT        NOT NULL,
	message     TEXT,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS storefront_activity_occurred_at_idx ON storefront_activity (occurred_at DESC)`,
}

// InitDB opens and pings the journal database described by cfg
func InitDB(ctx context.Context, cfg config.DatabaseConfig) error {
	connStr, err := cfg.ConnString()
	if err != nil {
		return err
	}

	conn, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = conn
	return nil
}

// EnsureSchema creates the journal table if it does not exist
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create journal schema: %w", err)
		}
	}
	return nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}
