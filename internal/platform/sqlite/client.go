package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"contest-bot-backend/internal/common/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS contests (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL,
	prize               TEXT NOT NULL,
	image_url           TEXT NOT NULL DEFAULT '',
	button_text         TEXT NOT NULL DEFAULT '',
	button_url          TEXT NOT NULL DEFAULT '',
	target_channel_id   TEXT NOT NULL DEFAULT '',
	telegram_chat_id    INTEGER,
	telegram_message_id INTEGER,
	published_at        TIMESTAMP,
	created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS contest_participants (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	contest_id     TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	joined_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_contest_participants_contest_id ON contest_participants(contest_id);
`

type Client struct {
	db *sql.DB
}

// NewClient opens (or creates) the database at path and ensures the schema.
// Uses the pure-Go modernc driver, so no CGO is needed.
func NewClient(path string) (*Client, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite client initialized")

	return &Client{db: db}, nil
}

func (c *Client) GetDB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
