package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// TurnRecord is one handled dialog turn, stored for diagnostics only.
// Fares themselves are never persisted and nothing here feeds back
// into dialog handling.
type TurnRecord struct {
	ID        int64     `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	Command   string    `db:"command" json:"command"`
	Intent    string    `db:"intent" json:"intent"`
	ReplyText string    `db:"reply_text" json:"reply_text"`
	LatencyMs int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresRepository{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) ensureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS dialog_turns (
			id BIGSERIAL PRIMARY KEY,
			request_id TEXT NOT NULL,
			command TEXT NOT NULL,
			intent TEXT NOT NULL,
			reply_text TEXT NOT NULL,
			latency_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure dialog_turns table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// SaveTurn records one handled turn.
func (r *PostgresRepository) SaveTurn(ctx context.Context, rec *TurnRecord) error {
	query := `
		INSERT INTO dialog_turns (request_id, command, intent, reply_text, latency_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, rec.RequestID, rec.Command, rec.Intent, rec.ReplyText, rec.LatencyMs)
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// RecentTurns returns the most recently handled turns, newest first.
func (r *PostgresRepository) RecentTurns(ctx context.Context, limit int) ([]TurnRecord, error) {
	query := `
		SELECT id, request_id, command, intent, reply_text, latency_ms, created_at
		FROM dialog_turns
		ORDER BY created_at DESC
		LIMIT $1
	`
	var turns []TurnRecord
	if err := r.db.SelectContext(ctx, &turns, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch recent turns: %w", err)
	}
	return turns, nil
}
