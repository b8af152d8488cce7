// Package history persists finished generations to Postgres as an audit log.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/promobot/core/logger"
	"github.com/m3rciful/promobot/promo"
	"log/slog"
)

// Entry is one recorded generation.
type Entry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Platform  string    `db:"platform"`
	Topic     string    `db:"topic"`
	Output    string    `db:"output"`
	CreatedAt time.Time `db:"created_at"`
}

// Store writes and reads generation history. Implements dialog.Recorder.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record inserts one finished generation.
func (s *Store) Record(ctx context.Context, userID int64, platform promo.Platform, topic, output string) error {
	const q = `
		INSERT INTO generations (user_id, platform, topic, output)
		VALUES ($1, $2, $3, $4)`
	start := time.Now()
	_, err := s.db.ExecContext(ctx, q, userID, string(platform), topic, output)
	if err != nil {
		return fmt.Errorf("history: insert generation: %w", err)
	}
	logger.Debug(ctx, "db", "history.record",
		slog.Int64("user_id", userID),
		slog.String("platform", string(platform)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// CountSince returns the number of generations recorded after the cutoff.
func (s *Store) CountSince(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM generations WHERE created_at >= $1`
	var n int64
	if err := s.db.GetContext(ctx, &n, q, cutoff); err != nil {
		return 0, fmt.Errorf("history: count generations: %w", err)
	}
	return n, nil
}

// RecentByUser returns up to limit latest entries for a user, newest first.
func (s *Store) RecentByUser(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT id, user_id, platform, topic, output, created_at
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, q, userID, limit); err != nil {
		return nil, fmt.Errorf("history: select generations: %w", err)
	}
	return out, nil
}
