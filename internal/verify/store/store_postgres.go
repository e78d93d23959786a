package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "cashout/pkg/domain"
)

// PostgresStore persists Matched real-name results in PostgreSQL.
// Pure I/O; cycle policy (when a match lapses) belongs to the service layer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed real-name match store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RecordMatched(ctx context.Context, userID id.UserID, at time.Time) error {
	query := `
		INSERT INTO real_name_matches (user_id, matched_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET matched_at = EXCLUDED.matched_at
	`
	if _, err := s.db.ExecContext(ctx, query, userID.String(), at); err != nil {
		return fmt.Errorf("record matched: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsMatched(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM real_name_matches WHERE user_id = $1)`
	if err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check matched: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM real_name_matches WHERE user_id = $1`, userID.String()); err != nil {
		return fmt.Errorf("clear matched: %w", err)
	}
	return nil
}
