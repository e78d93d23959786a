package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "cashout/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL. Pure I/O.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, user_id, action, actor, subject, detail, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		event.UserID.String(),
		string(event.Action),
		event.Actor,
		event.Subject,
		event.Detail,
		event.Note,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Event, error) {
	query := `
		SELECT occurred_at, action, actor, subject, detail, note
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e := Event{UserID: userID}
		var action string
		if err := rows.Scan(&e.Timestamp, &action, &e.Actor, &e.Subject, &e.Detail, &e.Note); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
