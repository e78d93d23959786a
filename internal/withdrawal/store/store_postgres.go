package store

import (
	"context"
	"database/sql"
	"fmt"

	"cashout/internal/withdrawal/models"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
)

// PostgresStore persists withdrawal requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const withdrawalColumns = `id, user_id, bank_account_id, points_amount, tax_amount, final_amount,
	status, admin_notes, processed_by, created_at, processed_at, completed_at`

func (s *PostgresStore) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	var processedBy *string
	if w.ProcessedBy != nil {
		v := w.ProcessedBy.String()
		processedBy = &v
	}
	res, err := s.db.ExecContext(ctx, query,
		w.ID.String(), w.UserID.String(), w.BankAccountID.String(),
		w.PointsAmount, w.TaxAmount, w.FinalAmount,
		string(w.Status), w.AdminNotes, processedBy,
		w.CreatedAt, w.ProcessedAt, w.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, withdrawalID id.WithdrawalID) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, query, withdrawalID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id = $1 ORDER BY created_at`
	return s.list(ctx, query, userID.String())
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE status = $1 ORDER BY created_at`
	return s.list(ctx, query, string(status))
}

func (s *PostgresStore) ListByAccountAndStatus(ctx context.Context, accountID id.BankAccountID, status models.Status) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE bank_account_id = $1 AND status = $2 ORDER BY created_at`
	return s.list(ctx, query, accountID.String(), string(status))
}

// UpdateIfStatus performs a conditional write keyed on the expected current
// state. Two concurrent admin actions on the same request cannot both
// succeed: the second one finds the row already moved and gets
// ErrStateMismatch.
func (s *PostgresStore) UpdateIfStatus(ctx context.Context, w *models.WithdrawalRequest, expected models.Status) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, admin_notes = $2, processed_by = $3, processed_at = $4, completed_at = $5
		WHERE id = $6 AND status = $7
	`
	var processedBy *string
	if w.ProcessedBy != nil {
		v := w.ProcessedBy.String()
		processedBy = &v
	}
	res, err := s.db.ExecContext(ctx, query,
		string(w.Status), w.AdminNotes, processedBy, w.ProcessedAt, w.CompletedAt,
		w.ID.String(), string(expected),
	)
	if err != nil {
		return fmt.Errorf("update withdrawal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update withdrawal: %w", err)
	}
	if affected == 0 {
		if _, getErr := s.Get(ctx, w.ID); getErr != nil {
			return getErr
		}
		return sentinel.ErrStateMismatch
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []*models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWithdrawal(row rowScanner) (*models.WithdrawalRequest, error) {
	var (
		w           models.WithdrawalRequest
		rawID       string
		rawUser     string
		rawAccount  string
		rawStatus   string
		processedBy sql.NullString
	)
	err := row.Scan(&rawID, &rawUser, &rawAccount,
		&w.PointsAmount, &w.TaxAmount, &w.FinalAmount,
		&rawStatus, &w.AdminNotes, &processedBy,
		&w.CreatedAt, &w.ProcessedAt, &w.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	withdrawalID, err := id.ParseWithdrawalID(rawID)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawUser)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseBankAccountID(rawAccount)
	if err != nil {
		return nil, err
	}
	w.ID, w.UserID, w.BankAccountID = withdrawalID, userID, accountID
	w.Status = models.Status(rawStatus)
	if processedBy.Valid {
		adminID, err := id.ParseAdminID(processedBy.String)
		if err != nil {
			return nil, err
		}
		w.ProcessedBy = &adminID
	}
	return &w, nil
}
