package store

import (
	"context"
	"database/sql"
	"fmt"

	"cashout/internal/bankaccount/models"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
)

// PostgresStore persists bank accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, user_id, bank_code, account_number, account_holder,
	is_verified, verified_at, pending_depositor, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		a.ID.String(), a.UserID.String(), a.BankCode, a.AccountNumber, a.AccountHolder,
		a.IsVerified, a.VerifiedAt, a.PendingDepositor, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create bank account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create bank account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, accountID id.BankAccountID) (*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE id = $1`
	a, err := scanAccount(s.db.QueryRowContext(ctx, query, accountID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get bank account: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE user_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.BankAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list bank accounts: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET is_verified = $1, verified_at = $2, pending_depositor = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		a.IsVerified, a.VerifiedAt, a.PendingDepositor, a.UpdatedAt, a.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.BankAccount, error) {
	var (
		a              models.BankAccount
		rawID, rawUser string
	)
	if err := row.Scan(
		&rawID, &rawUser, &a.BankCode, &a.AccountNumber, &a.AccountHolder,
		&a.IsVerified, &a.VerifiedAt, &a.PendingDepositor, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if a.ID, err = id.ParseBankAccountID(rawID); err != nil {
		return nil, fmt.Errorf("stored account id: %w", err)
	}
	if a.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("stored user id: %w", err)
	}
	return &a, nil
}
