//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is the full persisted state of the subsystem. Applied once per
// container; tests truncate between runs.
const schema = `
CREATE TABLE IF NOT EXISTS real_name_matches (
	user_id    UUID PRIMARY KEY,
	matched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bank_accounts (
	id                UUID PRIMARY KEY,
	user_id           UUID NOT NULL,
	bank_code         TEXT NOT NULL,
	account_number    TEXT NOT NULL,
	account_holder    TEXT NOT NULL,
	is_verified       BOOLEAN NOT NULL DEFAULT FALSE,
	verified_at       TIMESTAMPTZ,
	pending_depositor TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, bank_code, account_number)
);
CREATE INDEX IF NOT EXISTS idx_bank_accounts_user ON bank_accounts (user_id);

CREATE TABLE IF NOT EXISTS withdrawal_requests (
	id              UUID PRIMARY KEY,
	user_id         UUID NOT NULL,
	bank_account_id UUID NOT NULL,
	points_amount   BIGINT NOT NULL,
	tax_amount      BIGINT NOT NULL,
	final_amount    BIGINT NOT NULL,
	status          TEXT NOT NULL,
	admin_notes     TEXT NOT NULL DEFAULT '',
	processed_by    UUID,
	created_at      TIMESTAMPTZ NOT NULL,
	processed_at    TIMESTAMPTZ,
	completed_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_user ON withdrawal_requests (user_id);
CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_status ON withdrawal_requests (status);
CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_account_status ON withdrawal_requests (bank_account_id, status);

CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	user_id    UUID NOT NULL,
	action     TEXT NOT NULL,
	actor      TEXT NOT NULL,
	subject    TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events (user_id);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cashout_test"),
		tcpostgres.WithUsername("cashout"),
		tcpostgres.WithPassword("cashout"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DSN: dsn, DB: db}
	t.Cleanup(func() {
		_ = pc.DB.Close()
		_ = pc.Container.Terminate(context.Background())
	})
	return pc
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", ")))
	return err
}
