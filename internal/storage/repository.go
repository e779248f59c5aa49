package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

// ErrAccountNotFound is returned when no account row exists for an identity.
var ErrAccountNotFound = errors.New("account not found")

// SQLiteRepository persists budget accounts. Each SaveAccount call writes
// the whole aggregate (account row plus sub-division rows) in a single
// transaction, so readers never observe a partially applied command.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetAccount loads an account aggregate by identity, sub-divisions in
// insertion order. Returns ErrAccountNotFound when the identity has never
// been written.
func (r *SQLiteRepository) GetAccount(ctx context.Context, identity string) (*core.Account, error) {
	acct := core.NewAccount(identity)

	var initialized int64
	row := r.db.QueryRowContext(ctx, `
		SELECT income_cents, initialized,
		       needs_allocated_cents, needs_spent_cents,
		       wants_allocated_cents, wants_spent_cents,
		       savings_allocated_cents, savings_spent_cents
		FROM accounts WHERE identity = ?`, identity)
	err := row.Scan(
		&acct.Income.Cents, &initialized,
		&acct.Needs.TotalAllocated.Cents, &acct.Needs.Spent.Cents,
		&acct.Wants.TotalAllocated.Cents, &acct.Wants.Spent.Cents,
		&acct.Savings.TotalAllocated.Cents, &acct.Savings.Spent.Cents,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", identity, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	acct.Initialized = initialized != 0

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, name, amount_cents, spent_cents
		FROM sub_divisions WHERE identity = ?
		ORDER BY category, position`, identity)
	if err != nil {
		return nil, fmt.Errorf("select sub-divisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var sd core.SubDivision
		if err := rows.Scan(&category, &sd.Name, &sd.Amount.Cents, &sd.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan sub-division: %w", err)
		}
		ledger, ok := acct.Ledger(core.Category(category))
		if !ok {
			return nil, fmt.Errorf("stored sub-division %q has unknown category %q", sd.Name, category)
		}
		ledger.SubDivisions = append(ledger.SubDivisions, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub-divisions: %w", err)
	}

	return acct, nil
}

// SaveAccount upserts the aggregate in one transaction, replacing the
// identity's sub-division rows wholesale.
func (r *SQLiteRepository) SaveAccount(ctx context.Context, acct *core.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	initialized := 0
	if acct.Initialized {
		initialized = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (
			identity, income_cents, initialized,
			needs_allocated_cents, needs_spent_cents,
			wants_allocated_cents, wants_spent_cents,
			savings_allocated_cents, savings_spent_cents, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity) DO UPDATE SET
			income_cents = excluded.income_cents,
			initialized = excluded.initialized,
			needs_allocated_cents = excluded.needs_allocated_cents,
			needs_spent_cents = excluded.needs_spent_cents,
			wants_allocated_cents = excluded.wants_allocated_cents,
			wants_spent_cents = excluded.wants_spent_cents,
			savings_allocated_cents = excluded.savings_allocated_cents,
			savings_spent_cents = excluded.savings_spent_cents,
			updated_at = CURRENT_TIMESTAMP`,
		acct.Identity, acct.Income.Cents, initialized,
		acct.Needs.TotalAllocated.Cents, acct.Needs.Spent.Cents,
		acct.Wants.TotalAllocated.Cents, acct.Wants.Spent.Cents,
		acct.Savings.TotalAllocated.Cents, acct.Savings.Spent.Cents,
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sub_divisions WHERE identity = ?`, acct.Identity); err != nil {
		return fmt.Errorf("clear sub-divisions: %w", err)
	}

	for _, category := range core.Categories {
		ledger, _ := acct.Ledger(category)
		for pos, sd := range ledger.SubDivisions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sub_divisions (identity, category, name, amount_cents, spent_cents, position)
				VALUES (?, ?, ?, ?, ?, ?)`,
				acct.Identity, string(category), sd.Name, sd.Amount.Cents, sd.Spent.Cents, pos)
			if err != nil {
				return fmt.Errorf("insert sub-division %q: %w", sd.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account: %w", err)
	}

	slog.DebugContext(ctx, "Account saved",
		"identity", acct.Identity,
		"income_cents", acct.Income.Cents,
		"initialized", acct.Initialized)

	return nil
}

// CountAccounts returns the number of stored accounts, used by readiness
// checks and the export catch-up pass.
func (r *SQLiteRepository) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// ListIdentities returns all stored account identities in insertion order.
func (r *SQLiteRepository) ListIdentities(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT identity FROM accounts ORDER BY created_at, identity`)
	if err != nil {
		return nil, fmt.Errorf("select identities: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}
