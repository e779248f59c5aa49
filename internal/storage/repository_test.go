package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"budgetbook/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetAccountNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetAccount(context.Background(), "0xmissing")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestSaveAndGetAccountRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	acct := core.NewAccount("0xabc")
	if err := acct.SetInitialBudget(core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}
	if err := acct.AddSubDivision(core.Needs, "Rent", core.FromCents(100000)); err != nil {
		t.Fatalf("AddSubDivision: %v", err)
	}
	if err := acct.AddSubDivision(core.Needs, "Groceries", core.FromCents(30000)); err != nil {
		t.Fatalf("AddSubDivision: %v", err)
	}
	if err := acct.SpendFromSubDivision(core.Needs, "Rent", core.FromCents(20000)); err != nil {
		t.Fatalf("SpendFromSubDivision: %v", err)
	}

	if err := repo.SaveAccount(ctx, acct); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	loaded, err := repo.GetAccount(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !reflect.DeepEqual(loaded, acct) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, acct)
	}
}

func TestSaveAccountReplacesSubDivisions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	acct := core.NewAccount("0xabc")
	if err := acct.SetInitialBudget(core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}
	if err := acct.AddSubDivision(core.Wants, "Dining", core.FromCents(10000)); err != nil {
		t.Fatalf("AddSubDivision: %v", err)
	}
	if err := repo.SaveAccount(ctx, acct); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	// Mutate and save again; the stored aggregate must match the latest state.
	if err := acct.AddSubDivision(core.Wants, "Cinema", core.FromCents(5000)); err != nil {
		t.Fatalf("AddSubDivision: %v", err)
	}
	if err := acct.SpendFromSubDivision(core.Wants, "Dining", core.FromCents(2500)); err != nil {
		t.Fatalf("SpendFromSubDivision: %v", err)
	}
	if err := repo.SaveAccount(ctx, acct); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	loaded, err := repo.GetAccount(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if len(loaded.Wants.SubDivisions) != 2 {
		t.Fatalf("got %d sub-divisions, want 2", len(loaded.Wants.SubDivisions))
	}
	if loaded.Wants.SubDivisions[0].Name != "Dining" || loaded.Wants.SubDivisions[1].Name != "Cinema" {
		t.Errorf("order = %s, %s; want Dining, Cinema",
			loaded.Wants.SubDivisions[0].Name, loaded.Wants.SubDivisions[1].Name)
	}
	if loaded.Wants.SubDivisions[0].Spent.Cents != 2500 {
		t.Errorf("Dining spent = %d, want 2500", loaded.Wants.SubDivisions[0].Spent.Cents)
	}
}

func TestAccountsAreIndependent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, tc := range []struct {
		identity string
		income   int64
	}{
		{"0xaaa", 100000},
		{"0xbbb", 200000},
	} {
		acct := core.NewAccount(tc.identity)
		if err := acct.SetInitialBudget(core.FromCents(tc.income)); err != nil {
			t.Fatalf("SetInitialBudget(%s): %v", tc.identity, err)
		}
		if err := repo.SaveAccount(ctx, acct); err != nil {
			t.Fatalf("SaveAccount(%s): %v", tc.identity, err)
		}
	}

	a, err := repo.GetAccount(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	b, err := repo.GetAccount(ctx, "0xbbb")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if a.Income.Cents != 100000 || b.Income.Cents != 200000 {
		t.Errorf("incomes = %d, %d; want 100000, 200000", a.Income.Cents, b.Income.Cents)
	}

	ids, err := repo.ListIdentities(ctx)
	if err != nil {
		t.Fatalf("ListIdentities: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("got %d identities, want 2", len(ids))
	}

	n, err := repo.CountAccounts(ctx)
	if err != nil {
		t.Fatalf("CountAccounts: %v", err)
	}
	if n != 2 {
		t.Errorf("CountAccounts = %d, want 2", n)
	}
}
