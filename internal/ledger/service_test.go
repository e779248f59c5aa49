package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	svc := NewService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestFullBudgetLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const identity = "0xabc"

	if err := svc.SetInitialBudget(ctx, identity, core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}
	if err := svc.AddSubDivision(ctx, identity, core.Needs, "Rent", core.FromCents(100000)); err != nil {
		t.Fatalf("AddSubDivision: %v", err)
	}
	if err := svc.SpendFromSubDivision(ctx, identity, core.Needs, "Rent", core.FromCents(20000)); err != nil {
		t.Fatalf("SpendFromSubDivision: %v", err)
	}
	if err := svc.SpendFromCategory(ctx, identity, core.Wants, core.FromCents(10000)); err != nil {
		t.Fatalf("SpendFromCategory: %v", err)
	}
	if err := svc.SpendFromGeneral(ctx, identity, core.FromCents(15000)); err != nil {
		t.Fatalf("SpendFromGeneral: %v", err)
	}

	summary, err := svc.GetBudgetSummary(ctx, identity)
	if err != nil {
		t.Fatalf("GetBudgetSummary: %v", err)
	}
	if summary.Income.Cents != 300000 {
		t.Errorf("Income = %d, want 300000", summary.Income.Cents)
	}
	totalSpent := summary.NeedsSpent.Cents + summary.WantsSpent.Cents + summary.SavingsSpent.Cents
	if totalSpent != 20000+10000+15000 {
		t.Errorf("total spent = %d, want 45000", totalSpent)
	}

	views, err := svc.GetSubDivisions(ctx, identity, core.Needs)
	if err != nil {
		t.Fatalf("GetSubDivisions: %v", err)
	}
	if len(views) != 1 || views[0].Name != "Rent" {
		t.Fatalf("views = %+v, want single Rent entry", views)
	}
	if views[0].Spent.Cents != 20000 {
		t.Errorf("Rent spent = %d, want 20000", views[0].Spent.Cents)
	}
}

func TestCommandsBeforeInitialization(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const identity = "0xnew"

	ops := []struct {
		name string
		call func() error
	}{
		{"AddSubDivision", func() error {
			return svc.AddSubDivision(ctx, identity, core.Needs, "Rent", core.FromCents(100))
		}},
		{"SpendFromSubDivision", func() error {
			return svc.SpendFromSubDivision(ctx, identity, core.Needs, "Rent", core.FromCents(100))
		}},
		{"SpendFromCategory", func() error {
			return svc.SpendFromCategory(ctx, identity, core.Needs, core.FromCents(100))
		}},
		{"SpendFromGeneral", func() error {
			return svc.SpendFromGeneral(ctx, identity, core.FromCents(100))
		}},
		{"GetBudgetSummary", func() error {
			_, err := svc.GetBudgetSummary(ctx, identity)
			return err
		}},
		{"GetSubDivisions", func() error {
			_, err := svc.GetSubDivisions(ctx, identity, core.Needs)
			return err
		}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if err := op.call(); !errors.Is(err, core.ErrNotInitialized) {
				t.Errorf("error = %v, want ErrNotInitialized", err)
			}
		})
	}
}

func TestReinitializationRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SetInitialBudget(ctx, "0xabc", core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}
	err := svc.SetInitialBudget(ctx, "0xabc", core.FromCents(500000))
	if !errors.Is(err, core.ErrAlreadyInitialized) {
		t.Fatalf("error = %v, want ErrAlreadyInitialized", err)
	}

	summary, err := svc.GetBudgetSummary(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetBudgetSummary: %v", err)
	}
	if summary.Income.Cents != 300000 {
		t.Errorf("Income = %d, want the original 300000", summary.Income.Cents)
	}
}

func TestFailedCommandIsNotPersisted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SetInitialBudget(ctx, "0xabc", core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}
	before, err := svc.GetBudgetSummary(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetBudgetSummary: %v", err)
	}

	err = svc.SpendFromCategory(ctx, "0xabc", core.Savings, core.FromCents(60001))
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	after, err := svc.GetBudgetSummary(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetBudgetSummary: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("failed command changed stored state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestQueriesAreIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SetInitialBudget(ctx, "0xabc", core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}
	first, err := svc.GetBudgetSummary(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetBudgetSummary: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.GetBudgetSummary(ctx, "0xabc")
		if err != nil {
			t.Fatalf("GetBudgetSummary: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("summary changed between reads: %+v vs %+v", first, again)
		}
	}
}

func TestConcurrentSpendsOnOneIdentity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const identity = "0xabc"

	if err := svc.SetInitialBudget(ctx, identity, core.FromCents(300000)); err != nil {
		t.Fatalf("SetInitialBudget: %v", err)
	}

	// 40 concurrent spends of 1.00 each against Needs (1500.00 allocated):
	// all must succeed and every cent must be accounted for.
	const n = 40
	var wg sync.WaitGroup
	errc := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.SpendFromCategory(ctx, identity, core.Needs, core.FromCents(100)); err != nil {
				errc <- err
			}
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Errorf("concurrent spend: %v", err)
	}

	summary, err := svc.GetBudgetSummary(ctx, identity)
	if err != nil {
		t.Fatalf("GetBudgetSummary: %v", err)
	}
	if summary.NeedsSpent.Cents != n*100 {
		t.Errorf("NeedsSpent = %d, want %d", summary.NeedsSpent.Cents, n*100)
	}
}

func TestConcurrentAccountsAreIndependent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const accounts = 8
	var wg sync.WaitGroup
	errc := make(chan error, accounts)
	for i := 0; i < accounts; i++ {
		identity := fmt.Sprintf("0x%04d", i)
		income := int64((i + 1) * 100000)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.SetInitialBudget(ctx, identity, core.FromCents(income)); err != nil {
				errc <- fmt.Errorf("%s: %w", identity, err)
				return
			}
			if err := svc.SpendFromGeneral(ctx, identity, core.FromCents(5000)); err != nil {
				errc <- fmt.Errorf("%s: %w", identity, err)
			}
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Errorf("concurrent account: %v", err)
	}

	for i := 0; i < accounts; i++ {
		identity := fmt.Sprintf("0x%04d", i)
		summary, err := svc.GetBudgetSummary(ctx, identity)
		if err != nil {
			t.Fatalf("GetBudgetSummary(%s): %v", identity, err)
		}
		if summary.Income.Cents != int64((i+1)*100000) {
			t.Errorf("%s income = %d, want %d", identity, summary.Income.Cents, (i+1)*100000)
		}
		spent := summary.NeedsSpent.Cents + summary.WantsSpent.Cents + summary.SavingsSpent.Cents
		if spent != 5000 {
			t.Errorf("%s total spent = %d, want 5000", identity, spent)
		}
	}
}
