package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestSummarize(t *testing.T) {
	t.Run("income 3000 yields 50/30/20 with daily limits", func(t *testing.T) {
		a := initializedAccount(t, 300000)

		s, err := Summarize(a)
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if s.NeedsAllocated.String() != "1500.00" {
			t.Errorf("NeedsAllocated = %s, want 1500.00", s.NeedsAllocated)
		}
		if s.WantsAllocated.String() != "900.00" {
			t.Errorf("WantsAllocated = %s, want 900.00", s.WantsAllocated)
		}
		if s.SavingsAllocated.String() != "600.00" {
			t.Errorf("SavingsAllocated = %s, want 600.00", s.SavingsAllocated)
		}
		if s.DailyNeedsLimit.StringFixed(2) != "50.00" {
			t.Errorf("DailyNeedsLimit = %s, want 50.00", s.DailyNeedsLimit)
		}
		if s.DailyWantsLimit.StringFixed(2) != "30.00" {
			t.Errorf("DailyWantsLimit = %s, want 30.00", s.DailyWantsLimit)
		}
	})

	t.Run("daily limit rounds half-up", func(t *testing.T) {
		a := initializedAccount(t, 200000) // Needs 1000.00, /30 = 33.333...
		s, err := Summarize(a)
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if s.DailyNeedsLimit.StringFixed(2) != "33.33" {
			t.Errorf("DailyNeedsLimit = %s, want 33.33", s.DailyNeedsLimit)
		}
	})

	t.Run("reports spent totals", func(t *testing.T) {
		a := initializedAccount(t, 300000)
		if err := a.SpendFromCategory(Wants, FromCents(12345)); err != nil {
			t.Fatalf("SpendFromCategory: %v", err)
		}
		s, err := Summarize(a)
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if s.WantsSpent.Cents != 12345 {
			t.Errorf("WantsSpent = %d, want 12345", s.WantsSpent.Cents)
		}
	})

	t.Run("uninitialized account", func(t *testing.T) {
		_, err := Summarize(NewAccount("0xabc"))
		if !errors.Is(err, ErrNotInitialized) {
			t.Errorf("error = %v, want ErrNotInitialized", err)
		}
	})
}

func TestSubDivisionViews(t *testing.T) {
	t.Run("percentage derived from category allocation", func(t *testing.T) {
		a := initializedAccount(t, 300000)
		if err := a.AddSubDivision(Needs, "Rent", FromCents(100000)); err != nil {
			t.Fatalf("AddSubDivision: %v", err)
		}
		if err := a.SpendFromSubDivision(Needs, "Rent", FromCents(20000)); err != nil {
			t.Fatalf("SpendFromSubDivision: %v", err)
		}

		views, err := SubDivisionViews(a, Needs)
		if err != nil {
			t.Fatalf("SubDivisionViews: %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("got %d views, want 1", len(views))
		}
		v := views[0]
		if v.Name != "Rent" {
			t.Errorf("Name = %q, want Rent", v.Name)
		}
		// 1000 / 1500 * 100 = 66.7 to one decimal.
		if v.Percentage.String() != "66.7" {
			t.Errorf("Percentage = %s, want 66.7", v.Percentage)
		}
		if v.Spent.Cents != 20000 {
			t.Errorf("Spent = %d, want 20000", v.Spent.Cents)
		}
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		a := initializedAccount(t, 300000)
		names := []string{"Cinema", "Dining", "Books"}
		for _, n := range names {
			if err := a.AddSubDivision(Wants, n, FromCents(10000)); err != nil {
				t.Fatalf("AddSubDivision(%s): %v", n, err)
			}
		}
		views, err := SubDivisionViews(a, Wants)
		if err != nil {
			t.Fatalf("SubDivisionViews: %v", err)
		}
		got := make([]string, len(views))
		for i, v := range views {
			got[i] = v.Name
		}
		if !reflect.DeepEqual(got, names) {
			t.Errorf("order = %v, want %v", got, names)
		}
	})

	t.Run("empty category yields empty list", func(t *testing.T) {
		a := initializedAccount(t, 300000)
		views, err := SubDivisionViews(a, Savings)
		if err != nil {
			t.Fatalf("SubDivisionViews: %v", err)
		}
		if len(views) != 0 {
			t.Errorf("got %d views, want 0", len(views))
		}
	})

	t.Run("invalid category", func(t *testing.T) {
		a := initializedAccount(t, 300000)
		_, err := SubDivisionViews(a, Category("Misc"))
		if !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("error = %v, want ErrInvalidCategory", err)
		}
	})

	t.Run("projection does not mutate", func(t *testing.T) {
		a := initializedAccount(t, 300000)
		if err := a.AddSubDivision(Needs, "Rent", FromCents(100000)); err != nil {
			t.Fatalf("AddSubDivision: %v", err)
		}
		before := a.Clone()
		for i := 0; i < 3; i++ {
			if _, err := Summarize(a); err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if _, err := SubDivisionViews(a, Needs); err != nil {
				t.Fatalf("SubDivisionViews: %v", err)
			}
		}
		if !reflect.DeepEqual(a, before) {
			t.Error("repeated reads must not mutate the account")
		}
	})
}
