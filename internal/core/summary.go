package core

import "github.com/shopspring/decimal"

// daysPerMonth is the fixed pacing assumption for daily limits.
const daysPerMonth = 30

// BudgetSummary is the read-only projection of an account for display.
// Daily limits are recomputed on every read, never stored.
type BudgetSummary struct {
	Identity         string
	Income           Money
	DailyNeedsLimit  decimal.Decimal
	DailyWantsLimit  decimal.Decimal
	NeedsAllocated   Money
	WantsAllocated   Money
	SavingsAllocated Money
	NeedsSpent       Money
	WantsSpent       Money
	SavingsSpent     Money
}

// SubDivisionView is one row of the sub-division listing. Percentage is
// amount over the category allocation, derived at read time so it stays
// correct when allocations move.
type SubDivisionView struct {
	Name       string
	Amount     Money
	Percentage decimal.Decimal
	Spent      Money
}

// Summarize projects an account into its display summary. It never mutates
// the account.
func Summarize(a *Account) (BudgetSummary, error) {
	if !a.Initialized {
		return BudgetSummary{}, ErrNotInitialized
	}
	days := decimal.NewFromInt(daysPerMonth)
	return BudgetSummary{
		Identity:         a.Identity,
		Income:           a.Income,
		DailyNeedsLimit:  a.Needs.TotalAllocated.Decimal().DivRound(days, 2),
		DailyWantsLimit:  a.Wants.TotalAllocated.Decimal().DivRound(days, 2),
		NeedsAllocated:   a.Needs.TotalAllocated,
		WantsAllocated:   a.Wants.TotalAllocated,
		SavingsAllocated: a.Savings.TotalAllocated,
		NeedsSpent:       a.Needs.Spent,
		WantsSpent:       a.Wants.Spent,
		SavingsSpent:     a.Savings.Spent,
	}, nil
}

// SubDivisionViews lists a category's sub-divisions in insertion order.
func SubDivisionViews(a *Account, category Category) ([]SubDivisionView, error) {
	if !a.Initialized {
		return nil, ErrNotInitialized
	}
	ledger, ok := a.Ledger(category)
	if !ok {
		return nil, ErrInvalidCategory
	}

	views := make([]SubDivisionView, len(ledger.SubDivisions))
	hundred := decimal.NewFromInt(100)
	for i, sd := range ledger.SubDivisions {
		pct := decimal.Zero
		if ledger.TotalAllocated.IsPositive() {
			pct = sd.Amount.Decimal().Mul(hundred).DivRound(ledger.TotalAllocated.Decimal(), 1)
		}
		views[i] = SubDivisionView{
			Name:       sd.Name,
			Amount:     sd.Amount,
			Percentage: pct,
			Spent:      sd.Spent,
		}
	}
	return views, nil
}
