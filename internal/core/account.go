package core

import (
	"fmt"
	"math/bits"
	"strings"
)

// Category is one of the three top-level budget buckets.
type Category string

const (
	Needs   Category = "Needs"
	Wants   Category = "Wants"
	Savings Category = "Savings"
)

// Categories lists the buckets in their canonical display order. The order
// also breaks ties when the general-pool remainder is assigned.
var Categories = [3]Category{Needs, Wants, Savings}

// ParseCategory validates a caller-supplied category name.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.TrimSpace(s)) {
	case Needs:
		return Needs, nil
	case Wants:
		return Wants, nil
	case Savings:
		return Savings, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidCategory)
	}
}

// SubDivision is a named allocation nested under a category, e.g. "Rent"
// under Needs. Spent never exceeds Amount.
type SubDivision struct {
	Name   string
	Amount Money
	Spent  Money
}

// Remaining returns Amount - Spent.
func (sd SubDivision) Remaining() Money {
	return Money{Cents: sd.Amount.Cents - sd.Spent.Cents}
}

// CategoryLedger tracks one bucket: its fixed allocation, everything spent
// against it, and its ordered sub-divisions. Sub-division order is insertion
// order; it matters for display, not correctness.
type CategoryLedger struct {
	TotalAllocated Money
	Spent          Money
	SubDivisions   []SubDivision
}

// Remaining returns TotalAllocated - Spent.
func (c *CategoryLedger) Remaining() Money {
	return Money{Cents: c.TotalAllocated.Cents - c.Spent.Cents}
}

// SubDivisionTotal sums the allocated amounts of all sub-divisions.
func (c *CategoryLedger) SubDivisionTotal() Money {
	var total int64
	for _, sd := range c.SubDivisions {
		total += sd.Amount.Cents
	}
	return Money{Cents: total}
}

// SubDivisionSpent sums the spent amounts of all sub-divisions.
func (c *CategoryLedger) SubDivisionSpent() Money {
	var total int64
	for _, sd := range c.SubDivisions {
		total += sd.Spent.Cents
	}
	return Money{Cents: total}
}

func (c *CategoryLedger) findSubDivision(name string) *SubDivision {
	for i := range c.SubDivisions {
		if c.SubDivisions[i].Name == name {
			return &c.SubDivisions[i]
		}
	}
	return nil
}

// Account is one user's whole budget. It is the unit of atomicity: every
// command validates completely before touching any field, so a failed
// command leaves the aggregate untouched.
type Account struct {
	Identity    string
	Income      Money
	Initialized bool
	Needs       CategoryLedger
	Wants       CategoryLedger
	Savings     CategoryLedger
}

// NewAccount returns an uninitialized account for the given identity.
func NewAccount(identity string) *Account {
	return &Account{Identity: identity}
}

// Ledger returns the category ledger for c. The bool is false for an
// unknown category.
func (a *Account) Ledger(c Category) (*CategoryLedger, bool) {
	switch c {
	case Needs:
		return &a.Needs, true
	case Wants:
		return &a.Wants, true
	case Savings:
		return &a.Savings, true
	default:
		return nil, false
	}
}

// SetInitialBudget records income and applies the fixed 50/30/20 split.
// Needs and Wants take the floor of their share in cents; Savings absorbs
// the remainder so the three allocations always sum to income exactly.
// Re-running on an initialized account fails and does not re-split.
func (a *Account) SetInitialBudget(income Money) error {
	if err := income.Validate(); err != nil {
		return err
	}
	if a.Initialized {
		return ErrAlreadyInitialized
	}

	// floor(50%) and floor(30%) without the *50/*30 products, which would
	// overflow near the top of the int64 cent range.
	needs := income.Cents / 2
	wants := income.Cents/10*3 + income.Cents%10*3/10
	savings := income.Cents - needs - wants

	a.Income = income
	a.Needs = CategoryLedger{TotalAllocated: Money{Cents: needs}}
	a.Wants = CategoryLedger{TotalAllocated: Money{Cents: wants}}
	a.Savings = CategoryLedger{TotalAllocated: Money{Cents: savings}}
	a.Initialized = true
	return nil
}

// AddSubDivision appends a named allocation to a category's registry.
// The combined sub-division total may never exceed the category allocation.
func (a *Account) AddSubDivision(category Category, name string, amount Money) error {
	if !a.Initialized {
		return ErrNotInitialized
	}
	ledger, ok := a.Ledger(category)
	if !ok {
		return ErrInvalidCategory
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if ledger.findSubDivision(name) != nil {
		return fmt.Errorf("%q in %s: %w", name, category, ErrDuplicateName)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if ledger.SubDivisionTotal().Cents+amount.Cents > ledger.TotalAllocated.Cents {
		return fmt.Errorf("%q in %s: %w", name, category, ErrOverAllocation)
	}

	ledger.SubDivisions = append(ledger.SubDivisions, SubDivision{Name: name, Amount: amount})
	return nil
}

// SpendFromSubDivision debits a named sub-division. The category-level
// spent total tracks total consumption regardless of source, so it moves
// by the same amount.
func (a *Account) SpendFromSubDivision(category Category, name string, amount Money) error {
	if !a.Initialized {
		return ErrNotInitialized
	}
	ledger, ok := a.Ledger(category)
	if !ok {
		return ErrInvalidCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	sd := ledger.findSubDivision(strings.TrimSpace(name))
	if sd == nil {
		return fmt.Errorf("%q in %s: %w", name, category, ErrSubDivisionNotFound)
	}
	if sd.Spent.Cents+amount.Cents > sd.Amount.Cents {
		return fmt.Errorf("%q in %s: %w", name, category, ErrInsufficientFunds)
	}

	sd.Spent = sd.Spent.Add(amount)
	ledger.Spent = ledger.Spent.Add(amount)
	return nil
}

// SpendFromCategory debits a category directly, independent of any
// sub-division.
func (a *Account) SpendFromCategory(category Category, amount Money) error {
	if !a.Initialized {
		return ErrNotInitialized
	}
	ledger, ok := a.Ledger(category)
	if !ok {
		return ErrInvalidCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if ledger.Spent.Cents+amount.Cents > ledger.TotalAllocated.Cents {
		return fmt.Errorf("%s: %w", category, ErrInsufficientFunds)
	}

	ledger.Spent = ledger.Spent.Add(amount)
	return nil
}

// SpendFromGeneral debits the whole account, distributing the amount across
// the three categories in proportion to each category's current remaining
// balance. Shares are floored in cents and the rounding remainder goes to
// the category with the largest remaining balance (ties in Needs, Wants,
// Savings order), so the shares always sum exactly to the amount. Category
// allocations are untouched; only spent totals move.
func (a *Account) SpendFromGeneral(amount Money) error {
	if !a.Initialized {
		return ErrNotInitialized
	}
	if err := amount.Validate(); err != nil {
		return err
	}

	ledgers := [3]*CategoryLedger{&a.Needs, &a.Wants, &a.Savings}
	var totalRemaining int64
	for _, l := range ledgers {
		totalRemaining += l.Remaining().Cents
	}
	if amount.Cents > totalRemaining {
		return fmt.Errorf("general pool: %w", ErrInsufficientFunds)
	}

	var shares [3]int64
	var distributed int64
	largest := 0
	for i, l := range ledgers {
		remaining := l.Remaining().Cents
		shares[i] = proportionalShare(amount.Cents, remaining, totalRemaining)
		distributed += shares[i]
		if remaining > ledgers[largest].Remaining().Cents {
			largest = i
		}
	}
	shares[largest] += amount.Cents - distributed

	for i, l := range ledgers {
		l.Spent.Cents += shares[i]
	}
	return nil
}

// proportionalShare returns floor(amount * remaining / totalRemaining) with
// a 128-bit intermediate product, so the multiplication cannot overflow on
// large books. All inputs are non-negative, totalRemaining > 0, and the
// quotient never exceeds amount, so it always fits back into int64.
func proportionalShare(amount, remaining, totalRemaining int64) int64 {
	hi, lo := bits.Mul64(uint64(amount), uint64(remaining))
	quo, _ := bits.Div64(hi, lo, uint64(totalRemaining))
	return int64(quo)
}

// CheckInvariants verifies the balance rules the books must satisfy at all
// times. It is a test and debugging aid; command validation keeps these
// from ever failing in normal operation.
func (a *Account) CheckInvariants() error {
	if !a.Initialized {
		return nil
	}
	sum := a.Needs.TotalAllocated.Cents + a.Wants.TotalAllocated.Cents + a.Savings.TotalAllocated.Cents
	if sum != a.Income.Cents {
		return fmt.Errorf("allocations %d do not sum to income %d", sum, a.Income.Cents)
	}
	for _, c := range Categories {
		ledger, _ := a.Ledger(c)
		if ledger.Spent.Cents > ledger.TotalAllocated.Cents {
			return fmt.Errorf("%s: spent %s exceeds allocation %s", c, ledger.Spent, ledger.TotalAllocated)
		}
		if ledger.SubDivisionTotal().Cents > ledger.TotalAllocated.Cents {
			return fmt.Errorf("%s: sub-divisions %s exceed allocation %s", c, ledger.SubDivisionTotal(), ledger.TotalAllocated)
		}
		for _, sd := range ledger.SubDivisions {
			if sd.Spent.Cents > sd.Amount.Cents {
				return fmt.Errorf("%s/%s: spent %s exceeds amount %s", c, sd.Name, sd.Spent, sd.Amount)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	cp := *a
	for _, pair := range [][2]*CategoryLedger{{&cp.Needs, &a.Needs}, {&cp.Wants, &a.Wants}, {&cp.Savings, &a.Savings}} {
		dst, src := pair[0], pair[1]
		if src.SubDivisions != nil {
			dst.SubDivisions = make([]SubDivision, len(src.SubDivisions))
			copy(dst.SubDivisions, src.SubDivisions)
		}
	}
	return &cp
}
