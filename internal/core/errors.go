package core

import "errors"

var (
	// ErrInvalidAmount is returned for zero, negative or malformed amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCategory is returned when a category is not Needs, Wants or Savings.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidName is returned for an empty sub-division name.
	ErrInvalidName = errors.New("invalid sub-division name")

	// ErrDuplicateName is returned when a sub-division name already exists in its category.
	ErrDuplicateName = errors.New("duplicate sub-division name")

	// ErrOverAllocation is returned when a sub-division would over-commit its category.
	ErrOverAllocation = errors.New("sub-divisions would exceed category allocation")

	// ErrInsufficientFunds is returned when a spend exceeds the remaining balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSubDivisionNotFound is returned when the named sub-division does not exist.
	ErrSubDivisionNotFound = errors.New("sub-division not found")

	// ErrNotInitialized is returned when an operation arrives before setInitialBudget.
	ErrNotInitialized = errors.New("budget not initialized")

	// ErrAlreadyInitialized is returned on a repeated setInitialBudget.
	ErrAlreadyInitialized = errors.New("budget already initialized")
)
