// Package ledger wires the budget domain to storage and the event
// transport. It owns the read-modify-write cycle: one mutex per account
// identity, a full aggregate load, the domain operation, and a single
// transactional save. Different identities never contend.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/storage"
)

// Service executes ledger commands and queries for any account identity.
type Service struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a ledger service. The AMQP client may be nil; commit
// events are then skipped, mutations stay fully functional.
func NewService(repo *storage.SQLiteRepository, events *amqp.Client) *Service {
	return &Service{
		storage: repo,
		events:  events,
		locks:   make(map[string]*sync.Mutex),
	}
}

// identityLock returns the mutex serializing commands for one identity.
// Locks are never released from the map; the per-identity footprint is one
// mutex, and accounts persist indefinitely anyway.
func (s *Service) identityLock(identity string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identity] = l
	}
	return l
}

// loadAccount fetches the aggregate, treating a never-seen identity as a
// fresh uninitialized account.
func (s *Service) loadAccount(ctx context.Context, identity string) (*core.Account, error) {
	acct, err := s.storage.GetAccount(ctx, identity)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return core.NewAccount(identity), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acct, nil
}

// apply runs a domain operation under the identity lock and persists the
// result. A failed operation is returned untouched and nothing is written,
// so the stored aggregate only ever moves between valid states.
func (s *Service) apply(ctx context.Context, identity, operation string, op func(*core.Account) error) error {
	if identity == "" {
		return fmt.Errorf("empty identity: %w", core.ErrNotInitialized)
	}
	l := s.identityLock(identity)
	l.Lock()
	defer l.Unlock()

	acct, err := s.loadAccount(ctx, identity)
	if err != nil {
		return err
	}
	if err := op(acct); err != nil {
		return err
	}
	if err := s.storage.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	fields := applog.NewFields().
		WithIdentity(identity).
		WithOperation(operation).
		WithComponent(applog.ComponentLedger)
	slog.DebugContext(ctx, "Command committed", fields.ToSlice()...)

	s.publishEvent(ctx, identity, operation)
	return nil
}

// publishEvent announces a committed mutation. The commit is already
// durable locally, so a publish failure is logged and swallowed, mirroring
// the transport owning retries.
func (s *Service) publishEvent(ctx context.Context, identity, operation string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBudgetEvent(ctx, identity, operation); err != nil {
		fields := applog.NewFields().
			WithIdentity(identity).
			WithOperation(operation).
			WithError(err).
			WithComponent(applog.ComponentAMQP)
		slog.ErrorContext(ctx, "Failed to publish budget event", fields.ToSlice()...)
	}
}

// SetInitialBudget records income for an identity and applies the 50/30/20
// split. The account record is created on first use.
func (s *Service) SetInitialBudget(ctx context.Context, identity string, income core.Money) error {
	return s.apply(ctx, identity, amqp.OpSetInitialBudget, func(a *core.Account) error {
		return a.SetInitialBudget(income)
	})
}

// AddSubDivision registers a named allocation under a category.
func (s *Service) AddSubDivision(ctx context.Context, identity string, category core.Category, name string, amount core.Money) error {
	return s.apply(ctx, identity, amqp.OpAddSubDivision, func(a *core.Account) error {
		return a.AddSubDivision(category, name, amount)
	})
}

// SpendFromSubDivision debits a named sub-division and its category.
func (s *Service) SpendFromSubDivision(ctx context.Context, identity string, category core.Category, name string, amount core.Money) error {
	return s.apply(ctx, identity, amqp.OpSpendFromSubDivision, func(a *core.Account) error {
		return a.SpendFromSubDivision(category, name, amount)
	})
}

// SpendFromCategory debits a category directly.
func (s *Service) SpendFromCategory(ctx context.Context, identity string, category core.Category, amount core.Money) error {
	return s.apply(ctx, identity, amqp.OpSpendFromCategory, func(a *core.Account) error {
		return a.SpendFromCategory(category, amount)
	})
}

// SpendFromGeneral debits the whole account with proportional rebalancing.
func (s *Service) SpendFromGeneral(ctx context.Context, identity string, amount core.Money) error {
	return s.apply(ctx, identity, amqp.OpSpendFromGeneral, func(a *core.Account) error {
		return a.SpendFromGeneral(amount)
	})
}

// GetBudgetSummary projects the account into its display summary.
func (s *Service) GetBudgetSummary(ctx context.Context, identity string) (core.BudgetSummary, error) {
	l := s.identityLock(identity)
	l.Lock()
	defer l.Unlock()

	acct, err := s.loadAccount(ctx, identity)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	return core.Summarize(acct)
}

// GetSubDivisions lists a category's sub-divisions in insertion order.
func (s *Service) GetSubDivisions(ctx context.Context, identity string, category core.Category) ([]core.SubDivisionView, error) {
	l := s.identityLock(identity)
	l.Lock()
	defer l.Unlock()

	acct, err := s.loadAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	return core.SubDivisionViews(acct, category)
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// AccountCount returns the number of known accounts.
func (s *Service) AccountCount(ctx context.Context) (int64, error) {
	return s.storage.CountAccounts(ctx)
}

// Close releases the storage and transport handles.
func (s *Service) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
