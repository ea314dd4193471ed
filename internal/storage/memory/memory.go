// Package memory provides a mutex-guarded in-memory ledger with the same
// contract as the SQLite repository. It backs package tests and local
// experiments; production binaries always use SQLite.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Livshiz/finance-bot/internal/core"
)

type Store struct {
	mu         sync.Mutex
	categories core.Categories
	nextID     int64
	items      []core.Expense
	budgets    map[string]core.Budget
	synced     map[int64]bool

	// Now supplies append timestamps; tests override it to pin windows.
	Now func() time.Time
}

func New(categories core.Categories) *Store {
	return &Store{
		categories: categories,
		nextID:     1,
		budgets:    make(map[string]core.Budget),
		synced:     make(map[int64]bool),
		Now:        time.Now,
	}
}

func (s *Store) Append(_ context.Context, ownerID int64, amount core.Money, category, description string, source core.Source) (int64, error) {
	e := core.Expense{
		OwnerID:     ownerID,
		Amount:      amount,
		Category:    s.categories.Normalize(category),
		Description: description,
		Source:      source,
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	e.CreatedAt = s.Now().UTC()
	s.items = append(s.items, e)
	return e.ID, nil
}

func (s *Store) SumSince(_ context.Context, category string, since time.Time) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cents int64
	for _, e := range s.items {
		if e.Category == category && !e.CreatedAt.Before(since) {
			cents += e.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

func (s *Store) SumRange(_ context.Context, start, end time.Time) (core.Money, error) {
	w := core.Window{Start: start.UTC(), End: end.UTC()}
	s.mu.Lock()
	defer s.mu.Unlock()
	var cents int64
	for _, e := range s.items {
		if w.Contains(e.CreatedAt) {
			cents += e.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

func (s *Store) ListSince(_ context.Context, since time.Time) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d not found", id)
}

func (s *Store) GetBudget(_ context.Context, category string) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[category]
	return b, ok, nil
}

func (s *Store) SetBudget(_ context.Context, category string, limit core.Money) error {
	b := core.Budget{Category: category, MonthlyLimit: limit, UpdatedAt: time.Now().UTC()}
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[category] = b
	return nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *Store) ListPendingSync(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if !s.synced[e.ID] {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[id] = true
	return nil
}
