// Package dialog implements the multi-step /setbudget conversation as an
// explicit state machine. A Session is scoped to one caller's in-flight
// dialogue; the transport layer keys sessions by caller id and discards them
// on completion or cancellation.
package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Livshiz/finance-bot/internal/core"
)

type State int

const (
	StateIdle State = iota
	StateChoosingCategory
	StateEnteringAmount
)

// BudgetStore is the slice of the ledger contract the dialogue commits
// through.
type BudgetStore interface {
	GetBudget(ctx context.Context, category string) (core.Budget, bool, error)
	SetBudget(ctx context.Context, category string, limit core.Money) error
}

// Reply is what the transport should send back to the caller. Options, when
// present, is the closed category set to offer as a keyboard.
type Reply struct {
	Text    string
	Options []string
	Done    bool
}

// Session holds the transient state of one budget-configuration dialogue.
// The chosen category lives only here until the limit is committed.
type Session struct {
	categories core.Categories
	state      State
	category   string
}

func NewSession(categories core.Categories) *Session {
	return &Session{categories: categories}
}

func (s *Session) State() State { return s.state }

// Start begins the dialogue and presents the category set.
func (s *Session) Start() Reply {
	s.state = StateChoosingCategory
	s.category = ""
	return Reply{
		Text:    "Выберите категорию для установки бюджета:",
		Options: s.categories,
	}
}

// Input advances the state machine with the caller's next message.
// Validation failures re-prompt without changing state and without side
// effects; only storage failures surface as errors.
func (s *Session) Input(ctx context.Context, store BudgetStore, text string) (Reply, error) {
	switch s.state {
	case StateChoosingCategory:
		return s.chooseCategory(ctx, store, text)
	case StateEnteringAmount:
		return s.enterAmount(ctx, store, text)
	default:
		return Reply{Done: true}, nil
	}
}

// Cancel aborts the dialogue from any state. Nothing is committed.
func (s *Session) Cancel() Reply {
	s.state = StateIdle
	s.category = ""
	return Reply{Text: "Отменено.", Done: true}
}

func (s *Session) chooseCategory(ctx context.Context, store BudgetStore, text string) (Reply, error) {
	category := strings.TrimSpace(text)
	if !s.categories.Contains(category) {
		return Reply{
			Text:    "Неизвестная категория. Выберите из списка:",
			Options: s.categories,
		}, nil
	}

	s.category = category
	s.state = StateEnteringAmount

	msg := fmt.Sprintf("Категория: %s\n", category)
	current, ok, err := store.GetBudget(ctx, category)
	if err != nil {
		s.state = StateChoosingCategory
		s.category = ""
		return Reply{}, fmt.Errorf("current budget: %w", err)
	}
	if ok {
		msg += fmt.Sprintf("Текущий лимит: %s\n", current.MonthlyLimit.Format())
	}
	msg += "\nВведите новый месячный лимит (число):"
	return Reply{Text: msg}, nil
}

func (s *Session) enterAmount(ctx context.Context, store BudgetStore, text string) (Reply, error) {
	limit, err := core.ParseAmount(text)
	if err != nil {
		return Reply{Text: "Введите положительное число:"}, nil
	}

	category := s.category
	if err := store.SetBudget(ctx, category, limit); err != nil {
		// Keep the conversation position so the caller can retry.
		return Reply{}, fmt.Errorf("set budget: %w", err)
	}

	s.state = StateIdle
	s.category = ""
	return Reply{
		Text: fmt.Sprintf("✅ Бюджет установлен: %s — %s/мес", category, limit.Format()),
		Done: true,
	}, nil
}
