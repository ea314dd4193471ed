package core

import (
	"errors"
	"time"
)

const (
	SourceText  Source = "text"
	SourceVoice Source = "voice"
	SourcePhoto Source = "photo"
)

// CategoryOther is the catch-all category. Expenses whose category is not in
// the configured set are coerced to it before persisting.
const CategoryOther = "Другое"

type (
	// Source tags where an expense record originated.
	Source string

	// Money is an amount in cents. Display assumes a single implicit
	// currency (rubles).
	Money struct {
		Cents int64
	}

	// Expense is a single recorded expense. Immutable once appended.
	Expense struct {
		ID          int64
		OwnerID     int64
		Amount      Money
		Category    string
		Description string
		Source      Source
		CreatedAt   time.Time // always UTC
	}

	// Budget is a per-category monthly spending ceiling. At most one row
	// per category; absence means "no limit configured", never zero.
	Budget struct {
		Category     string
		MonthlyLimit Money
		UpdatedAt    time.Time // always UTC
	}

	// Categories is the closed category set, fixed at process start.
	Categories []string
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidLimit  = errors.New("invalid monthly limit")
	ErrInvalidSource = errors.New("invalid source")
)

func (s Source) Validate() error {
	switch s {
	case SourceText, SourceVoice, SourcePhoto:
		return nil
	}
	return ErrInvalidSource
}

func (c Categories) Contains(name string) bool {
	for _, v := range c {
		if v == name {
			return true
		}
	}
	return false
}

// Normalize returns name when it belongs to the set, CategoryOther otherwise.
func (c Categories) Normalize(name string) string {
	if c.Contains(name) {
		return name
	}
	return CategoryOther
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Source.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if b.MonthlyLimit.Cents <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
