// Package services orchestrates the write path: structured classifier
// output goes into the ledger, feedback comes back, and sync/notification
// messages go out on the bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Livshiz/finance-bot/internal/amqp"
	"github.com/Livshiz/finance-bot/internal/classify"
	"github.com/Livshiz/finance-bot/internal/core"
	"github.com/Livshiz/finance-bot/internal/report"
)

// ErrNotExpense is returned when the classifier produced a question signal;
// questions never touch the ledger.
var ErrNotExpense = errors.New("classification result is not an expense")

// Ledger is the append surface of the store.
type Ledger interface {
	Append(ctx context.Context, ownerID int64, amount core.Money, category, description string, source core.Source) (int64, error)
}

// Publisher puts sync and delivery messages on the bus. Publish failures
// are non-fatal: the expense is already durable in the ledger.
type Publisher interface {
	PublishExpenseSync(ctx context.Context, id int64) error
	PublishDelivery(ctx context.Context, recipientID int64, kind, text string) error
}

type ExpenseService struct {
	ledger     Ledger
	reports    *report.Builder
	publisher  Publisher
	categories core.Categories
	recipients []int64
}

// NewExpenseService wires the write path. publisher may be nil: the service
// then runs ledger-only, skipping sync and notifications.
func NewExpenseService(ledger Ledger, reports *report.Builder, publisher Publisher, categories core.Categories, recipients []int64) *ExpenseService {
	return &ExpenseService{
		ledger:     ledger,
		reports:    reports,
		publisher:  publisher,
		categories: categories,
		recipients: recipients,
	}
}

// RecordExpense appends one classified expense and returns the confirmation
// text for the submitting caller. The other family members get a
// notification message on the bus.
func (s *ExpenseService) RecordExpense(ctx context.Context, ownerID int64, res classify.Result, source core.Source) (string, error) {
	if res.Type != classify.TypeExpense {
		return "", ErrNotExpense
	}

	category := s.categories.Normalize(res.Category)
	id, err := s.ledger.Append(ctx, ownerID, res.Amount, category, res.Description, source)
	if err != nil {
		return "", fmt.Errorf("record expense: %w", err)
	}

	s.publishSync(ctx, id)

	feedback, err := s.reports.Feedback(ctx, category, res.Amount)
	if err != nil {
		return "", fmt.Errorf("record expense: %w", err)
	}

	note := fmt.Sprintf("👤 %s, %s — %s", category, res.Amount.Format(), res.Description)
	s.notifyOthers(ctx, ownerID, note)

	return feedback, nil
}

// RecordReceipt appends every item parsed from one receipt photo
// independently and returns an aggregate confirmation. An item failure does
// not roll back the items already appended.
func (s *ExpenseService) RecordReceipt(ctx context.Context, ownerID int64, items []classify.Item) (string, error) {
	if len(items) == 0 {
		return "На фото не найдено позиций чека.", nil
	}

	var (
		total core.Money
		lines []string
	)
	for _, item := range items {
		category := s.categories.Normalize(item.Category)
		id, err := s.ledger.Append(ctx, ownerID, item.Amount, category, item.Description, core.SourcePhoto)
		if err != nil {
			return "", fmt.Errorf("record receipt item: %w", err)
		}
		s.publishSync(ctx, id)

		feedback, err := s.reports.Feedback(ctx, category, item.Amount)
		if err != nil {
			return "", fmt.Errorf("record receipt item: %w", err)
		}
		lines = append(lines, feedback)
		total.Cents += item.Amount.Cents
	}

	s.notifyOthers(ctx, ownerID,
		fmt.Sprintf("👤 чек: %d позиций, итого %s", len(items), total.Format()))

	out := report.ReceiptSummary(len(items), total)
	for _, line := range lines {
		out += "\n" + line
	}
	return out, nil
}

func (s *ExpenseService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseSync(ctx, id); err != nil {
		// The expense is saved; sync catches up via the pending scan.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *ExpenseService) notifyOthers(ctx context.Context, senderID int64, text string) {
	if s.publisher == nil {
		return
	}
	for _, recipient := range s.recipients {
		if recipient == senderID {
			continue
		}
		if err := s.publisher.PublishDelivery(ctx, recipient, amqp.KindNotification, text); err != nil {
			slog.WarnContext(ctx, "Failed to publish notification",
				"recipient_id", recipient, "error", err)
		}
	}
}
