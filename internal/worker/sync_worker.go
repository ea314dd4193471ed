// Package worker mirrors appended expenses from the ledger to the family
// spreadsheet, driven by sync messages with a periodic catch-up scan for
// anything missed while the worker was down.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Livshiz/finance-bot/internal/amqp"
	"github.com/Livshiz/finance-bot/internal/core"
)

// Ledger is the slice of the store the worker needs.
type Ledger interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListPendingSync(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id int64) error
}

// SheetAppender mirrors one expense row to the spreadsheet.
type SheetAppender interface {
	Append(ctx context.Context, e core.Expense) (string, error)
}

type SyncWorker struct {
	ledger    Ledger
	sheet     SheetAppender
	batchSize int
}

func NewSyncWorker(ledger Ledger, sheet SheetAppender, batchSize int) *SyncWorker {
	return &SyncWorker{ledger: ledger, sheet: sheet, batchSize: batchSize}
}

// HandleSyncMessage processes one sync message: load the row, append it to
// the sheet, mark it synced. Returning an error requeues the message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return w.syncOne(ctx, msg.ID)
}

func (w *SyncWorker) syncOne(ctx context.Context, id int64) error {
	e, err := w.ledger.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("load expense %d: %w", id, err)
	}

	ref, err := w.sheet.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %d to sheet: %w", id, err)
	}

	if err := w.ledger.MarkSynced(ctx, id); err != nil {
		// The row is in the sheet; failing here would duplicate it on
		// retry, so log and move on.
		slog.ErrorContext(ctx, "Failed to mark expense synced", "id", id, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Expense synced to spreadsheet", "id", id, "range", ref)
	return nil
}

// ProcessPending syncs expenses whose messages were lost (worker downtime,
// broker hiccup). Called on startup and on a periodic ticker.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.ledger.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending sync: %w", err)
	}

	synced := 0
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.syncOne(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending expense", "id", e.ID, "error", err)
			continue
		}
		synced++
	}

	if synced > 0 {
		slog.InfoContext(ctx, "Pending sync pass complete", "synced", synced, "found", len(pending))
	}
	return synced, nil
}
