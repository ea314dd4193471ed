package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Livshiz/finance-bot/internal/amqp"
	"github.com/Livshiz/finance-bot/internal/classify"
	"github.com/Livshiz/finance-bot/internal/core"
	"github.com/Livshiz/finance-bot/internal/report"
	"github.com/Livshiz/finance-bot/internal/storage/memory"
)

var testCategories = core.Categories{"Продукты", "Транспорт", "Кафе и рестораны", core.CategoryOther}

type delivered struct {
	recipientID int64
	kind        string
	text        string
}

type fakePublisher struct {
	syncIDs    []int64
	deliveries []delivered
	syncErr    error
}

func (p *fakePublisher) PublishExpenseSync(_ context.Context, id int64) error {
	if p.syncErr != nil {
		return p.syncErr
	}
	p.syncIDs = append(p.syncIDs, id)
	return nil
}

func (p *fakePublisher) PublishDelivery(_ context.Context, recipientID int64, kind, text string) error {
	p.deliveries = append(p.deliveries, delivered{recipientID, kind, text})
	return nil
}

func newTestService(t *testing.T) (*ExpenseService, *memory.Store, *fakePublisher) {
	t.Helper()
	store := memory.New(testCategories)
	pub := &fakePublisher{}
	builder := report.NewBuilder(store, time.UTC)
	svc := NewExpenseService(store, builder, pub, testCategories, []int64{100, 200, 300})
	return svc, store, pub
}

func TestRecordExpense(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()

	res := classify.Result{
		Type:        classify.TypeExpense,
		Amount:      core.Money{Cents: 50000},
		Category:    "Продукты",
		Description: "молоко и хлеб",
	}
	feedback, err := svc.RecordExpense(ctx, 100, res, core.SourceText)
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	if !strings.HasPrefix(feedback, "✅ Продукты, 500₽") {
		t.Errorf("feedback = %q", feedback)
	}

	sum, err := store.SumSince(ctx, "Продукты", time.Time{})
	if err != nil {
		t.Fatalf("SumSince() error = %v", err)
	}
	if sum.Cents != 50000 {
		t.Errorf("persisted sum = %d, want 50000", sum.Cents)
	}

	if len(pub.syncIDs) != 1 {
		t.Fatalf("sync messages = %d, want 1", len(pub.syncIDs))
	}
	if len(pub.deliveries) != 2 {
		t.Fatalf("notifications = %d, want 2", len(pub.deliveries))
	}
	for _, d := range pub.deliveries {
		if d.recipientID == 100 {
			t.Errorf("sender 100 should not be notified")
		}
		if d.kind != amqp.KindNotification {
			t.Errorf("kind = %q, want %q", d.kind, amqp.KindNotification)
		}
		if !strings.Contains(d.text, "Продукты") || !strings.Contains(d.text, "500₽") {
			t.Errorf("notification text = %q", d.text)
		}
	}
}

func TestRecordExpenseRejectsQuestion(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()

	res := classify.Result{Type: classify.TypeQuestion, Description: "сколько потратили?"}
	if _, err := svc.RecordExpense(ctx, 100, res, core.SourceText); !errors.Is(err, ErrNotExpense) {
		t.Fatalf("error = %v, want ErrNotExpense", err)
	}

	got, err := store.ListSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ledger has %d rows, want 0", len(got))
	}
	if len(pub.syncIDs) != 0 || len(pub.deliveries) != 0 {
		t.Errorf("nothing should be published")
	}
}

func TestRecordExpenseUnknownCategoryFallsBack(t *testing.T) {
	svc, _, _ := newTestService(t)

	res := classify.Result{
		Type:        classify.TypeExpense,
		Amount:      core.Money{Cents: 10000},
		Category:    "Криптовалюта",
		Description: "непонятное",
	}
	feedback, err := svc.RecordExpense(context.Background(), 100, res, core.SourceVoice)
	if err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
	if !strings.Contains(feedback, core.CategoryOther) {
		t.Errorf("feedback = %q, want fallback category", feedback)
	}
}

func TestRecordExpenseSyncFailureIsNonFatal(t *testing.T) {
	svc, store, pub := newTestService(t)
	pub.syncErr = errors.New("broker down")
	ctx := context.Background()

	res := classify.Result{
		Type:     classify.TypeExpense,
		Amount:   core.Money{Cents: 30000},
		Category: "Транспорт",
	}
	if _, err := svc.RecordExpense(ctx, 100, res, core.SourceText); err != nil {
		t.Fatalf("RecordExpense() error = %v, want nil", err)
	}

	pending, err := store.ListPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingSync() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1 for catch-up", len(pending))
	}
}

func TestRecordExpenseWithoutPublisher(t *testing.T) {
	store := memory.New(testCategories)
	builder := report.NewBuilder(store, time.UTC)
	svc := NewExpenseService(store, builder, nil, testCategories, nil)

	res := classify.Result{
		Type:     classify.TypeExpense,
		Amount:   core.Money{Cents: 5000},
		Category: "Продукты",
	}
	if _, err := svc.RecordExpense(context.Background(), 1, res, core.SourceText); err != nil {
		t.Fatalf("RecordExpense() error = %v", err)
	}
}

func TestRecordReceipt(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()

	items := []classify.Item{
		{Amount: core.Money{Cents: 15000}, Category: "Продукты", Description: "сыр"},
		{Amount: core.Money{Cents: 8050}, Category: "Продукты", Description: "йогурт"},
		{Amount: core.Money{Cents: 20000}, Category: "Неизвестно", Description: "батарейки"},
	}
	summary, err := svc.RecordReceipt(ctx, 200, items)
	if err != nil {
		t.Fatalf("RecordReceipt() error = %v", err)
	}
	if !strings.HasPrefix(summary, "🧾 Распознано позиций: 3, итого: 430.50₽") {
		t.Errorf("summary = %q", summary)
	}
	if got := strings.Count(summary, "✅"); got != 3 {
		t.Errorf("feedback lines = %d, want 3", got)
	}

	all, err := store.ListSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ledger rows = %d, want 3", len(all))
	}
	for _, e := range all {
		if e.Source != core.SourcePhoto {
			t.Errorf("source = %q, want photo", e.Source)
		}
	}
	if all[2].Category != core.CategoryOther {
		t.Errorf("unknown item category = %q, want %q", all[2].Category, core.CategoryOther)
	}

	if len(pub.syncIDs) != 3 {
		t.Errorf("sync messages = %d, want 3", len(pub.syncIDs))
	}
	if len(pub.deliveries) != 2 {
		t.Errorf("notifications = %d, want 2", len(pub.deliveries))
	}
}

func TestRecordReceiptEmpty(t *testing.T) {
	svc, _, pub := newTestService(t)

	summary, err := svc.RecordReceipt(context.Background(), 100, nil)
	if err != nil {
		t.Fatalf("RecordReceipt() error = %v", err)
	}
	if summary != "На фото не найдено позиций чека." {
		t.Errorf("summary = %q", summary)
	}
	if len(pub.syncIDs) != 0 || len(pub.deliveries) != 0 {
		t.Errorf("nothing should be published for an empty receipt")
	}
}
