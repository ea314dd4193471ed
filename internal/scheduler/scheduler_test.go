package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Livshiz/finance-bot/internal/amqp"
)

var msk = time.FixedZone("MSK", 3*60*60)

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "earlier same day",
			// Sunday 2025-03-16, 10:00 MSK
			now:  time.Date(2025, 3, 16, 10, 0, 0, 0, msk),
			want: time.Date(2025, 3, 16, 19, 0, 0, 0, msk),
		},
		{
			name: "later same day rolls a week",
			now:  time.Date(2025, 3, 16, 20, 0, 0, 0, msk),
			want: time.Date(2025, 3, 23, 19, 0, 0, 0, msk),
		},
		{
			name: "exact fire instant rolls a week",
			now:  time.Date(2025, 3, 16, 19, 0, 0, 0, msk),
			want: time.Date(2025, 3, 23, 19, 0, 0, 0, msk),
		},
		{
			name: "mid week",
			// Wednesday
			now:  time.Date(2025, 3, 19, 12, 30, 0, 0, msk),
			want: time.Date(2025, 3, 23, 19, 0, 0, 0, msk),
		},
		{
			name: "utc input converted to local schedule",
			// Sunday 17:30 UTC is 20:30 MSK, past the fire hour
			now:  time.Date(2025, 3, 16, 17, 30, 0, 0, time.UTC),
			want: time.Date(2025, 3, 23, 19, 0, 0, 0, msk),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, msk, time.Sunday, 19)
			if !got.Equal(tt.want) {
				t.Errorf("NextRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNextRunAlwaysFuture(t *testing.T) {
	now := time.Date(2025, 3, 16, 19, 0, 0, 1, msk)
	got := NextRun(now, msk, time.Sunday, 19)
	if !got.After(now) {
		t.Errorf("NextRun(%v) = %v, not in the future", now, got)
	}
}

type fixedReport struct {
	text string
	err  error
}

func (r fixedReport) Weekly(context.Context) (string, error) { return r.text, r.err }

type countingPublisher struct {
	mu    sync.Mutex
	sent  map[int64]string
	kinds map[int64]string
	fail  map[int64]error
}

func newCountingPublisher() *countingPublisher {
	return &countingPublisher{
		sent:  make(map[int64]string),
		kinds: make(map[int64]string),
		fail:  make(map[int64]error),
	}
}

func (p *countingPublisher) PublishDelivery(ctx context.Context, recipientID int64, kind, text string) error {
	p.mu.Lock()
	err := p.fail[recipientID]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	// Simulate broker latency so a cancelled context would be observed.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent[recipientID] = text
	p.kinds[recipientID] = kind
	return nil
}

func TestSendReportFansOut(t *testing.T) {
	pub := newCountingPublisher()
	s := New(fixedReport{text: "📊 *Отчёт за неделю*"}, pub, []int64{1, 2, 3}, msk, time.Sunday, 19)

	if err := s.SendReport(context.Background()); err != nil {
		t.Fatalf("SendReport() error = %v", err)
	}
	if len(pub.sent) != 3 {
		t.Fatalf("delivered to %d recipients, want 3", len(pub.sent))
	}
	for id, text := range pub.sent {
		if text != "📊 *Отчёт за неделю*" {
			t.Errorf("recipient %d got %q", id, text)
		}
		if pub.kinds[id] != amqp.KindReport {
			t.Errorf("recipient %d kind = %q, want %q", id, pub.kinds[id], amqp.KindReport)
		}
	}
}

func TestSendReportPartialFailure(t *testing.T) {
	pub := newCountingPublisher()
	pub.fail[1] = errors.New("unreachable")
	s := New(fixedReport{text: "отчёт"}, pub, []int64{1, 2, 3}, msk, time.Sunday, 19)

	if err := s.SendReport(context.Background()); err == nil {
		t.Fatal("expected error for failed recipient")
	}
	// The other recipients still get their report.
	for _, id := range []int64{2, 3} {
		if _, ok := pub.sent[id]; !ok {
			t.Errorf("recipient %d did not receive the report", id)
		}
	}
	if _, ok := pub.sent[1]; ok {
		t.Error("failed recipient should not be recorded as delivered")
	}
}

func TestSendReportBuilderFailure(t *testing.T) {
	pub := newCountingPublisher()
	s := New(fixedReport{err: errors.New("db locked")}, pub, []int64{1}, msk, time.Sunday, 19)

	if err := s.SendReport(context.Background()); err == nil {
		t.Fatal("expected error from report source")
	}
	if len(pub.sent) != 0 {
		t.Errorf("nothing should be delivered when the report cannot be built")
	}
}
