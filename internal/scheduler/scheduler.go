// Package scheduler fires the weekly family report at a fixed local time
// and fans the rendered text out to every recipient through the bus.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Livshiz/finance-bot/internal/amqp"
)

// ReportSource renders the report text sent on each tick.
type ReportSource interface {
	Weekly(ctx context.Context) (string, error)
}

// Publisher delivers one report text to one recipient.
type Publisher interface {
	PublishDelivery(ctx context.Context, recipientID int64, kind, text string) error
}

type Scheduler struct {
	reports    ReportSource
	publisher  Publisher
	recipients []int64
	loc        *time.Location
	weekday    time.Weekday
	hour       int

	now func() time.Time
}

// New creates a scheduler that fires every week on the given weekday at the
// given local hour.
func New(reports ReportSource, publisher Publisher, recipients []int64, loc *time.Location, weekday time.Weekday, hour int) *Scheduler {
	return &Scheduler{
		reports:    reports,
		publisher:  publisher,
		recipients: recipients,
		loc:        loc,
		weekday:    weekday,
		hour:       hour,
		now:        time.Now,
	}
}

// NextRun returns the first instant strictly after now that falls on weekday
// at hour:00 in loc. A tick at exactly hour:00 schedules the following week.
func NextRun(now time.Time, loc *time.Location, weekday time.Weekday, hour int) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	days := (int(weekday) - int(local.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// Run blocks until ctx is cancelled, firing SendReport on schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := NextRun(s.now(), s.loc, s.weekday, s.hour)
		slog.Info("Weekly report scheduled", "next_run", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.SendReport(ctx); err != nil {
			slog.Error("Weekly report dispatch failed", "error", err)
		}
	}
}

// SendReport renders the weekly report once and publishes it to every
// recipient. Per-recipient publishes run concurrently; the first failure is
// returned but does not stop the rest.
func (s *Scheduler) SendReport(ctx context.Context) error {
	text, err := s.reports.Weekly(ctx)
	if err != nil {
		return fmt.Errorf("build weekly report: %w", err)
	}

	// A plain group: one unreachable recipient must not cancel the ctx the
	// other publishes are using.
	var g errgroup.Group
	for _, recipient := range s.recipients {
		g.Go(func() error {
			if err := s.publisher.PublishDelivery(ctx, recipient, amqp.KindReport, text); err != nil {
				slog.Error("Failed to deliver report", "recipient_id", recipient, "error", err)
				return fmt.Errorf("deliver report to %d: %w", recipient, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Weekly report dispatched", "recipients", len(s.recipients))
	return nil
}
