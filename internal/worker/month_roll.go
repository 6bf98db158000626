package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/budget"
)

// MonthRoller resets the budget when a new calendar month begins. The check
// is cheap, so it runs on every tick; the reset itself happens at most once
// per month.
type MonthRoller struct {
	budget *budget.Repository
}

func NewMonthRoller(budgetRepo *budget.Repository) *MonthRoller {
	return &MonthRoller{budget: budgetRepo}
}

// ProcessMonthRoll checks whether the stored month matches now and resets
// income, spending limit and category ledgers when it does not.
func (m *MonthRoller) ProcessMonthRoll(ctx context.Context, now time.Time) (bool, error) {
	if m.budget == nil {
		return false, fmt.Errorf("month roller not properly initialized")
	}

	reset, err := m.budget.EnsureMonth(ctx, now)
	if err != nil {
		return false, fmt.Errorf("ensure month: %w", err)
	}
	if reset {
		slog.InfoContext(ctx, "Budget reset for new month",
			"month", now.Format("2006-01"))
	}
	return reset, nil
}

// Run checks once immediately and then on every interval tick until the
// context is cancelled. Failures are logged and retried on the next tick.
func (m *MonthRoller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}

	if _, err := m.ProcessMonthRoll(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Month roll check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.ProcessMonthRoll(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Month roll check failed", "error", err)
			}
		}
	}
}
