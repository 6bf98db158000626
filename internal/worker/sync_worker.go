// Package worker exports recorded shifts to the spreadsheet and keeps the
// ledger's cached totals honest.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/shifts"
	"kakeibo/internal/sheets"
)

// SyncWorker handles synchronization of ledger entries to the spreadsheet.
type SyncWorker struct {
	ledger *shifts.Repository
	writer sheets.ShiftWriter
}

func NewSyncWorker(ledger *shifts.Repository, writer sheets.ShiftWriter) *SyncWorker {
	return &SyncWorker{ledger: ledger, writer: writer}
}

// HandleSyncMessage processes a single shift sync message. An empty entry id
// is a full-resync signal: totals are recomputed from history instead of
// exporting a row.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ShiftSyncMessage) error {
	if msg.EntryID == "" {
		slog.InfoContext(ctx, "Ledger change signal, recomputing totals")
		return w.ledger.RecalcAllTotals(ctx)
	}

	slog.InfoContext(ctx, "Processing sync message",
		"job_id", msg.JobID,
		"entry_id", msg.EntryID,
		"version", msg.Version)

	job, err := w.ledger.FindJob(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("find job %s: %w", msg.JobID, err)
	}

	entry := findEntry(job, msg.EntryID)
	if entry == nil {
		// Entry was deleted between publish and consume. Nothing to export.
		slog.WarnContext(ctx, "Entry no longer exists, skipping export",
			"job_id", msg.JobID, "entry_id", msg.EntryID)
		return nil
	}

	ref, err := w.writer.Append(ctx, sheets.ShiftRow{
		JobName:   job.Name,
		Date:      entry.Date,
		StartTime: entry.StartTime,
		EndTime:   entry.EndTime,
		Total:     entry.Total,
	})
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Exported shift entry",
		"job_id", msg.JobID,
		"entry_id", msg.EntryID,
		"sheets_ref", ref,
		"total", entry.Total)
	return nil
}

func findEntry(job *core.Job, entryID string) *core.ShiftRecord {
	for i := range job.History {
		if job.History[i].ID == entryID {
			return &job.History[i]
		}
	}
	return nil
}

// RecalcProcessorConfig holds configuration for the periodic recalc loop.
type RecalcProcessorConfig struct {
	// Interval is how often cached totals are recomputed (default: 1h).
	Interval time.Duration
}

func DefaultRecalcProcessorConfig() RecalcProcessorConfig {
	return RecalcProcessorConfig{Interval: 1 * time.Hour}
}

// RecalcProcessor periodically recomputes cached job totals from history.
// It is the backstop for missed change messages.
type RecalcProcessor struct {
	ledger *shifts.Repository
	config RecalcProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRecalcProcessor(ledger *shifts.Repository, config RecalcProcessorConfig) *RecalcProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRecalcProcessorConfig().Interval
	}
	return &RecalcProcessor{ledger: ledger, config: config}
}

// Start begins the recalc loop. Returns an error if already running.
func (p *RecalcProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("recalc processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Recalc processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *RecalcProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Recalc processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recalc processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *RecalcProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RecalcProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Run once on startup to repair totals from any previous crash.
	p.recalc(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.recalc(ctx)
		}
	}
}

func (p *RecalcProcessor) recalc(ctx context.Context) {
	if err := p.ledger.RecalcAllTotals(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to recompute totals", "error", err)
	}
}
