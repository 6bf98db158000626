package worker

import (
	"context"
	"testing"
	"time"

	"kakeibo/internal/amqp"
	kvmem "kakeibo/internal/kvstore/memory"
	"kakeibo/internal/shifts"
	sheetmem "kakeibo/internal/sheets/memory"
)

func newTestWorker(t *testing.T) (*SyncWorker, *shifts.Repository, *sheetmem.Store) {
	t.Helper()
	ledger := shifts.NewRepository(kvmem.New(), nil)
	writer := sheetmem.New()
	return NewSyncWorker(ledger, writer), ledger, writer
}

func TestHandleSyncMessageExportsEntry(t *testing.T) {
	w, ledger, writer := newTestWorker(t)
	ctx := context.Background()

	job, err := ledger.AddJob(ctx, "Conbini", 1000)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	entry, err := ledger.AddWorkSession(ctx, job.ID, "2026-04-03", "18:00", "22:00", "", "")
	if err != nil {
		t.Fatalf("AddWorkSession() error = %v", err)
	}

	msg := amqp.NewShiftSyncMessage(job.ID, entry.ID, 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	rows := writer.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(rows))
	}
	row := rows[0]
	if row.JobName != "Conbini" || row.Date != "2026-04-03" || row.Total != 4000 {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestHandleSyncMessageUnknownJob(t *testing.T) {
	w, _, _ := newTestWorker(t)

	msg := amqp.NewShiftSyncMessage("missing", "entry", 1)
	err := w.HandleSyncMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("HandleSyncMessage() should fail for unknown job")
	}
}

func TestHandleSyncMessageDeletedEntrySkips(t *testing.T) {
	w, ledger, writer := newTestWorker(t)
	ctx := context.Background()

	job, err := ledger.AddJob(ctx, "Conbini", 1000)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}

	msg := amqp.NewShiftSyncMessage(job.ID, "gone", 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}
	if len(writer.Rows()) != 0 {
		t.Error("no rows should be exported for a missing entry")
	}
}

func TestHandleSyncMessageFullResync(t *testing.T) {
	store := kvmem.New()
	ledger := shifts.NewRepository(store, nil)
	w := NewSyncWorker(ledger, sheetmem.New())
	ctx := context.Background()

	job, err := ledger.AddJob(ctx, "Conbini", 1000)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if _, err := ledger.AddWorkSession(ctx, job.ID, "2026-04-03", "18:00", "22:00", "", ""); err != nil {
		t.Fatalf("AddWorkSession() error = %v", err)
	}

	// Corrupt the cached total, then send the resync signal.
	jobs, err := ledger.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	jobs[0].Total = 999999
	if err := ledger.SaveAll(ctx, jobs); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	msg := amqp.NewShiftSyncMessage("", "", 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	jobs, err = ledger.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if jobs[0].Total != 4000 {
		t.Errorf("Total = %v, want 4000 after resync", jobs[0].Total)
	}
}

func TestRecalcProcessorLifecycle(t *testing.T) {
	ledger := shifts.NewRepository(kvmem.New(), nil)
	p := NewRecalcProcessor(ledger, RecalcProcessorConfig{Interval: time.Hour})
	ctx := context.Background()

	if p.IsRunning() {
		t.Fatal("processor should not be running before Start")
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.IsRunning() {
		t.Fatal("processor should be running after Start")
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
}

func TestRecalcProcessorRepairsTotalsOnStartup(t *testing.T) {
	store := kvmem.New()
	ledger := shifts.NewRepository(store, nil)
	ctx := context.Background()

	job, err := ledger.AddJob(ctx, "Conbini", 1000)
	if err != nil {
		t.Fatalf("AddJob() error = %v", err)
	}
	if _, err := ledger.AddWorkSession(ctx, job.ID, "2026-04-03", "18:00", "22:00", "", ""); err != nil {
		t.Fatalf("AddWorkSession() error = %v", err)
	}
	jobs, err := ledger.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	jobs[0].Total = -1
	if err := ledger.SaveAll(ctx, jobs); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	p := NewRecalcProcessor(ledger, RecalcProcessorConfig{Interval: time.Hour})
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(ctx)

	// The startup pass runs synchronously enough to observe shortly after.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		jobs, err = ledger.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if jobs[0].Total == 4000 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("Total = %v, want 4000 after startup recalc", jobs[0].Total)
}
