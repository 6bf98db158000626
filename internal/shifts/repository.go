// Package shifts owns the job collection and its recorded work sessions.
//
// Every mutating operation is a full load-modify-save cycle against the
// persistence collaborator: the whole collection is read, changed in memory
// and written back under a single key. There is no locking or merge strategy;
// concurrent writers race and the last writer wins.
package shifts

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/kvstore"
)

// JobsKey is the storage key holding the serialized job collection. The
// payload layout is shared with earlier clients of the same store, so the
// key and record shape must not change.
const JobsKey = "pt_jobs_v2"

// Notifier receives best-effort change notifications after successful
// persists. Failures are logged and never fail the triggering operation.
type Notifier interface {
	ShiftRecorded(ctx context.Context, jobID, entryID string) error
	LedgerChanged(ctx context.Context) error
}

// Repository manages the Job collection lifecycle and keeps each job's
// cached total consistent with its history.
type Repository struct {
	store    kvstore.Store
	notifier Notifier
}

// NewRepository creates a repository over the given store. The notifier is
// optional and may be nil.
func NewRepository(store kvstore.Store, notifier Notifier) *Repository {
	return &Repository{store: store, notifier: notifier}
}

// LoadAll reads the full job collection. A missing key or an unparseable
// payload degrades to an empty collection: corrupt prior state must never
// stop the repository from operating.
func (r *Repository) LoadAll(ctx context.Context) ([]core.Job, error) {
	raw, ok, err := r.store.Get(ctx, JobsKey)
	if err != nil {
		return nil, &kvstore.PersistenceError{Op: "get", Key: JobsKey, Err: err}
	}
	if !ok {
		return []core.Job{}, nil
	}

	var jobs []core.Job
	if err := json.Unmarshal([]byte(raw), &jobs); err != nil {
		slog.WarnContext(ctx, "Stored job collection is unparseable, treating as empty",
			"key", JobsKey, "error", err)
		return []core.Job{}, nil
	}
	if jobs == nil {
		jobs = []core.Job{}
	}
	return jobs, nil
}

// SaveAll persists the given collection, replacing prior contents.
func (r *Repository) SaveAll(ctx context.Context, jobs []core.Job) error {
	if jobs == nil {
		jobs = []core.Job{}
	}
	raw, err := json.Marshal(jobs)
	if err != nil {
		return &kvstore.PersistenceError{Op: "marshal", Key: JobsKey, Err: err}
	}
	if err := r.store.Set(ctx, JobsKey, string(raw)); err != nil {
		return &kvstore.PersistenceError{Op: "set", Key: JobsKey, Err: err}
	}
	return nil
}

// AddJob creates a job with an empty history. The name must be non-empty and
// unique (case-sensitive exact match), the wage finite and non-negative.
func (r *Repository) AddJob(ctx context.Context, name string, wage float64) (*core.Job, error) {
	if err := core.ValidateName(name); err != nil {
		return nil, err
	}
	if err := core.ValidateWage(wage); err != nil {
		return nil, err
	}

	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.Name == name {
			return nil, core.ErrDuplicateJobName
		}
	}

	job := core.Job{
		ID:      core.NewID(),
		Name:    name,
		Wage:    wage,
		History: []core.ShiftRecord{},
		Total:   0,
	}
	jobs = append(jobs, job)
	if err := r.SaveAll(ctx, jobs); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Job created", "job_id", job.ID, "name", job.Name, "wage", job.Wage)
	r.notifyLedgerChanged(ctx)
	return &job, nil
}

// AddWorkSession computes the pay for the given shift against the job's wage,
// appends it to the job history and recomputes the job total.
func (r *Repository) AddWorkSession(ctx context.Context, jobID, date, startTime, endTime, restStart, restEnd string) (*core.ShiftRecord, error) {
	if err := core.ValidateDate(date); err != nil {
		return nil, err
	}

	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	idx := findJob(jobs, jobID)
	if idx < 0 {
		return nil, core.ErrJobNotFound
	}

	job := &jobs[idx]
	calc := core.CalculatePay(job.Wage, startTime, endTime, restStart, restEnd)

	entry := core.ShiftRecord{
		ID:        core.NewID(),
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		RestStart: restStart,
		RestEnd:   restEnd,
		Total:     calc.Total,
		CreatedAt: time.Now().UnixMilli(),
	}
	job.History = append(job.History, entry)
	job.RecalcTotal()

	if err := r.SaveAll(ctx, jobs); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Work session recorded",
		"job_id", job.ID,
		"entry_id", entry.ID,
		"date", entry.Date,
		"worked_minutes", calc.WorkedMinutes,
		"night_minutes", calc.NightMinutes,
		"total", entry.Total)
	r.notifyShiftRecorded(ctx, job.ID, entry.ID)
	return &entry, nil
}

// DeleteSession removes one session by id and recomputes the job total.
// Removing a session id that does not exist still succeeds: the filter is a
// no-op and the collection is re-persisted. Only a missing job fails.
func (r *Repository) DeleteSession(ctx context.Context, jobID, sessionID string) (bool, error) {
	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	idx := findJob(jobs, jobID)
	if idx < 0 {
		return false, nil
	}

	job := &jobs[idx]
	kept := job.History[:0]
	for _, h := range job.History {
		if h.ID != sessionID {
			kept = append(kept, h)
		}
	}
	job.History = kept
	job.RecalcTotal()

	if err := r.SaveAll(ctx, jobs); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Session deleted", "job_id", jobID, "session_id", sessionID)
	r.notifyLedgerChanged(ctx)
	return true, nil
}

// DeleteJob removes the job and its whole history.
func (r *Repository) DeleteJob(ctx context.Context, jobID string) (bool, error) {
	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	idx := findJob(jobs, jobID)
	if idx < 0 {
		return false, nil
	}

	jobs = append(jobs[:idx], jobs[idx+1:]...)
	if err := r.SaveAll(ctx, jobs); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Job deleted", "job_id", jobID)
	r.notifyLedgerChanged(ctx)
	return true, nil
}

// RecalcAllTotals recomputes every job's total from its history and persists
// the collection. Run as a consistency pass at startup to repair totals left
// stale by older code paths or external edits.
func (r *Repository) RecalcAllTotals(ctx context.Context) error {
	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return err
	}
	for i := range jobs {
		jobs[i].RecalcTotal()
	}
	return r.SaveAll(ctx, jobs)
}

// CalculateOverallTotal sums every job's total across the collection. Pure
// read, no persistence side effect.
func (r *Repository) CalculateOverallTotal(ctx context.Context) (float64, error) {
	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, j := range jobs {
		sum += j.Total
	}
	return core.Round2(sum), nil
}

// FindJob returns the job with the given id, or nil.
func (r *Repository) FindJob(ctx context.Context, jobID string) (*core.Job, error) {
	jobs, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	idx := findJob(jobs, jobID)
	if idx < 0 {
		return nil, core.ErrJobNotFound
	}
	job := jobs[idx]
	return &job, nil
}

func (r *Repository) notifyShiftRecorded(ctx context.Context, jobID, entryID string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.ShiftRecorded(ctx, jobID, entryID); err != nil {
		slog.WarnContext(ctx, "Shift notification failed", "job_id", jobID, "entry_id", entryID, "error", err)
	}
}

func (r *Repository) notifyLedgerChanged(ctx context.Context) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.LedgerChanged(ctx); err != nil {
		slog.WarnContext(ctx, "Ledger change notification failed", "error", err)
	}
}

func findJob(jobs []core.Job, jobID string) int {
	for i := range jobs {
		if jobs[i].ID == jobID {
			return i
		}
	}
	return -1
}
