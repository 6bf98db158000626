package shifts

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/kvstore"
	"kakeibo/internal/kvstore/memory"
)

func newTestRepo() (*Repository, *memory.Store) {
	store := memory.New()
	return NewRepository(store, nil), store
}

func TestLoadAllEmptyStore(t *testing.T) {
	repo, _ := newTestRepo()
	jobs, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected empty collection, got %d jobs", len(jobs))
	}
}

func TestLoadAllMalformedPayloadDegradesToEmpty(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()
	_ = store.Set(ctx, JobsKey, `{not json`)

	jobs, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected degrade to empty, got %d jobs", len(jobs))
	}
}

func TestAddJob(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	job, err := repo.AddJob(ctx, "Cafe", 1000)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if job.ID == "" || job.Name != "Cafe" || job.Wage != 1000 || job.Total != 0 || len(job.History) != 0 {
		t.Fatalf("unexpected job: %+v", job)
	}

	// Duplicate name is rejected the second time.
	if _, err := repo.AddJob(ctx, "Cafe", 1200); !errors.Is(err, core.ErrDuplicateJobName) {
		t.Fatalf("duplicate AddJob err = %v, want ErrDuplicateJobName", err)
	}

	// Name comparison is case-sensitive exact match.
	if _, err := repo.AddJob(ctx, "cafe", 1200); err != nil {
		t.Fatalf("AddJob with different case: %v", err)
	}
}

func TestAddJobValidation(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	tests := []struct {
		name    string
		jobName string
		wage    float64
		wantErr error
	}{
		{"empty name", "", 1000, core.ErrInvalidJobName},
		{"negative wage", "Bar", -1, core.ErrInvalidWage},
		{"NaN wage", "Bar", math.NaN(), core.ErrInvalidWage},
		{"infinite wage", "Bar", math.Inf(1), core.ErrInvalidWage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.AddJob(ctx, tt.jobName, tt.wage); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddJob err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddWorkSession(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)

	entry, err := repo.AddWorkSession(ctx, job.ID, "2026-08-28", "18:00", "22:00", "", "")
	if err != nil {
		t.Fatalf("AddWorkSession: %v", err)
	}
	if entry.Total != 4000 {
		t.Fatalf("entry total = %v, want 4000", entry.Total)
	}
	if entry.ID == "" || entry.CreatedAt == 0 {
		t.Fatalf("entry missing id or timestamp: %+v", entry)
	}

	got, err := repo.FindJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("FindJob: %v", err)
	}
	if got.Total != 4000 || len(got.History) != 1 {
		t.Fatalf("job after session: total=%v history=%d", got.Total, len(got.History))
	}
}

func TestAddWorkSessionErrors(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()
	job, _ := repo.AddJob(ctx, "Cafe", 1000)

	if _, err := repo.AddWorkSession(ctx, "missing", "2026-08-28", "18:00", "22:00", "", ""); !errors.Is(err, core.ErrJobNotFound) {
		t.Fatalf("unknown job err = %v, want ErrJobNotFound", err)
	}
	if _, err := repo.AddWorkSession(ctx, job.ID, "28/08/2026", "18:00", "22:00", "", ""); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("bad date err = %v, want ErrInvalidDate", err)
	}
}

func TestAddWorkSessionMalformedTimesDegradeToZeroPay(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()
	job, _ := repo.AddJob(ctx, "Cafe", 1000)

	entry, err := repo.AddWorkSession(ctx, job.ID, "2026-08-28", "", "22:00", "", "")
	if err != nil {
		t.Fatalf("AddWorkSession: %v", err)
	}
	if entry.Total != 0 {
		t.Fatalf("entry total = %v, want 0 for malformed time", entry.Total)
	}
}

func TestDeleteSession(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)
	e1, _ := repo.AddWorkSession(ctx, job.ID, "2026-08-27", "18:00", "22:00", "", "")
	e2, _ := repo.AddWorkSession(ctx, job.ID, "2026-08-28", "22:00", "06:00", "", "")

	ok, err := repo.DeleteSession(ctx, job.ID, e1.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteSession = %v, %v", ok, err)
	}
	got, _ := repo.FindJob(ctx, job.ID)
	if len(got.History) != 1 || got.History[0].ID != e2.ID {
		t.Fatalf("history after delete: %+v", got.History)
	}
	if got.Total != 10000 {
		t.Fatalf("total after delete = %v, want 10000", got.Total)
	}
}

func TestDeleteSessionUnknownIDIsSuccessfulNoOp(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)
	_, _ = repo.AddWorkSession(ctx, job.ID, "2026-08-28", "18:00", "22:00", "", "")

	ok, err := repo.DeleteSession(ctx, job.ID, "no-such-session")
	if err != nil || !ok {
		t.Fatalf("DeleteSession = %v, %v, want true, nil", ok, err)
	}
	got, _ := repo.FindJob(ctx, job.ID)
	if len(got.History) != 1 || got.Total != 4000 {
		t.Fatalf("no-op delete changed state: history=%d total=%v", len(got.History), got.Total)
	}

	// Missing job, however, fails.
	ok, err = repo.DeleteSession(ctx, "missing", "whatever")
	if err != nil || ok {
		t.Fatalf("DeleteSession on missing job = %v, %v, want false, nil", ok, err)
	}
}

func TestDeleteJob(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)
	_, _ = repo.AddWorkSession(ctx, job.ID, "2026-08-28", "18:00", "22:00", "", "")

	ok, err := repo.DeleteJob(ctx, job.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteJob = %v, %v", ok, err)
	}
	jobs, _ := repo.LoadAll(ctx)
	if len(jobs) != 0 {
		t.Fatalf("jobs after delete: %d", len(jobs))
	}

	ok, err = repo.DeleteJob(ctx, job.ID)
	if err != nil || ok {
		t.Fatalf("second DeleteJob = %v, %v, want false, nil", ok, err)
	}
}

func TestRecalcAllTotalsRepairsStaleTotals(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)
	_, _ = repo.AddWorkSession(ctx, job.ID, "2026-08-28", "18:00", "22:00", "", "")

	// Corrupt the cached total as an external edit would.
	jobs, _ := repo.LoadAll(ctx)
	jobs[0].Total = 99999
	if err := repo.SaveAll(ctx, jobs); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	if err := repo.RecalcAllTotals(ctx); err != nil {
		t.Fatalf("RecalcAllTotals: %v", err)
	}
	got, _ := repo.FindJob(ctx, job.ID)
	if got.Total != 4000 {
		t.Fatalf("total after recalc = %v, want 4000", got.Total)
	}
}

func TestRecalcAllTotalsIsIdempotent(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)
	_, _ = repo.AddWorkSession(ctx, job.ID, "2026-08-28", "22:00", "06:00", "00:00", "00:45")

	if err := repo.RecalcAllTotals(ctx); err != nil {
		t.Fatalf("first recalc: %v", err)
	}
	first := store.Snapshot()[JobsKey]

	if err := repo.RecalcAllTotals(ctx); err != nil {
		t.Fatalf("second recalc: %v", err)
	}
	second := store.Snapshot()[JobsKey]

	if first != second {
		t.Fatalf("recalc not idempotent:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestCalculateOverallTotal(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()

	a, _ := repo.AddJob(ctx, "Cafe", 1000)
	b, _ := repo.AddJob(ctx, "Conbini", 1200)
	_, _ = repo.AddWorkSession(ctx, a.ID, "2026-08-27", "18:00", "22:00", "", "")
	_, _ = repo.AddWorkSession(ctx, b.ID, "2026-08-28", "09:00", "17:00", "12:00", "13:00")

	total, err := repo.CalculateOverallTotal(ctx)
	if err != nil {
		t.Fatalf("CalculateOverallTotal: %v", err)
	}
	if total != 4000+8400 {
		t.Fatalf("overall total = %v, want 12400", total)
	}
}

func TestSaveLoadRoundTripIsStable(t *testing.T) {
	repo, store := newTestRepo()
	ctx := context.Background()

	job, _ := repo.AddJob(ctx, "Cafe", 1000)
	_, _ = repo.AddWorkSession(ctx, job.ID, "2026-08-28", "20:00", "23:00", "22:00", "22:30")

	before := store.Snapshot()[JobsKey]
	jobs, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := repo.SaveAll(ctx, jobs); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	after := store.Snapshot()[JobsKey]

	if before != after {
		t.Fatalf("save(load()) changed payload:\nbefore: %s\nafter:  %s", before, after)
	}
}

// TestTotalInvariantUnderRandomMutation drives a random sequence of session
// adds and deletes and checks after every step that the cached job total is
// exactly the rounded resummation of the remaining history.
func TestTotalInvariantUnderRandomMutation(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	job, _ := repo.AddJob(ctx, "Cafe", 987)

	starts := []string{"08:15", "17:00", "21:30", "22:00", "23:45"}
	ends := []string{"12:00", "22:00", "02:00", "06:00", "23:45"}

	var sessionIDs []string
	for step := 0; step < 60; step++ {
		if len(sessionIDs) == 0 || rng.Intn(3) != 0 {
			entry, err := repo.AddWorkSession(ctx, job.ID, "2026-08-28",
				starts[rng.Intn(len(starts))], ends[rng.Intn(len(ends))], "", "")
			if err != nil {
				t.Fatalf("step %d AddWorkSession: %v", step, err)
			}
			sessionIDs = append(sessionIDs, entry.ID)
		} else {
			i := rng.Intn(len(sessionIDs))
			if _, err := repo.DeleteSession(ctx, job.ID, sessionIDs[i]); err != nil {
				t.Fatalf("step %d DeleteSession: %v", step, err)
			}
			sessionIDs = append(sessionIDs[:i], sessionIDs[i+1:]...)
		}

		got, err := repo.FindJob(ctx, job.ID)
		if err != nil {
			t.Fatalf("step %d FindJob: %v", step, err)
		}
		var sum float64
		for _, h := range got.History {
			sum += h.Total
		}
		if got.Total != core.Round2(sum) {
			t.Fatalf("step %d invariant broken: total=%v sum=%v", step, got.Total, core.Round2(sum))
		}
	}
}

// failingStore simulates an unhealthy backend.
type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }
func (f failingStore) Delete(context.Context, string) error              { return f.err }

func TestBackendFailureSurfacesAsPersistenceError(t *testing.T) {
	backendErr := errors.New("disk full")
	repo := NewRepository(failingStore{err: backendErr}, nil)

	_, err := repo.LoadAll(context.Background())
	var perr *kvstore.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("LoadAll err = %T %v, want *kvstore.PersistenceError", err, err)
	}
	if !errors.Is(err, backendErr) {
		t.Fatalf("PersistenceError does not wrap backend error: %v", err)
	}

	if _, err := repo.AddJob(context.Background(), "Cafe", 1000); !errors.As(err, &perr) {
		t.Fatalf("AddJob err = %v, want persistence error", err)
	}
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	shifts  int
	changes int
	err     error
}

func (n *recordingNotifier) ShiftRecorded(context.Context, string, string) error {
	n.shifts++
	return n.err
}

func (n *recordingNotifier) LedgerChanged(context.Context) error {
	n.changes++
	return n.err
}

func TestNotificationsAreBestEffort(t *testing.T) {
	store := memory.New()
	notifier := &recordingNotifier{err: errors.New("broker down")}
	repo := NewRepository(store, notifier)
	ctx := context.Background()

	// Notifier failures never fail the operation.
	job, err := repo.AddJob(ctx, "Cafe", 1000)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if _, err := repo.AddWorkSession(ctx, job.ID, "2026-08-28", "18:00", "22:00", "", ""); err != nil {
		t.Fatalf("AddWorkSession: %v", err)
	}

	if notifier.shifts != 1 || notifier.changes != 1 {
		t.Fatalf("notifications: shifts=%d changes=%d, want 1 and 1", notifier.shifts, notifier.changes)
	}
}
