package log

import (
	"context"
	"errors"
	"testing"
)

func TestLogFieldsBuilder(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentLedger).
		WithOperation(OpCreate).
		WithShift("job-1", "entry-1", 4000).
		WithError(errors.New("boom"))

	if fields[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %v", fields[FieldComponent], ComponentLedger)
	}
	if fields[FieldJobID] != "job-1" || fields[FieldEntryID] != "entry-1" {
		t.Errorf("shift fields = %v/%v", fields[FieldJobID], fields[FieldEntryID])
	}
	if fields[FieldTotal] != float64(4000) {
		t.Errorf("total = %v, want 4000", fields[FieldTotal])
	}
	if fields[FieldError] != "boom" {
		t.Errorf("error = %v, want boom", fields[FieldError])
	}

	slice := fields.ToSlice()
	if len(slice) != len(fields)*2 {
		t.Errorf("ToSlice() len = %d, want %d", len(slice), len(fields)*2)
	}
}

func TestWithErrorNil(t *testing.T) {
	fields := NewFields().WithError(nil)
	if _, ok := fields[FieldError]; ok {
		t.Error("nil error should not add a field")
	}
}

func TestFromContextFallback(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("FromContext() returned nil")
	}
	if logger.Component() != "unknown" {
		t.Errorf("Component() = %q, want %q", logger.Component(), "unknown")
	}
}

func TestFromContextRoundTrip(t *testing.T) {
	want := New(Config{Component: ComponentHTTP})
	ctx := context.WithValue(context.Background(), LoggerContextKey, want)
	if got := FromContext(ctx); got != want {
		t.Error("FromContext() did not return the stored logger")
	}
}
