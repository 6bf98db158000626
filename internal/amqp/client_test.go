package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "connection refused",
			err:      errors.New("connection refused"),
			expected: true,
		},
		{
			name:     "closed connection",
			err:      errors.New("connection closed"),
			expected: true,
		},
		{
			name:     "unexpected EOF",
			err:      errors.New("unexpected EOF"),
			expected: true,
		},
		{
			name:     "broken pipe",
			err:      errors.New("broken pipe"),
			expected: true,
		},
		{
			name:     "closed network connection",
			err:      errors.New("use of closed network connection"),
			expected: true,
		},
		{
			name:     "other error",
			err:      errors.New("some other error"),
			expected: false,
		},
		{
			name:     "validation error",
			err:      errors.New("invalid input"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestNewShiftSyncMessage(t *testing.T) {
	msg := NewShiftSyncMessage("job-1", "entry-1", 7)

	if msg.JobID != "job-1" {
		t.Errorf("NewShiftSyncMessage() JobID = %v, want job-1", msg.JobID)
	}
	if msg.EntryID != "entry-1" {
		t.Errorf("NewShiftSyncMessage() EntryID = %v, want entry-1", msg.EntryID)
	}
	if msg.Version != 7 {
		t.Errorf("NewShiftSyncMessage() Version = %v, want 7", msg.Version)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewShiftSyncMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewShiftSyncMessage() Timestamp should be recent")
	}
}

func TestShiftSyncMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ShiftSyncMessage{
		JobID:     "job-abc",
		EntryID:   "entry-def",
		Version:   2,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ShiftSyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ShiftSyncMessageFromJSON() error = %v", err)
	}

	if parsed.JobID != msg.JobID {
		t.Errorf("Parsed JobID = %v, want %v", parsed.JobID, msg.JobID)
	}
	if parsed.EntryID != msg.EntryID {
		t.Errorf("Parsed EntryID = %v, want %v", parsed.EntryID, msg.EntryID)
	}
	if parsed.Version != msg.Version {
		t.Errorf("Parsed Version = %v, want %v", parsed.Version, msg.Version)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestShiftSyncMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"jobId": 42, "entryId": []}`)

	if _, err := ShiftSyncMessageFromJSON(invalidJSON); err == nil {
		t.Error("ShiftSyncMessageFromJSON() should fail with invalid JSON")
	}
}
