package core

import (
	"errors"
	"math"
	"testing"
)

func TestRecalcTotal(t *testing.T) {
	job := Job{
		Wage: 1000,
		History: []ShiftRecord{
			{Total: 4000},
			{Total: 2625},
			{Total: 0.01},
		},
	}
	job.RecalcTotal()
	if job.Total != 6625.01 {
		t.Fatalf("Total = %v, want 6625.01", job.Total)
	}

	// Non-finite entry totals are skipped rather than poisoning the sum.
	job.History = append(job.History, ShiftRecord{Total: math.NaN()})
	job.RecalcTotal()
	if job.Total != 6625.01 {
		t.Fatalf("Total after NaN entry = %v, want 6625.01", job.Total)
	}

	job.History = nil
	job.RecalcTotal()
	if job.Total != 0 {
		t.Fatalf("Total of empty history = %v, want 0", job.Total)
	}
}

func TestValidateWage(t *testing.T) {
	tests := []struct {
		name string
		wage float64
		ok   bool
	}{
		{"zero", 0, true},
		{"positive", 1050, true},
		{"negative", -1, false},
		{"NaN", math.NaN(), false},
		{"infinite", math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWage(tt.wage)
			if tt.ok && err != nil {
				t.Errorf("ValidateWage(%v) = %v, want nil", tt.wage, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidWage) {
				t.Errorf("ValidateWage(%v) = %v, want ErrInvalidWage", tt.wage, err)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	for _, good := range []string{"2026-08-28", "2024-02-29", "1999-12-31"} {
		if err := ValidateDate(good); err != nil {
			t.Errorf("ValidateDate(%q) = %v, want nil", good, err)
		}
	}
	for _, bad := range []string{"", "2026-8-28", "28-08-2026", "2026/08/28", "2025-02-29", "2026-08-28T00:00"} {
		if err := ValidateDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ValidateDate(%q) = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.234, 1.23},
		{1.236, 1.24},
		{-1.236, -1.24},
		{7987.5, 7987.5},
		{2625, 2625},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID returned empty string")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID produced duplicate %q", id)
		}
		seen[id] = struct{}{}
	}
}
