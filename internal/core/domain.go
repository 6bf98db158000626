package core

import (
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"strconv"
	"time"
)

type (
	// Job is a named part-time employment with an hourly wage and its
	// recorded work sessions.
	Job struct {
		ID      string        `json:"id"`
		Name    string        `json:"name"`
		Wage    float64       `json:"wage"`
		History []ShiftRecord `json:"history"`
		Total   float64       `json:"total"`
	}

	// ShiftRecord is one recorded work session. Total is the pay computed
	// at creation time; CreatedAt is epoch milliseconds and only used for
	// presentation ordering, never for pay computation.
	ShiftRecord struct {
		ID        string  `json:"id"`
		Date      string  `json:"date"`
		StartTime string  `json:"startTime"`
		EndTime   string  `json:"endTime"`
		RestStart string  `json:"restStart,omitempty"`
		RestEnd   string  `json:"restEnd,omitempty"`
		Total     float64 `json:"total"`
		CreatedAt int64   `json:"createdAt"`
	}
)

var (
	ErrInvalidJobName   = errors.New("invalid job name")
	ErrInvalidWage      = errors.New("invalid wage")
	ErrDuplicateJobName = errors.New("duplicate job name")
	ErrJobNotFound      = errors.New("job not found")
	ErrInvalidDate      = errors.New("invalid date")
)

// RecalcTotal recomputes the cached job total from scratch as the rounded sum
// of its history entries. Totals are never accumulated incrementally across
// edits; full resummation avoids drift from double-counting or stale rounding.
func (j *Job) RecalcTotal() {
	var sum float64
	for _, h := range j.History {
		if isFinite(h.Total) {
			sum += h.Total
		}
	}
	j.Total = Round2(sum)
}

// ValidateName checks a job name at creation time. Uniqueness is the
// collection's concern; names compare case-sensitively, exact match.
func ValidateName(name string) error {
	if name == "" {
		return ErrInvalidJobName
	}
	return nil
}

// ValidateWage requires a finite, non-negative hourly rate.
func ValidateWage(wage float64) error {
	if !isFinite(wage) || wage < 0 {
		return ErrInvalidWage
	}
	return nil
}

// ValidateDate requires a strict YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	t, err := time.Parse("2006-01-02", date)
	if err != nil || t.Format("2006-01-02") != date {
		return ErrInvalidDate
	}
	return nil
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewID returns an opaque unique identifier: the creation timestamp in epoch
// milliseconds plus a short random suffix.
func NewID() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 6)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		suffix[i] = chars[n.Int64()]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + string(suffix)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
