package core

import (
	"errors"
	"strings"
)

type (
	// Category is a spending bucket with an optional monthly limit. Spent is
	// derived from History by full resummation, the same anti-drift rule used
	// for job totals. Locked categories cannot be renamed or removed.
	Category struct {
		ID      string        `json:"id"`
		Name    string        `json:"name"`
		Spent   float64       `json:"spent"`
		Limit   float64       `json:"limit,omitempty"`
		Locked  bool          `json:"locked,omitempty"`
		History []SpendRecord `json:"history,omitempty"`
	}

	// SpendRecord is one recorded expense against a category. Timestamp is
	// epoch milliseconds.
	SpendRecord struct {
		ID        string  `json:"id"`
		Amount    float64 `json:"amount"`
		Note      string  `json:"note,omitempty"`
		Timestamp int64   `json:"timestamp"`
	}

	// BudgetSummary aggregates the month's standing for display surfaces.
	BudgetSummary struct {
		Income    float64 `json:"income"`
		Limit     float64 `json:"limit"`
		Spent     float64 `json:"spent"`
		Remaining float64 `json:"remaining"`
	}
)

var (
	ErrInvalidCategoryName   = errors.New("invalid category name")
	ErrDuplicateCategoryName = errors.New("duplicate category name")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryLocked        = errors.New("category is locked")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// RecalcSpent recomputes the cached spent figure from the category history.
func (c *Category) RecalcSpent() {
	var sum float64
	for _, h := range c.History {
		if isFinite(h.Amount) {
			sum += h.Amount
		}
	}
	c.Spent = Round2(sum)
}

// NormalizeCategoryName is the duplicate-check key for categories: trimmed
// and lowercased. Jobs deliberately keep exact-match names; categories have
// always used the looser rule.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateAmount requires a finite, positive spend amount.
func ValidateAmount(amount float64) error {
	if !isFinite(amount) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
