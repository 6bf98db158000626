// Package budget manages spending categories, monthly income and limit, all
// persisted through the kvstore under the same keys earlier clients used.
//
// The persistence model mirrors the shift ledger: full read-modify-write
// cycles per mutation, silent degrade to zero/empty on malformed stored
// values, backend failures surfaced as PersistenceError.
package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/kvstore"
)

// Storage keys shared with earlier clients of the same store.
const (
	CategoriesKey      = "sb_categories"
	IncomeKey          = "sb_income"
	LimitKey           = "sb_limit"
	BalanceOverrideKey = "sb_balance_override"
	LastMonthKey       = "sb_lastMonth"
)

type Repository struct {
	store kvstore.Store
}

func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// Categories reads the category collection, degrading to empty on missing or
// malformed data.
func (r *Repository) Categories(ctx context.Context) ([]core.Category, error) {
	raw, ok, err := r.store.Get(ctx, CategoriesKey)
	if err != nil {
		return nil, &kvstore.PersistenceError{Op: "get", Key: CategoriesKey, Err: err}
	}
	if !ok {
		return []core.Category{}, nil
	}
	var cats []core.Category
	if err := json.Unmarshal([]byte(raw), &cats); err != nil {
		slog.WarnContext(ctx, "Stored categories are unparseable, treating as empty",
			"key", CategoriesKey, "error", err)
		return []core.Category{}, nil
	}
	if cats == nil {
		cats = []core.Category{}
	}
	return cats, nil
}

func (r *Repository) saveCategories(ctx context.Context, cats []core.Category) error {
	if cats == nil {
		cats = []core.Category{}
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return &kvstore.PersistenceError{Op: "marshal", Key: CategoriesKey, Err: err}
	}
	if err := r.store.Set(ctx, CategoriesKey, string(raw)); err != nil {
		return &kvstore.PersistenceError{Op: "set", Key: CategoriesKey, Err: err}
	}
	return nil
}

// AddCategory creates a spending category. Unlike jobs, category names are
// deduplicated on the trimmed, lowercased form.
func (r *Repository) AddCategory(ctx context.Context, name string, limit float64) (*core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrInvalidCategoryName
	}

	cats, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	key := core.NormalizeCategoryName(name)
	for _, c := range cats {
		if core.NormalizeCategoryName(c.Name) == key {
			return nil, core.ErrDuplicateCategoryName
		}
	}

	cat := core.Category{
		ID:      core.NewID(),
		Name:    name,
		Limit:   limit,
		History: []core.SpendRecord{},
	}
	cats = append(cats, cat)
	if err := r.saveCategories(ctx, cats); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Category created", "category_id", cat.ID, "name", cat.Name, "limit", cat.Limit)
	return &cat, nil
}

// AddSpent records an expense against a category and recomputes its cached
// spent figure from the full history.
func (r *Repository) AddSpent(ctx context.Context, categoryID string, amount float64, note string) (*core.SpendRecord, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return nil, err
	}

	cats, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	idx := findCategory(cats, categoryID)
	if idx < 0 {
		return nil, core.ErrCategoryNotFound
	}

	rec := core.SpendRecord{
		ID:        core.NewID(),
		Amount:    amount,
		Note:      strings.TrimSpace(note),
		Timestamp: time.Now().UnixMilli(),
	}
	cat := &cats[idx]
	cat.History = append(cat.History, rec)
	cat.RecalcSpent()

	if err := r.saveCategories(ctx, cats); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Spend recorded",
		"category_id", cat.ID, "amount", rec.Amount, "spent", cat.Spent)
	return &rec, nil
}

// UpdateCategory renames a category and/or changes its limit. Locked
// categories cannot be renamed.
func (r *Repository) UpdateCategory(ctx context.Context, categoryID, name string, limit float64) error {
	cats, err := r.Categories(ctx)
	if err != nil {
		return err
	}
	idx := findCategory(cats, categoryID)
	if idx < 0 {
		return core.ErrCategoryNotFound
	}

	cat := &cats[idx]
	name = strings.TrimSpace(name)
	if name != "" && name != cat.Name {
		if cat.Locked {
			return core.ErrCategoryLocked
		}
		key := core.NormalizeCategoryName(name)
		for i, c := range cats {
			if i != idx && core.NormalizeCategoryName(c.Name) == key {
				return core.ErrDuplicateCategoryName
			}
		}
		cat.Name = name
	}
	cat.Limit = limit

	return r.saveCategories(ctx, cats)
}

// DeleteCategory removes the category and its history. Locked categories
// cannot be removed.
func (r *Repository) DeleteCategory(ctx context.Context, categoryID string) (bool, error) {
	cats, err := r.Categories(ctx)
	if err != nil {
		return false, err
	}
	idx := findCategory(cats, categoryID)
	if idx < 0 {
		return false, nil
	}
	if cats[idx].Locked {
		return false, core.ErrCategoryLocked
	}

	cats = append(cats[:idx], cats[idx+1:]...)
	if err := r.saveCategories(ctx, cats); err != nil {
		return false, err
	}
	return true, nil
}

// Income returns the stored monthly income, zero when absent or malformed.
func (r *Repository) Income(ctx context.Context) (float64, error) {
	return r.getFloat(ctx, IncomeKey)
}

func (r *Repository) SetIncome(ctx context.Context, v float64) error {
	return r.setFloat(ctx, IncomeKey, v)
}

// Limit returns the stored monthly spending limit.
func (r *Repository) Limit(ctx context.Context) (float64, error) {
	return r.getFloat(ctx, LimitKey)
}

func (r *Repository) SetLimit(ctx context.Context, v float64) error {
	return r.setFloat(ctx, LimitKey, v)
}

// BalanceOverride returns the manual balance correction if one is set.
func (r *Repository) BalanceOverride(ctx context.Context) (float64, bool, error) {
	raw, ok, err := r.store.Get(ctx, BalanceOverrideKey)
	if err != nil {
		return 0, false, &kvstore.PersistenceError{Op: "get", Key: BalanceOverrideKey, Err: err}
	}
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false, nil
	}
	return v, true, nil
}

func (r *Repository) SetBalanceOverride(ctx context.Context, v float64) error {
	return r.setFloat(ctx, BalanceOverrideKey, v)
}

func (r *Repository) ClearBalanceOverride(ctx context.Context) error {
	if err := r.store.Delete(ctx, BalanceOverrideKey); err != nil {
		return &kvstore.PersistenceError{Op: "delete", Key: BalanceOverrideKey, Err: err}
	}
	return nil
}

// EnsureMonth resets income, limit, balance override and categories when the
// stored month differs from now's month. Reports whether a reset happened.
// Run once at application start.
func (r *Repository) EnsureMonth(ctx context.Context, now time.Time) (bool, error) {
	current := int(now.Month())

	raw, ok, err := r.store.Get(ctx, LastMonthKey)
	if err != nil {
		return false, &kvstore.PersistenceError{Op: "get", Key: LastMonthKey, Err: err}
	}
	if ok {
		if stored, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && stored == current {
			return false, nil
		}
	}

	slog.InfoContext(ctx, "New month detected, resetting budget state", "month", current)
	if err := r.SetIncome(ctx, 0); err != nil {
		return false, err
	}
	if err := r.SetLimit(ctx, 0); err != nil {
		return false, err
	}
	if err := r.ClearBalanceOverride(ctx); err != nil {
		return false, err
	}
	if err := r.saveCategories(ctx, []core.Category{}); err != nil {
		return false, err
	}
	if err := r.store.Set(ctx, LastMonthKey, strconv.Itoa(current)); err != nil {
		return false, &kvstore.PersistenceError{Op: "set", Key: LastMonthKey, Err: err}
	}
	return true, nil
}

// DailyTotals sums spend records per calendar day for the given month.
// Keys are YYYY-MM-DD.
func (r *Repository) DailyTotals(ctx context.Context, year, month int) (map[string]float64, error) {
	cats, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	for _, cat := range cats {
		for _, h := range cat.History {
			ts := time.UnixMilli(h.Timestamp)
			if ts.Year() != year || int(ts.Month()) != month {
				continue
			}
			day := fmt.Sprintf("%04d-%02d-%02d", ts.Year(), int(ts.Month()), ts.Day())
			totals[day] = core.Round2(totals[day] + h.Amount)
		}
	}
	return totals, nil
}

// Summary aggregates the month's standing. Remaining is income minus total
// spend unless a manual balance override is set.
func (r *Repository) Summary(ctx context.Context) (core.BudgetSummary, error) {
	income, err := r.Income(ctx)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	limit, err := r.Limit(ctx)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	cats, err := r.Categories(ctx)
	if err != nil {
		return core.BudgetSummary{}, err
	}

	var spent float64
	for _, c := range cats {
		spent += c.Spent
	}
	spent = core.Round2(spent)

	remaining := core.Round2(income - spent)
	if override, ok, err := r.BalanceOverride(ctx); err != nil {
		return core.BudgetSummary{}, err
	} else if ok {
		remaining = override
	}

	return core.BudgetSummary{
		Income:    income,
		Limit:     limit,
		Spent:     spent,
		Remaining: remaining,
	}, nil
}

func (r *Repository) getFloat(ctx context.Context, key string) (float64, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return 0, &kvstore.PersistenceError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		// Malformed stored numbers degrade to zero.
		return 0, nil
	}
	return v, nil
}

func (r *Repository) setFloat(ctx context.Context, key string, v float64) error {
	if err := r.store.Set(ctx, key, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		return &kvstore.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func findCategory(cats []core.Category, id string) int {
	for i := range cats {
		if cats[i].ID == id {
			return i
		}
	}
	return -1
}
