// Package currency converts JPY amounts into a user-selected display
// currency using periodically refreshed exchange rates.
//
// Rates are best effort: when the provider is unreachable or returns garbage
// the last known table is kept, and unknown codes convert at rate 1 so
// amounts are never lost, only shown unconverted.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"kakeibo/internal/kvstore"
)

// SelectedKey is the kvstore key holding the chosen display currency.
const SelectedKey = "sb_currency"

// DefaultCurrencies is the set of selectable display currencies.
var DefaultCurrencies = []string{"JPY", "USD", "MMK", "NPR", "TWD", "VND", "RUB", "CNY", "KRW", "EUR"}

var ErrUnknownCurrency = errors.New("unknown currency code")

const (
	defaultOpenBaseURL  = "https://api.exchangerate.host"
	defaultKeyedBaseURL = "https://v6.exchangerate-api.com"
	defaultInterval     = 30 * time.Minute
)

type Config struct {
	// BaseURL overrides the rate provider host, mainly for tests.
	BaseURL string
	// APIKey switches to the keyed provider when set.
	APIKey   string
	Interval time.Duration
	Client   *http.Client
}

type Service struct {
	store    kvstore.Store
	client   *http.Client
	baseURL  string
	apiKey   string
	interval time.Duration

	mu    sync.RWMutex
	rates map[string]float64
}

func New(store kvstore.Store, cfg Config) *Service {
	s := &Service{
		store:    store,
		client:   cfg.Client,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		interval: cfg.Interval,
		rates:    map[string]float64{"JPY": 1},
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 10 * time.Second}
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.baseURL == "" {
		if s.apiKey != "" {
			s.baseURL = defaultKeyedBaseURL
		} else {
			s.baseURL = defaultOpenBaseURL
		}
	}
	return s
}

// Run refreshes rates immediately and then on every tick until the context
// is cancelled. Fetch failures are logged and the previous table is kept.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Initial rate fetch failed, using stale table", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "Rate refresh failed, keeping previous table", "error", err)
			}
		}
	}
}

// Refresh fetches the rate table once and swaps it in on success.
func (s *Service) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ratesURL(), nil)
	if err != nil {
		return fmt.Errorf("building rates request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading rates response: %w", err)
	}

	var payload struct {
		Rates           map[string]float64 `json:"rates"`
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decoding rates response: %w", err)
	}

	table := payload.Rates
	if len(payload.ConversionRates) > 0 {
		table = payload.ConversionRates
	}
	if len(table) == 0 {
		return errors.New("rate provider returned no rates")
	}
	table["JPY"] = 1

	s.mu.Lock()
	s.rates = table
	s.mu.Unlock()

	slog.DebugContext(ctx, "Exchange rates refreshed", "currencies", len(table))
	return nil
}

func (s *Service) ratesURL() string {
	if s.apiKey != "" {
		return fmt.Sprintf("%s/v6/%s/latest/JPY", s.baseURL, s.apiKey)
	}
	return fmt.Sprintf("%s/latest?base=JPY&symbols=%s",
		s.baseURL, url.QueryEscape(strings.Join(DefaultCurrencies, ",")))
}

// Rates returns a copy of the current rate table.
func (s *Service) Rates() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.rates))
	for k, v := range s.rates {
		out[k] = v
	}
	return out
}

// Rate returns the conversion rate for code, falling back to 1 when the code
// is not in the table.
func (s *Service) Rate(code string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rates[code]; ok {
		return r
	}
	return 1
}

// Selected returns the stored display currency, defaulting to JPY.
func (s *Service) Selected(ctx context.Context) (string, error) {
	raw, ok, err := s.store.Get(ctx, SelectedKey)
	if err != nil {
		return "", &kvstore.PersistenceError{Op: "get", Key: SelectedKey, Err: err}
	}
	code := strings.TrimSpace(raw)
	if !ok || code == "" {
		return "JPY", nil
	}
	return code, nil
}

// SetSelected stores the display currency after validating it against the
// selectable set.
func (s *Service) SetSelected(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !isKnown(code) {
		return fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	if err := s.store.Set(ctx, SelectedKey, code); err != nil {
		return &kvstore.PersistenceError{Op: "set", Key: SelectedKey, Err: err}
	}
	return nil
}

// Convert turns a JPY amount into the selected display currency.
func (s *Service) Convert(ctx context.Context, jpy float64) (float64, string, error) {
	code, err := s.Selected(ctx)
	if err != nil {
		return 0, "", err
	}
	return jpy * s.Rate(code), code, nil
}

// Format renders a JPY amount in the selected currency. JPY is shown without
// decimals, everything else with two.
func (s *Service) Format(ctx context.Context, jpy float64) (string, error) {
	value, code, err := s.Convert(ctx, jpy)
	if err != nil {
		return "", err
	}
	if code == "JPY" {
		return fmt.Sprintf("%.0f JPY", value), nil
	}
	return fmt.Sprintf("%.2f %s", value, code), nil
}

func isKnown(code string) bool {
	for _, c := range DefaultCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
