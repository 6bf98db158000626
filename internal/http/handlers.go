package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// --- jobs and shifts ---

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.ledger.LoadAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

type createJobRequest struct {
	Name string  `json:"name"`
	Wage float64 `json:"wage"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := s.ledger.AddJob(r.Context(), sanitizeInput(req.Name), req.Wage)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummary()
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	removed, err := s.ledger.DeleteJob(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

type createShiftRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	RestStart string `json:"restStart"`
	RestEnd   string `json:"restEnd"`
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var req createShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := s.ledger.AddWorkSession(r.Context(), r.PathValue("id"),
		req.Date, req.StartTime, req.EndTime, req.RestStart, req.RestEnd)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.slogger.LogShiftRecorded(r.Context(), r.PathValue("id"), entry.ID, entry.Total)
	s.invalidateSummary()
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	removed, err := s.ledger.DeleteSession(r.Context(), r.PathValue("id"), r.PathValue("sid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

// --- budget categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.budget.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

type categoryRequest struct {
	Name  string  `json:"name"`
	Limit float64 `json:"limit"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat, err := s.budget.AddCategory(r.Context(), sanitizeInput(req.Name), req.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummary()
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.budget.UpdateCategory(r.Context(), r.PathValue("id"), sanitizeInput(req.Name), req.Limit); err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	removed, err := s.budget.DeleteCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

type spendRequest struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

func (s *Server) handleSpend(w http.ResponseWriter, r *http.Request) {
	var req spendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.budget.AddSpent(r.Context(), r.PathValue("id"), req.Amount, sanitizeInput(req.Note))
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummary()
	ts := time.UnixMilli(rec.Timestamp)
	s.invalidateCalendar(ts.Year(), int(ts.Month()))
	writeJSON(w, http.StatusCreated, rec)
}

// --- income, limit, summary, calendar ---

type valueRequest struct {
	Value float64 `json:"value"`
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.budget.SetIncome(r.Context(), req.Value); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.budget.SetLimit(r.Context(), req.Value); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if s.rates == nil {
		writeError(w, http.StatusUnprocessableEntity, "currency selection unavailable")
		return
	}
	if err := s.rates.SetSelected(r.Context(), req.Code); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSummary()
	w.WriteHeader(http.StatusNoContent)
}

// SummaryResponse aggregates the month's budget standing with the overall
// shift earnings, rendered in the selected display currency.
type SummaryResponse struct {
	Income           float64 `json:"income"`
	Limit            float64 `json:"limit"`
	Spent            float64 `json:"spent"`
	Remaining        float64 `json:"remaining"`
	ShiftTotal       float64 `json:"shiftTotal"`
	Currency         string  `json:"currency"`
	RemainingDisplay string  `json:"remainingDisplay"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if data, found := s.summaryCache.Get(summaryCacheKey); found {
		slog.DebugContext(r.Context(), "Summary cache hit")
		writeJSON(w, http.StatusOK, data)
		return
	}

	resp, err := s.buildSummary(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.summaryCache.Set(summaryCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildSummary(ctx context.Context) (SummaryResponse, error) {
	sum, err := s.budget.Summary(ctx)
	if err != nil {
		return SummaryResponse{}, err
	}
	shiftTotal, err := s.ledger.CalculateOverallTotal(ctx)
	if err != nil {
		return SummaryResponse{}, err
	}

	resp := SummaryResponse{
		Income:     sum.Income,
		Limit:      sum.Limit,
		Spent:      sum.Spent,
		Remaining:  sum.Remaining,
		ShiftTotal: shiftTotal,
		Currency:   "JPY",
	}
	if s.rates != nil {
		display, err := s.rates.Format(ctx, sum.Remaining)
		if err != nil {
			return SummaryResponse{}, err
		}
		code, err := s.rates.Selected(ctx)
		if err != nil {
			return SummaryResponse{}, err
		}
		resp.Currency = code
		resp.RemainingDisplay = display
	} else {
		resp.RemainingDisplay = strconv.FormatFloat(sum.Remaining, 'f', -1, 64) + " JPY"
	}
	return resp, nil
}

type calendarResponse struct {
	Year  int                `json:"year"`
	Month int                `json:"month"`
	Days  map[string]float64 `json:"days"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	if month < 1 || month > 12 {
		writeError(w, http.StatusUnprocessableEntity, "month must be between 1 and 12")
		return
	}

	key := strconv.Itoa(year) + "-" + strconv.Itoa(month)
	if days, found := s.calendarCache.Get(key); found {
		slog.DebugContext(r.Context(), "Calendar cache hit", "year", year, "month", month)
		writeJSON(w, http.StatusOK, calendarResponse{Year: year, Month: month, Days: days})
		return
	}

	days, err := s.budget.DailyTotals(r.Context(), year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.calendarCache.Set(key, days)
	writeJSON(w, http.StatusOK, calendarResponse{Year: year, Month: month, Days: days})
}
