package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/currency"
	"kakeibo/internal/kvstore"
	applog "kakeibo/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps domain errors onto HTTP statuses: validation failures are
// 422, unknown ids 404, storage trouble 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrJobNotFound), errors.Is(err, core.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidJobName),
		errors.Is(err, core.ErrInvalidWage),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrDuplicateJobName),
		errors.Is(err, core.ErrInvalidCategoryName),
		errors.Is(err, core.ErrDuplicateCategoryName),
		errors.Is(err, core.ErrCategoryLocked),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, currency.ErrUnknownCurrency):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger := applog.FromContext(r.Context())
		var perr *kvstore.PersistenceError
		if errors.As(err, &perr) {
			logger.ErrorContext(r.Context(), "Storage failure", "op", perr.Op, "key", perr.Key, "error", perr.Err)
		} else {
			logger.ErrorContext(r.Context(), "Unhandled handler error", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON request body into dst, limited to 1MB.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
