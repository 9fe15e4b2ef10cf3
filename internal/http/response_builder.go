package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubfund/internal/calculator"
	"clubfund/internal/core"
	applog "clubfund/internal/log"
	"clubfund/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON encodes v before committing the status, so a value that cannot
// be encoded turns into a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if v == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		applog.Default(applog.ComponentHTTP).Error("Failed to encode response",
			applog.FieldStatusCode, status,
			applog.FieldError, err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error","code":"internal"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// respondError maps service and engine errors to status codes. Unexpected
// errors are logged and hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMalformedBody):
		writeError(w, r, http.StatusBadRequest, "malformed_body", err.Error())
	case errors.Is(err, calculator.ErrEmptySelection):
		writeError(w, r, http.StatusUnprocessableEntity, "empty_selection", err.Error())
	case errors.Is(err, calculator.ErrNoValidCostItems):
		writeError(w, r, http.StatusUnprocessableEntity, "no_valid_cost_items", err.Error())
	case errors.Is(err, calculator.ErrTotalOutOfRange):
		writeError(w, r, http.StatusUnprocessableEntity, "total_out_of_range", err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_input", err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
		writeError(w, r, http.StatusInternalServerError, "internal", "internal server error")
	}
}
