package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finledger/internal/core"
	"finledger/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeNotFound(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotFound, what+" not found")
}

// writeFailure maps err to a response: malformed requests and rejected
// input become 400, anything else is logged and answered with 500.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Err.Error(), Field: verr.Field})
		return
	}
	var breq *badRequest
	if errors.As(err, &breq) {
		writeError(w, http.StatusBadRequest, breq.Error())
		return
	}

	sl := log.NewStructuredLogger(log.FromContext(r.Context()))
	sl.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
		log.NewFields().WithErrorType(log.ErrorTypeInternal))
	writeError(w, http.StatusInternalServerError, "internal error")
}
