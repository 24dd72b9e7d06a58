package http

import (
	"net/http"
	"strconv"
	"strings"

	"finledger/internal/core"
	"finledger/internal/log"
)

// handleRunAmortization runs the amortization batch for ?month=, the
// current month by default. The batch is idempotent per item and month.
func (s *Server) handleRunAmortization(w http.ResponseWriter, r *http.Request) {
	var month *core.Month
	if r.URL.Query().Get("month") != "" {
		m, err := parseMonthParam(r.URL.Query(), "month", core.Month{})
		if err != nil {
			writeFailure(w, r, log.OpAmortize, err)
			return
		}
		month = &m
	}

	result, err := s.engine.Amortization.Run(r.Context(), month)
	if err != nil {
		writeFailure(w, r, log.OpAmortize, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRunBilling bills the subscriptions due on ?date=, today by default.
func (s *Server) handleRunBilling(w http.ResponseWriter, r *http.Request) {
	day, err := parseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		writeFailure(w, r, log.OpBill, err)
		return
	}
	result, err := s.engine.Billing.ProcessBills(r.Context(), day)
	if err != nil {
		writeFailure(w, r, log.OpBill, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRunReminders lists the bills due ?days= after ?date=. Nothing is
// delivered; the worker owns notification delivery.
func (s *Server) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	day, err := parseDateParam(query, "date", s.today())
	if err != nil {
		writeFailure(w, r, log.OpRemind, err)
		return
	}
	days := s.reminderDaysAhead
	if v := strings.TrimSpace(query.Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 366 {
			writeError(w, http.StatusBadRequest, "days: must be between 0 and 366")
			return
		}
		days = n
	}

	reminders, err := s.engine.Billing.CheckReminders(r.Context(), day, days)
	if err != nil {
		writeFailure(w, r, log.OpRemind, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": day, "daysAhead": days, "items": reminders})
}
