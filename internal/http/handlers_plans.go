package http

import (
	"net/http"
	"strings"

	"finledger/internal/core"
	"finledger/internal/log"
)

func (s *Server) handleCreatePrepaid(w http.ResponseWriter, r *http.Request) {
	var in core.NewPrepaid
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, r, log.OpCreate, err)
		return
	}
	if in.PaidOn.IsZero() {
		in.PaidOn = s.today()
	}
	if in.OwnerID == "" {
		in.OwnerID = s.ownerID
	}

	p, err := s.engine.Amortization.CreatePrepaidExpense(r.Context(), in)
	if err != nil {
		writeFailure(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPrepaid(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Amortization.GetPrepaidExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	if p == nil {
		writeNotFound(w, "prepaid expense")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPrepaid(w http.ResponseWriter, r *http.Request) {
	status := core.PrepaidStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", core.PrepaidInProgress, core.PrepaidCompleted:
	default:
		writeError(w, http.StatusBadRequest, "status: must be in_progress or completed")
		return
	}

	items, err := s.engine.Amortization.ListPrepaidExpenses(r.Context(), s.owner(r), status)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.NewSubscription
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, r, log.OpCreate, err)
		return
	}
	if in.StartDate.IsZero() {
		in.StartDate = s.today()
	}
	if in.OwnerID == "" {
		in.OwnerID = s.ownerID
	}

	sub, err := s.engine.Billing.CreateSubscription(r.Context(), in)
	if err != nil {
		writeFailure(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.engine.Billing.GetSubscription(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	if sub == nil {
		writeNotFound(w, "subscription")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.engine.Billing.ListSubscriptions(r.Context(), s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": subs})
}

type toggleRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	var in toggleRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, r, log.OpUpdate, err)
		return
	}
	sub, err := s.engine.Billing.ToggleSubscription(r.Context(), r.PathValue("id"), in.Active)
	if err != nil {
		writeFailure(w, r, log.OpUpdate, err)
		return
	}
	if sub == nil {
		writeNotFound(w, "subscription")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
