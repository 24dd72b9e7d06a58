package http

import (
	"net/http"

	"finledger/internal/core"
	"finledger/internal/log"
)

const defaultSnapshotLimit = 12

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var in core.NewBudget
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, r, log.OpUpdate, err)
		return
	}
	if in.OwnerID == "" {
		in.OwnerID = s.ownerID
	}
	b, err := s.engine.Budgets.SetBudget(r.Context(), in)
	if err != nil {
		writeFailure(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthParam(r.URL.Query(), "month", s.today().Period())
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	status, err := s.engine.Budgets.Status(r.Context(), month, s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type alertResponse struct {
	Alert *core.BudgetAlert `json:"alert"`
}

// handleBudgetAlert answers {"alert": null} when spend is below the alert
// threshold or no budget exists.
func (s *Server) handleBudgetAlert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month, err := parseMonthParam(query, "month", s.today().Period())
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	category := core.Category{Level1: query.Get("level1"), Level2: query.Get("level2")}
	if err := category.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "category: "+err.Error())
		return
	}

	alert, err := s.engine.Budgets.CheckAlert(r.Context(), month, category, s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, alertResponse{Alert: alert})
}

func (s *Server) handleUpsertGoal(w http.ResponseWriter, r *http.Request) {
	var in core.NewGoal
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, r, log.OpUpdate, err)
		return
	}
	if in.OwnerID == "" {
		in.OwnerID = s.ownerID
	}
	g, err := s.engine.Goals.UpsertGoal(r.Context(), in)
	if err != nil {
		writeFailure(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.engine.Goals.ListGoals(r.Context(), s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": goals})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.Goals.GetGoal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	if g == nil {
		writeNotFound(w, "goal")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), defaultSnapshotLimit)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	snaps, err := s.engine.Snapshots.List(r.Context(), s.owner(r), limit)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": snaps})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeFailure(w, r, log.OpSnapshot, badRequestf("month: %v", err))
		return
	}
	snap, err := s.engine.Snapshots.Get(r.Context(), month, s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpSnapshot, err)
		return
	}
	if snap == nil {
		writeNotFound(w, "snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleRegenerateSnapshot recomputes the month synchronously, for callers
// that cannot wait for the background refresh after a write.
func (s *Server) handleRegenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeFailure(w, r, log.OpSnapshot, badRequestf("month: %v", err))
		return
	}
	snap, err := s.engine.Snapshots.Regenerate(r.Context(), month, s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpSnapshot, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
