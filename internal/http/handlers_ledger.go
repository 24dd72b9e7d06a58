package http

import (
	"net/http"

	"finledger/internal/core"
	"finledger/internal/log"
)

const defaultTagLimit = 20

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.NewTransaction
	if err := decodeJSON(w, r, &in); err != nil {
		writeFailure(w, r, log.OpRecord, err)
		return
	}
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	if in.OwnerID == "" {
		in.OwnerID = s.ownerID
	}

	t, err := s.engine.Ledger.Record(r.Context(), in)
	if err != nil {
		writeFailure(w, r, log.OpRecord, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordResponse{Transaction: t, Alert: s.alertAfterRecord(r, t)})
}

type recordResponse struct {
	Transaction core.Transaction  `json:"transaction"`
	Alert       *core.BudgetAlert `json:"alert"`
}

// alertAfterRecord checks the budget of an analysed expense once it is
// durable. A failed lookup is logged and reported as no alert.
func (s *Server) alertAfterRecord(r *http.Request, t core.Transaction) *core.BudgetAlert {
	if t.Kind != core.KindExpense || !t.CountsTowardAnalysis {
		return nil
	}
	alert, err := s.engine.Budgets.CheckAlert(r.Context(), t.Month(), t.Category, t.OwnerID)
	if err != nil {
		sl := log.NewStructuredLogger(log.FromContext(r.Context()))
		sl.LogError(r.Context(), "Budget alert check failed", err, log.ComponentHTTP, log.OpRecord,
			log.NewFields().WithErrorType(log.ErrorTypeDatabase).
				WithTransaction(t.ID, string(t.Kind), t.Amount.String(), t.Category.String()))
		return nil
	}
	return alert
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.engine.Ledger.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	if t == nil {
		writeNotFound(w, "transaction")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f, err := parseFilter(query, s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	limit, err := parseLimit(query, defaultListLimit)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}

	items, err := s.engine.Ledger.ListTransactions(r.Context(), f, limit)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	stats, err := s.engine.Ledger.Statistics(r.Context(), f)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.owner(r))
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	rows, err := s.engine.Ledger.CategoryBreakdown(r.Context(), f)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.engine.Registry.ListCategories(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats})
}

func (s *Server) handleCommonTags(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), defaultTagLimit)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	tags, err := s.engine.Registry.CommonTags(r.Context(), limit)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tags})
}
