package http

import (
	"net/http"

	"clubfund/internal/core"
)

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Fund.ListContributions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecordContribution(w http.ResponseWriter, r *http.Request) {
	var c core.Contribution
	if err := decodeJSON(w, r, &c); err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.svc.Fund.RecordContribution(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	if err := s.svc.Fund.DeleteContribution(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBalances recomputes every balance from the full history on each call.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Fund.Balances(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
