package http

import (
	"net/http"

	"clubfund/internal/calculator"
)

type calculateRequest struct {
	Costs     []calculator.CostItem `json:"costs"`
	PlayerIDs []int64               `json:"playerIds"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := s.svc.Calculator.Calculate(r.Context(), req.Costs, req.PlayerIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
