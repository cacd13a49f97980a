package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tradesentry/tradesentry/internal/approval"
	coreerrors "github.com/tradesentry/tradesentry/internal/errors"
	"github.com/tradesentry/tradesentry/internal/monitoring"
	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/pkg/types"
)

// apiServer exposes the approval pipeline over a small JSON API. The
// upstream order router calls /orders/validate before every submission
// and reports fills back through /positions.
type apiServer struct {
	service *approval.Service
	health  *monitoring.HealthChecker
}

func newAPI(service *approval.Service, health *monitoring.HealthChecker) *apiServer {
	return &apiServer{service: service, health: health}
}

func (a *apiServer) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/validate", a.handleValidate)
	mux.HandleFunc("POST /positions", a.handleOpen)
	mux.HandleFunc("POST /positions/close", a.handleClose)
	mux.HandleFunc("POST /breaker/trip", a.handleTrip)
	mux.HandleFunc("POST /breaker/reset", a.handleReset)
	mux.HandleFunc("GET /status", a.handleStatus)
}

func (a *apiServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	var intent types.OrderIntent
	if err := json.NewDecoder(r.Body).Decode(&intent); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.ValidateOrder(intent)
	if err != nil {
		status := http.StatusInternalServerError
		var core *coreerrors.CoreError
		if errors.As(err, &core) && core.Category == coreerrors.ErrorCategoryInput {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}

	a.health.RecordDecision()
	writeJSON(w, http.StatusOK, result)
}

func (a *apiServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	var pos portfolio.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := a.service.AddPosition(pos)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *apiServer) handleClose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string  `json:"id"`
		Quantity  float64 `json:"quantity,omitempty"` // 0 closes the whole position
		ExitPrice float64 `json:"exit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var trade portfolio.ClosedTrade
	var err error
	if req.Quantity > 0 {
		trade, err = a.service.ReducePosition(req.ID, req.Quantity, req.ExitPrice)
	} else {
		trade, err = a.service.ClosePosition(req.ID, req.ExitPrice)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (a *apiServer) handleTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Reason == "" {
		req.Reason = "manual trip via API"
	}

	a.service.Trip(req.Reason)
	a.health.SetBreakerState("TRIPPED")
	writeJSON(w, http.StatusOK, map[string]string{"state": "TRIPPED"})
}

func (a *apiServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ResetBreaker(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	a.health.SetBreakerState("ARMED")
	writeJSON(w, http.StatusOK, map[string]string{"state": "ARMED"})
}

func (a *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Status())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
