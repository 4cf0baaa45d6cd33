package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msfttoler/sports/internal/settle"
	"github.com/msfttoler/sports/internal/store"
	"github.com/msfttoler/sports/pkg/models"
)

// CreateBet records a new pending bet
func (h *Handler) CreateBet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req models.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req.Sport = strings.TrimSpace(req.Sport)
	req.EventName = strings.TrimSpace(req.EventName)
	req.Pick = strings.TrimSpace(req.Pick)
	if req.Sport == "" || req.EventName == "" || req.Pick == "" {
		h.respondError(w, http.StatusBadRequest, "sport, event_name and pick are required", nil)
		return
	}
	if req.BetType == "" {
		req.BetType = models.BetTypeMoneyline
	}
	if !models.IsValidBetType(req.BetType) {
		h.respondError(w, http.StatusBadRequest, "bet_type must be moneyline, spread, total or other", nil)
		return
	}
	if req.OurConfidence != nil && (*req.OurConfidence < 0 || *req.OurConfidence > 1) {
		h.respondError(w, http.StatusBadRequest, "our_confidence must be between 0 and 1", nil)
		return
	}

	potentialWin, err := settle.PotentialWin(req.Odds, req.Stake)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	bet := &models.Bet{
		Sport:         req.Sport,
		EventName:     req.EventName,
		HomeTeam:      strings.TrimSpace(req.HomeTeam),
		AwayTeam:      strings.TrimSpace(req.AwayTeam),
		BetType:       req.BetType,
		Pick:          req.Pick,
		SpreadLine:    req.SpreadLine,
		TotalLine:     req.TotalLine,
		Odds:          req.Odds,
		Stake:         req.Stake,
		PotentialWin:  potentialWin,
		OurConfidence: req.OurConfidence,
		Notes:         req.Notes,
	}

	if _, err := h.store.CreateBet(ctx, bet); err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to create bet", err)
		return
	}

	h.respondJSON(w, http.StatusCreated, bet)
}

// GetBets returns tracked bets, newest first
// Query params: limit (1-500, default 50)
func (h *Handler) GetBets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit, ok := parseLimit(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "limit must be between 1 and 500", nil)
		return
	}

	bets, err := h.store.GetBets(ctx, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve bets", err)
		return
	}
	if bets == nil {
		bets = []*models.Bet{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bets":  bets,
		"count": len(bets),
		"limit": limit,
	})
}

// GetBetSummary returns aggregate P&L statistics
func (h *Handler) GetBetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.store.BetSummary(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve summary", err)
		return
	}

	h.respondJSON(w, http.StatusOK, summary)
}

// SettleBet records a manual win, loss or push
func (h *Handler) SettleBet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	betID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid bet ID", err)
		return
	}

	var req models.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	bet, err := h.settler.SettleManual(ctx, betID, strings.ToLower(strings.TrimSpace(req.Result)))
	switch {
	case errors.Is(err, settle.ErrInvalidResult):
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "bet not found", nil)
		return
	case err != nil:
		h.respondError(w, http.StatusInternalServerError, "failed to settle bet", err)
		return
	}

	h.respondJSON(w, http.StatusOK, bet)
}

// AutoSettle grades pending bets against today's final scores
func (h *Handler) AutoSettle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	summary, err := h.settler.AutoSettle(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "auto-settle failed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, summary)
}
