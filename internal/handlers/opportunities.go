package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/msfttoler/sports/internal/providers/espn"
	"github.com/msfttoler/sports/internal/scheduler"
	"github.com/msfttoler/sports/pkg/models"
)

// GetArbitrage returns the live arbitrage set
func (h *Handler) GetArbitrage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	arbs, err := h.store.LiveArbitrage(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve arbitrage", err)
		return
	}
	if arbs == nil {
		arbs = []models.ArbitrageOpportunity{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"arbitrage": arbs,
		"count":     len(arbs),
		"timestamp": time.Now().UTC(),
	})
}

// GetArbitrageHistory returns recent opportunities, live or not
// Query params: limit (1-500, default 50)
func (h *Handler) GetArbitrageHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit, ok := parseLimit(r)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "limit must be between 1 and 500", nil)
		return
	}

	arbs, err := h.store.ArbitrageHistory(ctx, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve arbitrage history", err)
		return
	}
	if arbs == nil {
		arbs = []models.ArbitrageOpportunity{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"arbitrage": arbs,
		"count":     len(arbs),
	})
}

// GetOdds returns the latest odds snapshot
// Query params: sport (label like "NBA" or provider key)
func (h *Handler) GetOdds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sport := strings.TrimSpace(r.URL.Query().Get("sport"))
	if key, ok := h.cfg.SportKeyFor(sport); ok {
		sport = key
	}

	rows, err := h.store.LatestOdds(ctx, sport)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve odds", err)
		return
	}
	if rows == nil {
		rows = []models.OddsRow{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"odds":  rows,
		"count": len(rows),
	})
}

// Refresh runs a refresh now and returns its result
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.refresher.RunNow(r.Context())
	if errors.Is(err, scheduler.ErrRefreshInProgress) {
		h.respondError(w, http.StatusConflict, "a refresh is already running", err)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "refresh failed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetStatus reports configuration, quota and the last refresh
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	usage, err := h.store.LatestAPIUsage(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve api usage", err)
		return
	}

	status := models.StatusResponse{
		APIKeyConfigured:       h.cfg.HasAPIKey(),
		RefreshIntervalSeconds: int(h.cfg.Scheduler.RefreshInterval.Seconds()),
		SchedulerEnabled:       h.refresher.Enabled(),
		SportsTracked:          h.cfg.SportKeys(),
		Markets:                h.cfg.OddsAPI.Markets,
		Regions:                h.cfg.OddsAPI.Regions,
		MinProfitPct:           h.cfg.Detection.MinProfitPct,
		APIUsage:               usage,
		LastRefresh:            h.refresher.LastResult(),
	}
	if h.clients != nil {
		status.Clients = h.clients.ClientCount()
	}

	h.respondJSON(w, http.StatusOK, status)
}

// GetSports lists the configured sports
func (h *Handler) GetSports(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sports": h.cfg.Sports,
		"count":  len(h.cfg.Sports),
	})
}

// GetPredictions returns predictions from the last refresh
// Query params: sport (optional)
func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	sport := h.sportFilter(r)
	preds := []models.Prediction{}
	for _, p := range h.refresher.Predictions() {
		if sport == "" || p.SportKey == sport {
			preds = append(preds, p)
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": preds,
		"count":       len(preds),
	})
}

// GetValueBets returns value bets from the last refresh
// Query params: sport (optional)
func (h *Handler) GetValueBets(w http.ResponseWriter, r *http.Request) {
	sport := h.sportFilter(r)
	bets := []models.ValueBet{}
	for _, b := range h.refresher.ValueBets() {
		if sport == "" || b.SportKey == sport {
			bets = append(bets, b)
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"value_bets": bets,
		"count":      len(bets),
	})
}

// GetInjuries returns league injury reports
// Query params: sport (required, label like "NBA" or provider key)
func (h *Handler) GetInjuries(w http.ResponseWriter, r *http.Request) {
	if h.injuries == nil {
		h.respondError(w, http.StatusServiceUnavailable, "injury reports are not configured", nil)
		return
	}

	sport := h.sportFilter(r)
	if sport == "" {
		h.respondError(w, http.StatusBadRequest, "sport is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	reports, err := h.injuries.FetchInjuries(ctx, sport)
	var unknown *espn.UnknownSportError
	switch {
	case errors.As(err, &unknown):
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		h.respondError(w, http.StatusBadGateway, "failed to retrieve injuries", err)
		return
	}
	if reports == nil {
		reports = []models.InjuryReport{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":    sport,
		"injuries": reports,
		"count":    len(reports),
	})
}

func (h *Handler) sportFilter(r *http.Request) string {
	sport := strings.TrimSpace(r.URL.Query().Get("sport"))
	if key, ok := h.cfg.SportKeyFor(sport); ok {
		return key
	}
	return sport
}
