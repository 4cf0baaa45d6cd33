package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/config"
	"github.com/msfttoler/sports/internal/store"
	"github.com/msfttoler/sports/pkg/contracts"
	"github.com/msfttoler/sports/pkg/models"
)

// Refresher is the scheduler surface the API needs
type Refresher interface {
	RunNow(ctx context.Context) (models.RefreshResult, error)
	LastResult() *models.RefreshResult
	Predictions() []models.Prediction
	ValueBets() []models.ValueBet
	Enabled() bool
}

// Settler grades tracked bets
type Settler interface {
	AutoSettle(ctx context.Context) (*models.SettleSummary, error)
	SettleManual(ctx context.Context, id int64, result string) (*models.Bet, error)
}

// ClientCounter reports connected live-feed clients
type ClientCounter interface {
	ClientCount() int
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store     store.Store
	refresher Refresher
	settler   Settler
	clients   ClientCounter
	injuries  contracts.InjuryProvider
	cfg       *config.Config
	log       logrus.FieldLogger
}

// NewHandler creates a new handler with dependencies. clients and injuries
// may be nil.
func NewHandler(st store.Store, refresher Refresher, settler Settler, clients ClientCounter, injuries contracts.InjuryProvider, cfg *config.Config, log logrus.FieldLogger) *Handler {
	return &Handler{
		store:     st,
		refresher: refresher,
		settler:   settler,
		clients:   clients,
		injuries:  injuries,
		cfg:       cfg,
		log:       log.WithField("component", "api"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "arb-finder",
	})
}

// parseLimit reads ?limit, accepting 1 to store.MaxHistoryLimit
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return store.DefaultHistoryLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > store.MaxHistoryLimit {
		return 0, false
	}
	return limit, true
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data, h.log)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, log logrus.FieldLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("error encoding response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		entry := h.log.WithError(err).WithField("status", status)
		if status >= http.StatusInternalServerError {
			entry.Error(message)
		} else {
			entry.Debug(message)
		}
	}

	h.respondJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
