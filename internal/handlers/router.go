package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/middleware"
)

// RouterOptions holds the optional pieces mounted next to the REST API
type RouterOptions struct {
	CORSOrigins []string
	Metrics     http.Handler // served at /metrics when set
	WS          *WSHandler   // served at /ws when set
}

// NewRouter builds the chi router with middleware and all routes
func NewRouter(h *Handler, opts RouterOptions, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// websocket connections outlive the request timeout
	if opts.WS != nil {
		r.Get("/ws", opts.WS.HandleWebSocket)
		r.Get("/ws/stats", opts.WS.HandleStats)
	}
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/health", h.HealthCheck)

		r.Route("/api/v1", func(r chi.Router) {
			// Arbitrage
			r.Get("/arbitrage", h.GetArbitrage)
			r.Get("/arbitrage/history", h.GetArbitrageHistory)

			// Odds
			r.Get("/odds", h.GetOdds)
			r.Post("/refresh", h.Refresh)
			r.Get("/status", h.GetStatus)
			r.Get("/sports", h.GetSports)

			// Predictions
			r.Get("/predictions", h.GetPredictions)
			r.Get("/value-bets", h.GetValueBets)
			r.Get("/injuries", h.GetInjuries)

			// Bets
			r.Post("/bets", h.CreateBet)
			r.Get("/bets", h.GetBets)
			r.Get("/bets/summary", h.GetBetSummary)
			r.Post("/bets/auto-settle", h.AutoSettle)
			r.Post("/bets/{id}/settle", h.SettleBet)
		})
	})

	return r
}
