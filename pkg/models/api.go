package models

import "time"

// RefreshResult summarises one odds refresh
type RefreshResult struct {
	EventsFetched        int       `json:"events_fetched"`
	ArbitrageFound       int       `json:"arbitrage_found"`
	PredictionsMade      int       `json:"predictions_made"`
	ValueBetsFound       int       `json:"value_bets_found"`
	SportsChecked        []string  `json:"sports_checked"`
	Errors               []string  `json:"errors"`
	APIRequestsRemaining *int      `json:"api_requests_remaining"`
	Timestamp            time.Time `json:"timestamp"`
	DurationMs           int64     `json:"duration_ms"`
}

// Sport maps a display label to a provider sport key
type Sport struct {
	Label string `json:"label" yaml:"label"`
	Key   string `json:"key" yaml:"key"`
}

// StatusResponse is returned by the status endpoint
type StatusResponse struct {
	APIKeyConfigured       bool           `json:"api_key_configured"`
	RefreshIntervalSeconds int            `json:"refresh_interval_seconds"`
	SchedulerEnabled       bool           `json:"scheduler_enabled"`
	SportsTracked          []string       `json:"sports_tracked"`
	Markets                string         `json:"markets"`
	Regions                string         `json:"regions"`
	MinProfitPct           float64        `json:"min_profit_pct"`
	APIUsage               *APIUsage      `json:"api_usage"`
	LastRefresh            *RefreshResult `json:"last_refresh"`
	Clients                int            `json:"ws_clients"`
}

// CreateBetRequest is the body of a new tracked bet
type CreateBetRequest struct {
	Sport         string   `json:"sport"`
	EventName     string   `json:"event_name"`
	HomeTeam      string   `json:"home_team,omitempty"`
	AwayTeam      string   `json:"away_team,omitempty"`
	BetType       string   `json:"bet_type"`
	Pick          string   `json:"pick"`
	SpreadLine    *float64 `json:"spread_line,omitempty"`
	TotalLine     *float64 `json:"total_line,omitempty"`
	Odds          int      `json:"odds"`
	Stake         float64  `json:"stake"`
	OurConfidence *float64 `json:"our_confidence,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// SettleRequest is the body of a manual settlement
type SettleRequest struct {
	Result string `json:"result"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
