package models

import "time"

// ArbitrageLeg is one bet of an arbitrage position
type ArbitrageLeg struct {
	Outcome     string  `json:"outcome"`
	Bookmaker   string  `json:"bookmaker"`
	Price       int     `json:"price"`        // American odds
	ImpliedProb float64 `json:"implied_prob"` // 6dp
	StakePct    float64 `json:"stake_pct"`    // percent of bankroll, 2dp
}

// ArbitrageOpportunity is a market whose best prices sum to less than 100%
type ArbitrageOpportunity struct {
	ID               int64          `json:"id,omitempty"`
	SportKey         string         `json:"sport_key"`
	EventID          string         `json:"event_id"`
	EventName        string         `json:"event_name"`
	HomeTeam         string         `json:"home_team"`
	AwayTeam         string         `json:"away_team"`
	CommenceTime     time.Time      `json:"commence_time"`
	Market           string         `json:"market"`
	ProfitPct        float64        `json:"profit_pct"`
	TotalImpliedProb float64        `json:"total_implied_prob"`
	Legs             []ArbitrageLeg `json:"legs"`
	DetectedAt       time.Time      `json:"detected_at"`
	StillLive        bool           `json:"still_live"`
}

// ValueBet is a side where the model probability beats the best book price
type ValueBet struct {
	EventID         string    `json:"event_id"`
	SportKey        string    `json:"sport_key"`
	EventName       string    `json:"event_name"`
	CommenceTime    time.Time `json:"commence_time"`
	Team            string    `json:"team"`
	OurProb         float64   `json:"our_prob"`
	BookImpliedProb float64   `json:"book_implied_prob"`
	BestPrice       int       `json:"best_price"`
	BestBookmaker   string    `json:"best_bookmaker"`
	EdgePct         float64   `json:"edge_pct"` // probability points, not percent
	Confidence      float64   `json:"confidence"`
	ConfidenceLabel string    `json:"confidence_label"`
	KellyFraction   float64   `json:"kelly_fraction"`
	FairPrice       *int      `json:"fair_price,omitempty"`
}
