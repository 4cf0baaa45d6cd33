package models

import "time"

// MarketH2H is the moneyline market key used by The Odds API
const MarketH2H = "h2h"

// OddsOutcome is a single priced outcome within a bookmaker's market
type OddsOutcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`           // American odds
	Point *float64 `json:"point,omitempty"` // For spreads/totals
}

// BookmakerQuote is one bookmaker's prices for one market of an event
type BookmakerQuote struct {
	BookmakerKey   string        `json:"bookmaker_key"`
	BookmakerTitle string        `json:"bookmaker_title"`
	MarketKey      string        `json:"market"`
	Outcomes       []OddsOutcome `json:"outcomes"`
	LastUpdate     *time.Time    `json:"last_update,omitempty"`
}

// Event is a scheduled game with the quotes collected for it
type Event struct {
	ID           string           `json:"id"`
	SportKey     string           `json:"sport_key"`
	SportTitle   string           `json:"sport_title"`
	HomeTeam     string           `json:"home_team"`
	AwayTeam     string           `json:"away_team"`
	CommenceTime time.Time        `json:"commence_time"`
	Bookmakers   []BookmakerQuote `json:"bookmakers"`
}

// Name returns the display name "Away @ Home"
func (e Event) Name() string {
	return EventName(e.HomeTeam, e.AwayTeam)
}

// EventName formats a matchup as "Away @ Home"
func EventName(home, away string) string {
	return away + " @ " + home
}

// OddsRow is a flattened odds snapshot as stored and served by the API
type OddsRow struct {
	ID           int64     `json:"id"`
	SportKey     string    `json:"sport_key"`
	EventID      string    `json:"event_id"`
	EventName    string    `json:"event_name"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Bookmaker    string    `json:"bookmaker"`
	Market       string    `json:"market"`
	OutcomeName  string    `json:"outcome_name"`
	Price        int       `json:"price"`
	Point        *float64  `json:"point,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// APIUsage is the request quota reported by the odds provider
type APIUsage struct {
	RequestsUsed      *int      `json:"requests_used"`
	RequestsRemaining *int      `json:"requests_remaining"`
	RecordedAt        time.Time `json:"recorded_at"`
}
