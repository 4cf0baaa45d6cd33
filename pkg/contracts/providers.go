package contracts

import (
	"context"

	"github.com/msfttoler/sports/pkg/models"
)

// OddsProvider fetches bookmaker odds for one sport
type OddsProvider interface {
	// GetOdds returns upcoming events with every bookmaker's quotes.
	// usage may be nil if the provider did not report quota headers.
	GetOdds(ctx context.Context, sportKey string) (events []models.Event, usage *models.APIUsage, err error)
}

// StatsProvider fetches team records and final scores
type StatsProvider interface {
	// FetchStandings returns season records for every team in a league
	FetchStandings(ctx context.Context, sportKey string) ([]models.TeamRecord, error)

	// FetchScoreboard returns the current scoreboard, live and completed
	FetchScoreboard(ctx context.Context, sportKey string) ([]models.GameScore, error)
}

// InjuryProvider fetches league injury reports, one per team
type InjuryProvider interface {
	FetchInjuries(ctx context.Context, sportKey string) ([]models.InjuryReport, error)
}

// OpportunityPublisher fans detected opportunities out to downstream consumers
type OpportunityPublisher interface {
	PublishArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error
	PublishValueBets(ctx context.Context, bets []models.ValueBet) error
}

// Broadcaster pushes messages to connected live clients
type Broadcaster interface {
	Broadcast(msgType, sportKey string, data interface{})
	ClientCount() int
}
