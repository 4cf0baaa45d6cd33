package store

import (
	"context"
	"errors"
	"time"

	"github.com/msfttoler/sports/pkg/models"
	"github.com/msfttoler/sports/pkg/oddsmath"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// DefaultHistoryLimit and MaxHistoryLimit bound history queries
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// BetStore persists tracked bets
type BetStore interface {
	CreateBet(ctx context.Context, bet *models.Bet) (int64, error)
	GetBet(ctx context.Context, id int64) (*models.Bet, error)
	GetBets(ctx context.Context, limit int) ([]*models.Bet, error)
	PendingBets(ctx context.Context) ([]*models.Bet, error)
	UpdateBetResult(ctx context.Context, id int64, result string, pnl float64, homeScore, awayScore *int) (*models.Bet, error)
	BetSummary(ctx context.Context) (*models.BetSummary, error)
}

// Store persists odds snapshots, arbitrage, quota usage and bets
type Store interface {
	Ping(ctx context.Context) error

	SaveOdds(ctx context.Context, rows []models.OddsRow) error
	LatestOdds(ctx context.Context, sportKey string) ([]models.OddsRow, error)

	// ReplaceLiveArbitrage marks every stored opportunity stale and inserts
	// opps as the new live set, atomically. An empty slice clears the set.
	ReplaceLiveArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error
	LiveArbitrage(ctx context.Context) ([]models.ArbitrageOpportunity, error)
	ArbitrageHistory(ctx context.Context, limit int) ([]models.ArbitrageOpportunity, error)

	SaveAPIUsage(ctx context.Context, usage models.APIUsage) error
	LatestAPIUsage(ctx context.Context) (*models.APIUsage, error)

	BetStore
}

// FlattenEvents turns events into one row per priced outcome
func FlattenEvents(events []models.Event, fetchedAt time.Time) []models.OddsRow {
	var rows []models.OddsRow
	for _, ev := range events {
		for _, bm := range ev.Bookmakers {
			for _, o := range bm.Outcomes {
				rows = append(rows, models.OddsRow{
					SportKey:     ev.SportKey,
					EventID:      ev.ID,
					EventName:    ev.Name(),
					HomeTeam:     ev.HomeTeam,
					AwayTeam:     ev.AwayTeam,
					CommenceTime: ev.CommenceTime,
					Bookmaker:    bm.BookmakerTitle,
					Market:       bm.MarketKey,
					OutcomeName:  o.Name,
					Price:        o.Price,
					Point:        o.Point,
					FetchedAt:    fetchedAt,
				})
			}
		}
	}
	return rows
}

// ClampLimit applies the default and maximum history limits
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func newSummary(total, wins, losses, pushes int, staked, pnl float64) *models.BetSummary {
	settled := wins + losses + pushes
	s := &models.BetSummary{
		TotalBets:   total,
		Settled:     settled,
		Pending:     total - settled,
		Wins:        wins,
		Losses:      losses,
		Pushes:      pushes,
		TotalStaked: oddsmath.Round(staked, 2),
		TotalPnL:    oddsmath.Round(pnl, 2),
	}
	if settled > 0 {
		s.WinRate = oddsmath.Round(float64(wins)/float64(settled)*100, 1)
	}
	if staked > 0 {
		s.ROI = oddsmath.Round(pnl/staked*100, 1)
	}
	return s
}
