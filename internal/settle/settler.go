package settle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/internal/metrics"
	"github.com/msfttoler/sports/internal/store"
	"github.com/msfttoler/sports/pkg/contracts"
	"github.com/msfttoler/sports/pkg/models"
)

// ErrInvalidResult is returned when a manual result is not win, loss or push
var ErrInvalidResult = errors.New("result must be win, loss or push")

// SportResolver maps a bet's sport label to a provider sport key
type SportResolver func(sport string) (string, bool)

// Settler grades tracked bets
type Settler struct {
	bets    store.BetStore
	scores  contracts.StatsProvider
	resolve SportResolver
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewSettler creates a new settler. m may be nil.
func NewSettler(bets store.BetStore, scores contracts.StatsProvider, resolve SportResolver, m *metrics.Metrics, log logrus.FieldLogger) *Settler {
	return &Settler{
		bets:    bets,
		scores:  scores,
		resolve: resolve,
		metrics: m,
		log:     log.WithField("component", "settler"),
	}
}

// Start runs AutoSettle on an interval until ctx is cancelled
func (s *Settler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.AutoSettle(ctx); err != nil {
				s.log.WithError(err).Error("auto-settle failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// SettleManual records a result chosen by the user
func (s *Settler) SettleManual(ctx context.Context, id int64, result string) (*models.Bet, error) {
	if !models.IsFinalResult(result) {
		return nil, ErrInvalidResult
	}

	bet, err := s.bets.GetBet(ctx, id)
	if err != nil {
		return nil, err
	}

	settled, err := s.bets.UpdateBetResult(ctx, id, result, PnL(bet, result), nil, nil)
	if err != nil {
		return nil, err
	}
	s.record(result)
	return settled, nil
}

// AutoSettle grades pending bets against completed games on today's
// scoreboards
func (s *Settler) AutoSettle(ctx context.Context) (*models.SettleSummary, error) {
	pending, err := s.bets.PendingBets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending bets: %w", err)
	}

	summary := &models.SettleSummary{Pending: len(pending), Results: []*models.Bet{}}
	if len(pending) == 0 {
		return summary, nil
	}

	games := s.completedGames(ctx, pending)
	summary.GamesChecked = len(games)
	if len(games) == 0 {
		return summary, nil
	}

	for _, bet := range pending {
		game, swapped, ok := findGame(bet, games)
		if !ok {
			continue
		}

		home, away := game.HomeScore, game.AwayScore
		graded := *bet
		if swapped {
			home, away = away, home
		}
		if graded.HomeTeam == "" || graded.AwayTeam == "" {
			graded.HomeTeam, graded.AwayTeam = game.HomeTeam, game.AwayTeam
		}

		result := Outcome(&graded, home, away)
		settled, err := s.bets.UpdateBetResult(ctx, bet.ID, result, PnL(bet, result), &home, &away)
		if err != nil {
			s.log.WithError(err).WithField("bet_id", bet.ID).Warn("failed to settle bet")
			continue
		}

		s.record(result)
		summary.Settled++
		summary.Results = append(summary.Results, settled)
		s.log.WithFields(logrus.Fields{
			"bet_id": bet.ID,
			"pick":   bet.Pick,
			"result": result,
			"score":  fmt.Sprintf("%s %d - %s %d", game.HomeTeam, game.HomeScore, game.AwayTeam, game.AwayScore),
			"pnl":    settled.ActualPnL,
		}).Info("auto-settled bet")
	}

	summary.Pending = len(pending) - summary.Settled
	return summary, nil
}

// completedGames fetches one scoreboard per sport among the pending bets
func (s *Settler) completedGames(ctx context.Context, pending []*models.Bet) []models.GameScore {
	seen := make(map[string]bool)
	var games []models.GameScore

	for _, bet := range pending {
		key, ok := s.resolve(strings.TrimSpace(bet.Sport))
		if !ok || seen[key] {
			continue
		}
		seen[key] = true

		board, err := s.scores.FetchScoreboard(ctx, key)
		if err != nil {
			s.log.WithError(err).WithField("sport", key).Warn("scoreboard fetch failed")
			if s.metrics != nil {
				s.metrics.RecordProviderError("espn")
			}
			continue
		}
		for _, g := range board {
			if g.Completed {
				games = append(games, g)
			}
		}
	}

	s.log.WithFields(logrus.Fields{"pending": len(pending), "completed_games": len(games)}).Info("auto-settle scan")
	return games
}

// findGame matches a bet to a game. swapped is true when the bet's home
// team is the game's away team.
func findGame(bet *models.Bet, games []models.GameScore) (game models.GameScore, swapped, ok bool) {
	for _, g := range games {
		if bet.HomeTeam != "" && bet.AwayTeam != "" {
			if fuzzyTeam(bet.HomeTeam, g.HomeTeam) && fuzzyTeam(bet.AwayTeam, g.AwayTeam) {
				return g, false, true
			}
			if fuzzyTeam(bet.HomeTeam, g.AwayTeam) && fuzzyTeam(bet.AwayTeam, g.HomeTeam) {
				return g, true, true
			}
		}

		if fuzzyTeam(g.HomeTeam, bet.EventName) && fuzzyTeam(g.AwayTeam, bet.EventName) {
			return g, false, true
		}

		if (fuzzyTeam(g.HomeTeam, bet.Pick) || fuzzyTeam(g.AwayTeam, bet.Pick)) &&
			(fuzzyTeam(g.HomeTeam, bet.EventName) || fuzzyTeam(g.AwayTeam, bet.EventName)) {
			return g, false, true
		}
	}
	return models.GameScore{}, false, false
}

func (s *Settler) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordSettled(result)
	}
}
