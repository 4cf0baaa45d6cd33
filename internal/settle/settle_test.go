package settle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/internal/logging"
	"github.com/msfttoler/sports/internal/store"
	"github.com/msfttoler/sports/pkg/models"
	"github.com/msfttoler/sports/pkg/oddsmath"
)

func line(v float64) *float64 { return &v }

func TestPotentialWin(t *testing.T) {
	tests := []struct {
		odds  int
		stake float64
		want  float64
	}{
		{150, 100, 150},
		{-110, 110, 100},
		{-150, 50, 33.33},
		{100, 25, 25},
		{-200, 10, 5},
	}
	for _, tt := range tests {
		got, err := PotentialWin(tt.odds, tt.stake)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "odds %d stake %.2f", tt.odds, tt.stake)
	}

	_, err := PotentialWin(50, 10)
	assert.ErrorIs(t, err, oddsmath.ErrInvalidOdds)

	_, err = PotentialWin(-110, 0)
	assert.ErrorIs(t, err, ErrInvalidStake)
}

func TestPnL(t *testing.T) {
	bet := &models.Bet{Stake: 110, PotentialWin: 100}
	assert.Equal(t, 100.0, PnL(bet, models.ResultWin))
	assert.Equal(t, -110.0, PnL(bet, models.ResultLoss))
	assert.Equal(t, 0.0, PnL(bet, models.ResultPush))
}

func TestOutcome(t *testing.T) {
	base := models.Bet{HomeTeam: "Detroit Pistons", AwayTeam: "Chicago Bulls"}

	tests := []struct {
		name       string
		mutate     func(b *models.Bet)
		home, away int
		want       string
	}{
		{"moneyline home wins", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeMoneyline, "Detroit Pistons" }, 110, 100, models.ResultWin},
		{"moneyline home loses", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeMoneyline, "Pistons ML" }, 90, 100, models.ResultLoss},
		{"moneyline away wins", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeMoneyline, "Bulls" }, 90, 100, models.ResultWin},
		{"moneyline tie pushes", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeMoneyline, "Bulls" }, 100, 100, models.ResultPush},
		{"moneyline unknown pick loses", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeMoneyline, "Knicks" }, 90, 100, models.ResultLoss},
		{"home spread covers", func(b *models.Bet) {
			b.BetType, b.Pick, b.SpreadLine = models.BetTypeSpread, "Detroit Pistons -3.5", line(-3.5)
		}, 110, 100, models.ResultWin},
		{"home spread misses", func(b *models.Bet) {
			b.BetType, b.Pick, b.SpreadLine = models.BetTypeSpread, "Detroit Pistons -3.5", line(-3.5)
		}, 102, 100, models.ResultLoss},
		{"home spread pushes", func(b *models.Bet) {
			b.BetType, b.Pick, b.SpreadLine = models.BetTypeSpread, "Pistons -3", line(-3)
		}, 103, 100, models.ResultPush},
		{"away spread inverted", func(b *models.Bet) {
			b.BetType, b.Pick, b.SpreadLine = models.BetTypeSpread, "Chicago Bulls +3.5", line(-3.5)
		}, 102, 100, models.ResultWin},
		{"spread without line loses", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeSpread, "Pistons" }, 120, 100, models.ResultLoss},
		{"over wins", func(b *models.Bet) { b.BetType, b.Pick, b.TotalLine = models.BetTypeTotal, "Over 210.5", line(210.5) }, 110, 101, models.ResultWin},
		{"under wins", func(b *models.Bet) { b.BetType, b.Pick, b.TotalLine = models.BetTypeTotal, "under 210.5", line(210.5) }, 100, 100, models.ResultWin},
		{"total pushes", func(b *models.Bet) { b.BetType, b.Pick, b.TotalLine = models.BetTypeTotal, "Over 200", line(200) }, 100, 100, models.ResultPush},
		{"other type loses", func(b *models.Bet) { b.BetType, b.Pick = models.BetTypeOther, "Pistons" }, 120, 100, models.ResultLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.mutate(&b)
			assert.Equal(t, tt.want, Outcome(&b, tt.home, tt.away))
		})
	}
}

func TestTeamMatches(t *testing.T) {
	assert.True(t, TeamMatches("Detroit Pistons -3.5", "Detroit Pistons"))
	assert.True(t, TeamMatches("pistons", "Detroit Pistons"))
	assert.False(t, TeamMatches("Bulls", "Detroit Pistons"))
	assert.False(t, TeamMatches("Bulls", ""))
}

func TestFuzzyTeam(t *testing.T) {
	assert.True(t, fuzzyTeam("Boston Celtics", "celtics @ heat"))
	assert.False(t, fuzzyTeam("Los Angeles FC", "fc dallas @ austin"), "short last words are ignored")
	assert.False(t, fuzzyTeam("", "anything"))
}

type fakeScores struct {
	games map[string][]models.GameScore
	err   error
	calls []string
}

func (f *fakeScores) FetchStandings(ctx context.Context, sportKey string) ([]models.TeamRecord, error) {
	return nil, nil
}

func (f *fakeScores) FetchScoreboard(ctx context.Context, sportKey string) ([]models.GameScore, error) {
	f.calls = append(f.calls, sportKey)
	if f.err != nil {
		return nil, f.err
	}
	return f.games[sportKey], nil
}

func resolver(sport string) (string, bool) {
	switch sport {
	case "NBA", "nba", "basketball_nba":
		return "basketball_nba", true
	}
	return "", false
}

func TestAutoSettle(t *testing.T) {
	ctx := context.Background()
	bets := store.NewMemory()

	mlID, err := bets.CreateBet(ctx, &models.Bet{
		Sport: "NBA", EventName: "Chicago Bulls @ Detroit Pistons",
		HomeTeam: "Detroit Pistons", AwayTeam: "Chicago Bulls",
		BetType: models.BetTypeMoneyline, Pick: "Detroit Pistons", Odds: -150, Stake: 150, PotentialWin: 100,
	})
	require.NoError(t, err)

	// stored with home/away reversed relative to the scoreboard
	swappedID, err := bets.CreateBet(ctx, &models.Bet{
		Sport: "nba", EventName: "Heat vs Celtics",
		HomeTeam: "Miami Heat", AwayTeam: "Boston Celtics",
		BetType: models.BetTypeMoneyline, Pick: "Miami Heat", Odds: 200, Stake: 50, PotentialWin: 100,
	})
	require.NoError(t, err)

	_, err = bets.CreateBet(ctx, &models.Bet{
		Sport: "NBA", EventName: "Lakers @ Nuggets", BetType: models.BetTypeMoneyline, Pick: "Lakers", Odds: 120, Stake: 10, PotentialWin: 12,
	})
	require.NoError(t, err)

	scores := &fakeScores{games: map[string][]models.GameScore{
		"basketball_nba": {
			{HomeTeam: "Detroit Pistons", AwayTeam: "Chicago Bulls", HomeScore: 101, AwayScore: 99, Completed: true},
			{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", HomeScore: 120, AwayScore: 100, Completed: true},
			{HomeTeam: "Denver Nuggets", AwayTeam: "Los Angeles Lakers", HomeScore: 50, AwayScore: 60, Completed: false},
		},
	}}

	s := NewSettler(bets, scores, resolver, nil, logging.Discard())
	summary, err := s.AutoSettle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Settled)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 2, summary.GamesChecked)
	assert.Equal(t, []string{"basketball_nba"}, scores.calls, "one scoreboard per sport")

	ml, err := bets.GetBet(ctx, mlID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultWin, ml.Result)
	assert.Equal(t, 100.0, ml.ActualPnL)

	sw, err := bets.GetBet(ctx, swappedID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultLoss, sw.Result)
	assert.Equal(t, -50.0, sw.ActualPnL)
	assert.Equal(t, 100, *sw.HomeScore, "scores stored in the bet's orientation")
	assert.Equal(t, 120, *sw.AwayScore)
}

func TestAutoSettleNoPending(t *testing.T) {
	s := NewSettler(store.NewMemory(), &fakeScores{}, resolver, nil, logging.Discard())
	summary, err := s.AutoSettle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Settled)
	assert.Equal(t, 0, summary.Pending)
}

func TestAutoSettleScoreboardError(t *testing.T) {
	ctx := context.Background()
	bets := store.NewMemory()
	_, err := bets.CreateBet(ctx, &models.Bet{Sport: "NBA", EventName: "A @ B", BetType: models.BetTypeMoneyline, Pick: "A", Odds: 100, Stake: 1, PotentialWin: 1})
	require.NoError(t, err)

	s := NewSettler(bets, &fakeScores{err: errors.New("boom")}, resolver, nil, logging.Discard())
	summary, err := s.AutoSettle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Settled)
	assert.Equal(t, 1, summary.Pending)
}

func TestSettleManual(t *testing.T) {
	ctx := context.Background()
	bets := store.NewMemory()
	id, err := bets.CreateBet(ctx, &models.Bet{Sport: "NBA", EventName: "A @ B", BetType: models.BetTypeOther, Pick: "A", Odds: -110, Stake: 110, PotentialWin: 100})
	require.NoError(t, err)

	s := NewSettler(bets, &fakeScores{}, resolver, nil, logging.Discard())

	_, err = s.SettleManual(ctx, id, "pending")
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = s.SettleManual(ctx, 404, models.ResultWin)
	assert.ErrorIs(t, err, store.ErrNotFound)

	bet, err := s.SettleManual(ctx, id, models.ResultLoss)
	require.NoError(t, err)
	assert.Equal(t, models.ResultLoss, bet.Result)
	assert.Equal(t, -110.0, bet.ActualPnL)
}
