package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/pkg/models"
)

func testEvent(id string, commence time.Time) models.Event {
	return models.Event{
		ID:           id,
		SportKey:     "basketball_nba",
		HomeTeam:     "Boston Celtics",
		AwayTeam:     "Miami Heat",
		CommenceTime: commence,
		Bookmakers: []models.BookmakerQuote{
			{
				BookmakerKey:   "draftkings",
				BookmakerTitle: "DraftKings",
				MarketKey:      models.MarketH2H,
				Outcomes: []models.OddsOutcome{
					{Name: "Boston Celtics", Price: -150},
					{Name: "Miami Heat", Price: 130},
				},
			},
		},
	}
}

func TestFlattenEvents(t *testing.T) {
	fetched := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := FlattenEvents([]models.Event{testEvent("e1", fetched)}, fetched)

	require.Len(t, rows, 2)
	assert.Equal(t, "Miami Heat @ Boston Celtics", rows[0].EventName)
	assert.Equal(t, "DraftKings", rows[0].Bookmaker)
	assert.Equal(t, models.MarketH2H, rows[0].Market)
	assert.Equal(t, -150, rows[0].Price)
	assert.Equal(t, fetched, rows[1].FetchedAt)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, ClampLimit(0))
	assert.Equal(t, DefaultHistoryLimit, ClampLimit(-3))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, MaxHistoryLimit, ClampLimit(10000))
}

func TestMemoryLatestOdds(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t1 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	require.NoError(t, m.SaveOdds(ctx, FlattenEvents([]models.Event{testEvent("e1", t1)}, t1)))
	require.NoError(t, m.SaveOdds(ctx, FlattenEvents([]models.Event{testEvent("e1", t1)}, t2)))

	rows, err := m.LatestOdds(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, t2, r.FetchedAt)
	}

	rows, err = m.LatestOdds(ctx, "icehockey_nhl")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryReplaceLiveArbitrage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()

	first := []models.ArbitrageOpportunity{
		{EventID: "a", ProfitPct: 1.5, DetectedAt: now},
		{EventID: "b", ProfitPct: 3.0, DetectedAt: now},
	}
	require.NoError(t, m.ReplaceLiveArbitrage(ctx, first))

	live, err := m.LiveArbitrage(ctx)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "b", live[0].EventID, "most profitable first")

	require.NoError(t, m.ReplaceLiveArbitrage(ctx, []models.ArbitrageOpportunity{
		{EventID: "c", ProfitPct: 0.8, DetectedAt: now.Add(time.Minute)},
	}))
	live, err = m.LiveArbitrage(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "c", live[0].EventID)

	history, err := m.ArbitrageHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].EventID)
	assert.False(t, history[1].StillLive)

	require.NoError(t, m.ReplaceLiveArbitrage(ctx, nil))
	live, err = m.LiveArbitrage(ctx)
	require.NoError(t, err)
	assert.Empty(t, live, "an empty refresh clears the live set")
}

func TestMemoryAPIUsage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.LatestAPIUsage(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	remaining := 412
	require.NoError(t, m.SaveAPIUsage(ctx, models.APIUsage{RequestsRemaining: &remaining}))

	u, err = m.LatestAPIUsage(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 412, *u.RequestsRemaining)
	assert.False(t, u.RecordedAt.IsZero())
}

func TestMemoryBets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id1, err := m.CreateBet(ctx, &models.Bet{Sport: "NBA", EventName: "A @ B", BetType: models.BetTypeMoneyline, Pick: "B", Odds: -110, Stake: 110, PotentialWin: 100})
	require.NoError(t, err)
	id2, err := m.CreateBet(ctx, &models.Bet{Sport: "NBA", EventName: "C @ D", BetType: models.BetTypeMoneyline, Pick: "C", Odds: 150, Stake: 100, PotentialWin: 150})
	require.NoError(t, err)
	_, err = m.CreateBet(ctx, &models.Bet{Sport: "NBA", EventName: "E @ F", BetType: models.BetTypeTotal, Pick: "over", Odds: -110, Stake: 50, PotentialWin: 45.45})
	require.NoError(t, err)

	pending, err := m.PendingBets(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	home, away := 110, 100
	settled, err := m.UpdateBetResult(ctx, id1, models.ResultWin, 100, &home, &away)
	require.NoError(t, err)
	assert.Equal(t, models.ResultWin, settled.Result)
	assert.NotNil(t, settled.SettledAt)
	assert.Equal(t, 110, *settled.HomeScore)

	_, err = m.UpdateBetResult(ctx, id2, models.ResultLoss, -100, nil, nil)
	require.NoError(t, err)

	_, err = m.UpdateBetResult(ctx, 999, models.ResultWin, 1, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetBet(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	summary, err := m.BetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalBets)
	assert.Equal(t, 2, summary.Settled)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, 50.0, summary.WinRate)
	assert.Equal(t, 210.0, summary.TotalStaked)
	assert.Equal(t, 0.0, summary.TotalPnL)
	assert.Equal(t, 0.0, summary.ROI)

	bets, err := m.GetBets(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, bets, 2)
}

func TestNewSummaryEmpty(t *testing.T) {
	s := newSummary(0, 0, 0, 0, 0, 0)
	assert.Equal(t, 0, s.TotalBets)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.ROI)
}
