package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/msfttoler/sports/pkg/models"
)

// Memory is an in-process Store used for tests and DATABASE_URL=memory://
type Memory struct {
	mu sync.RWMutex

	odds      []models.OddsRow
	arbs      []models.ArbitrageOpportunity
	usage     []models.APIUsage
	bets      []*models.Bet
	nextOdds  int64
	nextArb   int64
	nextBetID int64

	now func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

// Ping always succeeds
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// SaveOdds appends snapshot rows
func (m *Memory) SaveOdds(ctx context.Context, rows []models.OddsRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rows {
		m.nextOdds++
		r.ID = m.nextOdds
		m.odds = append(m.odds, r)
	}
	return nil
}

// LatestOdds returns rows from the newest fetch, optionally for one sport
func (m *Memory) LatestOdds(ctx context.Context, sportKey string) ([]models.OddsRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	for _, r := range m.odds {
		if sportKey != "" && r.SportKey != sportKey {
			continue
		}
		if r.FetchedAt.After(latest) {
			latest = r.FetchedAt
		}
	}

	var out []models.OddsRow
	for _, r := range m.odds {
		if sportKey != "" && r.SportKey != sportKey {
			continue
		}
		if r.FetchedAt.Equal(latest) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CommenceTime.Equal(b.CommenceTime) {
			return a.CommenceTime.Before(b.CommenceTime)
		}
		if a.EventName != b.EventName {
			return a.EventName < b.EventName
		}
		return a.Bookmaker < b.Bookmaker
	})
	return out, nil
}

// ReplaceLiveArbitrage marks all stored opportunities stale and adds opps as live
func (m *Memory) ReplaceLiveArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.arbs {
		m.arbs[i].StillLive = false
	}
	for _, o := range opps {
		m.nextArb++
		o.ID = m.nextArb
		o.StillLive = true
		o.Legs = append([]models.ArbitrageLeg(nil), o.Legs...)
		m.arbs = append(m.arbs, o)
	}
	return nil
}

// LiveArbitrage returns live opportunities, most profitable first
func (m *Memory) LiveArbitrage(ctx context.Context) ([]models.ArbitrageOpportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.ArbitrageOpportunity
	for _, o := range m.arbs {
		if o.StillLive {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProfitPct > out[j].ProfitPct })
	return out, nil
}

// ArbitrageHistory returns recent opportunities, newest first
func (m *Memory) ArbitrageHistory(ctx context.Context, limit int) ([]models.ArbitrageOpportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ArbitrageOpportunity, len(m.arbs))
	copy(out, m.arbs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].DetectedAt.After(out[j].DetectedAt)
		}
		return out[i].ID > out[j].ID
	})

	if n := ClampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// SaveAPIUsage records a quota reading
func (m *Memory) SaveAPIUsage(ctx context.Context, usage models.APIUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if usage.RecordedAt.IsZero() {
		usage.RecordedAt = m.now()
	}
	m.usage = append(m.usage, usage)
	return nil
}

// LatestAPIUsage returns the newest reading, or nil
func (m *Memory) LatestAPIUsage(ctx context.Context) (*models.APIUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.usage) == 0 {
		return nil, nil
	}
	u := m.usage[len(m.usage)-1]
	return &u, nil
}

// CreateBet stores a new pending bet
func (m *Memory) CreateBet(ctx context.Context, bet *models.Bet) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBetID++
	bet.ID = m.nextBetID
	bet.Result = models.ResultPending
	bet.ActualPnL = 0
	if bet.PlacedAt.IsZero() {
		bet.PlacedAt = m.now()
	}

	stored := *bet
	m.bets = append(m.bets, &stored)
	return bet.ID, nil
}

// GetBet returns a copy of one bet or ErrNotFound
func (m *Memory) GetBet(ctx context.Context, id int64) (*models.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.bets {
		if b.ID == id {
			c := *b
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// GetBets returns recent bets, newest first
func (m *Memory) GetBets(ctx context.Context, limit int) ([]*models.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.copyBets(func(*models.Bet) bool { return true })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.After(out[j].PlacedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n := ClampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// PendingBets returns unsettled bets, oldest first
func (m *Memory) PendingBets(ctx context.Context) ([]*models.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.copyBets(func(b *models.Bet) bool { return b.Result == models.ResultPending }), nil
}

// UpdateBetResult settles a bet
func (m *Memory) UpdateBetResult(ctx context.Context, id int64, result string, pnl float64, homeScore, awayScore *int) (*models.Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.bets {
		if b.ID != id {
			continue
		}
		now := m.now()
		b.Result = result
		b.ActualPnL = pnl
		if homeScore != nil {
			b.HomeScore = homeScore
		}
		if awayScore != nil {
			b.AwayScore = awayScore
		}
		b.SettledAt = &now
		c := *b
		return &c, nil
	}
	return nil, ErrNotFound
}

// BetSummary aggregates all tracked bets
func (m *Memory) BetSummary(ctx context.Context) (*models.BetSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var wins, losses, pushes int
	var staked, pnl float64
	for _, b := range m.bets {
		switch b.Result {
		case models.ResultWin:
			wins++
		case models.ResultLoss:
			losses++
		case models.ResultPush:
			pushes++
		default:
			continue
		}
		staked += b.Stake
		pnl += b.ActualPnL
	}
	return newSummary(len(m.bets), wins, losses, pushes, staked, pnl), nil
}

func (m *Memory) copyBets(keep func(*models.Bet) bool) []*models.Bet {
	var out []*models.Bet
	for _, b := range m.bets {
		if keep(b) {
			c := *b
			out = append(out, &c)
		}
	}
	return out
}
