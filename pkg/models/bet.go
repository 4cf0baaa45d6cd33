package models

import "time"

// BetType values
const (
	BetTypeMoneyline = "moneyline"
	BetTypeSpread    = "spread"
	BetTypeTotal     = "total"
	BetTypeOther     = "other"
)

// Bet results
const (
	ResultPending = "pending"
	ResultWin     = "win"
	ResultLoss    = "loss"
	ResultPush    = "push"
)

// Bet is a manually tracked wager
type Bet struct {
	ID            int64      `json:"id"`
	Sport         string     `json:"sport"`
	EventName     string     `json:"event_name"`
	HomeTeam      string     `json:"home_team,omitempty"`
	AwayTeam      string     `json:"away_team,omitempty"`
	BetType       string     `json:"bet_type"`
	Pick          string     `json:"pick"`
	SpreadLine    *float64   `json:"spread_line,omitempty"`
	TotalLine     *float64   `json:"total_line,omitempty"`
	Odds          int        `json:"odds"`
	Stake         float64    `json:"stake"`
	PotentialWin  float64    `json:"potential_win"` // profit, stake excluded
	OurConfidence *float64   `json:"our_confidence,omitempty"`
	Result        string     `json:"result"`
	ActualPnL     float64    `json:"actual_pnl"`
	HomeScore     *int       `json:"home_score,omitempty"`
	AwayScore     *int       `json:"away_score,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	PlacedAt      time.Time  `json:"placed_at"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
}

// IsValidBetType reports whether t is a known bet type
func IsValidBetType(t string) bool {
	switch t {
	case BetTypeMoneyline, BetTypeSpread, BetTypeTotal, BetTypeOther:
		return true
	}
	return false
}

// IsFinalResult reports whether r settles a bet
func IsFinalResult(r string) bool {
	return r == ResultWin || r == ResultLoss || r == ResultPush
}

// BetSummary provides aggregate P&L statistics
type BetSummary struct {
	TotalBets   int     `json:"total_bets"`
	Settled     int     `json:"settled"`
	Pending     int     `json:"pending"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Pushes      int     `json:"pushes"`
	WinRate     float64 `json:"win_rate"`
	TotalStaked float64 `json:"total_staked"`
	TotalPnL    float64 `json:"total_pnl"`
	ROI         float64 `json:"roi"`
}

// SettleSummary reports an auto-settle pass
type SettleSummary struct {
	Settled      int    `json:"settled"`
	Pending      int    `json:"pending"`
	GamesChecked int    `json:"games_checked"`
	Results      []*Bet `json:"results"`
}
