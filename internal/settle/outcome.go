package settle

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/msfttoler/sports/pkg/models"
	"github.com/msfttoler/sports/pkg/oddsmath"
)

var hundred = decimal.NewFromInt(100)

// ErrInvalidStake is returned for non-positive stakes
var ErrInvalidStake = errors.New("stake must be positive")

// PotentialWin returns the profit on a winning bet, stake excluded,
// rounded to cents
func PotentialWin(odds int, stake float64) (float64, error) {
	if err := oddsmath.Validate(odds); err != nil {
		return 0, err
	}
	if stake <= 0 {
		return 0, ErrInvalidStake
	}

	s := decimal.NewFromFloat(stake)
	var win decimal.Decimal
	if odds > 0 {
		win = s.Mul(decimal.NewFromInt(int64(odds))).Div(hundred)
	} else {
		win = s.Mul(hundred).Div(decimal.NewFromInt(int64(-odds)))
	}
	return win.Round(2).InexactFloat64(), nil
}

// PnL returns the realised profit for a settled result
func PnL(bet *models.Bet, result string) float64 {
	switch result {
	case models.ResultWin:
		return decimal.NewFromFloat(bet.PotentialWin).Round(2).InexactFloat64()
	case models.ResultLoss:
		return decimal.NewFromFloat(bet.Stake).Neg().Round(2).InexactFloat64()
	}
	return 0
}

// Outcome grades a bet against a final score. Bets that cannot be
// graded (unknown pick, missing line, unknown type) lose.
func Outcome(bet *models.Bet, homeScore, awayScore int) string {
	home, away := float64(homeScore), float64(awayScore)

	switch bet.BetType {
	case models.BetTypeMoneyline:
		switch {
		case TeamMatches(bet.Pick, bet.HomeTeam):
			return compare(home, away)
		case TeamMatches(bet.Pick, bet.AwayTeam):
			return compare(away, home)
		}

	case models.BetTypeSpread:
		if bet.SpreadLine == nil {
			break
		}
		line := *bet.SpreadLine
		switch {
		case TeamMatches(bet.Pick, bet.HomeTeam):
			return compare(home+line, away)
		case TeamMatches(bet.Pick, bet.AwayTeam):
			// the stored line is quoted for the home side
			return compare(away-line, home)
		}

	case models.BetTypeTotal:
		if bet.TotalLine == nil {
			break
		}
		total := home + away
		pick := strings.ToLower(bet.Pick)
		switch {
		case strings.Contains(pick, "over"):
			return compare(total, *bet.TotalLine)
		case strings.Contains(pick, "under"):
			return compare(*bet.TotalLine, total)
		}
	}

	return models.ResultLoss
}

func compare(ours, theirs float64) string {
	switch {
	case ours > theirs:
		return models.ResultWin
	case ours == theirs:
		return models.ResultPush
	}
	return models.ResultLoss
}

// TeamMatches reports whether a pick like "Detroit Pistons -3.5" or
// "Pistons ML" refers to team
func TeamMatches(pick, team string) bool {
	team = strings.ToLower(strings.TrimSpace(team))
	if team == "" {
		return false
	}
	pick = strings.ToLower(strings.TrimSpace(pick))

	if strings.Contains(pick, team) {
		return true
	}
	words := strings.Fields(team)
	return strings.Contains(pick, words[len(words)-1])
}

// fuzzyTeam reports whether team, or its last word when longer than
// three letters, appears in text
func fuzzyTeam(team, text string) bool {
	team = strings.ToLower(strings.TrimSpace(team))
	text = strings.ToLower(strings.TrimSpace(text))
	if team == "" || text == "" {
		return false
	}
	if strings.Contains(text, team) {
		return true
	}
	words := strings.Fields(team)
	last := words[len(words)-1]
	return len(last) > 3 && strings.Contains(text, last)
}
