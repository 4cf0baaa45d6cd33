package alert

import (
	"fmt"
	"time"

	"github.com/msfttoler/sports/pkg/models"
)

// Filter decides which opportunities are worth a notification
type Filter struct {
	minProfitPct float64
	minEdge      float64
	now          func() time.Time
}

// NewFilter creates a new filter. minEdge is in probability points.
func NewFilter(minProfitPct, minEdge float64) *Filter {
	return &Filter{
		minProfitPct: minProfitPct,
		minEdge:      minEdge,
		now:          time.Now,
	}
}

// ShouldAlertArbitrage reports whether opp clears the alert threshold
// and has not started yet
func (f *Filter) ShouldAlertArbitrage(opp models.ArbitrageOpportunity) (bool, string) {
	if opp.ProfitPct < f.minProfitPct {
		return false, fmt.Sprintf("profit %.2f%% below threshold %.2f%%", opp.ProfitPct, f.minProfitPct)
	}
	if started(opp.CommenceTime, f.now()) {
		return false, "event already started"
	}
	return true, ""
}

// ShouldAlertValueBet reports whether bet clears the alert edge
func (f *Filter) ShouldAlertValueBet(bet models.ValueBet) (bool, string) {
	if bet.EdgePct < f.minEdge {
		return false, fmt.Sprintf("edge %.4f below threshold %.4f", bet.EdgePct, f.minEdge)
	}
	if started(bet.CommenceTime, f.now()) {
		return false, "event already started"
	}
	return true, ""
}

func started(commence, now time.Time) bool {
	return !commence.IsZero() && !commence.After(now)
}
