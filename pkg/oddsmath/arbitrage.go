package oddsmath

import "math"

// DefaultBankroll expresses stakes as percentages.
const DefaultBankroll = 100.0

// ProfitPercent returns the guaranteed return of a fully hedged position
// profit = (1 / sum(implied) - 1) * 100
//
// Positive means the book set is an arbitrage. A non-positive sum is
// degenerate and yields -100.
func ProfitPercent(impliedProbs []float64) float64 {
	total := sum(impliedProbs)
	if total <= 0 {
		return -100.0
	}
	return (1.0/total - 1.0) * 100.0
}

// ProportionalStakes splits bankroll across legs in proportion to each
// leg's implied probability, so every leg pays out the same amount.
// Returns nil when the probabilities do not sum to a positive value.
func ProportionalStakes(impliedProbs []float64, bankroll float64) []float64 {
	total := sum(impliedProbs)
	if len(impliedProbs) == 0 || total <= 0 {
		return nil
	}

	stakes := make([]float64, len(impliedProbs))
	for i, p := range impliedProbs {
		stakes[i] = (p / total) * bankroll
	}
	return stakes
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
