package detector

import (
	"math"
	"sort"

	"github.com/msfttoler/sports/pkg/models"
	"github.com/msfttoler/sports/pkg/oddsmath"
)

const (
	// DefaultMinEdge is the minimum probability edge (3 points) to surface a value bet
	DefaultMinEdge = 0.03
	// DefaultMinConfidence filters out near coin-flip predictions
	DefaultMinConfidence = 0.55

	kellyMultiplier = 0.25
	kellyCap        = 0.25
)

// ValueDetector compares model predictions to the best bookmaker prices
type ValueDetector struct {
	minEdge       float64
	minConfidence float64
}

// NewValueDetector creates a value detector with the given thresholds
func NewValueDetector(minEdge, minConfidence float64) *ValueDetector {
	return &ValueDetector{
		minEdge:       minEdge,
		minConfidence: minConfidence,
	}
}

// Detect finds value bets using the configured thresholds
func (d *ValueDetector) Detect(predictions []models.Prediction, events []models.Event) []models.ValueBet {
	return FindValueBets(predictions, events, d.minEdge, d.minConfidence)
}

// Kelly returns the quarter-Kelly stake fraction, clamped to [0, 0.25]
// kelly = (p * (d - 1) - (1 - p)) / (d - 1)
func Kelly(ourProb, decimalOdds float64) float64 {
	if decimalOdds <= 1.0 || ourProb <= 0 || ourProb >= 1 {
		return 0
	}

	b := decimalOdds - 1
	if b <= 0 {
		return 0
	}

	k := (ourProb*b - (1 - ourProb)) / b
	k *= kellyMultiplier

	if math.IsNaN(k) || k < 0 {
		return 0
	}
	if k > kellyCap {
		return kellyCap
	}
	return k
}

// FindValueBets cross-references predictions with the h2h prices of their
// events. A side is surfaced when ourProb - bookImplied >= minEdge.
// Results are sorted by edge, largest first.
func FindValueBets(predictions []models.Prediction, events []models.Event, minEdge, minConfidence float64) []models.ValueBet {
	byID := make(map[string]models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	var bets []models.ValueBet

	for _, pred := range predictions {
		if pred.Confidence < minConfidence {
			continue
		}

		event, ok := byID[pred.EventID]
		if !ok || len(event.Bookmakers) == 0 {
			continue
		}

		sides := []struct {
			team string
			prob float64
		}{
			{pred.HomeTeam, pred.HomeWinProb},
			{pred.AwayTeam, pred.AwayWinProb},
		}

		for _, side := range sides {
			bp, ok := bestMoneyline(event.Bookmakers, side.team)
			if !ok {
				continue
			}

			implied, _ := oddsmath.ImpliedProbability(bp.price)
			edge := side.prob - implied
			if edge < minEdge {
				continue
			}

			dec, _ := oddsmath.DecimalOdds(bp.price)

			vb := models.ValueBet{
				EventID:         pred.EventID,
				SportKey:        pred.SportKey,
				EventName:       models.EventName(pred.HomeTeam, pred.AwayTeam),
				CommenceTime:    pred.CommenceTime,
				Team:            side.team,
				OurProb:         oddsmath.Round(side.prob, 4),
				BookImpliedProb: oddsmath.Round(implied, 4),
				BestPrice:       bp.price,
				BestBookmaker:   bp.bookmaker,
				EdgePct:         oddsmath.Round(edge, 4),
				Confidence:      pred.Confidence,
				ConfidenceLabel: pred.ConfidenceLabel,
				KellyFraction:   oddsmath.Round(Kelly(side.prob, dec), 4),
			}
			if fair, err := oddsmath.ProbabilityToAmerican(side.prob); err == nil {
				vb.FairPrice = &fair
			}

			bets = append(bets, vb)
		}
	}

	sort.SliceStable(bets, func(i, j int) bool {
		return bets[i].EdgePct > bets[j].EdgePct
	})

	return bets
}

// bestMoneyline finds the best h2h price for a team across bookmakers.
// Team names must match exactly.
func bestMoneyline(quotes []models.BookmakerQuote, team string) (bookPrice, bool) {
	var prices []bookPrice
	for _, q := range quotes {
		if q.MarketKey != models.MarketH2H {
			continue
		}
		for _, o := range q.Outcomes {
			if o.Name == team {
				prices = append(prices, bookPrice{bookmaker: q.BookmakerTitle, price: o.Price})
			}
		}
	}
	return bestPrice(prices)
}
