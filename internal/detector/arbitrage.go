package detector

import (
	"time"

	"github.com/msfttoler/sports/pkg/models"
	"github.com/msfttoler/sports/pkg/oddsmath"
)

// ArbitrageDetector finds cross-book arbitrage in a batch of events
type ArbitrageDetector struct {
	minProfitPct float64
	now          func() time.Time
}

// NewArbitrageDetector creates a detector that surfaces opportunities
// whose profit is at least minProfitPct percent
func NewArbitrageDetector(minProfitPct float64) *ArbitrageDetector {
	return &ArbitrageDetector{
		minProfitPct: minProfitPct,
		now:          time.Now,
	}
}

// MinProfitPct returns the configured threshold
func (d *ArbitrageDetector) MinProfitPct() float64 {
	return d.minProfitPct
}

// Detect scans events using the configured threshold
func (d *ArbitrageDetector) Detect(events []models.Event) []models.ArbitrageOpportunity {
	return scan(events, d.minProfitPct, d.now())
}

// ScanForArbitrage returns every (event, market) whose best available
// prices give a profit of at least minProfitPct percent. Results follow
// event order, then market first-appearance order.
func ScanForArbitrage(events []models.Event, minProfitPct float64) []models.ArbitrageOpportunity {
	return scan(events, minProfitPct, time.Now())
}

// bookPrice is one bookmaker's price for an outcome
type bookPrice struct {
	bookmaker string
	price     int
}

// marketBook collects prices per outcome, keeping first-appearance order
type marketBook struct {
	outcomes []string
	prices   map[string][]bookPrice
}

func scan(events []models.Event, minProfitPct float64, detectedAt time.Time) []models.ArbitrageOpportunity {
	var opportunities []models.ArbitrageOpportunity

	for _, event := range events {
		marketKeys, markets := groupByMarket(event.Bookmakers)

		for _, key := range marketKeys {
			opp, ok := evaluateMarket(event, key, markets[key], minProfitPct)
			if !ok {
				continue
			}
			opp.DetectedAt = detectedAt
			opportunities = append(opportunities, opp)
		}
	}

	return opportunities
}

func groupByMarket(quotes []models.BookmakerQuote) ([]string, map[string]*marketBook) {
	var keys []string
	markets := make(map[string]*marketBook)

	for _, quote := range quotes {
		book, ok := markets[quote.MarketKey]
		if !ok {
			book = &marketBook{prices: make(map[string][]bookPrice)}
			markets[quote.MarketKey] = book
			keys = append(keys, quote.MarketKey)
		}

		for _, outcome := range quote.Outcomes {
			if _, seen := book.prices[outcome.Name]; !seen {
				book.outcomes = append(book.outcomes, outcome.Name)
			}
			book.prices[outcome.Name] = append(book.prices[outcome.Name], bookPrice{
				bookmaker: quote.BookmakerTitle,
				price:     outcome.Price,
			})
		}
	}

	return keys, markets
}

// evaluateMarket picks the best price per outcome and builds an
// opportunity when the combined book clears the threshold
func evaluateMarket(event models.Event, marketKey string, book *marketBook, minProfitPct float64) (models.ArbitrageOpportunity, bool) {
	if len(book.outcomes) < 2 {
		return models.ArbitrageOpportunity{}, false
	}

	best := make([]bookPrice, 0, len(book.outcomes))
	probs := make([]float64, 0, len(book.outcomes))

	for _, name := range book.outcomes {
		bp, ok := bestPrice(book.prices[name])
		if !ok {
			// A market we cannot fully cover is not an arbitrage
			return models.ArbitrageOpportunity{}, false
		}
		prob, _ := oddsmath.ImpliedProbability(bp.price)
		best = append(best, bp)
		probs = append(probs, prob)
	}

	profit := oddsmath.ProfitPercent(probs)
	if profit < minProfitPct {
		return models.ArbitrageOpportunity{}, false
	}

	var totalImplied float64
	for _, p := range probs {
		totalImplied += p
	}

	stakes := oddsmath.ProportionalStakes(probs, oddsmath.DefaultBankroll)
	if stakes == nil {
		return models.ArbitrageOpportunity{}, false
	}

	legs := make([]models.ArbitrageLeg, len(best))
	for i, bp := range best {
		legs[i] = models.ArbitrageLeg{
			Outcome:     book.outcomes[i],
			Bookmaker:   bp.bookmaker,
			Price:       bp.price,
			ImpliedProb: oddsmath.Round(probs[i], 6),
			StakePct:    oddsmath.Round(stakes[i], 2),
		}
	}

	return models.ArbitrageOpportunity{
		SportKey:         event.SportKey,
		EventID:          event.ID,
		EventName:        event.Name(),
		HomeTeam:         event.HomeTeam,
		AwayTeam:         event.AwayTeam,
		CommenceTime:     event.CommenceTime,
		Market:           marketKey,
		ProfitPct:        oddsmath.Round(profit, 4),
		TotalImpliedProb: oddsmath.Round(totalImplied, 6),
		Legs:             legs,
		StillLive:        true,
	}, true
}

// bestPrice returns the price with the highest decimal odds. Ties keep
// the first quote seen. Invalid prices are ignored.
func bestPrice(prices []bookPrice) (bookPrice, bool) {
	var (
		best    bookPrice
		bestDec float64
		found   bool
	)

	for _, bp := range prices {
		dec, err := oddsmath.DecimalOdds(bp.price)
		if err != nil {
			continue
		}
		if !found || dec > bestDec {
			best, bestDec, found = bp, dec, true
		}
	}

	return best, found
}
