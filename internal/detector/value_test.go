package detector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/pkg/models"
)

func valueEvent() models.Event {
	return models.Event{
		ID:       "evt-v",
		SportKey: "basketball_nba",
		HomeTeam: "Home",
		AwayTeam: "Away",
		Bookmakers: []models.BookmakerQuote{
			quote("BookA", "h2h", outcome("Home", 110), outcome("Away", -140)),
			quote("BookB", "h2h", outcome("Home", 120), outcome("Away", -150)),
			quote("BookC", "spreads", outcome("Home", 400), outcome("Away", 400)),
		},
	}
}

func prediction(homeProb, confidence float64) models.Prediction {
	return models.Prediction{
		EventID:         "evt-v",
		SportKey:        "basketball_nba",
		HomeTeam:        "Home",
		AwayTeam:        "Away",
		HomeWinProb:     homeProb,
		AwayWinProb:     1 - homeProb,
		Confidence:      confidence,
		ConfidenceLabel: models.ConfidenceLean,
	}
}

func TestFindValueBets_HomeEdge(t *testing.T) {
	bets := FindValueBets([]models.Prediction{prediction(0.60, 0.60)}, []models.Event{valueEvent()}, DefaultMinEdge, DefaultMinConfidence)
	require.Len(t, bets, 1)

	vb := bets[0]
	assert.Equal(t, "Home", vb.Team)
	assert.Equal(t, "Away @ Home", vb.EventName)
	assert.Equal(t, 120, vb.BestPrice)
	assert.Equal(t, "BookB", vb.BestBookmaker)
	assert.Equal(t, 0.6, vb.OurProb)
	assert.Equal(t, 0.4545, vb.BookImpliedProb)
	assert.Equal(t, 0.1455, vb.EdgePct)
	assert.Equal(t, 0.0667, vb.KellyFraction)
	require.NotNil(t, vb.FairPrice)
	assert.Equal(t, -150, *vb.FairPrice)
}

func TestFindValueBets_ConfidenceFilter(t *testing.T) {
	bets := FindValueBets([]models.Prediction{prediction(0.60, 0.50)}, []models.Event{valueEvent()}, DefaultMinEdge, DefaultMinConfidence)
	assert.Empty(t, bets)
}

func TestFindValueBets_EdgeThreshold(t *testing.T) {
	bets := FindValueBets([]models.Prediction{prediction(0.60, 0.60)}, []models.Event{valueEvent()}, 0.15, DefaultMinConfidence)
	assert.Empty(t, bets)
}

func TestFindValueBets_OnlyMoneylineAndExactNames(t *testing.T) {
	evt := valueEvent()
	evt.Bookmakers = []models.BookmakerQuote{
		quote("BookC", "spreads", outcome("Home", 400), outcome("Away", 400)),
		quote("BookD", "h2h", outcome("home", 400), outcome("AWAY", 400)),
	}

	bets := FindValueBets([]models.Prediction{prediction(0.60, 0.60)}, []models.Event{evt}, DefaultMinEdge, DefaultMinConfidence)
	assert.Empty(t, bets)
}

func TestFindValueBets_MissingEventOrQuotes(t *testing.T) {
	pred := prediction(0.70, 0.70)
	assert.Empty(t, FindValueBets([]models.Prediction{pred}, nil, 0, 0))

	bare := valueEvent()
	bare.Bookmakers = nil
	assert.Empty(t, FindValueBets([]models.Prediction{pred}, []models.Event{bare}, 0, 0))
}

func TestFindValueBets_SortedByEdge(t *testing.T) {
	second := valueEvent()
	second.ID = "evt-w"

	preds := []models.Prediction{prediction(0.58, 0.60), prediction(0.70, 0.70)}
	preds[1].EventID = "evt-w"

	bets := FindValueBets(preds, []models.Event{valueEvent(), second}, DefaultMinEdge, DefaultMinConfidence)
	require.Len(t, bets, 2)
	assert.Equal(t, "evt-w", bets[0].EventID)
	assert.GreaterOrEqual(t, bets[0].EdgePct, bets[1].EdgePct)
}

func TestFindValueBets_BothSidesChecked(t *testing.T) {
	evt := valueEvent()
	evt.Bookmakers = []models.BookmakerQuote{
		quote("BookA", "h2h", outcome("Home", 300), outcome("Away", 300)),
	}

	pred := prediction(0.5, 0.6)
	bets := FindValueBets([]models.Prediction{pred}, []models.Event{evt}, DefaultMinEdge, 0)
	require.Len(t, bets, 2)
	assert.Equal(t, "Home", bets[0].Team)
	assert.Equal(t, "Away", bets[1].Team)
}

func TestKelly(t *testing.T) {
	tests := []struct {
		name string
		prob float64
		dec  float64
		want float64
	}{
		{"Positive edge", 0.6, 2.2, 0.0667},
		{"Negative edge", 0.3, 2.0, 0},
		{"No payout", 0.9, 1.0, 0},
		{"Below one", 0.9, 0.5, 0},
		{"Certain", 1.0, 2.0, 0},
		{"Impossible", 0, 2.0, 0},
		{"Break-even", 0.5, 2.0, 0},
		{"NaN probability", math.NaN(), 2.0, 0},
		{"Infinite odds", 0.6, math.Inf(1), 0},
		{"NaN odds", 0.6, math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Kelly(tt.prob, tt.dec), 0.0001)
		})
	}
}

func TestKellyBounds(t *testing.T) {
	for _, p := range []float64{0.01, 0.2, 0.5, 0.8, 0.99, 0.999} {
		for _, d := range []float64{1.01, 1.5, 2, 5, 50, 1000} {
			k := Kelly(p, d)
			assert.GreaterOrEqual(t, k, 0.0)
			assert.LessOrEqual(t, k, 0.25)
		}
	}
}

func TestValueDetector(t *testing.T) {
	d := NewValueDetector(DefaultMinEdge, DefaultMinConfidence)
	bets := d.Detect([]models.Prediction{prediction(0.60, 0.60)}, []models.Event{valueEvent()})
	assert.Len(t, bets, 1)
}
