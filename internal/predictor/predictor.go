package predictor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/msfttoler/sports/pkg/models"
	"github.com/msfttoler/sports/pkg/oddsmath"
)

// ModelVersion identifies the heuristic cold-start model
const ModelVersion = "v1.0-heuristic"

const (
	homeFieldBaseline = 0.03
	homeFieldMargin   = 2.5
	maxConfidence     = 0.95
	spreadScale       = 0.25
)

// weights applied to each feature before the sigmoid
var weights = map[string]float64{
	"win_pct_diff":       2.5,
	"venue_edge":         1.2,
	"ppg_diff":           0.08,
	"opp_ppg_diff":       0.06,
	"point_diff_diff":    0.04,
	"streak_diff":        0.15,
	"last5_diff":         1.0,
	"strength_diff":      2.0,
	"home_field":         3.0,
	"home_home_win_pct":  0.5,
	"away_away_win_pct":  -0.5,
	"injury_diff":        1.5,
	"home_injury_impact": 0.8,
	"away_injury_impact": 0.8,
}

// Features holds model inputs from the home team's perspective.
// Positive values favour the home side.
type Features map[string]float64

// BuildFeatures engineers features from two team records
func BuildFeatures(home, away models.TeamRecord) Features {
	homeStrength := home.WinPct()*0.5 + home.PointDiff()*0.02
	awayStrength := away.WinPct()*0.5 + away.PointDiff()*0.02

	return Features{
		"win_pct_diff":      home.WinPct() - away.WinPct(),
		"home_home_win_pct": home.HomeWinPct(),
		"away_away_win_pct": away.AwayWinPct(),
		"venue_edge":        home.HomeWinPct() - away.AwayWinPct(),
		"ppg_diff":          home.PointsFor - away.PointsFor,
		"opp_ppg_diff":      away.PointsAgainst - home.PointsAgainst,
		"point_diff_diff":   home.PointDiff() - away.PointDiff(),
		"streak_diff":       float64(home.Streak - away.Streak),
		"last5_diff":        home.LastFiveWinPct() - away.LastFiveWinPct(),
		"strength_diff":     homeStrength - awayStrength,
		"home_field":        homeFieldBaseline,
	}
}

// AddInjuryFeatures adds injury terms. A nil report is a healthy roster.
func (f Features) AddInjuryFeatures(home, away *models.InjuryReport) {
	var homeImpact, awayImpact float64
	if home != nil {
		homeImpact = home.ImpactScore()
	}
	if away != nil {
		awayImpact = away.ImpactScore()
	}

	f["injury_diff"] = awayImpact - homeImpact
	f["home_injury_impact"] = -homeImpact
	f["away_injury_impact"] = awayImpact
}

// Score is the weighted feature sum
func (f Features) Score() float64 {
	var score float64
	for name, w := range weights {
		score += f[name] * w
	}
	return score
}

// ConfidenceLabel maps a 0-1 confidence to a label
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.80:
		return models.ConfidenceLock
	case confidence >= 0.65:
		return models.ConfidenceStrong
	case confidence >= 0.55:
		return models.ConfidenceLean
	default:
		return models.ConfidenceToss
	}
}

func coverLabel(confidence float64) string {
	switch {
	case confidence >= 0.70:
		return models.ConfidenceLock
	case confidence >= 0.50:
		return models.ConfidenceStrong
	case confidence >= 0.30:
		return models.ConfidenceLean
	case confidence >= 0.10:
		return models.ConfidenceToss
	default:
		return "fade"
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	ex := math.Exp(x)
	return ex / (1 + ex)
}

// Predict scores a single game. It returns false when neither team has
// stats; a single missing team is treated as a 0-0 record.
func Predict(event models.Event, stats map[string]models.TeamRecord) (models.Prediction, bool) {
	return PredictWithInjuries(event, stats, nil, nil)
}

// PredictWithInjuries is Predict with optional injury reports for each side
func PredictWithInjuries(event models.Event, stats map[string]models.TeamRecord, homeInj, awayInj *models.InjuryReport) (models.Prediction, bool) {
	home, hasHome := stats[event.HomeTeam]
	away, hasAway := stats[event.AwayTeam]
	if !hasHome && !hasAway {
		return models.Prediction{}, false
	}
	if !hasHome {
		home = models.TeamRecord{Team: event.HomeTeam}
	}
	if !hasAway {
		away = models.TeamRecord{Team: event.AwayTeam}
	}

	features := BuildFeatures(home, away)
	if homeInj != nil || awayInj != nil {
		features.AddInjuryFeatures(homeInj, awayInj)
	}
	homeProb := sigmoid(features.Score())
	awayProb := 1 - homeProb

	confidence := math.Min(math.Abs(homeProb-0.5)*2, maxConfidence)

	winner := event.HomeTeam
	if homeProb < 0.5 {
		winner = event.AwayTeam
	}

	margin := (home.PointDiff()-away.PointDiff())/2 + homeFieldMargin

	pred := models.Prediction{
		EventID:          event.ID,
		SportKey:         event.SportKey,
		HomeTeam:         event.HomeTeam,
		AwayTeam:         event.AwayTeam,
		CommenceTime:     event.CommenceTime,
		PredictedWinner:  winner,
		HomeWinProb:      oddsmath.Round(homeProb, 4),
		AwayWinProb:      oddsmath.Round(awayProb, 4),
		Confidence:       oddsmath.Round(confidence, 4),
		ConfidenceLabel:  ConfidenceLabel(confidence),
		SpreadPrediction: ptr(oddsmath.Round(margin, 1)),
		Reasoning:        reasoning(event, home, away, features, homeProb),
		ModelVersion:     ModelVersion,
	}

	if homeInj != nil || awayInj != nil {
		pred.HomeInjuryImpact = ptr(oddsmath.Round(-features["home_injury_impact"], 3))
		pred.AwayInjuryImpact = ptr(oddsmath.Round(features["away_injury_impact"], 3))
	}

	if total := home.PointsFor + away.PointsFor; total > 0 {
		pred.TotalPrediction = ptr(oddsmath.Round(total, 1))
	}

	if spread, ok := BookSpread(event); ok {
		pred.BookSpread = ptr(spread)
		pred.Cover = analyzeCover(event, margin, spread)
	}

	return pred, true
}

// PredictEvents predicts every event with stats, most confident first
func PredictEvents(events []models.Event, stats map[string]models.TeamRecord) []models.Prediction {
	return PredictEventsWithInjuries(events, stats, nil)
}

// PredictEventsWithInjuries is PredictEvents with league injury reports
// matched to each side by team name
func PredictEventsWithInjuries(events []models.Event, stats map[string]models.TeamRecord, reports []models.InjuryReport) []models.Prediction {
	var preds []models.Prediction
	for _, e := range events {
		homeInj := MatchInjuryReport(reports, e.HomeTeam)
		awayInj := MatchInjuryReport(reports, e.AwayTeam)
		if p, ok := PredictWithInjuries(e, stats, homeInj, awayInj); ok {
			preds = append(preds, p)
		}
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Confidence > preds[j].Confidence
	})
	return preds
}

// MatchInjuryReport finds a team's report by exact name, then by a loose
// match ("Pistons" against "Detroit Pistons"). nil when none matches.
func MatchInjuryReport(reports []models.InjuryReport, team string) *models.InjuryReport {
	for i := range reports {
		if reports[i].Team == team {
			return &reports[i]
		}
	}
	for i := range reports {
		if looseTeamMatch(team, reports[i].Team) {
			return &reports[i]
		}
	}
	return nil
}

func looseTeamMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	aWords, bWords := strings.Fields(a), strings.Fields(b)
	aLast, bLast := aWords[len(aWords)-1], bWords[len(bWords)-1]
	return len(aLast) > 3 && (strings.Contains(b, aLast) || strings.Contains(a, bLast))
}

// BookSpread averages the home team's point across "spreads" quotes
func BookSpread(event models.Event) (float64, bool) {
	var sum float64
	var n int
	for _, q := range event.Bookmakers {
		if q.MarketKey != "spreads" {
			continue
		}
		for _, o := range q.Outcomes {
			if o.Name == event.HomeTeam && o.Point != nil {
				sum += *o.Point
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return oddsmath.Round(sum/float64(n), 1), true
}

// analyzeCover compares the projected home margin with the book spread.
// Both are in home terms: margin 7 against spread -3.5 leaves 3.5 points.
func analyzeCover(event models.Event, margin, spread float64) *models.Cover {
	edge := margin + spread
	homeCover := sigmoid(edge * spreadScale)

	side, team, prob := "home", event.HomeTeam, homeCover
	if homeCover < 0.5 {
		side, team, prob = "away", event.AwayTeam, 1-homeCover
	}

	confidence := math.Min(math.Abs(prob-0.5)*2, maxConfidence)

	spreadStr := "PK"
	if spread != 0 {
		spreadStr = fmt.Sprintf("%+.1f", spread)
	}

	parts := []string{
		fmt.Sprintf("Book spread: %s %s.", event.HomeTeam, spreadStr),
		fmt.Sprintf("Model projects %s winning by %+.1f.", event.HomeTeam, margin),
	}
	cushion := math.Abs(edge)
	switch {
	case cushion >= 4:
		parts = append(parts, fmt.Sprintf("Strong edge: %.1f points beyond the spread, %s should cover comfortably.", cushion, team))
	case cushion >= 2:
		parts = append(parts, fmt.Sprintf("Moderate edge: %s has about %.1f points of cushion.", team, cushion))
	case cushion >= 0.5:
		parts = append(parts, fmt.Sprintf("Slim edge for %s, only %.1f points beyond the spread.", team, cushion))
	default:
		parts = append(parts, "Model agrees with the spread.")
	}

	return &models.Cover{
		Side:       side,
		Prob:       oddsmath.Round(prob, 4),
		Confidence: oddsmath.Round(confidence, 4),
		Label:      coverLabel(confidence),
		Reasoning:  strings.Join(parts, " "),
	}
}

func reasoning(event models.Event, home, away models.TeamRecord, f Features, homeProb float64) string {
	winner := event.HomeTeam
	if homeProb < 0.5 {
		winner = event.AwayTeam
	}
	prob := math.Max(homeProb, 1-homeProb)

	parts := []string{
		fmt.Sprintf("%s predicted to win (%.0f%% probability).", winner, prob*100),
		fmt.Sprintf("%s (%d-%d) vs %s (%d-%d).", event.HomeTeam, home.Wins, home.Losses, event.AwayTeam, away.Wins, away.Losses),
	}

	pick := func(v float64) string {
		if v > 0 {
			return event.HomeTeam
		}
		return event.AwayTeam
	}

	if v := f["point_diff_diff"]; math.Abs(v) > 5 {
		parts = append(parts, fmt.Sprintf("%s has a significant point differential advantage.", pick(v)))
	}
	if v := f["last5_diff"]; math.Abs(v) > 0.3 {
		parts = append(parts, fmt.Sprintf("%s is in better recent form.", pick(v)))
	}
	if f["venue_edge"] > 0.15 {
		parts = append(parts, fmt.Sprintf("%s has a strong home-field advantage.", event.HomeTeam))
	}
	if v := f["streak_diff"]; math.Abs(v) >= 3 {
		parts = append(parts, fmt.Sprintf("%s has the streak advantage.", pick(v)))
	}
	if v := f["injury_diff"]; math.Abs(v) >= 0.2 {
		parts = append(parts, fmt.Sprintf("%s is the healthier side.", pick(v)))
	}

	return strings.Join(parts, " ")
}

func ptr(v float64) *float64 {
	return &v
}
