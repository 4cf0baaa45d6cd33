package models

import "time"

// Confidence labels
const (
	ConfidenceLock   = "lock"
	ConfidenceStrong = "strong"
	ConfidenceLean   = "lean"
	ConfidenceToss   = "toss-up"
)

// Prediction is the model's view of a single game
type Prediction struct {
	EventID          string    `json:"event_id"`
	SportKey         string    `json:"sport_key"`
	HomeTeam         string    `json:"home_team"`
	AwayTeam         string    `json:"away_team"`
	CommenceTime     time.Time `json:"commence_time"`
	PredictedWinner  string    `json:"predicted_winner"`
	HomeWinProb      float64   `json:"home_win_prob"`
	AwayWinProb      float64   `json:"away_win_prob"`
	Confidence       float64   `json:"confidence"`
	ConfidenceLabel  string    `json:"confidence_label"`
	SpreadPrediction *float64  `json:"spread_prediction,omitempty"`
	TotalPrediction  *float64  `json:"total_prediction,omitempty"`
	BookSpread       *float64  `json:"book_spread,omitempty"`
	Cover            *Cover    `json:"cover,omitempty"`
	HomeInjuryImpact *float64  `json:"home_injury_impact,omitempty"`
	AwayInjuryImpact *float64  `json:"away_injury_impact,omitempty"`
	Reasoning        string    `json:"reasoning"`
	ModelVersion     string    `json:"model_version"`
}

// Cover is the model's view of the home spread
type Cover struct {
	Side       string  `json:"side"` // "home" or "away"
	Prob       float64 `json:"prob"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
	Reasoning  string  `json:"reasoning"`
}

// TeamRecord is a season summary used as model input
type TeamRecord struct {
	Team           string  `json:"team"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Ties           int     `json:"ties"`
	PointsFor      float64 `json:"points_for_per_game"`
	PointsAgainst  float64 `json:"points_against_per_game"`
	Streak         int     `json:"streak"` // positive for wins, negative for losses
	HomeWins       int     `json:"home_wins"`
	HomeLosses     int     `json:"home_losses"`
	AwayWins       int     `json:"away_wins"`
	AwayLosses     int     `json:"away_losses"`
	LastFiveWins   int     `json:"last_five_wins"`
	LastFiveLosses int     `json:"last_five_losses"`
}

// GamesPlayed counts wins, losses and ties
func (r TeamRecord) GamesPlayed() int {
	return r.Wins + r.Losses + r.Ties
}

// WinPct counts ties as half a win. 0.5 with no games.
func (r TeamRecord) WinPct() float64 {
	gp := r.GamesPlayed()
	if gp == 0 {
		return 0.5
	}
	return (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(gp)
}

// PointDiff is the average scoring margin per game
func (r TeamRecord) PointDiff() float64 {
	return r.PointsFor - r.PointsAgainst
}

// HomeWinPct falls back to WinPct when no home split is known
func (r TeamRecord) HomeWinPct() float64 {
	return splitPct(r.HomeWins, r.HomeLosses, r.WinPct())
}

// AwayWinPct falls back to WinPct when no away split is known
func (r TeamRecord) AwayWinPct() float64 {
	return splitPct(r.AwayWins, r.AwayLosses, r.WinPct())
}

// LastFiveWinPct falls back to WinPct when recent form is unknown
func (r TeamRecord) LastFiveWinPct() float64 {
	return splitPct(r.LastFiveWins, r.LastFiveLosses, r.WinPct())
}

func splitPct(wins, losses int, fallback float64) float64 {
	if wins+losses == 0 {
		return fallback
	}
	return float64(wins) / float64(wins+losses)
}

// GameScore is a scoreboard entry from the stats provider
type GameScore struct {
	ID        string    `json:"id"`
	SportKey  string    `json:"sport_key"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Completed bool      `json:"completed"`
	StartTime time.Time `json:"start_time"`
}
