package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Injury statuses after normalization
const (
	InjuryOut          = "out"
	InjuryDoubtful     = "doubtful"
	InjuryQuestionable = "questionable"
	InjuryProbable     = "probable"
	InjuryDayToDay     = "day-to-day"
)

// impact weight per listed player, by status
var injuryWeights = map[string]float64{
	InjuryOut:          1.0,
	InjuryDoubtful:     0.8,
	InjuryQuestionable: 0.4,
	InjuryDayToDay:     0.3,
	InjuryProbable:     0.1,
}

// five fully missing players saturate the impact score
const injuryImpactCap = 5.0

// PlayerInjury is one listed player
type PlayerInjury struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Status   string `json:"status"`
	Injury   string `json:"injury"`
	Detail   string `json:"detail"`
}

// InjuryReport groups a team's listed players by normalized status
type InjuryReport struct {
	Team         string         `json:"team"`
	Out          []PlayerInjury `json:"out"`
	Doubtful     []PlayerInjury `json:"doubtful"`
	Questionable []PlayerInjury `json:"questionable"`
	Probable     []PlayerInjury `json:"probable"`
	DayToDay     []PlayerInjury `json:"day_to_day"`
}

// NormalizeInjuryStatus maps a provider status string onto one of the
// Injury* buckets. Unknown statuses count as questionable.
func NormalizeInjuryStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "out", "injured reserve", "ir", "suspension":
		return InjuryOut
	case "doubtful":
		return InjuryDoubtful
	case "questionable":
		return InjuryQuestionable
	case "probable", "available":
		return InjuryProbable
	case "day-to-day", "day to day":
		return InjuryDayToDay
	default:
		return InjuryQuestionable
	}
}

// Add files a player under their normalized status
func (r *InjuryReport) Add(p PlayerInjury) {
	switch NormalizeInjuryStatus(p.Status) {
	case InjuryOut:
		r.Out = append(r.Out, p)
	case InjuryDoubtful:
		r.Doubtful = append(r.Doubtful, p)
	case InjuryProbable:
		r.Probable = append(r.Probable, p)
	case InjuryDayToDay:
		r.DayToDay = append(r.DayToDay, p)
	default:
		r.Questionable = append(r.Questionable, p)
	}
}

// TotalOut counts players who are out or doubtful
func (r InjuryReport) TotalOut() int {
	return len(r.Out) + len(r.Doubtful)
}

// TotalQuestionable counts questionable and day-to-day players
func (r InjuryReport) TotalQuestionable() int {
	return len(r.Questionable) + len(r.DayToDay)
}

// ImpactScore is 0 for a healthy roster and 1 for a depleted one
func (r InjuryReport) ImpactScore() float64 {
	score := float64(len(r.Out))*injuryWeights[InjuryOut] +
		float64(len(r.Doubtful))*injuryWeights[InjuryDoubtful] +
		float64(len(r.Questionable))*injuryWeights[InjuryQuestionable] +
		float64(len(r.DayToDay))*injuryWeights[InjuryDayToDay] +
		float64(len(r.Probable))*injuryWeights[InjuryProbable]
	return math.Min(score/injuryImpactCap, 1.0)
}

// Summary is a one-line description for display
func (r InjuryReport) Summary() string {
	var parts []string
	if len(r.Out) > 0 {
		s := "OUT: " + joinNames(r.Out, 3)
		if len(r.Out) > 3 {
			s += fmt.Sprintf(" +%d more", len(r.Out)-3)
		}
		parts = append(parts, s)
	}
	if len(r.Doubtful) > 0 {
		parts = append(parts, "DOUBTFUL: "+joinNames(r.Doubtful, 2))
	}
	if len(r.Questionable) > 0 {
		parts = append(parts, fmt.Sprintf("%d questionable", len(r.Questionable)))
	}
	if len(parts) == 0 {
		return "No significant injuries"
	}
	return strings.Join(parts, "; ")
}

func joinNames(players []PlayerInjury, max int) string {
	if len(players) > max {
		players = players[:max]
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// MarshalJSON adds the derived counts, impact and summary
func (r InjuryReport) MarshalJSON() ([]byte, error) {
	type report InjuryReport
	return json.Marshal(struct {
		report
		TotalOut          int     `json:"total_out"`
		TotalQuestionable int     `json:"total_questionable"`
		ImpactScore       float64 `json:"impact_score"`
		Summary           string  `json:"summary"`
	}{
		report:            report(r),
		TotalOut:          r.TotalOut(),
		TotalQuestionable: r.TotalQuestionable(),
		ImpactScore:       math.Round(r.ImpactScore()*1000) / 1000,
		Summary:           r.Summary(),
	})
}
