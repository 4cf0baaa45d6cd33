package espn

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/msfttoler/sports/pkg/models"
)

const (
	// DefaultSiteURL serves scoreboards
	DefaultSiteURL = "https://site.api.espn.com/apis/site/v2/sports"
	// DefaultStandingsURL serves standings
	DefaultStandingsURL = "https://site.api.espn.com/apis/v2/sports"
)

// League is an ESPN sport/league path pair
type League struct {
	Sport  string
	League string
}

// Leagues maps odds provider sport keys to ESPN paths
var Leagues = map[string]League{
	"americanfootball_nfl":      {"football", "nfl"},
	"basketball_nba":            {"basketball", "nba"},
	"baseball_mlb":              {"baseball", "mlb"},
	"icehockey_nhl":             {"hockey", "nhl"},
	"americanfootball_ncaaf":    {"football", "college-football"},
	"basketball_ncaab":          {"basketball", "mens-college-basketball"},
	"soccer_epl":                {"soccer", "eng.1"},
	"soccer_spain_la_liga":      {"soccer", "esp.1"},
	"soccer_italy_serie_a":      {"soccer", "ita.1"},
	"soccer_uefa_champs_league": {"soccer", "uefa.champions"},
}

// Client fetches public ESPN data. No key required.
type Client struct {
	site      *resty.Client
	standings *resty.Client
}

// New creates a new ESPN client
func New(siteURL, standingsURL string) *Client {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	if standingsURL == "" {
		standingsURL = DefaultStandingsURL
	}
	return &Client{
		site:      newResty(siteURL),
		standings: newResty(standingsURL),
	}
}

func newResty(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(20*time.Second).
		SetRetryCount(1).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")
}

// UnknownSportError is returned for sport keys without an ESPN league
type UnknownSportError struct {
	SportKey string
}

func (e *UnknownSportError) Error() string {
	return fmt.Sprintf("no ESPN league for sport %q", e.SportKey)
}

func leaguePath(sportKey string) (string, error) {
	l, ok := Leagues[sportKey]
	if !ok {
		return "", &UnknownSportError{SportKey: sportKey}
	}
	return "/" + l.Sport + "/" + l.League, nil
}

// Standings JSON
type standingsResponse struct {
	Children  []standingsGroup `json:"children"`
	Standings standingsBlock   `json:"standings"`
}

type standingsGroup struct {
	Children  []standingsGroup `json:"children"`
	Standings standingsBlock   `json:"standings"`
}

type standingsBlock struct {
	Entries []standingsEntry `json:"entries"`
}

type standingsEntry struct {
	Team struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
	Stats []struct {
		Name         string   `json:"name"`
		Type         string   `json:"type"`
		Value        *float64 `json:"value"`
		DisplayValue string   `json:"displayValue"`
		Summary      string   `json:"summary"`
	} `json:"stats"`
}

// FetchStandings returns season records for every team in the league
func (c *Client) FetchStandings(ctx context.Context, sportKey string) ([]models.TeamRecord, error) {
	path, err := leaguePath(sportKey)
	if err != nil {
		return nil, err
	}

	var body standingsResponse
	resp, err := c.standings.R().SetContext(ctx).SetResult(&body).Get(path + "/standings")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standings for %s: %w", sportKey, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("standings for %s: status %d", sportKey, resp.StatusCode())
	}

	var entries []standingsEntry
	collectEntries(body.Children, &entries)
	if len(entries) == 0 {
		entries = body.Standings.Entries
	}

	records := make([]models.TeamRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, parseEntry(e))
	}
	return records, nil
}

// collectEntries walks conferences and divisions
func collectEntries(groups []standingsGroup, out *[]standingsEntry) {
	for _, g := range groups {
		*out = append(*out, g.Standings.Entries...)
		collectEntries(g.Children, out)
	}
}

func parseEntry(e standingsEntry) models.TeamRecord {
	stats := make(map[string]string, len(e.Stats))
	values := make(map[string]float64, len(e.Stats))
	for _, s := range e.Stats {
		key := s.Name
		if key == "" {
			key = s.Type
		}
		display := s.DisplayValue
		if display == "" {
			display = s.Summary
		}
		stats[key] = display
		if s.Value != nil {
			values[key] = *s.Value
		}
	}

	num := func(name string) (float64, bool) {
		if v, ok := values[name]; ok {
			return v, true
		}
		if v, err := strconv.ParseFloat(strings.TrimPrefix(stats[name], "+"), 64); err == nil {
			return v, true
		}
		return 0, false
	}
	intStat := func(name string) int {
		v, _ := num(name)
		return int(v)
	}

	rec := models.TeamRecord{
		Team:   e.Team.DisplayName,
		Wins:   intStat("wins"),
		Losses: intStat("losses"),
		Ties:   intStat("ties"),
		Streak: parseStreak(stats["streak"]),
	}

	games := float64(rec.GamesPlayed())
	if v, ok := num("avgPointsFor"); ok {
		rec.PointsFor = v
	} else if v, ok := num("pointsFor"); ok && games > 0 {
		rec.PointsFor = v / games
	}
	if v, ok := num("avgPointsAgainst"); ok {
		rec.PointsAgainst = v
	} else if v, ok := num("pointsAgainst"); ok && games > 0 {
		rec.PointsAgainst = v / games
	}

	rec.HomeWins, rec.HomeLosses = parseRecord(firstOf(stats, "home", "Home"))
	rec.AwayWins, rec.AwayLosses = parseRecord(firstOf(stats, "road", "away", "Road"))
	rec.LastFiveWins, rec.LastFiveLosses = parseRecord(firstOf(stats, "lastfivegames", "lastFiveGames"))

	return rec
}

func firstOf(stats map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := stats[k]; ok {
			return v
		}
	}
	return ""
}

// parseStreak turns "W3" into 3 and "L2" into -2
func parseStreak(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0
	}
	switch s[0] {
	case 'L', 'l':
		return -n
	case 'W', 'w':
		return n
	}
	return 0
}

// parseRecord reads "20-5" or "20-5-1"
func parseRecord(s string) (int, int) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 2 {
		return 0, 0
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	l, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return w, l
}

// Scoreboard JSON
type scoreboardResponse struct {
	Events []struct {
		ID           string `json:"id"`
		Date         string `json:"date"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					DisplayName string `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
		Status struct {
			Type struct {
				Name      string `json:"name"`
				Completed bool   `json:"completed"`
			} `json:"type"`
		} `json:"status"`
	} `json:"events"`
}

// FetchScoreboard returns today's games, live and completed
func (c *Client) FetchScoreboard(ctx context.Context, sportKey string) ([]models.GameScore, error) {
	path, err := leaguePath(sportKey)
	if err != nil {
		return nil, err
	}

	var body scoreboardResponse
	resp, err := c.site.R().SetContext(ctx).SetResult(&body).Get(path + "/scoreboard")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard for %s: %w", sportKey, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("scoreboard for %s: status %d", sportKey, resp.StatusCode())
	}

	var games []models.GameScore
	for _, evt := range body.Events {
		if len(evt.Competitions) == 0 {
			continue
		}
		comp := evt.Competitions[0]
		if len(comp.Competitors) < 2 {
			continue
		}

		game := models.GameScore{
			ID:        evt.ID,
			SportKey:  sportKey,
			Completed: evt.Status.Type.Completed,
		}
		if t, err := time.Parse("2006-01-02T15:04Z", evt.Date); err == nil {
			game.StartTime = t
		} else if t, err := time.Parse(time.RFC3339, evt.Date); err == nil {
			game.StartTime = t
		}

		var hasHome, hasAway bool
		for _, side := range comp.Competitors {
			score, _ := strconv.Atoi(side.Score)
			if side.HomeAway == "home" {
				game.HomeTeam, game.HomeScore, hasHome = side.Team.DisplayName, score, true
			} else {
				game.AwayTeam, game.AwayScore, hasAway = side.Team.DisplayName, score, true
			}
		}
		if hasHome && hasAway {
			games = append(games, game)
		}
	}

	return games, nil
}

// Injuries JSON
type injuriesResponse struct {
	Injuries []struct {
		Team struct {
			DisplayName string `json:"displayName"`
		} `json:"team"`
		Injuries []struct {
			Status  string `json:"status"`
			Athlete struct {
				DisplayName string `json:"displayName"`
				Position    struct {
					Abbreviation string `json:"abbreviation"`
				} `json:"position"`
			} `json:"athlete"`
			Details struct {
				Type   string `json:"type"`
				Detail string `json:"detail"`
			} `json:"details"`
		} `json:"injuries"`
	} `json:"injuries"`
}

// FetchInjuries returns one report per team that has listed players
func (c *Client) FetchInjuries(ctx context.Context, sportKey string) ([]models.InjuryReport, error) {
	path, err := leaguePath(sportKey)
	if err != nil {
		return nil, err
	}

	var body injuriesResponse
	resp, err := c.site.R().SetContext(ctx).SetResult(&body).Get(path + "/injuries")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch injuries for %s: %w", sportKey, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("injuries for %s: status %d", sportKey, resp.StatusCode())
	}

	reports := make([]models.InjuryReport, 0, len(body.Injuries))
	for _, team := range body.Injuries {
		name := team.Team.DisplayName
		if name == "" {
			name = "Unknown"
		}
		report := models.InjuryReport{Team: name}
		for _, item := range team.Injuries {
			player := item.Athlete.DisplayName
			if player == "" {
				player = "Unknown"
			}
			report.Add(models.PlayerInjury{
				Name:     player,
				Position: item.Athlete.Position.Abbreviation,
				Status:   item.Status,
				Injury:   item.Details.Type,
				Detail:   item.Details.Detail,
			})
		}
		reports = append(reports, report)
	}
	return reports, nil
}
