package espn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standingsFixture = `{
  "children": [
    {"name": "Eastern Conference", "standings": {"entries": [
      {"team": {"displayName": "Boston Celtics"}, "stats": [
        {"name": "wins", "displayValue": "40", "value": 40},
        {"name": "losses", "displayValue": "12", "value": 12},
        {"name": "avgPointsFor", "displayValue": "118.2"},
        {"name": "avgPointsAgainst", "displayValue": "109.5"},
        {"name": "streak", "displayValue": "W4"},
        {"name": "home", "displayValue": "22-4"},
        {"name": "road", "displayValue": "18-8"}
      ]}
    ]}},
    {"name": "Western Conference", "children": [
      {"name": "Pacific", "standings": {"entries": [
        {"team": {"displayName": "Phoenix Suns"}, "stats": [
          {"name": "wins", "displayValue": "20"},
          {"name": "losses", "displayValue": "30"},
          {"name": "ties", "displayValue": "0"},
          {"name": "pointsFor", "displayValue": "5500"},
          {"name": "pointsAgainst", "displayValue": "5750"},
          {"name": "streak", "displayValue": "L2"}
        ]}
      ]}}
    ]}
  ]
}`

const scoreboardFixture = `{
  "events": [
    {"id": "401", "date": "2026-01-10T00:30Z",
     "competitions": [{"competitors": [
       {"homeAway": "home", "score": "112", "team": {"displayName": "Boston Celtics"}},
       {"homeAway": "away", "score": "104", "team": {"displayName": "Miami Heat"}}
     ]}],
     "status": {"type": {"name": "STATUS_FINAL", "completed": true}}},
    {"id": "402", "date": "2026-01-10T03:00Z",
     "competitions": [{"competitors": [
       {"homeAway": "home", "score": "0", "team": {"displayName": "Phoenix Suns"}}
     ]}],
     "status": {"type": {"name": "STATUS_SCHEDULED", "completed": false}}}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.URL)
}

func TestFetchStandings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/standings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(standingsFixture))
	})

	records, err := client.FetchStandings(context.Background(), "basketball_nba")
	require.NoError(t, err)
	require.Len(t, records, 2)

	bos := records[0]
	assert.Equal(t, "Boston Celtics", bos.Team)
	assert.Equal(t, 40, bos.Wins)
	assert.Equal(t, 12, bos.Losses)
	assert.InDelta(t, 118.2, bos.PointsFor, 0.001)
	assert.InDelta(t, 109.5, bos.PointsAgainst, 0.001)
	assert.Equal(t, 4, bos.Streak)
	assert.Equal(t, 22, bos.HomeWins)
	assert.Equal(t, 8, bos.AwayLosses)

	phx := records[1]
	assert.Equal(t, "Phoenix Suns", phx.Team)
	assert.Equal(t, -2, phx.Streak)
	assert.InDelta(t, 110.0, phx.PointsFor, 0.001)
	assert.InDelta(t, 115.0, phx.PointsAgainst, 0.001)
	assert.Equal(t, 0, phx.HomeWins)
}

func TestFetchScoreboard(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/soccer/eng.1/scoreboard", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scoreboardFixture))
	})

	games, err := client.FetchScoreboard(context.Background(), "soccer_epl")
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "401", g.ID)
	assert.Equal(t, "soccer_epl", g.SportKey)
	assert.Equal(t, "Boston Celtics", g.HomeTeam)
	assert.Equal(t, "Miami Heat", g.AwayTeam)
	assert.Equal(t, 112, g.HomeScore)
	assert.Equal(t, 104, g.AwayScore)
	assert.True(t, g.Completed)
	assert.Equal(t, 2026, g.StartTime.Year())
}

func TestUnknownSport(t *testing.T) {
	client := New("http://127.0.0.1:0", "http://127.0.0.1:0")

	_, err := client.FetchStandings(context.Background(), "cricket_ipl")
	var unknown *UnknownSportError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "cricket_ipl", unknown.SportKey)

	_, err = client.FetchScoreboard(context.Background(), "cricket_ipl")
	assert.Error(t, err)
}

func TestServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchScoreboard(context.Background(), "basketball_nba")
	assert.Error(t, err)
}

func TestParseStreak(t *testing.T) {
	assert.Equal(t, 3, parseStreak("W3"))
	assert.Equal(t, -2, parseStreak("L2"))
	assert.Equal(t, 0, parseStreak("T1"))
	assert.Equal(t, 0, parseStreak(""))
	assert.Equal(t, 0, parseStreak("Wx"))
}

const injuriesFixture = `{
  "injuries": [
    {"team": {"displayName": "Detroit Pistons"}, "injuries": [
      {"status": "Out", "athlete": {"displayName": "Player One", "position": {"abbreviation": "G"}},
       "details": {"type": "Knee", "detail": "Sprain"}},
      {"status": "Injured Reserve", "athlete": {"displayName": "Player Two", "position": {"abbreviation": "F"}}},
      {"status": "Day-To-Day", "athlete": {"displayName": "Player Three"}},
      {"status": "Questionable", "athlete": {"displayName": "Player Four"}},
      {"status": "Rest", "athlete": {"displayName": "Player Five"}}
    ]},
    {"team": {"displayName": "Boston Celtics"}, "injuries": [
      {"status": "Probable", "athlete": {"displayName": "Player Six"}}
    ]}
  ]
}`

func TestFetchInjuries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/injuries", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(injuriesFixture))
	})

	reports, err := client.FetchInjuries(context.Background(), "basketball_nba")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	det := reports[0]
	assert.Equal(t, "Detroit Pistons", det.Team)
	require.Len(t, det.Out, 2)
	assert.Equal(t, "Player One", det.Out[0].Name)
	assert.Equal(t, "G", det.Out[0].Position)
	assert.Equal(t, "Knee", det.Out[0].Injury)
	assert.Equal(t, "Sprain", det.Out[0].Detail)
	assert.Len(t, det.DayToDay, 1)
	assert.Len(t, det.Questionable, 2, "unknown statuses count as questionable")
	assert.Equal(t, 2, det.TotalOut())
	// (2*1.0 + 2*0.4 + 0.3) / 5
	assert.InDelta(t, 0.62, det.ImpactScore(), 1e-9)

	bos := reports[1]
	assert.Len(t, bos.Probable, 1)
	assert.InDelta(t, 0.02, bos.ImpactScore(), 1e-9)
}

func TestFetchInjuries_Errors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchInjuries(context.Background(), "basketball_nba")
	assert.Error(t, err)

	_, err = client.FetchInjuries(context.Background(), "cricket_ipl")
	var unknown *UnknownSportError
	assert.True(t, errors.As(err, &unknown))
}
