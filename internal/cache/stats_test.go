package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/internal/logging"
	"github.com/msfttoler/sports/pkg/models"
)

type countingStats struct {
	standings, scoreboards int
	err                    error
}

func (c *countingStats) FetchStandings(ctx context.Context, sportKey string) ([]models.TeamRecord, error) {
	c.standings++
	if c.err != nil {
		return nil, c.err
	}
	return []models.TeamRecord{{Team: "Boston Celtics", Wins: 40, Losses: 10}}, nil
}

func (c *countingStats) FetchScoreboard(ctx context.Context, sportKey string) ([]models.GameScore, error) {
	c.scoreboards++
	return []models.GameScore{{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", HomeScore: 101, AwayScore: 99, Completed: true}}, nil
}

// countingInjuries also reports injuries
type countingInjuries struct {
	countingStats
	injuries int
}

func (c *countingInjuries) FetchInjuries(ctx context.Context, sportKey string) ([]models.InjuryReport, error) {
	c.injuries++
	return []models.InjuryReport{{Team: "Miami Heat", Out: []models.PlayerInjury{{Name: "Starter", Status: "Out"}}}}, nil
}

func TestKeys(t *testing.T) {
	day := time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "stats:standings:basketball_nba:2026-03-02", StandingsKey("basketball_nba", day))
	assert.Equal(t, "stats:scoreboard:icehockey_nhl:2026-03-02", ScoreboardKey("icehockey_nhl", day))
	assert.Equal(t, "stats:injuries:basketball_nba:2026-03-02", InjuriesKey("basketball_nba", day))
}

// Nothing listens on the address, so every Redis call fails fast
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestFallsThroughWhenRedisIsDown(t *testing.T) {
	inner := &countingStats{}
	client := unreachableClient()
	defer client.Close()
	c := NewStatsCache(client, inner, logging.Discard())

	records, err := c.FetchStandings(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	games, err := c.FetchScoreboard(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Len(t, games, 1)

	assert.Equal(t, 1, inner.standings)
	assert.Equal(t, 1, inner.scoreboards)
}

func TestFetchInjuries(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	inner := &countingInjuries{}
	c := NewStatsCache(client, inner, logging.Discard())
	reports, err := c.FetchInjuries(context.Background(), "basketball_nba")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Miami Heat", reports[0].Team)
	assert.Equal(t, 1, inner.injuries)

	// standings-only providers have nothing to report
	plain := NewStatsCache(client, &countingStats{}, logging.Discard())
	reports, err = plain.FetchInjuries(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestProviderErrorsPropagate(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	c := NewStatsCache(client, &countingStats{err: errors.New("espn 503")}, logging.Discard())

	_, err := c.FetchStandings(context.Background(), "basketball_nba")
	assert.ErrorContains(t, err, "espn 503")
}

func TestStatsCacheIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	inner := &countingStats{}
	c := NewStatsCache(client, inner, logging.Discard())
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, client.Del(ctx, StandingsKey("basketball_nba", c.now())).Err())

	for i := 0; i < 3; i++ {
		records, err := c.FetchStandings(ctx, "basketball_nba")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Boston Celtics", records[0].Team)
	}
	assert.Equal(t, 1, inner.standings)

	ttl, err := client.TTL(ctx, StandingsKey("basketball_nba", c.now())).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
}
