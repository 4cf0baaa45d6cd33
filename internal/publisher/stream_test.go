package publisher

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/pkg/models"
)

func TestArbitrageStreamKey(t *testing.T) {
	assert.Equal(t, "arbitrage.detected.basketball_nba", ArbitrageStreamKey("basketball_nba"))
}

func TestEncode(t *testing.T) {
	values, err := encode("value_bet", models.ValueBet{Team: "Boston Celtics", EdgePct: 0.05})
	require.NoError(t, err)

	raw, ok := values["value_bet"].(string)
	require.True(t, ok)

	var decoded models.ValueBet
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "Boston Celtics", decoded.Team)
}

func TestXAddArgs(t *testing.T) {
	args := xaddArgs(ValueBetStream, map[string]interface{}{"k": "v"})
	assert.Equal(t, ValueBetStream, args.Stream)
	assert.Equal(t, int64(streamMaxLen), args.MaxLen)
	assert.True(t, args.Approx)
}

func TestEmptyBatchesSkipRedis(t *testing.T) {
	// nil client: any call into Redis would panic
	p := NewStreamPublisher(nil)
	assert.NoError(t, p.PublishArbitrage(context.Background(), nil))
	assert.NoError(t, p.PublishValueBets(context.Background(), nil))
}

// Requires a running Redis; set TEST_REDIS_URL (host:port or redis:// URL)
func TestPublishArbitrageIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_URL")
	if addr == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"))
	require.NoError(t, err)
	defer client.Close()

	sport := "test_" + time.Now().Format("150405.000000")
	key := ArbitrageStreamKey(sport)
	defer client.Del(ctx, key)

	p := NewStreamPublisher(client)
	require.NoError(t, p.PublishArbitrage(ctx, []models.ArbitrageOpportunity{
		{SportKey: sport, EventID: "e1", ProfitPct: 1.25},
	}))

	msgs, err := client.XRange(ctx, key, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var opp models.ArbitrageOpportunity
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["opportunity"].(string)), &opp))
	assert.Equal(t, "e1", opp.EventID)

	_, err = client.XInfoStream(ctx, ArbitrageStream).Result()
	assert.NotErrorIs(t, err, redis.Nil)
}
