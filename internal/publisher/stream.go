package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/msfttoler/sports/pkg/models"
)

// Stream names
const (
	ArbitrageStream = "arbitrage.detected"
	ValueBetStream  = "valuebets.detected"
)

// streamMaxLen caps each stream, approximately
const streamMaxLen = 10000

// StreamPublisher publishes detected opportunities to Redis Streams
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// Connect opens a Redis client from either a redis:// URL or a host:port
// address and pings it
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	if password != "" {
		opts.Password = password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ArbitrageStreamKey returns the per-sport arbitrage stream
func ArbitrageStreamKey(sportKey string) string {
	return fmt.Sprintf("%s.%s", ArbitrageStream, sportKey)
}

// PublishArbitrage writes each opportunity to its sport stream and the
// global arbitrage stream in one pipeline
func (p *StreamPublisher) PublishArbitrage(ctx context.Context, opps []models.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, opp := range opps {
		values, err := encode("opportunity", opp)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, xaddArgs(ArbitrageStreamKey(opp.SportKey), values))
		pipe.XAdd(ctx, xaddArgs(ArbitrageStream, values))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish arbitrage: %w", err)
	}
	return nil
}

// PublishValueBets writes value bets to the value bet stream
func (p *StreamPublisher) PublishValueBets(ctx context.Context, bets []models.ValueBet) error {
	if len(bets) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, bet := range bets {
		values, err := encode("value_bet", bet)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, xaddArgs(ValueBetStream, values))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", ValueBetStream, err)
	}
	return nil
}

func encode(field string, v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
	}
	return map[string]interface{}{field: string(data)}, nil
}

func xaddArgs(stream string, values map[string]interface{}) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}
}
