// Package cache keeps stats provider responses in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/msfttoler/sports/pkg/contracts"
	"github.com/msfttoler/sports/pkg/models"
)

// TTL constants
const (
	StandingsTTL  = 6 * time.Hour
	ScoreboardTTL = 5 * time.Minute
	InjuriesTTL   = 30 * time.Minute
)

// StatsCache is a read-through Redis cache in front of a StatsProvider.
// Redis failures fall through to the provider.
type StatsCache struct {
	client *redis.Client
	inner  contracts.StatsProvider
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewStatsCache wraps inner with a Redis cache
func NewStatsCache(client *redis.Client, inner contracts.StatsProvider, log logrus.FieldLogger) *StatsCache {
	return &StatsCache{
		client: client,
		inner:  inner,
		log:    log.WithField("component", "stats_cache"),
		now:    time.Now,
	}
}

// StandingsKey returns the cache key for a league's standings on a day
func StandingsKey(sportKey string, day time.Time) string {
	return fmt.Sprintf("stats:standings:%s:%s", sportKey, day.UTC().Format("2006-01-02"))
}

// ScoreboardKey returns the cache key for a league's scoreboard on a day
func ScoreboardKey(sportKey string, day time.Time) string {
	return fmt.Sprintf("stats:scoreboard:%s:%s", sportKey, day.UTC().Format("2006-01-02"))
}

// InjuriesKey returns the cache key for a league's injury reports on a day
func InjuriesKey(sportKey string, day time.Time) string {
	return fmt.Sprintf("stats:injuries:%s:%s", sportKey, day.UTC().Format("2006-01-02"))
}

// FetchStandings implements contracts.StatsProvider
func (c *StatsCache) FetchStandings(ctx context.Context, sportKey string) ([]models.TeamRecord, error) {
	key := StandingsKey(sportKey, c.now())

	var records []models.TeamRecord
	if c.read(ctx, key, &records) {
		return records, nil
	}

	records, err := c.inner.FetchStandings(ctx, sportKey)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		c.write(ctx, key, records, StandingsTTL)
	}
	return records, nil
}

// FetchScoreboard implements contracts.StatsProvider
func (c *StatsCache) FetchScoreboard(ctx context.Context, sportKey string) ([]models.GameScore, error) {
	key := ScoreboardKey(sportKey, c.now())

	var games []models.GameScore
	if c.read(ctx, key, &games) {
		return games, nil
	}

	games, err := c.inner.FetchScoreboard(ctx, sportKey)
	if err != nil {
		return nil, err
	}
	c.write(ctx, key, games, ScoreboardTTL)
	return games, nil
}

// FetchInjuries implements contracts.InjuryProvider. A wrapped provider
// without injury data yields no reports.
func (c *StatsCache) FetchInjuries(ctx context.Context, sportKey string) ([]models.InjuryReport, error) {
	inner, ok := c.inner.(contracts.InjuryProvider)
	if !ok {
		return nil, nil
	}

	key := InjuriesKey(sportKey, c.now())

	var reports []models.InjuryReport
	if c.read(ctx, key, &reports) {
		return reports, nil
	}

	reports, err := inner.FetchInjuries(ctx, sportKey)
	if err != nil {
		return nil, err
	}
	c.write(ctx, key, reports, InjuriesTTL)
	return reports, nil
}

func (c *StatsCache) read(ctx context.Context, key string, v interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Debug("cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("discarding corrupt cache entry")
		return false
	}
	return true
}

func (c *StatsCache) write(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Debug("cache write failed")
	}
}
