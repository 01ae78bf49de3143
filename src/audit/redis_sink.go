// Package audit mirrors risk events into a capped redis list so dashboards
// can read the latest decisions without touching the database.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"

	"riskengine/src/model"
)

// listClient is the subset of *redis.Client the sink needs.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

type RedisSink struct {
	client    listClient
	key       string
	maxEvents int64
}

func NewRedisSink(client listClient, key string, maxEvents int64) *RedisSink {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	return &RedisSink{client: client, key: key, maxEvents: maxEvents}
}

// NewClient dials redis and checks the connection with a ping.
func NewClient(cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MaxRetries:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// Record pushes the event to the head of the list and trims the tail.
func (s *RedisSink) Record(ctx context.Context, event *model.RiskEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal risk event: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, string(payload)).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", s.key, err)
	}
	if err := s.client.LTrim(ctx, s.key, 0, s.maxEvents-1).Err(); err != nil {
		logger.WithFields(map[string]interface{}{
			"sink": "redis",
			"key":  s.key,
		}).WithError(err).Warn("Failed to trim risk event list")
	}
	return nil
}

// Recent returns up to n events, newest first. Entries that fail to decode
// are skipped.
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]model.RiskEvent, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", s.key, err)
	}
	events := make([]model.RiskEvent, 0, len(raw))
	for _, item := range raw {
		var ev model.RiskEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			logger.WithField("key", s.key).WithError(err).Warn("Skipping malformed risk event")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
