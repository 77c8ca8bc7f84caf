package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"kafkameter/internal/config"
	"kafkameter/internal/logger"
	"kafkameter/internal/metrics"
	"kafkameter/internal/models"
)

// Store keeps failed samples in a Redis list for post-run inspection
type Store struct {
	client *redis.Client
	key    string
}

// New connects to Redis and returns a Store
func New(cfg *config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Log.Info("Successfully connected to Redis")

	return NewWithClient(client, cfg.FailureKey), nil
}

// NewWithClient wraps an existing Redis client
func NewWithClient(client *redis.Client, key string) *Store {
	return &Store{
		client: client,
		key:    key,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Push appends a failed sample to the list
func (s *Store) Push(ctx context.Context, result models.SampleResult) error {
	start := time.Now()
	defer func() {
		metrics.FailureStoreLatency.Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal sample result: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push sample result: %w", err)
	}

	logger.WithRun(result.RunID).WithFields(logrus.Fields{
		"worker":   result.Worker,
		"sequence": result.Sequence,
		"error":    result.Error,
	}).Warn("Failed sample stored")

	return nil
}

// Count returns the number of stored failures
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, s.key).Result()
}

// Entries retrieves stored failures between start and stop (inclusive)
func (s *Store) Entries(ctx context.Context, start, stop int64) ([]models.SampleResult, error) {
	raw, err := s.client.LRange(ctx, s.key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get sample results: %w", err)
	}

	entries := make([]models.SampleResult, 0, len(raw))
	for _, item := range raw {
		var entry models.SampleResult
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logger.Log.Errorf("Failed to unmarshal sample result: %v", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
