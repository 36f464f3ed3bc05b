package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dcerezal/homeplan/internal/model"
)

const (
	weekKeyPrefix         = "cleaning:week:"
	notificationKeyPrefix = "cleaning:notifications:"
)

// RedisStore implements WeekStore on a Redis client. Week snapshots are
// stored as JSON strings; notification markers are plain keys with a TTL.
type RedisStore struct {
	client *redis.Client
}

// NewClient builds a Redis client from a URL (redis://host:port/db).
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func weekKey(key string) string { return weekKeyPrefix + key }

func notificationKey(notifType, dateKey, recipientID string) string {
	return fmt.Sprintf("%s%s:%s:%s", notificationKeyPrefix, notifType, dateKey, recipientID)
}

func (s *RedisStore) GetWeek(ctx context.Context, key string) (*model.Week, error) {
	raw, err := s.client.Get(ctx, weekKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week %s: %w", key, err)
	}
	var week model.Week
	if err := json.Unmarshal([]byte(raw), &week); err != nil {
		return nil, fmt.Errorf("decode week %s: %w", key, err)
	}
	return &week, nil
}

func (s *RedisStore) SaveWeek(ctx context.Context, key string, week *model.Week) error {
	raw, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("encode week %s: %w", key, err)
	}
	if err := s.client.Set(ctx, weekKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("save week %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) GetWeeks(ctx context.Context, keys []string) ([]*model.Week, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = weekKey(k)
	}
	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget weeks: %w", err)
	}

	weeks := make([]*model.Week, len(keys))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var week model.Week
		if err := json.Unmarshal([]byte(raw), &week); err != nil {
			return nil, fmt.Errorf("decode week %s: %w", keys[i], err)
		}
		weeks[i] = &week
	}
	return weeks, nil
}

func (s *RedisStore) GetOrCreateWeek(ctx context.Context, key string, seed func() *model.Week) (*model.Week, bool, error) {
	week, err := s.GetWeek(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if week != nil {
		return week, false, nil
	}
	week = seed()
	if err := s.SaveWeek(ctx, key, week); err != nil {
		return nil, false, err
	}
	return week, true, nil
}

func (s *RedisStore) HasNotification(ctx context.Context, notifType, dateKey, recipientID string) (bool, error) {
	n, err := s.client.Exists(ctx, notificationKey(notifType, dateKey, recipientID)).Result()
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) RecordNotification(ctx context.Context, notifType, dateKey, recipientID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = NotificationTTL
	}
	key := notificationKey(notifType, dateKey, recipientID)
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}
