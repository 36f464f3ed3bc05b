package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dcerezal/homeplan/internal/model"
)

// MemoryStore is an in-process WeekStore used by tests and local development.
// Weeks are held as JSON, same as the Redis backend, so the serialization
// boundary is real: callers always get a detached copy.
type MemoryStore struct {
	mu            sync.Mutex
	weeks         map[string][]byte
	notifications map[string]time.Time // key -> expiry
	now           func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		weeks:         make(map[string][]byte),
		notifications: make(map[string]time.Time),
		now:           time.Now,
	}
}

func (s *MemoryStore) GetWeek(_ context.Context, key string) (*model.Week, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.weeks[key]
	if !ok {
		return nil, nil
	}
	var week model.Week
	if err := json.Unmarshal(raw, &week); err != nil {
		return nil, fmt.Errorf("decode week %s: %w", key, err)
	}
	return &week, nil
}

func (s *MemoryStore) SaveWeek(_ context.Context, key string, week *model.Week) error {
	raw, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("encode week %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks[key] = raw
	return nil
}

func (s *MemoryStore) GetWeeks(ctx context.Context, keys []string) ([]*model.Week, error) {
	weeks := make([]*model.Week, len(keys))
	for i, key := range keys {
		week, err := s.GetWeek(ctx, key)
		if err != nil {
			return nil, err
		}
		weeks[i] = week
	}
	return weeks, nil
}

func (s *MemoryStore) GetOrCreateWeek(ctx context.Context, key string, seed func() *model.Week) (*model.Week, bool, error) {
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

func (s *MemoryStore) HasNotification(_ context.Context, notifType, dateKey, recipientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := notificationKey(notifType, dateKey, recipientID)
	expiry, ok := s.notifications[key]
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		delete(s.notifications, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) RecordNotification(_ context.Context, notifType, dateKey, recipientID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = NotificationTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[notificationKey(notifType, dateKey, recipientID)] = s.now().Add(ttl)
	return nil
}

// WeekCount reports how many weeks are stored. Test helper.
func (s *MemoryStore) WeekCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.weeks)
}
