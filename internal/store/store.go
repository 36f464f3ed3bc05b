// Package store persists the weekly plan snapshots and the notification
// ledger. The primary backend is Redis; an in-memory backend backs the tests.
package store

import (
	"context"
	"time"

	"github.com/dcerezal/homeplan/internal/model"
)

// NotificationTTL is how long idempotency markers live. Two weeks covers any
// plausible re-delivery window without growing the keyspace forever.
const NotificationTTL = 14 * 24 * time.Hour

// WeekStore persists week snapshots keyed by their Monday date and presence
// markers for sent notifications. Implementations must round-trip the snapshot
// JSON without losing history order, and must hand out detached copies — a
// caller mutating a returned week must not affect the stored one until
// SaveWeek.
type WeekStore interface {
	// GetWeek returns the snapshot for a week key, or nil if absent.
	GetWeek(ctx context.Context, key string) (*model.Week, error)

	// SaveWeek persists the full snapshot (last writer wins).
	SaveWeek(ctx context.Context, key string, week *model.Week) error

	// GetWeeks bulk-fetches snapshots, preserving input order with nil for
	// absent weeks.
	GetWeeks(ctx context.Context, keys []string) ([]*model.Week, error)

	// GetOrCreateWeek returns the stored week, or persists and returns the
	// seed when the key is absent. The flag reports whether the week was just
	// created, so callers can tell "existed" from "seeded".
	GetOrCreateWeek(ctx context.Context, key string, seed func() *model.Week) (*model.Week, bool, error)

	// HasNotification reports whether a (type, date, recipient) marker exists.
	HasNotification(ctx context.Context, notifType, dateKey, recipientID string) (bool, error)

	// RecordNotification sets the marker with the given TTL. Existence alone
	// is the payload.
	RecordNotification(ctx context.Context, notifType, dateKey, recipientID string, ttl time.Duration) error
}
