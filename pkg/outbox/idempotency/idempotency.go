package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Digigit24/kumsserpbackend-sub001/pkg/redis"
)

// Manager suppresses repeated emission of the same outbox event for a subject
// within a TTL window using Redis SETNX.
// Keys follow the `kumss:idempotency:evt:<event_type>:<subject>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds a guard whose marks expire after ttl.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// CheckAndMark returns true if the subject was already marked for eventType and
// otherwise marks it.
func (m *Manager) CheckAndMark(ctx context.Context, eventType, subject string) (bool, error) {
	key, err := m.key(eventType, subject)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, key, "1", m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Clear removes the mark so the next CheckAndMark for the subject succeeds.
func (m *Manager) Clear(ctx context.Context, eventType, subject string) error {
	key, err := m.key(eventType, subject)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Subject joins ids into a stable subject string.
func Subject(ids ...uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ":")
}

func (m *Manager) key(eventType, subject string) (string, error) {
	if eventType == "" {
		return "", errors.New("event type is required")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	scope := fmt.Sprintf("evt:%s", eventType)
	return m.store.IdempotencyKey(scope, subject), nil
}
