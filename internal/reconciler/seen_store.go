package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/redis"
	"github.com/google/uuid"
)

// RedisSeenStore keeps one seen set per actor in redis.
type RedisSeenStore struct {
	client *redis.Client
	key    string
}

// NewRedisSeenStore builds a seen store scoped to the given actor.
func NewRedisSeenStore(client *redis.Client, role enums.ActorRole, actorID uuid.UUID) (*RedisSeenStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown actor role %q", role)
	}
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("actor id required")
	}
	return &RedisSeenStore{
		client: client,
		key:    client.SeenOrdersKey(role.String(), actorID.String()),
	}, nil
}

// Seen reports whether the order id is in the actor's seen set.
func (s *RedisSeenStore) Seen(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.client.SIsMember(ctx, s.key, orderID.String())
}

// MarkSeen adds the order id to the actor's seen set.
func (s *RedisSeenStore) MarkSeen(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.client.SAdd(ctx, s.key, orderID.String())
	return err
}

// MemorySeenStore is a process-local SeenStore for tests and single-shot
// tooling that has no redis at hand.
type MemorySeenStore struct {
	mu   sync.Mutex
	seen map[uuid.UUID]struct{}
}

// NewMemorySeenStore builds an empty in-memory seen store.
func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{seen: map[uuid.UUID]struct{}{}}
}

// Seen reports whether the order id was marked before.
func (s *MemorySeenStore) Seen(ctx context.Context, orderID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[orderID]
	return ok, nil
}

// MarkSeen records the order id.
func (s *MemorySeenStore) MarkSeen(ctx context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[orderID] = struct{}{}
	return nil
}
