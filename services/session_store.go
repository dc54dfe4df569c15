package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Kariqs/megano-api/models"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps anonymous baskets. Update applies fn atomically to one session's items.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]models.SessionCartItem, error)
	Update(ctx context.Context, sessionID string, fn func([]models.SessionCartItem) []models.SessionCartItem) error
}

const sessionUpdateAttempts = 5

type RedisSessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{redis: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "basket:" + sessionID
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) ([]models.SessionCartItem, error) {
	return s.load(ctx, s.redis, sessionKey(sessionID))
}

func (s *RedisSessionStore) load(ctx context.Context, cmd redis.Cmdable, key string) ([]models.SessionCartItem, error) {
	data, err := cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session basket: %w", err)
	}

	var items []models.SessionCartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode session basket: %w", err)
	}
	return items, nil
}

func (s *RedisSessionStore) Update(ctx context.Context, sessionID string, fn func([]models.SessionCartItem) []models.SessionCartItem) error {
	key := sessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		items, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		data, err := json.Marshal(fn(items))
		if err != nil {
			return fmt.Errorf("encode session basket: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < sessionUpdateAttempts; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update session basket %s: too much contention", sessionID)
}

// MemorySessionStore is used when no Redis is configured. Baskets live as long as the process.
type MemorySessionStore struct {
	mu      sync.Mutex
	baskets map[string][]models.SessionCartItem
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{baskets: map[string][]models.SessionCartItem{}}
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) ([]models.SessionCartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SessionCartItem(nil), s.baskets[sessionID]...), nil
}

func (s *MemorySessionStore) Update(_ context.Context, sessionID string, fn func([]models.SessionCartItem) []models.SessionCartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := append([]models.SessionCartItem(nil), s.baskets[sessionID]...)
	s.baskets[sessionID] = fn(current)
	return nil
}
