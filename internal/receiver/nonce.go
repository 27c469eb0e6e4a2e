package receiver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore remembers which deliveries were already accepted.
type NonceStore interface {
	// Claim reports true the first time nonce is seen within the TTL.
	Claim(ctx context.Context, nonce string) (bool, error)
	// Release forgets nonce, e.g. after the delivery could not be processed.
	Release(ctx context.Context, nonce string) error
}

type MemoryNonceStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryNonceStore(ttl time.Duration) *MemoryNonceStore {
	return &MemoryNonceStore{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (s *MemoryNonceStore) Claim(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for n, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, n)
		}
	}
	if _, ok := s.seen[nonce]; ok {
		return false, nil
	}
	s.seen[nonce] = now.Add(s.ttl)
	return true, nil
}

func (s *MemoryNonceStore) Release(_ context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, nonce)
	return nil
}

type RedisNonceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisNonceStore(client *redis.Client, ttl time.Duration) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "llm-deployer:nonce:",
		ttl:    ttl,
	}
}

func (s *RedisNonceStore) Claim(ctx context.Context, nonce string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+nonce, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisNonceStore) Release(ctx context.Context, nonce string) error {
	if err := s.client.Del(ctx, s.prefix+nonce).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// NewRedisClient connects and pings. A failed ping is returned so the caller
// can fall back to the in-memory store.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}
