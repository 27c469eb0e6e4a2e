package receiver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryNonceStoreClaimOnce(t *testing.T) {
	s := NewMemoryNonceStore(time.Hour)
	ctx := context.Background()

	if ok, _ := s.Claim(ctx, "n1"); !ok {
		t.Fatal("first claim should succeed")
	}
	if ok, _ := s.Claim(ctx, "n1"); ok {
		t.Fatal("second claim should be rejected")
	}
	if ok, _ := s.Claim(ctx, "n2"); !ok {
		t.Fatal("other nonce should succeed")
	}
}

func TestMemoryNonceStoreExpires(t *testing.T) {
	s := NewMemoryNonceStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Claim(context.Background(), "n1")
	now = now.Add(2 * time.Minute)
	if ok, _ := s.Claim(context.Background(), "n1"); !ok {
		t.Fatal("expired nonce should be claimable again")
	}
}

func TestMemoryNonceStoreConcurrent(t *testing.T) {
	s := NewMemoryNonceStore(time.Hour)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Claim(context.Background(), "same"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("wins = %d, want 1", wins.Load())
	}
}

func TestMemoryNonceStoreRelease(t *testing.T) {
	s := NewMemoryNonceStore(time.Hour)
	ctx := context.Background()

	s.Claim(ctx, "n1")
	if err := s.Release(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Claim(ctx, "n1"); !ok {
		t.Fatal("released nonce should be claimable again")
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisNonceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisNonceStore(client, ttl), mr
}

func TestRedisNonceStoreClaimOnce(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	ok, err := s.Claim(ctx, "n1")
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	ok, err = s.Claim(ctx, "n1")
	if err != nil || ok {
		t.Fatalf("second claim = %v, %v", ok, err)
	}
	if ttl := mr.TTL("llm-deployer:nonce:n1"); ttl != time.Minute {
		t.Errorf("ttl = %s, want 1m", ttl)
	}
}

func TestRedisNonceStoreExpiresAndReleases(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	s.Claim(ctx, "n1")
	mr.FastForward(2 * time.Minute)
	if ok, _ := s.Claim(ctx, "n1"); !ok {
		t.Fatal("expired nonce should be claimable again")
	}

	if err := s.Release(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("llm-deployer:nonce:n1") {
		t.Error("key still present after Release")
	}
	if ok, _ := s.Claim(ctx, "n1"); !ok {
		t.Fatal("released nonce should be claimable again")
	}
}

func TestRedisNonceStoreError(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	mr.Close()

	if _, err := s.Claim(context.Background(), "n1"); err == nil {
		t.Error("expected error with redis down")
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisClient(context.Background(), addr, "", 0); err == nil {
		t.Error("expected ping error")
	}
}
