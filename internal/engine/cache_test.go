package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("jobs", "greenhouse", "Software Engineer")
	b := CacheKey("jobs", "greenhouse", "Software Engineer")
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if c := CacheKey("jobs", "lever", "Software Engineer"); c == a {
		t.Errorf("distinct inputs collided on %q", c)
	}
	if !strings.HasPrefix(a, "rs:") {
		t.Errorf("key %q missing prefix", a)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	InitCache("", time.Minute, 100)
	ctx := context.Background()

	type payload struct {
		Field string   `json:"field"`
		IDs   []string `json:"ids"`
	}
	key := CacheKey("test", "round-trip")
	CacheStoreJSON(ctx, key, payload{Field: "qa", IDs: []string{"a", "b"}})

	got, ok := CacheLoadJSON[payload](ctx, key)
	if !ok {
		t.Fatal("stored value not found")
	}
	if got.Field != "qa" || len(got.IDs) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	InitCache("", time.Minute, 100)
	if _, ok := CacheLoadJSON[string](context.Background(), CacheKey("never", "stored")); ok {
		t.Error("hit on a key that was never stored")
	}
}

func TestCacheExpiry(t *testing.T) {
	InitCache("", time.Minute, 100)
	ctx := context.Background()

	key := CacheKey("test", "expiry")
	CacheStoreJSON(ctx, key, "value")

	// Backdate the entry past its TTL.
	if val, ok := resultCache.l1.Load(key); ok {
		val.(*cacheEntry).expiresAt = time.Now().Add(-time.Second)
	} else {
		t.Fatal("entry not in L1")
	}

	if _, ok := CacheLoadJSON[string](ctx, key); ok {
		t.Error("expired entry served")
	}
}

func TestCacheEviction(t *testing.T) {
	const limit = 10
	InitCache("", time.Minute, limit)
	ctx := context.Background()

	for i := 0; i < limit*2; i++ {
		CacheStoreJSON(ctx, CacheKey("evict", fmt.Sprint(i)), i)
	}

	count := 0
	resultCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > limit {
		t.Errorf("l1 holds %d entries, limit %d", count, limit)
	}
}

func TestCacheStatsMove(t *testing.T) {
	InitCache("", time.Minute, 100)
	ctx := context.Background()

	_, beforeMisses := CacheStats()
	CacheLoadJSON[string](ctx, CacheKey("stats", "miss"))
	_, afterMisses := CacheStats()
	if afterMisses != beforeMisses+1 {
		t.Errorf("misses %d -> %d, want +1", beforeMisses, afterMisses)
	}

	key := CacheKey("stats", "hit")
	CacheStoreJSON(ctx, key, "v")
	beforeHits, _ := CacheStats()
	CacheLoadJSON[string](ctx, key)
	afterHits, _ := CacheStats()
	if afterHits != beforeHits+1 {
		t.Errorf("hits %d -> %d, want +1", beforeHits, afterHits)
	}
}
