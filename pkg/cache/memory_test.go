package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type cachedQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryCacheStringRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "greeting", "hello", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "greeting", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := &cachedQuote{Symbol: "AAPL", Price: 190.5}
	if err := mc.Set(ctx, "quote:AAPL", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out cachedQuote
	if err := mc.Get(ctx, "quote:AAPL", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Symbol != "AAPL" || out.Price != 190.5 {
		t.Fatalf("got %+v", out)
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var out cachedQuote
	if err := mc.Get(ctx, "absent", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := mc.Set(ctx, "short", &cachedQuote{Symbol: "X"}, time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if err := mc.Get(ctx, "short", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:scan", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	ok, err = mc.TryLock(ctx, "lock:scan", time.Minute)
	if err != nil || ok {
		t.Fatalf("second lock must fail: ok=%v err=%v", ok, err)
	}
	if err := mc.Unlock(ctx, "lock:scan"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ok, err = mc.TryLock(ctx, "lock:scan", time.Minute)
	if err != nil || !ok {
		t.Fatalf("relock after unlock: ok=%v err=%v", ok, err)
	}
}
