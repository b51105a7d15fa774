package wallet

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tradepost/tradepost/internal/logging"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSummaryCache(client, time.Minute, logging.Discard()), mr
}

func TestSummaryCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "user-1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	sum := Summary{
		UserID:           "user-1",
		WalletID:         "wallet-1",
		AvailableBalance: decimal.NewFromInt(42),
		AsOf:             time.Now().UTC(),
	}
	cache.Set(ctx, sum)

	got, ok := cache.Get(ctx, "user-1")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got.WalletID != "wallet-1" || !got.AvailableBalance.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("unexpected cached summary: %+v", got)
	}

	cache.Invalidate(ctx, "user-1")
	if _, ok := cache.Get(ctx, "user-1"); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestSummaryCacheCorruptEntryIsAMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Set(summaryKeyPrefix+"user-1", "{not json")

	if _, ok := cache.Get(context.Background(), "user-1"); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
}
