package cacheinfra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func testConfig() Config {
	return Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

func newTestService(t *testing.T) *SturdycService {
	t.Helper()
	service, err := NewSturdycService(testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}
	if cfg.TTL != 5*time.Minute {
		t.Errorf("expected TTL to be 5 minutes, got %v", cfg.TTL)
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
	if !cfg.MissingRecordStorage {
		t.Error("expected MissingRecordStorage to be true")
	}
	if cfg.EarlyRefresh == nil {
		t.Fatal("expected EarlyRefresh to be configured")
	}
	if cfg.EarlyRefresh.MinAsyncRefreshTime != 10*time.Second {
		t.Errorf("unexpected MinAsyncRefreshTime %v", cfg.EarlyRefresh.MinAsyncRefreshTime)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "negative shards", mutate: func(c *Config) { c.NumShards = -1 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, wantField: "EvictionInterval"},
		{
			name: "negative early refresh",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: -time.Second}
			},
			wantField: "EarlyRefresh.MinAsyncRefreshTime",
		},
		{
			name: "max below min",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{
					MinAsyncRefreshTime: 20 * time.Second,
					MaxAsyncRefreshTime: 10 * time.Second,
				}
			},
			wantField: "EarlyRefresh.MaxAsyncRefreshTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error but got none")
			}
			if !goerrors.IsValidation(err) {
				t.Fatalf("expected validation category, got %v", err)
			}

			var typed *goerrors.Error
			if !goerrors.As(err, &typed) {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if typed.TextCode != "CACHE_CONFIG_INVALID" {
				t.Errorf("unexpected text code %q", typed.TextCode)
			}
			if _, ok := typed.ValidationMap()[tt.wantField]; !ok {
				t.Errorf("expected a validation error for %s, got %v", tt.wantField, typed.ValidationMap())
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := testConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no options for a bare config, got %d", got)
	}

	cfg = DefaultConfig()
	cfg.EvictionInterval = time.Second
	if got := len(cfg.ToSturdycOptions()); got != 3 {
		t.Errorf("expected 3 options, got %d", got)
	}
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = 0

	service, err := NewSturdycService(cfg)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if service != nil {
		t.Error("expected nil service on error")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		var calls int32
		fetchFn := func(ctx context.Context) (any, error) {
			atomic.AddInt32(&calls, 1)
			return "0x1", nil
		}

		for i := 0; i < 3; i++ {
			result, err := service.GetOrFetch(ctx, "chain-id", fetchFn)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != "0x1" {
				t.Fatalf("expected 0x1, got %v", result)
			}
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Errorf("expected one fetch, got %d", got)
		}
	})

	t.Run("fetch error is returned and not cached", func(t *testing.T) {
		fetchErr := errors.New("rpc down")
		var calls int32
		fetchFn := func(ctx context.Context) (any, error) {
			atomic.AddInt32(&calls, 1)
			return nil, fetchErr
		}

		if _, err := service.GetOrFetch(ctx, "failing", fetchFn); !errors.Is(err, fetchErr) {
			t.Fatalf("expected fetch error, got %v", err)
		}
		if _, err := service.GetOrFetch(ctx, "failing", fetchFn); !errors.Is(err, fetchErr) {
			t.Fatalf("expected fetch error, got %v", err)
		}
		if got := atomic.LoadInt32(&calls); got != 2 {
			t.Errorf("expected errors to be refetched, got %d calls", got)
		}
	})

	t.Run("nil fetch function", func(t *testing.T) {
		result, err := service.GetOrFetch(ctx, "nil-key", nil)
		if err == nil {
			t.Fatal("expected error for nil fetch function")
		}
		if result != nil {
			t.Errorf("expected nil result, got %v", result)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
			t.Errorf("expected bad input category, got %v", err)
		}
	})
}

func TestSturdycService_ConcurrentMissesShareFetch(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fetchFn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = service.GetOrFetch(ctx, "shared-key", fetchFn)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected concurrent misses to share one fetch, got %d", got)
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("result %d = %v", i, r)
		}
	}
}

func TestSturdycService_Delete(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var calls int32
	fetchFn := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	first, _ := service.GetOrFetch(ctx, "k", fetchFn)
	if err := service.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	second, _ := service.GetOrFetch(ctx, "k", fetchFn)

	if first == second {
		t.Errorf("expected a refetch after Delete, got %v twice", first)
	}
	if err := service.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestSturdycService_DeleteByPrefix(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	keys := []string{"tokens::0x1", "tokens::0x89", "prices::eth"}
	for _, key := range keys {
		key := key
		if _, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) { return key, nil }); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	if err := service.DeleteByPrefix(ctx, "tokens::"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}

	if got := service.Size(); got != 1 {
		t.Errorf("expected 1 key to remain, got %d", got)
	}

	var refetched bool
	if _, err := service.GetOrFetch(ctx, "prices::eth", func(ctx context.Context) (any, error) {
		refetched = true
		return nil, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refetched {
		t.Error("key outside the prefix should still be cached")
	}
}

func TestSturdycService_InvalidateKeys(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		key := key
		_, _ = service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) { return key, nil })
	}

	if err := service.InvalidateKeys(ctx, []string{"a", "b", "missing"}); err != nil {
		t.Fatalf("InvalidateKeys failed: %v", err)
	}
	if got := service.Size(); got != 1 {
		t.Errorf("expected 1 key to remain, got %d", got)
	}
}
