package cacheinfra

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc settings used for the service response cache.
type Config struct {
	// Capacity is the maximum number of responses kept. Must be greater than 0.
	Capacity int `yaml:"capacity"`

	// NumShards splits the cache for concurrent access. Must be greater than 0.
	NumShards int `yaml:"num_shards"`

	// TTL is how long a response stays valid. Must be greater than 0.
	TTL time.Duration `yaml:"ttl"`

	// EvictionPercentage is the share of entries dropped when the cache is
	// full. Must be between 1 and 100.
	EvictionPercentage int `yaml:"eviction_percentage"`

	// EarlyRefresh refreshes hot entries before they expire. Nil disables it.
	EarlyRefresh *EarlyRefreshConfig `yaml:"early_refresh"`

	// MissingRecordStorage caches sturdyc.ErrNotFound answers.
	MissingRecordStorage bool `yaml:"missing_record_storage"`

	// EvictionInterval overrides the expiry sweep interval when positive.
	EvictionInterval time.Duration `yaml:"eviction_interval"`
}

// EarlyRefreshConfig maps onto sturdyc.WithEarlyRefreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `yaml:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `yaml:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `yaml:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `yaml:"retry_base_delay"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// ToSturdycOptions returns the optional sturdyc settings. Capacity, shards,
// TTL and eviction percentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate reports every invalid field as a validation-category error.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.EarlyRefresh),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid response cache configuration").
			WithTextCode("CACHE_CONFIG_INVALID")
	}
	return nil
}

// Validate is called through Config.Validate when early refresh is enabled.
func (e EarlyRefreshConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.MaxAsyncRefreshTime, validation.Min(e.MinAsyncRefreshTime)),
		validation.Field(&e.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// SturdycService fronts a sturdyc client. Concurrent misses for the same key
// share one fetch.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and builds the sturdyc client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key or stores the result of fetchFn.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	if fetchFn == nil {
		return nil, goerrors.New("fetch function cannot be nil", goerrors.CategoryBadInput).
			WithTextCode("CACHE_NIL_FETCH").
			WithMetadata(map[string]any{"key": key})
	}
	return s.client.GetOrFetch(ctx, key, fetchFn)
}

// Delete drops a single key.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix drops every key that starts with prefix.
func (s *SturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys drops each of keys.
func (s *SturdycService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Size reports how many keys are currently stored.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
