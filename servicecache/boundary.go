package servicecache

import (
	"context"
	"errors"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-wallet-query/cache"
	"github.com/goliatone/go-wallet-query/wallet"
)

var _ wallet.Boundary = (*CachedBoundary)(nil)

// CachedBoundary decorates a wallet.Boundary with read-through caching of the
// calls whose answers rarely change. Every other call passes through.
type CachedBoundary struct {
	wallet.Boundary

	cache         cache.CacheService
	keySerializer cache.KeySerializer
	logger        *zap.Logger

	// key -> tags it was read under
	keyRegistry *xsync.MapOf[string, []string]
}

// Option configures a CachedBoundary.
type Option func(*CachedBoundary)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *CachedBoundary) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps base. A nil keySerializer selects cache.NewDefaultKeySerializer.
func New(base wallet.Boundary, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedBoundary {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}
	c := &CachedBoundary{
		Boundary:      base,
		cache:         cacheService,
		keySerializer: keySerializer,
		logger:        zap.NewNop(),
		keyRegistry:   xsync.NewMapOf[string, []string](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uncached carries a result that must reach the caller without being stored.
type uncached struct {
	value any
}

func (u *uncached) Error() string { return "servicecache: result not cached" }

// read fetches through the cache unless the result reports a provider error.
func read[T any](ctx context.Context, c *CachedBoundary, method string, chainID string, fetch func(context.Context) (T, error), keep func(T) bool, args ...any) (T, error) {
	key := c.keySerializer.SerializeKey(namespace(method), append([]any{chainID}, args...)...)
	c.trackKey(ctx, key, namespace(method), chainTag(method, chainID))

	res, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		if keep != nil && !keep(v) {
			return v, &uncached{value: v}
		}
		return v, nil
	})

	var skip *uncached
	if errors.As(err, &skip) {
		c.forgetKey(key)
		if v, ok := skip.value.(T); ok {
			return v, nil
		}
	}
	return res, err
}

// GetAllTokens is cached per chain.
func (c *CachedBoundary) GetAllTokens(ctx context.Context, chainID string, coin wallet.CoinType) ([]wallet.BlockchainToken, error) {
	return read(ctx, c, "GetAllTokens", chainID, func(ctx context.Context) ([]wallet.BlockchainToken, error) {
		return c.Boundary.GetAllTokens(ctx, chainID, coin)
	}, nil, coin)
}

// GetUserAssets is cached per chain until a user asset write on that chain.
func (c *CachedBoundary) GetUserAssets(ctx context.Context, chainID string, coin wallet.CoinType) ([]wallet.BlockchainToken, error) {
	return read(ctx, c, "GetUserAssets", chainID, func(ctx context.Context) ([]wallet.BlockchainToken, error) {
		return c.Boundary.GetUserAssets(ctx, chainID, coin)
	}, nil, coin)
}

// GetERC721Metadata is cached per token. Provider errors are not stored.
func (c *CachedBoundary) GetERC721Metadata(ctx context.Context, contract, tokenID, chainID string) (wallet.ERC721MetadataResult, error) {
	return read(ctx, c, "GetERC721Metadata", chainID, func(ctx context.Context) (wallet.ERC721MetadataResult, error) {
		return c.Boundary.GetERC721Metadata(ctx, contract, tokenID, chainID)
	}, func(res wallet.ERC721MetadataResult) bool {
		return res.Error == wallet.ProviderSuccess && res.ErrorMessage == ""
	}, strings.ToLower(contract), tokenID)
}

// AddUserAsset invalidates the cached user assets of the token chain on success.
func (c *CachedBoundary) AddUserAsset(ctx context.Context, token wallet.BlockchainToken) (bool, error) {
	ok, err := c.Boundary.AddUserAsset(ctx, token)
	if err == nil {
		c.invalidateUserAssets(ctx, token.ChainID)
	}
	return ok, err
}

// RemoveUserAsset invalidates the cached user assets of the token chain on success.
func (c *CachedBoundary) RemoveUserAsset(ctx context.Context, token wallet.BlockchainToken) (bool, error) {
	ok, err := c.Boundary.RemoveUserAsset(ctx, token)
	if err == nil {
		c.invalidateUserAssets(ctx, token.ChainID)
	}
	return ok, err
}

// SetUserAssetVisible invalidates the cached user assets of the token chain on success.
func (c *CachedBoundary) SetUserAssetVisible(ctx context.Context, token wallet.BlockchainToken, visible bool) (bool, error) {
	ok, err := c.Boundary.SetUserAssetVisible(ctx, token, visible)
	if err == nil {
		c.invalidateUserAssets(ctx, token.ChainID)
	}
	return ok, err
}

// InvalidateTags drops every key read under one of tags, including tags
// attached with WithCacheTags.
func (c *CachedBoundary) InvalidateTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	want := mapset.NewThreadUnsafeSet(tags...)

	var keys []string
	c.keyRegistry.Range(func(key string, keyTags []string) bool {
		for _, tag := range keyTags {
			if want.Contains(tag) {
				keys = append(keys, key)
				break
			}
		}
		return true
	})
	return c.deleteKeys(ctx, keys)
}

// InvalidateMethod drops every cached result of method.
func (c *CachedBoundary) InvalidateMethod(ctx context.Context, method string) error {
	return c.invalidateByPrefix(ctx, namespace(method)+cache.KeySeparator)
}

// TrackedKeys reports how many cached keys the decorator knows about.
func (c *CachedBoundary) TrackedKeys() int {
	return c.keyRegistry.Size()
}

func (c *CachedBoundary) invalidateUserAssets(ctx context.Context, chainID string) {
	prefix := c.keySerializer.SerializeKey(namespace("GetUserAssets"), chainID) + cache.KeySeparator
	if err := c.invalidateByPrefix(ctx, prefix); err != nil {
		c.logger.Warn("user asset invalidation failed", zap.String("chain_id", chainID), zap.Error(err))
	}
}

func (c *CachedBoundary) trackKey(ctx context.Context, key string, tags ...string) {
	tags = dedupeStrings(append(tags, cacheTagsFromContext(ctx)...))
	c.keyRegistry.Compute(key, func(old []string, loaded bool) ([]string, bool) {
		if loaded {
			return dedupeStrings(append(old, tags...)), false
		}
		return tags, false
	})
}

func (c *CachedBoundary) forgetKey(key string) {
	c.keyRegistry.Delete(key)
}

// invalidateByPrefix removes all tracked keys that start with prefix.
func (c *CachedBoundary) invalidateByPrefix(ctx context.Context, prefix string) error {
	var keys []string
	c.keyRegistry.Range(func(key string, _ []string) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	return c.deleteKeys(ctx, keys)
}

func (c *CachedBoundary) deleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		c.keyRegistry.Delete(key)
	}
	if err := c.cache.InvalidateKeys(ctx, keys); err != nil {
		return err
	}
	c.logger.Debug("service cache keys invalidated", zap.Int("keys", len(keys)))
	return nil
}

// namespace is the snake_case key prefix of a boundary method.
func namespace(method string) string {
	return "wallet_service" + cache.KeySeparator + toSnake(method)
}

func chainTag(method, chainID string) string {
	return toSnake(method) + ":" + chainID
}
