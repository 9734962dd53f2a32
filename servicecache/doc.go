// Package servicecache decorates a wallet.Boundary with a read-through cache.
//
// Known tokens, ERC-721 metadata and user asset lists change rarely but are
// requested per network on every registry refresh. CachedBoundary keeps them
// in a cache.CacheService and passes every other call through:
//
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	boundary := servicecache.New(walletServices, svc, nil)
//	api, err := wallet.NewAPI(client, boundary)
//
// # Invalidation
//
// Keys are tracked as they are read. A successful AddUserAsset,
// RemoveUserAsset or SetUserAssetVisible drops the cached user assets of the
// token chain. ERC-721 metadata answers carrying a provider error are returned
// but never stored.
//
// Reads can also be tagged through the context and dropped by tag:
//
//	ctx = servicecache.WithCacheTags(ctx, "session:42")
//	_, _ = boundary.GetAllTokens(ctx, "0x1", wallet.CoinETH)
//	_ = boundary.InvalidateTags(ctx, "session:42")
//
// Every read is also tagged with its snake_case method name and with
// "<method>:<chain id>", e.g. "get_all_tokens:0x1".
package servicecache
