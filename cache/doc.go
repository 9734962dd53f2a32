// Package cache provides the read-through response cache and the key
// serializer shared by the query layer.
//
// Two interfaces are exported:
//
//   - CacheService: read-through get-or-fetch with key and prefix invalidation
//   - KeySerializer: builds stable keys from an endpoint name and its arguments
//
// The query cache uses KeySerializer.SerializeArgs to turn endpoint arguments
// into the Args half of a query key. The servicecache decorator uses
// SerializeKey plus a CacheService to avoid repeating slow wallet service
// calls whose answers rarely change.
//
// # Key Serialization
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("getTokenSpotPrice", []string{"eth"}, "usd")
//	// getTokenSpotPrice::slice[1]:{"eth"}::usd
//
// Maps are written in sorted key order and structs by exported field, so
// equal arguments always produce equal keys. Arguments implementing
// KeyStringer supply their own segment. Argument lists longer than the
// digest threshold are replaced by an xxhash digest.
//
// Function and channel arguments are keyed by pointer and are only stable
// within one process.
//
// # Typed Reads
//
//	info, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (wallet.WalletInfo, error) {
//		return boundary.GetWalletInfo(ctx)
//	})
//
// A cached value of the wrong type yields a *TypeMismatchError that matches
// ErrInvalidResultType.
package cache
