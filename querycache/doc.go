// Package querycache implements the reactive query layer: a keyed cache of
// query results with in-flight deduplication, tag-driven invalidation,
// dependent queries and optimistic mutations.
//
// # Overview
//
// A Cache owns every entry. An entry is identified by a QueryKey (endpoint
// name plus serialized arguments) and moves through
//
//	Uninitialized -> Pending -> Fulfilled | Rejected
//
// While an entry is Pending every caller shares the same Future, so a fetch
// function runs at most once per key at a time. Results record the tags they
// provide in a TagIndex; invalidating a tag marks every matching entry stale.
// Entries with subscribers refetch immediately, the rest refetch on their
// next read. Unsubscribed entries are evicted after KeepUnusedDataFor.
//
// # Endpoints
//
// Endpoints are registered on a Client with their declared dependencies:
//
//	client := querycache.NewClient(qc)
//	_ = client.RegisterQuery(querycache.QueryDef{
//		Name:      "getSelectedChainId",
//		DependsOn: []string{"getSelectedCoin", "getChainIdForCoin"},
//		Query: func(ctx context.Context, _ any) (any, error) {
//			coin, err := querycache.Initiate[wallet.CoinType](ctx, client, "getSelectedCoin", nil)
//			if err != nil {
//				return nil, err
//			}
//			return querycache.Initiate[string](ctx, client, "getChainIdForCoin", coin)
//		},
//		ProvidesTags: func(any, error, any) []querycache.Tag {
//			return []querycache.Tag{querycache.GenericTag("SelectedChainId")}
//		},
//	})
//	if err := client.Validate(); err != nil {
//		// unknown dependency or cycle
//	}
//
// Initiate returns the exact error value a dependency settled with. The
// initiation chain travels in the context; re-entering a key already on the
// chain fails with a DEPENDENCY_CYCLE error instead of deadlocking, and in
// strict mode initiating an endpoint missing from DependsOn fails with
// UNDECLARED_DEPENDENCY.
//
// # Optimistic Mutations
//
// A MutationDef may return OptimisticPatch values. Each patch runs against a
// private copy of the cached value (Copier, or a msgpack round trip) and the
// Optimist keeps the before/after pair as a PatchRecord. A failed mutation
// restores the before value captured at apply time, even if a refetch settled
// in between.
package querycache
