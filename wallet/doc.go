// Package wallet registers the wallet query and mutation endpoints on a
// querycache.Client.
//
// Every endpoint reads from a Boundary, the set of external wallet services,
// and composes other endpoints through the client so that shared inputs such
// as the selected coin or the network list are fetched once:
//
//	store, _ := querycache.NewCache(querycache.DefaultConfig())
//	api, err := wallet.NewAPI(querycache.NewClient(store), boundary)
//	if err != nil {
//		return err
//	}
//	chainID, err := api.SelectedChainID(ctx)
//
// Registries returned by the list endpoints are normalized entity registries.
// Mutations invalidate the tags the affected queries provide, and the
// optimistic ones patch cached registries until they settle.
package wallet
