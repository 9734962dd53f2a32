package wallet

import (
	"context"
	"slices"

	"github.com/goliatone/go-wallet-query/fanout"
	"github.com/goliatone/go-wallet-query/querycache"
)

func (a *API) getHiddenNetworkChainIDsForCoin(ctx context.Context, arg any) (any, error) {
	coin, err := argAs[CoinType](GetHiddenNetworkChainIDsForCoin, arg)
	if err != nil {
		return nil, err
	}
	ids, err := a.boundary.GetHiddenNetworks(ctx, coin)
	if err != nil {
		return nil, serviceFailure("unable to fetch hidden networks for "+coin.String(), err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// enabledCoins returns the coin families whose networks are listed. ETH is
// always on; SOL and FIL follow the wallet flags.
func enabledCoins(info WalletInfo) []CoinType {
	out := make([]CoinType, 0, len(SupportedCoinTypes))
	for _, coin := range SupportedCoinTypes {
		switch {
		case coin == CoinETH,
			coin == CoinSOL && info.IsSolanaEnabled,
			coin == CoinFIL && info.IsFilecoinEnabled:
			out = append(out, coin)
		}
	}
	return out
}

func (a *API) getAllNetworks(ctx context.Context, _ any) (any, error) {
	info, err := querycache.Initiate[WalletInfo](ctx, a.client, GetWalletInfoBase, nil)
	if err != nil {
		return nil, err
	}
	coins := enabledCoins(info)

	results := fanout.FanOut(ctx, coins, a.visibleNetworks, a.fanOutOptions()...)
	lists, err := fanout.Collect(results)
	if err != nil {
		return nil, err
	}

	idsByCoinType := make(map[CoinType][]string, len(coins))
	var all []NetworkInfo
	for i, coin := range coins {
		ids := make([]string, len(lists[i]))
		for j, n := range lists[i] {
			ids[j] = n.ChainID
		}
		idsByCoinType[coin] = ids
		all = append(all, lists[i]...)
	}
	return NewNetworkRegistry(all, idsByCoinType), nil
}

func (a *API) visibleNetworks(ctx context.Context, coin CoinType) ([]NetworkInfo, error) {
	networks, err := a.boundary.GetAllNetworks(ctx, coin)
	if err != nil {
		return nil, serviceFailure("unable to fetch networks for "+coin.String(), err)
	}
	hidden, err := querycache.Initiate[[]string](ctx, a.client, GetHiddenNetworkChainIDsForCoin, coin)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(slices.Clone(networks), func(n NetworkInfo) bool {
		return slices.Contains(hidden, n.ChainID)
	}), nil
}

func (a *API) getChainIDForCoin(ctx context.Context, arg any) (any, error) {
	coin, err := argAs[CoinType](GetChainIDForCoin, arg)
	if err != nil {
		return nil, err
	}
	chainID, err := a.boundary.GetChainID(ctx, coin)
	if err != nil {
		return nil, serviceFailure("unable to fetch chain id for "+coin.String(), err)
	}
	return chainID, nil
}

func (a *API) getSelectedChainID(ctx context.Context, _ any) (any, error) {
	coin, err := querycache.Initiate[CoinType](ctx, a.client, GetSelectedCoin, nil)
	if err != nil {
		return nil, err
	}
	chainID, err := querycache.Initiate[string](ctx, a.client, GetChainIDForCoin, coin)
	if err != nil {
		return nil, err
	}
	return chainID, nil
}

func (a *API) isEip1559Changed(_ context.Context, arg any) (any, error) {
	change, err := argAs[Eip1559Change](IsEip1559Changed, arg)
	if err != nil {
		return nil, err
	}
	if err := change.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid eip-1559 change")
	}
	return change, nil
}

// eip1559Patches flips the cached network flag before the mutation settles.
func (a *API) eip1559Patches(arg any) []querycache.OptimisticPatch {
	change, ok := arg.(Eip1559Change)
	if !ok {
		return nil
	}
	return []querycache.OptimisticPatch{{
		Endpoint: GetAllNetworks,
		Patch: func(draft any) (any, error) {
			networks, ok := draft.(*NetworkRegistry)
			if !ok {
				return draft, nil
			}
			if n, found := networks.Get(change.ChainID); found {
				n.IsEip1559 = change.IsEip1559
				networks.UpsertOne(n)
			}
			return networks, nil
		},
	}}
}

func eip1559Tags(result any, err error, _ any) []querycache.Tag {
	change, ok := result.(Eip1559Change)
	if err != nil || !ok {
		return nil
	}
	return []querycache.Tag{querycache.IDTag(TagNetwork, change.ChainID)}
}
