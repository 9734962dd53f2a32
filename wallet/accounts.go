package wallet

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-wallet-query/fanout"
	"github.com/goliatone/go-wallet-query/querycache"
)

func (a *API) getWalletInfoBase(ctx context.Context, _ any) (any, error) {
	info, err := a.boundary.GetWalletInfo(ctx)
	if err != nil {
		return nil, serviceFailure("unable to fetch wallet info", err)
	}
	return info, nil
}

func (a *API) getAccountInfosRegistry(ctx context.Context, _ any) (any, error) {
	info, err := querycache.Initiate[WalletInfo](ctx, a.client, GetWalletInfoBase, nil)
	if err != nil {
		return nil, err
	}
	return newAccountRegistry(info.AccountInfos), nil
}

func (a *API) getDefaultAccountAddresses(ctx context.Context, _ any) (any, error) {
	results := fanout.FanOut(ctx, SupportedCoinTypes, a.defaultAccountForCoin, a.fanOutOptions()...)
	addresses, err := fanout.Collect(results)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if address != "" {
			out = append(out, address)
		}
	}
	return out, nil
}

func (a *API) defaultAccountForCoin(ctx context.Context, coin CoinType) (string, error) {
	chainID, err := querycache.Initiate[string](ctx, a.client, GetChainIDForCoin, coin)
	if err != nil {
		return "", err
	}
	return a.selectedAccount(ctx, coin, chainID)
}

func (a *API) selectedAccount(ctx context.Context, coin CoinType, chainID string) (string, error) {
	var (
		address string
		err     error
	)
	if coin == CoinFIL {
		address, err = a.boundary.GetFilecoinSelectedAccount(ctx, chainID)
	} else {
		address, err = a.boundary.GetSelectedAccount(ctx, coin)
	}
	if err != nil {
		return "", serviceFailure("unable to fetch selected account for "+coin.String(), err)
	}
	return address, nil
}

// getSelectedAccountAddress falls back to the first known account when the
// keyring reports no selection or an address the wallet no longer holds.
func (a *API) getSelectedAccountAddress(ctx context.Context, _ any) (any, error) {
	coin, err := querycache.Initiate[CoinType](ctx, a.client, GetSelectedCoin, nil)
	if err != nil {
		return nil, err
	}

	chainID := ""
	if coin == CoinFIL {
		if chainID, err = querycache.Initiate[string](ctx, a.client, GetChainIDForCoin, coin); err != nil {
			return nil, err
		}
	}
	selected, err := a.selectedAccount(ctx, coin, chainID)
	if err != nil {
		return nil, err
	}

	accounts, err := querycache.Initiate[*AccountRegistry](ctx, a.client, GetAccountInfosRegistry, nil)
	if err != nil {
		return nil, err
	}
	if selected != "" && hasAddress(accounts.IDs, selected) {
		return selected, nil
	}

	fallback, ok := accounts.First()
	if !ok {
		return nil, querycache.NewNotFoundError("no accounts available to select")
	}
	a.logger.Info("selected account not found, falling back",
		zap.String("selected", selected),
		zap.String("fallback", fallback.Address),
	)
	if _, err := querycache.Mutate[string](ctx, a.client, SetSelectedAccount, SelectedAccountArg{
		Address: fallback.Address,
		Coin:    fallback.Coin,
	}); err != nil {
		return nil, err
	}
	return fallback.Address, nil
}

func hasAddress(ids []string, address string) bool {
	for _, id := range ids {
		if strings.EqualFold(id, address) {
			return true
		}
	}
	return false
}

func (a *API) setSelectedAccount(ctx context.Context, arg any) (any, error) {
	in, err := argAs[SelectedAccountArg](SetSelectedAccount, arg)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid selected account")
	}
	if err := a.boundary.SetSelectedAccount(ctx, in.Address, in.Coin); err != nil {
		return nil, serviceFailure("unable to set selected account "+in.Address, err)
	}
	return in.Address, nil
}

func (a *API) getDefaultFiatCurrency(ctx context.Context, _ any) (any, error) {
	currency, err := a.boundary.GetDefaultBaseCurrency(ctx)
	if err != nil {
		return nil, serviceFailure("unable to fetch default fiat currency", err)
	}
	return strings.ToLower(currency), nil
}

func (a *API) setDefaultFiatCurrency(ctx context.Context, arg any) (any, error) {
	currency, err := argAs[string](SetDefaultFiatCurrency, arg)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		return nil, querycache.NewValidationError("currency is required")
	}
	if err := a.boundary.SetDefaultBaseCurrency(ctx, currency); err != nil {
		return nil, serviceFailure("unable to set default fiat currency to "+currency, err)
	}
	return currency, nil
}

func (a *API) getSelectedCoin(ctx context.Context, _ any) (any, error) {
	coin, err := a.boundary.GetSelectedCoin(ctx)
	if err != nil {
		return nil, serviceFailure("unable to fetch selected coin", err)
	}
	return coin, nil
}

func (a *API) setSelectedCoin(ctx context.Context, arg any) (any, error) {
	coin, err := argAs[CoinType](SetSelectedCoin, arg)
	if err != nil {
		return nil, err
	}
	if err := a.boundary.SetSelectedCoin(ctx, coin); err != nil {
		return nil, serviceFailure("unable to set selected coin "+coin.String(), err)
	}
	return coin, nil
}
