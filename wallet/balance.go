package wallet

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/goliatone/go-wallet-query/fanout"
	"github.com/goliatone/go-wallet-query/querycache"
)

// getTokenCurrentBalance resolves the balance of one token for one account.
// Native assets are read from the chain's native balance call, fungible and
// non-fungible tokens from the family specific call of the account's coin.
// Failed balance calls on the local development chain read as zero.
func (a *API) getTokenCurrentBalance(ctx context.Context, arg any) (any, error) {
	in, err := argAs[BalanceArg](GetTokenCurrentBalance, arg)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid balance request")
	}

	result := AccountTokenBalance{
		AccountEntityID: in.Account.Address,
		Balance:         fanout.ZeroBalance,
		ChainID:         in.Token.ChainID,
		TokenEntityID:   AssetIDKey(in.Token),
	}

	var balance string
	if IsNativeAsset(in.Token) {
		balance, err = a.nativeBalance(ctx, in)
	} else {
		balance, err = a.tokenBalance(ctx, in)
	}
	if err != nil {
		return nil, err
	}
	if balance != "" {
		result.Balance = balance
	}
	return result, nil
}

func (a *API) nativeBalance(ctx context.Context, in BalanceArg) (string, error) {
	networks, err := querycache.Initiate[*NetworkRegistry](ctx, a.client, GetAllNetworks, nil)
	if err != nil {
		return "", err
	}
	network, ok := networks.Get(in.Token.ChainID)
	if !ok {
		return "", querycache.NewNotFoundError("network not found for chain id: " + in.Token.ChainID).
			WithMetadata(map[string]any{"chain_id": in.Token.ChainID})
	}

	switch network.Coin {
	case CoinSOL:
		res, err := a.boundary.GetSolanaBalance(ctx, in.Account.Address, network.ChainID)
		if err != nil {
			return a.rpcFailure(in, serviceFailure("unable to fetch solana balance", err))
		}
		if res.Error != ProviderSuccess {
			return a.rpcFailure(in, providerFailure(res.Error, res.ErrorMessage, "unable to fetch solana balance"))
		}
		return strconv.FormatUint(res.Balance, 10), nil

	case CoinFIL:
		if in.Account.KeyringID != FilecoinKeyringIDFromNetwork(in.Token.ChainID, in.Account.Coin) {
			return fanout.ZeroBalance, nil
		}
	}

	res, err := a.boundary.GetBalance(ctx, in.Account.Address, network.Coin, network.ChainID)
	if err != nil {
		return a.rpcFailure(in, serviceFailure("unable to fetch balance", err))
	}
	if res.Error != ProviderSuccess {
		return a.rpcFailure(in, providerFailure(res.Error, res.ErrorMessage, "unable to fetch balance"))
	}
	return res.Balance, nil
}

// rpcFailure reports a failed balance call. The local development chain has
// no node until one is started, so its failures read as zero.
func (a *API) rpcFailure(in BalanceArg, err error) (string, error) {
	if in.Token.ChainID != LocalhostChainID {
		return "", err
	}
	a.logger.Warn("local development balance unavailable",
		zap.String("account", in.Account.Address),
		zap.String("token", AssetIDKey(in.Token)),
		zap.Error(err),
	)
	return fanout.ZeroBalance, nil
}

func (a *API) tokenBalance(ctx context.Context, in BalanceArg) (string, error) {
	token, account := in.Token, in.Account

	switch account.Coin {
	case CoinETH:
		var (
			res BalanceResult
			err error
		)
		if token.IsErc721 {
			res, err = a.boundary.GetERC721TokenBalance(ctx, token.ContractAddress, token.TokenID, account.Address, token.ChainID)
		} else {
			res, err = a.boundary.GetERC20TokenBalance(ctx, token.ContractAddress, account.Address, token.ChainID)
		}
		if err != nil {
			return a.rpcFailure(in, serviceFailure("unable to fetch token balance", err))
		}
		if res.Error != ProviderSuccess {
			return a.rpcFailure(in, providerFailure(res.Error, res.ErrorMessage, "unable to fetch token balance"))
		}
		return res.Balance, nil

	case CoinSOL:
		res, err := a.boundary.GetSPLTokenAccountBalance(ctx, account.Address, token.ContractAddress, token.ChainID)
		if err != nil {
			return a.rpcFailure(in, serviceFailure("unable to fetch spl token balance", err))
		}
		if res.Error != ProviderSuccess {
			return a.rpcFailure(in, providerFailure(res.Error, res.ErrorMessage, "unable to fetch spl token balance"))
		}
		if token.IsNft {
			return res.UIAmountString, nil
		}
		return res.Amount, nil

	default:
		return fanout.ZeroBalance, nil
	}
}

// getCombinedTokenBalanceForAllAccounts sums the balance of a token across
// every account of the asset's coin. No accounts sum to zero.
func (a *API) getCombinedTokenBalanceForAllAccounts(ctx context.Context, arg any) (any, error) {
	in, err := argAs[CombinedBalanceArg](GetCombinedTokenBalanceForAllAccounts, arg)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid combined balance request")
	}

	accounts, err := querycache.Initiate[*AccountRegistry](ctx, a.client, GetAccountInfosRegistry, nil)
	if err != nil {
		return nil, err
	}
	var refs []AccountRef
	for _, account := range accounts.List() {
		if account.Coin == in.Coin {
			refs = append(refs, AccountRef{
				Address:   account.Address,
				Coin:      account.Coin,
				KeyringID: account.KeyringID,
			})
		}
	}

	results := fanout.FanOut(ctx, refs, func(ctx context.Context, account AccountRef) (string, error) {
		res, err := querycache.Initiate[AccountTokenBalance](ctx, a.client, GetTokenCurrentBalance, BalanceArg{
			Account: account,
			Token:   in.Token,
		})
		if err != nil {
			return "", err
		}
		return res.Balance, nil
	}, a.fanOutOptions()...)
	total, err := fanout.Aggregate(results, fanout.Sum, fanout.ZeroBalance)
	if err != nil {
		return nil, err
	}
	return total, nil
}
