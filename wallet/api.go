package wallet

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-wallet-query/fanout"
	"github.com/goliatone/go-wallet-query/querycache"
)

// Query endpoints.
const (
	GetWalletInfoBase                     = "getWalletInfoBase"
	GetAccountInfosRegistry               = "getAccountInfosRegistry"
	GetDefaultAccountAddresses            = "getDefaultAccountAddresses"
	GetSelectedAccountAddress             = "getSelectedAccountAddress"
	GetDefaultFiatCurrency                = "getDefaultFiatCurrency"
	GetHiddenNetworkChainIDsForCoin       = "getHiddenNetworkChainIdsForCoin"
	GetAllNetworks                        = "getAllNetworks"
	GetChainIDForCoin                     = "getChainIdForCoin"
	GetSelectedChainID                    = "getSelectedChainId"
	GetSelectedCoin                       = "getSelectedCoin"
	GetTokenSpotPrice                     = "getTokenSpotPrice"
	GetTokensRegistry                     = "getTokensRegistry"
	GetUserTokensRegistry                 = "getUserTokensRegistry"
	GetERC721Metadata                     = "getERC721Metadata"
	GetTokenCurrentBalance                = "getTokenCurrentBalance"
	GetCombinedTokenBalanceForAllAccounts = "getCombinedTokenBalanceForAllAccounts"
)

// Mutation endpoints.
const (
	SetSelectedAccount     = "setSelectedAccount"
	SetDefaultFiatCurrency = "setDefaultFiatCurrency"
	SetSelectedCoin        = "setSelectedCoin"
	IsEip1559Changed       = "isEip1559Changed"
	AddUserToken           = "addUserToken"
	RemoveUserToken        = "removeUserToken"
	UpdateUserToken        = "updateUserToken"
	UpdateUserAssetVisible = "updateUserAssetVisible"
)

// API registers the wallet endpoints on a query client and exposes typed
// accessors for them.
type API struct {
	client   *querycache.Client
	boundary Boundary
	cfg      Config
	logger   *zap.Logger
}

// Option customizes an API.
type Option func(*API)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(a *API) {
		a.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPI registers every wallet endpoint on client and validates the
// resulting dependency graph.
func NewAPI(client *querycache.Client, boundary Boundary, opts ...Option) (*API, error) {
	a := &API{
		client:   client,
		boundary: boundary,
		cfg:      DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	a.cfg = a.cfg.withDefaults()
	a.logger = a.logger.Named("wallet")

	for _, def := range a.queries() {
		if err := client.RegisterQuery(def); err != nil {
			return nil, err
		}
	}
	for _, def := range a.mutations() {
		if err := client.RegisterMutation(def); err != nil {
			return nil, err
		}
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Client returns the query client the endpoints are registered on.
func (a *API) Client() *querycache.Client { return a.client }

func (a *API) queries() []querycache.QueryDef {
	return []querycache.QueryDef{
		{
			Name:         GetWalletInfoBase,
			Query:        a.getWalletInfoBase,
			ProvidesTags: provides(TagWalletInfo),
		},
		{
			Name:         GetAccountInfosRegistry,
			DependsOn:    []string{GetWalletInfoBase},
			Query:        a.getAccountInfosRegistry,
			ProvidesTags: providesRegistry(TagAccountInfos),
		},
		{
			Name:         GetDefaultAccountAddresses,
			DependsOn:    []string{GetChainIDForCoin},
			Query:        a.getDefaultAccountAddresses,
			ProvidesTags: provides(TagDefaultAccountAddresses),
		},
		{
			Name:         GetSelectedAccountAddress,
			DependsOn:    []string{GetSelectedCoin, GetChainIDForCoin, GetAccountInfosRegistry, SetSelectedAccount},
			Query:        a.getSelectedAccountAddress,
			ProvidesTags: provides(TagSelectedAccountAddress),
		},
		{
			Name:         GetDefaultFiatCurrency,
			Query:        a.getDefaultFiatCurrency,
			ProvidesTags: provides(TagDefaultFiatCurrency),
		},
		{
			Name:         GetHiddenNetworkChainIDsForCoin,
			Query:        a.getHiddenNetworkChainIDsForCoin,
			ProvidesTags: cacheByIDArg(TagHiddenNetworks),
		},
		{
			Name:         GetAllNetworks,
			DependsOn:    []string{GetWalletInfoBase, GetHiddenNetworkChainIDsForCoin},
			Query:        a.getAllNetworks,
			ProvidesTags: providesRegistry(TagNetwork),
		},
		{
			Name:         GetChainIDForCoin,
			Query:        a.getChainIDForCoin,
			ProvidesTags: cacheByIDArg(TagChainIDForCoinType),
		},
		{
			Name:         GetSelectedChainID,
			DependsOn:    []string{GetSelectedCoin, GetChainIDForCoin},
			Query:        a.getSelectedChainID,
			ProvidesTags: provides(TagSelectedChainID),
		},
		{
			Name:         GetSelectedCoin,
			Query:        a.getSelectedCoin,
			ProvidesTags: provides(TagSelectedCoin),
		},
		{
			Name:      GetTokenSpotPrice,
			DependsOn: []string{GetDefaultFiatCurrency},
			Query:     a.getTokenSpotPrice,
			ProvidesTags: cacheByIDResultProperty(TagTokenSpotPrice, func(p AssetPriceByID) string {
				return p.ID
			}),
		},
		{
			Name:         GetTokensRegistry,
			DependsOn:    []string{GetAllNetworks},
			Query:        a.getTokensRegistry,
			ProvidesTags: providesRegistry(TagKnownBlockchainTokens),
		},
		{
			Name:         GetUserTokensRegistry,
			DependsOn:    []string{GetAllNetworks},
			Query:        a.getUserTokensRegistry,
			ProvidesTags: providesRegistry(TagUserBlockchainTokens),
		},
		{
			Name:         GetERC721Metadata,
			Query:        a.getERC721Metadata,
			ProvidesTags: erc721MetadataTags,
		},
		{
			Name:      GetTokenCurrentBalance,
			DependsOn: []string{GetAllNetworks},
			Query:     a.getTokenCurrentBalance,
		},
		{
			Name:      GetCombinedTokenBalanceForAllAccounts,
			DependsOn: []string{GetAccountInfosRegistry, GetTokenCurrentBalance},
			Query:     a.getCombinedTokenBalanceForAllAccounts,
		},
	}
}

func (a *API) mutations() []querycache.MutationDef {
	return []querycache.MutationDef{
		{
			Name:            SetSelectedAccount,
			Mutate:          a.setSelectedAccount,
			InvalidatesTags: invalidatesList(TagSelectedAccountAddress),
		},
		{
			Name:            SetDefaultFiatCurrency,
			Mutate:          a.setDefaultFiatCurrency,
			InvalidatesTags: invalidatesList(TagDefaultFiatCurrency),
		},
		{
			Name:            SetSelectedCoin,
			Mutate:          a.setSelectedCoin,
			InvalidatesTags: invalidatesList(TagSelectedCoin, TagSelectedChainID, TagSelectedAccountAddress),
		},
		{
			Name:            IsEip1559Changed,
			Mutate:          a.isEip1559Changed,
			InvalidatesTags: eip1559Tags,
			Optimistic:      a.eip1559Patches,
		},
		{
			Name:            AddUserToken,
			DependsOn:       []string{GetERC721Metadata},
			Mutate:          a.addUserToken,
			InvalidatesTags: invalidatesList(TagUserBlockchainTokens),
		},
		{
			Name:            RemoveUserToken,
			Mutate:          a.removeUserToken,
			InvalidatesTags: invalidatesList(TagUserBlockchainTokens),
		},
		{
			Name:            UpdateUserToken,
			DependsOn:       []string{RemoveUserToken, AddUserToken},
			Mutate:          a.updateUserToken,
			InvalidatesTags: updateUserTokenTags,
			Optimistic:      a.updateUserTokenPatches,
		},
		{
			Name:            UpdateUserAssetVisible,
			Mutate:          a.updateUserAssetVisible,
			InvalidatesTags: invalidatesList(TagUserBlockchainTokens),
		},
	}
}

func (a *API) fanOutOptions() []fanout.Option {
	return []fanout.Option{
		fanout.WithLimit(a.cfg.FanOutLimit),
		fanout.WithLogger(a.logger),
	}
}

// Typed accessors. Each one initiates its endpoint and waits for the result.

func (a *API) WalletInfo(ctx context.Context) (WalletInfo, error) {
	return querycache.Initiate[WalletInfo](ctx, a.client, GetWalletInfoBase, nil)
}

func (a *API) AccountInfosRegistry(ctx context.Context) (*AccountRegistry, error) {
	return querycache.Initiate[*AccountRegistry](ctx, a.client, GetAccountInfosRegistry, nil)
}

func (a *API) DefaultAccountAddresses(ctx context.Context) ([]string, error) {
	return querycache.Initiate[[]string](ctx, a.client, GetDefaultAccountAddresses, nil)
}

func (a *API) SelectedAccountAddress(ctx context.Context) (string, error) {
	return querycache.Initiate[string](ctx, a.client, GetSelectedAccountAddress, nil)
}

func (a *API) DefaultFiatCurrency(ctx context.Context) (string, error) {
	return querycache.Initiate[string](ctx, a.client, GetDefaultFiatCurrency, nil)
}

func (a *API) HiddenNetworkChainIDs(ctx context.Context, coin CoinType) ([]string, error) {
	return querycache.Initiate[[]string](ctx, a.client, GetHiddenNetworkChainIDsForCoin, coin)
}

func (a *API) AllNetworks(ctx context.Context) (*NetworkRegistry, error) {
	return querycache.Initiate[*NetworkRegistry](ctx, a.client, GetAllNetworks, nil)
}

func (a *API) ChainIDForCoin(ctx context.Context, coin CoinType) (string, error) {
	return querycache.Initiate[string](ctx, a.client, GetChainIDForCoin, coin)
}

func (a *API) SelectedChainID(ctx context.Context) (string, error) {
	return querycache.Initiate[string](ctx, a.client, GetSelectedChainID, nil)
}

func (a *API) SelectedCoin(ctx context.Context) (CoinType, error) {
	return querycache.Initiate[CoinType](ctx, a.client, GetSelectedCoin, nil)
}

func (a *API) TokenSpotPrice(ctx context.Context, token TokenRef) (AssetPriceByID, error) {
	return querycache.Initiate[AssetPriceByID](ctx, a.client, GetTokenSpotPrice, token)
}

func (a *API) TokensRegistry(ctx context.Context) (*TokenRegistry, error) {
	return querycache.Initiate[*TokenRegistry](ctx, a.client, GetTokensRegistry, nil)
}

func (a *API) UserTokensRegistry(ctx context.Context) (*TokenRegistry, error) {
	return querycache.Initiate[*TokenRegistry](ctx, a.client, GetUserTokensRegistry, nil)
}

func (a *API) ERC721Metadata(ctx context.Context, token TokenRef) (ERC721MetadataByID, error) {
	return querycache.Initiate[ERC721MetadataByID](ctx, a.client, GetERC721Metadata, token)
}

func (a *API) TokenCurrentBalance(ctx context.Context, arg BalanceArg) (AccountTokenBalance, error) {
	return querycache.Initiate[AccountTokenBalance](ctx, a.client, GetTokenCurrentBalance, arg)
}

func (a *API) CombinedTokenBalance(ctx context.Context, arg CombinedBalanceArg) (string, error) {
	return querycache.Initiate[string](ctx, a.client, GetCombinedTokenBalanceForAllAccounts, arg)
}

func (a *API) SetSelectedAccount(ctx context.Context, arg SelectedAccountArg) (string, error) {
	return querycache.Mutate[string](ctx, a.client, SetSelectedAccount, arg)
}

func (a *API) SetDefaultFiatCurrency(ctx context.Context, currency string) (string, error) {
	return querycache.Mutate[string](ctx, a.client, SetDefaultFiatCurrency, currency)
}

func (a *API) SetSelectedCoin(ctx context.Context, coin CoinType) (CoinType, error) {
	return querycache.Mutate[CoinType](ctx, a.client, SetSelectedCoin, coin)
}

func (a *API) IsEip1559Changed(ctx context.Context, change Eip1559Change) (Eip1559Change, error) {
	return querycache.Mutate[Eip1559Change](ctx, a.client, IsEip1559Changed, change)
}

func (a *API) AddUserToken(ctx context.Context, token BlockchainToken) (string, error) {
	return querycache.Mutate[string](ctx, a.client, AddUserToken, token)
}

func (a *API) RemoveUserToken(ctx context.Context, token BlockchainToken) (bool, error) {
	return querycache.Mutate[bool](ctx, a.client, RemoveUserToken, token)
}

func (a *API) UpdateUserToken(ctx context.Context, token BlockchainToken) (string, error) {
	return querycache.Mutate[string](ctx, a.client, UpdateUserToken, token)
}

func (a *API) UpdateUserAssetVisible(ctx context.Context, arg UserAssetVisibleArg) (bool, error) {
	return querycache.Mutate[bool](ctx, a.client, UpdateUserAssetVisible, arg)
}
