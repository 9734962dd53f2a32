package wallet

import "context"

// WalletHandler reports wallet level state.
type WalletHandler interface {
	GetWalletInfo(ctx context.Context) (WalletInfo, error)
}

// KeyringService manages accounts and the selected account per coin.
type KeyringService interface {
	GetSelectedAccount(ctx context.Context, coin CoinType) (string, error)
	GetFilecoinSelectedAccount(ctx context.Context, chainID string) (string, error)
	SetSelectedAccount(ctx context.Context, address string, coin CoinType) error
}

// JSONRPCService talks to chain providers.
type JSONRPCService interface {
	GetAllNetworks(ctx context.Context, coin CoinType) ([]NetworkInfo, error)
	GetHiddenNetworks(ctx context.Context, coin CoinType) ([]string, error)
	GetChainID(ctx context.Context, coin CoinType) (string, error)

	GetBalance(ctx context.Context, address string, coin CoinType, chainID string) (BalanceResult, error)
	GetSolanaBalance(ctx context.Context, address, chainID string) (SolanaBalanceResult, error)
	GetERC20TokenBalance(ctx context.Context, contract, address, chainID string) (BalanceResult, error)
	GetERC721TokenBalance(ctx context.Context, contract, tokenID, owner, chainID string) (BalanceResult, error)
	GetSPLTokenAccountBalance(ctx context.Context, walletAddress, tokenMint, chainID string) (SPLTokenBalanceResult, error)
	GetERC721Metadata(ctx context.Context, contract, tokenID, chainID string) (ERC721MetadataResult, error)
}

// WalletService stores user preferences and the user asset list.
type WalletService interface {
	GetSelectedCoin(ctx context.Context) (CoinType, error)
	SetSelectedCoin(ctx context.Context, coin CoinType) error
	GetDefaultBaseCurrency(ctx context.Context) (string, error)
	SetDefaultBaseCurrency(ctx context.Context, currency string) error

	GetUserAssets(ctx context.Context, chainID string, coin CoinType) ([]BlockchainToken, error)
	AddUserAsset(ctx context.Context, token BlockchainToken) (bool, error)
	RemoveUserAsset(ctx context.Context, token BlockchainToken) (bool, error)
	SetUserAssetVisible(ctx context.Context, token BlockchainToken, visible bool) (bool, error)
}

// AssetRatioService quotes token prices.
type AssetRatioService interface {
	GetPrice(ctx context.Context, fromAssets, toAssets []string, timeframe AssetPriceTimeframe) (PriceResult, error)
}

// BlockchainRegistry lists the known tokens of a chain.
type BlockchainRegistry interface {
	GetAllTokens(ctx context.Context, chainID string, coin CoinType) ([]BlockchainToken, error)
}

// Boundary is every external service the wallet queries use. Real and fake
// implementations are chosen by the caller.
type Boundary interface {
	WalletHandler
	KeyringService
	JSONRPCService
	WalletService
	AssetRatioService
	BlockchainRegistry
}
