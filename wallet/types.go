package wallet

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/goliatone/go-wallet-query/entity"
)

// CoinType is the SLIP-44 coin type of a blockchain family.
type CoinType int

const (
	CoinETH CoinType = 60
	CoinFIL CoinType = 461
	CoinSOL CoinType = 501
)

// SupportedCoinTypes lists the coin families in display order.
var SupportedCoinTypes = []CoinType{CoinETH, CoinSOL, CoinFIL}

func (c CoinType) String() string {
	switch c {
	case CoinETH:
		return "ETH"
	case CoinFIL:
		return "FIL"
	case CoinSOL:
		return "SOL"
	default:
		return "coin(" + strconv.Itoa(int(c)) + ")"
	}
}

// Well known chain ids.
const (
	MainnetChainID         = "0x1"
	LocalhostChainID       = "0x539"
	SolanaMainnetChainID   = "0x65"
	FilecoinMainnetChainID = "f"
	FilecoinTestnetChainID = "t"
)

// Keyring ids.
const (
	DefaultKeyringID         = "default"
	FilecoinKeyringID        = "filecoin"
	FilecoinTestnetKeyringID = "filecoin_testnet"
	SolanaKeyringID          = "solana"
)

// ProviderError is the numeric error code returned by JSON-RPC providers.
// Zero means success.
type ProviderError int

const ProviderSuccess ProviderError = 0

// AssetPriceTimeframe selects the price history window.
type AssetPriceTimeframe int

const TimeframeLive AssetPriceTimeframe = 0

// HardwareInfo describes the device backing a hardware account.
type HardwareInfo struct {
	Vendor   string `json:"vendor"`
	Path     string `json:"path"`
	DeviceID string `json:"deviceId"`
}

// AccountInfo is an account as reported by the keyring.
type AccountInfo struct {
	Address    string        `json:"address"`
	Name       string        `json:"name"`
	IsImported bool          `json:"isImported"`
	Hardware   *HardwareInfo `json:"hardware,omitempty"`
	Coin       CoinType      `json:"coin"`
	KeyringID  string        `json:"keyringId"`
}

// AccountInfoEntity is the normalized account stored in the registry.
type AccountInfoEntity struct {
	AccountInfo
	AccountType string `json:"accountType"`
	DeviceID    string `json:"deviceId"`
}

// AccountRegistry indexes accounts by address.
type AccountRegistry = entity.Registry[AccountInfoEntity]

// NetworkInfo describes one chain.
type NetworkInfo struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
	IconURLs          []string `json:"iconUrls"`
	RPCURLs           []string `json:"rpcUrls"`
	Symbol            string   `json:"symbol"`
	SymbolName        string   `json:"symbolName"`
	Decimals          int      `json:"decimals"`
	Coin              CoinType `json:"coin"`
	IsEip1559         bool     `json:"isEip1559"`
}

// BlockchainToken is a fungible or non-fungible asset on one chain.
type BlockchainToken struct {
	ContractAddress string   `json:"contractAddress"`
	Name            string   `json:"name"`
	Logo            string   `json:"logo"`
	IsErc20         bool     `json:"isErc20"`
	IsErc721        bool     `json:"isErc721"`
	IsNft           bool     `json:"isNft"`
	Symbol          string   `json:"symbol"`
	Decimals        int      `json:"decimals"`
	Visible         bool     `json:"visible"`
	TokenID         string   `json:"tokenId"`
	CoingeckoID     string   `json:"coingeckoId"`
	ChainID         string   `json:"chainId"`
	Coin            CoinType `json:"coin"`
}

// WalletInfo is the wallet level state reported by the wallet handler.
type WalletInfo struct {
	IsWalletCreated   bool          `json:"isWalletCreated"`
	IsWalletLocked    bool          `json:"isWalletLocked"`
	IsWalletBackedUp  bool          `json:"isWalletBackedUp"`
	IsFilecoinEnabled bool          `json:"isFilecoinEnabled"`
	IsSolanaEnabled   bool          `json:"isSolanaEnabled"`
	AccountInfos      []AccountInfo `json:"accountInfos"`
}

// CopyValue deep copies the account list.
func (w WalletInfo) CopyValue() any {
	out := w
	out.AccountInfos = slices.Clone(w.AccountInfos)
	return out
}

// AssetPrice is one quote from the asset ratio service.
type AssetPrice struct {
	FromAsset            string `json:"fromAsset"`
	ToAsset              string `json:"toAsset"`
	Price                string `json:"price"`
	AssetTimeframeChange string `json:"assetTimeframeChange"`
}

// AssetPriceByID is a price keyed by "<token param>-<currency>".
type AssetPriceByID struct {
	AssetPrice
	ID          string `json:"id"`
	FromAssetID string `json:"fromAssetId"`
}

// ERC721Metadata is the parsed token URI document of an NFT.
type ERC721Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ERC721MetadataByID pairs metadata with the asset id it belongs to.
type ERC721MetadataByID struct {
	ID       string          `json:"id"`
	Metadata *ERC721Metadata `json:"metadata,omitempty"`
}

// AccountTokenBalance is the balance of one token held by one account.
type AccountTokenBalance struct {
	AccountEntityID string `json:"accountEntityId"`
	Balance         string `json:"balance"`
	ChainID         string `json:"chainId"`
	TokenEntityID   string `json:"tokenEntityId"`
}

// BalanceResult is returned by the native, ERC-20 and ERC-721 balance calls.
type BalanceResult struct {
	Balance      string        `json:"balance"`
	Error        ProviderError `json:"error"`
	ErrorMessage string        `json:"errorMessage"`
}

// SolanaBalanceResult is returned by the SOL native balance call.
type SolanaBalanceResult struct {
	Balance      uint64        `json:"balance"`
	Error        ProviderError `json:"error"`
	ErrorMessage string        `json:"errorMessage"`
}

// SPLTokenBalanceResult is returned by the SPL token balance call.
type SPLTokenBalanceResult struct {
	Amount         string        `json:"amount"`
	Decimals       int           `json:"decimals"`
	UIAmountString string        `json:"uiAmountString"`
	Error          ProviderError `json:"error"`
	ErrorMessage   string        `json:"errorMessage"`
}

// ERC721MetadataResult carries the raw token URI document.
type ERC721MetadataResult struct {
	Response     string        `json:"response"`
	Error        ProviderError `json:"error"`
	ErrorMessage string        `json:"errorMessage"`
}

// PriceResult is returned by the asset ratio service.
type PriceResult struct {
	Success bool         `json:"success"`
	Values  []AssetPrice `json:"values"`
}

// ServiceError is a failure reported by a wallet service.
type ServiceError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("wallet service error %d: %s", e.Code, e.Message)
}
