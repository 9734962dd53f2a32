package wallet

import (
	"strings"
)

// TokenRef identifies a token for balance, price and metadata lookups.
type TokenRef struct {
	ChainID         string
	ContractAddress string
	IsErc721        bool
	IsNft           bool
	Symbol          string
	TokenID         string
	CoingeckoID     string
}

// Ref returns the lookup fields of t.
func (t BlockchainToken) Ref() TokenRef {
	return TokenRef{
		ChainID:         t.ChainID,
		ContractAddress: t.ContractAddress,
		IsErc721:        t.IsErc721,
		IsNft:           t.IsNft,
		Symbol:          t.Symbol,
		TokenID:         t.TokenID,
		CoingeckoID:     t.CoingeckoID,
	}
}

// AssetIDKey is the registry id of a token: lower-cased contract, token id
// when present, and chain id joined by dashes.
func AssetIDKey(t TokenRef) string {
	contract := strings.ToLower(t.ContractAddress)
	if t.TokenID != "" {
		return contract + "-" + t.TokenID + "-" + t.ChainID
	}
	return contract + "-" + t.ChainID
}

// TokenAssetID is AssetIDKey for a full token.
func TokenAssetID(t BlockchainToken) string {
	return AssetIDKey(t.Ref())
}

// IsNativeAsset reports whether t is the gas asset of its chain.
func IsNativeAsset(t TokenRef) bool {
	return t.ContractAddress == "" && !t.IsErc721
}

// TokenParam is the identifier sent to the asset ratio service: the
// coingecko id when known, the lower-cased symbol for native assets and
// tokens off Ethereum mainnet, and the contract address otherwise.
func TokenParam(t TokenRef) string {
	if t.CoingeckoID != "" {
		return t.CoingeckoID
	}
	if t.ChainID != MainnetChainID || IsNativeAsset(t) {
		return strings.ToLower(t.Symbol)
	}
	return t.ContractAddress
}

// AccountType labels an account for display.
func AccountType(info AccountInfo) string {
	switch {
	case info.Hardware != nil:
		return info.Hardware.Vendor
	case info.IsImported:
		return "Secondary"
	default:
		return "Primary"
	}
}

// NewAccountEntity normalizes info for the account registry.
func NewAccountEntity(info AccountInfo) AccountInfoEntity {
	e := AccountInfoEntity{
		AccountInfo: info,
		AccountType: AccountType(info),
	}
	if info.Hardware != nil {
		hw := *info.Hardware
		e.Hardware = &hw
		e.DeviceID = hw.DeviceID
	}
	return e
}

// FilecoinKeyringIDFromNetwork returns the keyring that owns Filecoin
// accounts on chainID. Other coins yield "".
func FilecoinKeyringIDFromNetwork(chainID string, coin CoinType) string {
	if coin != CoinFIL {
		return ""
	}
	if chainID == FilecoinMainnetChainID {
		return FilecoinKeyringID
	}
	return FilecoinTestnetKeyringID
}

// MakeNetworkAsset builds the native asset of network.
func MakeNetworkAsset(network NetworkInfo) BlockchainToken {
	logo := ""
	if len(network.IconURLs) > 0 {
		logo = network.IconURLs[0]
	}
	return BlockchainToken{
		Name:     network.SymbolName,
		Symbol:   network.Symbol,
		Logo:     logo,
		Decimals: network.Decimals,
		Visible:  true,
		ChainID:  network.ChainID,
		Coin:     network.Coin,
	}
}

func addLogoToToken(t BlockchainToken, baseURL string) BlockchainToken {
	if t.Logo == "" || strings.Contains(t.Logo, "://") || strings.HasPrefix(t.Logo, "data:") {
		return t
	}
	t.Logo = baseURL + t.Logo
	return t
}

func addChainIDToToken(t BlockchainToken, chainID string) BlockchainToken {
	t.ChainID = chainID
	return t
}
