package testsupport

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-wallet-query/wallet"
)

//go:embed testdata/wallet.json
var walletFixture []byte

// WalletState is the data served by FakeBoundary. Balance maps are keyed by
// Key over the call arguments in call order.
type WalletState struct {
	Info                     wallet.WalletInfo                        `json:"walletInfo"`
	SelectedCoin             wallet.CoinType                          `json:"selectedCoin"`
	SelectedAccounts         map[wallet.CoinType]string               `json:"selectedAccounts"`
	FilecoinSelectedAccounts map[string]string                        `json:"filecoinSelectedAccounts"`
	ChainIDs                 map[wallet.CoinType]string               `json:"chainIds"`
	Networks                 map[wallet.CoinType][]wallet.NetworkInfo `json:"networks"`
	HiddenNetworks           map[wallet.CoinType][]string             `json:"hiddenNetworks"`
	BaseCurrency             string                                   `json:"baseCurrency"`
	UserAssets               map[string][]wallet.BlockchainToken      `json:"userAssets"`
	KnownTokens              map[string][]wallet.BlockchainToken      `json:"knownTokens"`
	Prices                   map[string]wallet.AssetPrice             `json:"prices"`
	Balances                 map[string]wallet.BalanceResult          `json:"balances"`
	TokenBalances            map[string]wallet.BalanceResult          `json:"tokenBalances"`
	SolanaBalances           map[string]wallet.SolanaBalanceResult    `json:"solanaBalances"`
	SPLBalances              map[string]wallet.SPLTokenBalanceResult  `json:"splBalances"`
	ERC721Metadata           map[string]wallet.ERC721MetadataResult   `json:"erc721Metadata"`
}

// Key joins lookup parts the way WalletState maps are keyed.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// DefaultWalletState decodes the embedded wallet fixture.
func DefaultWalletState() (WalletState, error) {
	var state WalletState
	if err := json.Unmarshal(walletFixture, &state); err != nil {
		return WalletState{}, fmt.Errorf("decode wallet fixture: %w", err)
	}
	return state, nil
}

// FakeBoundary is an in-memory wallet.Boundary. It records every call and
// can be told to fail or block individual methods.
type FakeBoundary struct {
	mu    sync.Mutex
	state WalletState
	fails map[string]error
	hook  func(ctx context.Context, method string)

	calls *xsync.MapOf[string, *xsync.Counter]
}

var _ wallet.Boundary = (*FakeBoundary)(nil)

// NewFakeBoundary serves state.
func NewFakeBoundary(state WalletState) *FakeBoundary {
	return &FakeBoundary{
		state: state,
		fails: map[string]error{},
		calls: xsync.NewMapOf[string, *xsync.Counter](),
	}
}

// NewDefaultFakeBoundary serves the embedded wallet fixture. It panics if
// the fixture cannot be decoded.
func NewDefaultFakeBoundary() *FakeBoundary {
	state, err := DefaultWalletState()
	if err != nil {
		panic(err)
	}
	return NewFakeBoundary(state)
}

// Fail makes method return err until cleared with a nil err.
func (f *FakeBoundary) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fails, method)
		return
	}
	f.fails[method] = err
}

// OnCall runs hook at the start of every call, outside the fake's lock.
func (f *FakeBoundary) OnCall(hook func(ctx context.Context, method string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

// Calls reports how many times method was invoked.
func (f *FakeBoundary) Calls(method string) int {
	c, ok := f.calls.Load(method)
	if !ok {
		return 0
	}
	return int(c.Value())
}

// Update mutates the served state under the fake's lock.
func (f *FakeBoundary) Update(fn func(*WalletState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
}

// State returns a shallow copy of the served state.
func (f *FakeBoundary) State() WalletState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *FakeBoundary) enter(ctx context.Context, method string) error {
	c, _ := f.calls.LoadOrCompute(method, xsync.NewCounter)
	c.Inc()

	f.mu.Lock()
	hook := f.hook
	err := f.fails[method]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, method)
	}
	return err
}

func (f *FakeBoundary) GetWalletInfo(ctx context.Context) (wallet.WalletInfo, error) {
	if err := f.enter(ctx, "GetWalletInfo"); err != nil {
		return wallet.WalletInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	info := f.state.Info
	info.AccountInfos = slices.Clone(info.AccountInfos)
	return info, nil
}

func (f *FakeBoundary) GetSelectedAccount(ctx context.Context, coin wallet.CoinType) (string, error) {
	if err := f.enter(ctx, "GetSelectedAccount"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.SelectedAccounts[coin], nil
}

func (f *FakeBoundary) GetFilecoinSelectedAccount(ctx context.Context, chainID string) (string, error) {
	if err := f.enter(ctx, "GetFilecoinSelectedAccount"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.FilecoinSelectedAccounts[chainID], nil
}

func (f *FakeBoundary) SetSelectedAccount(ctx context.Context, address string, coin wallet.CoinType) error {
	if err := f.enter(ctx, "SetSelectedAccount"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.SelectedAccounts == nil {
		f.state.SelectedAccounts = map[wallet.CoinType]string{}
	}
	f.state.SelectedAccounts[coin] = address
	return nil
}

func (f *FakeBoundary) GetAllNetworks(ctx context.Context, coin wallet.CoinType) ([]wallet.NetworkInfo, error) {
	if err := f.enter(ctx, "GetAllNetworks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.state.Networks[coin]), nil
}

func (f *FakeBoundary) GetHiddenNetworks(ctx context.Context, coin wallet.CoinType) ([]string, error) {
	if err := f.enter(ctx, "GetHiddenNetworks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.state.HiddenNetworks[coin]), nil
}

func (f *FakeBoundary) GetChainID(ctx context.Context, coin wallet.CoinType) (string, error) {
	if err := f.enter(ctx, "GetChainID"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.ChainIDs[coin], nil
}

func (f *FakeBoundary) GetBalance(ctx context.Context, address string, _ wallet.CoinType, chainID string) (wallet.BalanceResult, error) {
	if err := f.enter(ctx, "GetBalance"); err != nil {
		return wallet.BalanceResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance(f.state.Balances, Key(address, chainID)), nil
}

func (f *FakeBoundary) GetSolanaBalance(ctx context.Context, address, chainID string) (wallet.SolanaBalanceResult, error) {
	if err := f.enter(ctx, "GetSolanaBalance"); err != nil {
		return wallet.SolanaBalanceResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.SolanaBalances[Key(address, chainID)], nil
}

func (f *FakeBoundary) GetERC20TokenBalance(ctx context.Context, contract, address, chainID string) (wallet.BalanceResult, error) {
	if err := f.enter(ctx, "GetERC20TokenBalance"); err != nil {
		return wallet.BalanceResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance(f.state.TokenBalances, Key(contract, address, chainID)), nil
}

func (f *FakeBoundary) GetERC721TokenBalance(ctx context.Context, contract, tokenID, owner, chainID string) (wallet.BalanceResult, error) {
	if err := f.enter(ctx, "GetERC721TokenBalance"); err != nil {
		return wallet.BalanceResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance(f.state.TokenBalances, Key(contract, tokenID, owner, chainID)), nil
}

// balance serves "0" for unknown keys.
func (f *FakeBoundary) balance(m map[string]wallet.BalanceResult, key string) wallet.BalanceResult {
	if res, ok := m[key]; ok {
		return res
	}
	return wallet.BalanceResult{Balance: "0"}
}

func (f *FakeBoundary) GetSPLTokenAccountBalance(ctx context.Context, walletAddress, tokenMint, chainID string) (wallet.SPLTokenBalanceResult, error) {
	if err := f.enter(ctx, "GetSPLTokenAccountBalance"); err != nil {
		return wallet.SPLTokenBalanceResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.state.SPLBalances[Key(walletAddress, tokenMint, chainID)]; ok {
		return res, nil
	}
	return wallet.SPLTokenBalanceResult{Amount: "0", UIAmountString: "0"}, nil
}

func (f *FakeBoundary) GetERC721Metadata(ctx context.Context, contract, tokenID, chainID string) (wallet.ERC721MetadataResult, error) {
	if err := f.enter(ctx, "GetERC721Metadata"); err != nil {
		return wallet.ERC721MetadataResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.state.ERC721Metadata[Key(contract, tokenID, chainID)]; ok {
		return res, nil
	}
	return wallet.ERC721MetadataResult{Error: 1, ErrorMessage: "token metadata not found"}, nil
}

func (f *FakeBoundary) GetSelectedCoin(ctx context.Context) (wallet.CoinType, error) {
	if err := f.enter(ctx, "GetSelectedCoin"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.SelectedCoin, nil
}

func (f *FakeBoundary) SetSelectedCoin(ctx context.Context, coin wallet.CoinType) error {
	if err := f.enter(ctx, "SetSelectedCoin"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.SelectedCoin = coin
	return nil
}

func (f *FakeBoundary) GetDefaultBaseCurrency(ctx context.Context) (string, error) {
	if err := f.enter(ctx, "GetDefaultBaseCurrency"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.BaseCurrency, nil
}

func (f *FakeBoundary) SetDefaultBaseCurrency(ctx context.Context, currency string) error {
	if err := f.enter(ctx, "SetDefaultBaseCurrency"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.BaseCurrency = currency
	return nil
}

func (f *FakeBoundary) GetUserAssets(ctx context.Context, chainID string, _ wallet.CoinType) ([]wallet.BlockchainToken, error) {
	if err := f.enter(ctx, "GetUserAssets"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.state.UserAssets[chainID]), nil
}

func (f *FakeBoundary) AddUserAsset(ctx context.Context, token wallet.BlockchainToken) (bool, error) {
	if err := f.enter(ctx, "AddUserAsset"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.UserAssets == nil {
		f.state.UserAssets = map[string][]wallet.BlockchainToken{}
	}
	assets := f.state.UserAssets[token.ChainID]
	if slices.ContainsFunc(assets, sameAsset(token)) {
		return false, nil
	}
	f.state.UserAssets[token.ChainID] = append(slices.Clone(assets), token)
	return true, nil
}

func (f *FakeBoundary) RemoveUserAsset(ctx context.Context, token wallet.BlockchainToken) (bool, error) {
	if err := f.enter(ctx, "RemoveUserAsset"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	assets := f.state.UserAssets[token.ChainID]
	if !slices.ContainsFunc(assets, sameAsset(token)) {
		return false, nil
	}
	f.state.UserAssets[token.ChainID] = slices.DeleteFunc(slices.Clone(assets), sameAsset(token))
	return true, nil
}

func (f *FakeBoundary) SetUserAssetVisible(ctx context.Context, token wallet.BlockchainToken, visible bool) (bool, error) {
	if err := f.enter(ctx, "SetUserAssetVisible"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	assets := slices.Clone(f.state.UserAssets[token.ChainID])
	i := slices.IndexFunc(assets, sameAsset(token))
	if i < 0 {
		return false, nil
	}
	assets[i].Visible = visible
	f.state.UserAssets[token.ChainID] = assets
	return true, nil
}

func sameAsset(token wallet.BlockchainToken) func(wallet.BlockchainToken) bool {
	id := wallet.TokenAssetID(token)
	return func(t wallet.BlockchainToken) bool {
		t.ChainID = token.ChainID
		return wallet.TokenAssetID(t) == id
	}
}

func (f *FakeBoundary) GetPrice(ctx context.Context, fromAssets, toAssets []string, _ wallet.AssetPriceTimeframe) (wallet.PriceResult, error) {
	if err := f.enter(ctx, "GetPrice"); err != nil {
		return wallet.PriceResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var values []wallet.AssetPrice
	for _, from := range fromAssets {
		for _, to := range toAssets {
			if p, ok := f.state.Prices[Key(from, to)]; ok {
				values = append(values, p)
			}
		}
	}
	return wallet.PriceResult{Success: len(values) > 0, Values: values}, nil
}

func (f *FakeBoundary) GetAllTokens(ctx context.Context, chainID string, _ wallet.CoinType) ([]wallet.BlockchainToken, error) {
	if err := f.enter(ctx, "GetAllTokens"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.state.KnownTokens[chainID]), nil
}
