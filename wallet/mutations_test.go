package wallet_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wallet-query/pkg/testsupport"
	"github.com/goliatone/go-wallet-query/querycache"
	"github.com/goliatone/go-wallet-query/wallet"
)

const (
	usdcID = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48-0x1"
	baycID = "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d-0x1-0x1"
)

func fixtureToken(t *testing.T, h *harness, chainID, contract string) wallet.BlockchainToken {
	t.Helper()
	idx := slices.IndexFunc(h.fake.State().UserAssets[chainID], func(tok wallet.BlockchainToken) bool {
		return tok.ContractAddress == contract
	})
	require.GreaterOrEqual(t, idx, 0, "fixture token %s on %s", contract, chainID)
	token := h.fake.State().UserAssets[chainID][idx]
	token.ChainID = chainID
	return token
}

func TestIsEip1559ChangedPatchesNetworks(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	before, err := h.api.AllNetworks(ctx)
	require.NoError(t, err)

	change, err := h.api.IsEip1559Changed(ctx, wallet.Eip1559Change{ChainID: wallet.MainnetChainID, IsEip1559: false})
	require.NoError(t, err)
	assert.Equal(t, wallet.MainnetChainID, change.ChainID)

	entry := h.peek(t, wallet.GetAllNetworks, nil)
	assert.True(t, entry.Stale)

	patched, ok := entry.Data.(*wallet.NetworkRegistry)
	require.True(t, ok)
	assert.NotSame(t, before, patched)

	mainnet, _ := patched.Get(wallet.MainnetChainID)
	assert.False(t, mainnet.IsEip1559)

	original, _ := before.Get(wallet.MainnetChainID)
	assert.True(t, original.IsEip1559)
}

func TestIsEip1559ChangedRejectsMissingChain(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	before, err := h.api.AllNetworks(ctx)
	require.NoError(t, err)

	_, err = h.api.IsEip1559Changed(ctx, wallet.Eip1559Change{IsEip1559: true})
	require.Error(t, err)
	assert.True(t, querycache.IsValidation(err))

	entry := h.peek(t, wallet.GetAllNetworks, nil)
	assert.Same(t, before, entry.Data)
	assert.False(t, entry.Stale)
}

func TestUpdateUserTokenRollsBackOnFailure(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	before, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)

	boom := errors.New("wallet service unavailable")
	h.fake.Fail("RemoveUserAsset", boom)

	var inFlightName string
	h.fake.OnCall(func(_ context.Context, method string) {
		if method != "RemoveUserAsset" {
			return
		}
		entry, ok := h.cache.Peek(h.api.Client().Key(wallet.GetUserTokensRegistry, nil))
		if !ok {
			return
		}
		if reg, ok := entry.Data.(*wallet.TokenRegistry); ok {
			tok, _ := reg.Get(usdcID)
			inFlightName = tok.Name
		}
	})

	token := fixtureToken(t, h, wallet.MainnetChainID, usdc)
	token.Name = "USD Coin (bridged)"

	_, err = h.api.UpdateUserToken(ctx, token)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, querycache.IsServiceError(err))

	assert.Equal(t, "USD Coin (bridged)", inFlightName)

	entry := h.peek(t, wallet.GetUserTokensRegistry, nil)
	require.Same(t, before, entry.Data)
	assert.False(t, entry.Stale)

	restored, _ := before.Get(usdcID)
	assert.Equal(t, "USD Coin", restored.Name)
	assert.Zero(t, h.fake.Calls("AddUserAsset"))
	assert.Len(t, h.cache.Optimist().Pending(), 0)
}

func TestUpdateUserTokenReplacesToken(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)

	token := fixtureToken(t, h, wallet.MainnetChainID, usdc)
	token.Name = "USD Coin (bridged)"

	id, err := h.api.UpdateUserToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, usdcID, id)
	assert.Equal(t, 1, h.fake.Calls("RemoveUserAsset"))
	assert.Equal(t, 1, h.fake.Calls("AddUserAsset"))
	assert.True(t, h.peek(t, wallet.GetUserTokensRegistry, nil).Stale)

	after, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)
	got, ok := after.Get(usdcID)
	require.True(t, ok)
	assert.Equal(t, "USD Coin (bridged)", got.Name)
	assert.Equal(t, 8, h.fake.Calls("GetUserAssets"))
}

func TestUpdateUserTokenPatchesVisibilityIndexes(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	before, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)
	require.NotContains(t, before.VisibleTokenIDs, baycID)

	h.fake.Fail("RemoveUserAsset", errors.New("wallet service unavailable"))

	var patched *wallet.TokenRegistry
	h.fake.OnCall(func(_ context.Context, method string) {
		if method != "RemoveUserAsset" {
			return
		}
		if entry, ok := h.cache.Peek(h.api.Client().Key(wallet.GetUserTokensRegistry, nil)); ok {
			patched, _ = entry.Data.(*wallet.TokenRegistry)
		}
	})

	token := fixtureToken(t, h, wallet.MainnetChainID, "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D")
	token.Visible = true

	_, err = h.api.UpdateUserToken(ctx, token)
	require.Error(t, err)

	require.NotNil(t, patched)
	assert.Contains(t, patched.VisibleTokenIDs, baycID)
	assert.Contains(t, patched.VisibleTokenIDsByChainID[wallet.MainnetChainID], baycID)
	assert.Equal(t, before.IDsByChainID[wallet.MainnetChainID], patched.IDsByChainID[wallet.MainnetChainID])

	assert.Same(t, before, h.peek(t, wallet.GetUserTokensRegistry, nil).Data)
	assert.NotContains(t, before.VisibleTokenIDs, baycID)
	assert.NotContains(t, before.VisibleTokenIDsByChainID[wallet.MainnetChainID], baycID)
}

func TestTokenRegistryUpsertToken(t *testing.T) {
	reg := wallet.NewTokenRegistry()
	dai := wallet.BlockchainToken{ContractAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", ChainID: "0x89", Visible: true}
	daiID := wallet.TokenAssetID(dai)

	reg.UpsertToken(dai)
	reg.UpsertToken(dai)

	assert.Equal(t, []string{daiID}, reg.IDsByChainID["0x89"])
	assert.Equal(t, []string{daiID}, reg.VisibleTokenIDs)
	assert.Equal(t, []string{daiID}, reg.VisibleTokenIDsByChainID["0x89"])

	dai.Visible = false
	reg.UpsertToken(dai)

	got, ok := reg.Get(daiID)
	require.True(t, ok)
	assert.False(t, got.Visible)
	assert.Equal(t, []string{daiID}, reg.IDsByChainID["0x89"])
	assert.Empty(t, reg.VisibleTokenIDs)
	assert.Empty(t, reg.VisibleTokenIDsByChainID["0x89"])
}

func TestAddUserToken(t *testing.T) {
	t.Run("fungible token", func(t *testing.T) {
		h := newHarness(t, nil)
		dai := wallet.BlockchainToken{
			ContractAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			Name:            "Dai Stablecoin",
			IsErc20:         true,
			Symbol:          "DAI",
			Decimals:        18,
			Visible:         true,
			ChainID:         wallet.MainnetChainID,
			Coin:            wallet.CoinETH,
		}

		id, err := h.api.AddUserToken(context.Background(), dai)
		require.NoError(t, err)
		assert.Equal(t, "0x6b175474e89094c44da98b954eedeac495271d0f-0x1", id)
		assert.Zero(t, h.fake.Calls("GetERC721Metadata"))
	})

	t.Run("nft takes the metadata image as logo", func(t *testing.T) {
		h := newHarness(t, func(s *testsupport.WalletState) {
			s.UserAssets[wallet.MainnetChainID] = slices.DeleteFunc(s.UserAssets[wallet.MainnetChainID], func(tok wallet.BlockchainToken) bool {
				return tok.IsErc721
			})
		})
		ape := wallet.BlockchainToken{
			ContractAddress: bayc,
			Name:            "Bored Ape",
			IsErc721:        true,
			IsNft:           true,
			Symbol:          "BAYC",
			TokenID:         "0x1",
			ChainID:         wallet.MainnetChainID,
			Coin:            wallet.CoinETH,
		}

		id, err := h.api.AddUserToken(context.Background(), ape)
		require.NoError(t, err)
		assert.Equal(t, baycID, id)

		assets := h.fake.State().UserAssets[wallet.MainnetChainID]
		idx := slices.IndexFunc(assets, func(tok wallet.BlockchainToken) bool { return tok.IsErc721 })
		require.GreaterOrEqual(t, idx, 0)
		assert.Equal(t, "ipfs://bayc/1.png", assets[idx].Logo)
	})

	t.Run("duplicate token is refused", func(t *testing.T) {
		h := newHarness(t, nil)
		token := fixtureToken(t, h, wallet.MainnetChainID, usdc)

		_, err := h.api.AddUserToken(context.Background(), token)
		require.Error(t, err)
		assert.True(t, querycache.IsServiceError(err))
	})

	t.Run("nft without token id is rejected", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.api.AddUserToken(context.Background(), wallet.BlockchainToken{
			ContractAddress: bayc,
			IsErc721:        true,
			ChainID:         wallet.MainnetChainID,
		})
		require.Error(t, err)
		assert.True(t, querycache.IsValidation(err))
		assert.Zero(t, h.fake.Calls("AddUserAsset"))
	})
}

func TestRemoveUserTokenInvalidatesUserTokens(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)

	removed, err := h.api.RemoveUserToken(ctx, fixtureToken(t, h, wallet.MainnetChainID, usdc))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.True(t, h.peek(t, wallet.GetUserTokensRegistry, nil).Stale)

	after, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)
	assert.False(t, after.Has(usdcID))
}

func TestUpdateUserAssetVisible(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	before, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)
	assert.NotContains(t, before.VisibleTokenIDs, baycID)

	ok, err := h.api.UpdateUserAssetVisible(ctx, wallet.UserAssetVisibleArg{
		Token:   fixtureToken(t, h, wallet.MainnetChainID, bayc),
		Visible: true,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := h.api.UserTokensRegistry(ctx)
	require.NoError(t, err)
	assert.Contains(t, after.VisibleTokenIDs, baycID)
	assert.Contains(t, after.VisibleTokenIDsByChainID[wallet.MainnetChainID], baycID)
}
