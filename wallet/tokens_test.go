package wallet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wallet-query/pkg/testsupport"
	"github.com/goliatone/go-wallet-query/querycache"
	"github.com/goliatone/go-wallet-query/wallet"
)

func TestAllNetworks(t *testing.T) {
	t.Run("hidden networks are removed", func(t *testing.T) {
		h := newHarness(t, nil)

		networks, err := h.api.AllNetworks(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{wallet.MainnetChainID, wallet.LocalhostChainID, wallet.SolanaMainnetChainID, wallet.FilecoinMainnetChainID}, networks.IDs)
		assert.Equal(t, map[wallet.CoinType][]string{
			wallet.CoinETH: {wallet.MainnetChainID, wallet.LocalhostChainID},
			wallet.CoinSOL: {wallet.SolanaMainnetChainID},
			wallet.CoinFIL: {wallet.FilecoinMainnetChainID},
		}, networks.IDsByCoinType)
		assert.True(t, networks.Consistent())
	})

	t.Run("disabled coins are skipped", func(t *testing.T) {
		h := newHarness(t, func(s *testsupport.WalletState) {
			s.Info.IsSolanaEnabled = false
			s.Info.IsFilecoinEnabled = false
		})

		networks, err := h.api.AllNetworks(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{wallet.MainnetChainID, wallet.LocalhostChainID}, networks.IDs)
		assert.Equal(t, 1, h.fake.Calls("GetAllNetworks"))
		assert.Equal(t, 1, h.fake.Calls("GetHiddenNetworks"))
	})

	t.Run("registry tags", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.api.AllNetworks(context.Background())
		require.NoError(t, err)

		tags := h.peek(t, wallet.GetAllNetworks, nil).Tags
		assert.Contains(t, tags, querycache.GenericTag(wallet.TagNetwork))
		assert.Contains(t, tags, querycache.IDTag(wallet.TagNetwork, wallet.MainnetChainID))
		assert.Contains(t, tags, querycache.IDTag(wallet.TagNetwork, wallet.FilecoinMainnetChainID))
	})
}

func TestTokenSpotPrice(t *testing.T) {
	tests := []struct {
		name        string
		token       wallet.TokenRef
		wantID      string
		wantPrice   string
		wantAssetID string
	}{
		{
			name:        "native asset by symbol",
			token:       ethMainnet,
			wantID:      "eth-usd",
			wantPrice:   "1850.25",
			wantAssetID: "-0x1",
		},
		{
			name:        "token by coingecko id",
			token:       usdcMainnet,
			wantID:      "usd-coin-usd",
			wantPrice:   "1.00",
			wantAssetID: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48-0x1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			price, err := h.api.TokenSpotPrice(context.Background(), tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, price.ID)
			assert.Equal(t, tt.wantPrice, price.Price)
			assert.Equal(t, tt.wantAssetID, price.FromAssetID)
			assert.Equal(t, "usd", price.ToAsset)

			tags := h.peek(t, wallet.GetTokenSpotPrice, tt.token).Tags
			assert.Equal(t, []querycache.Tag{querycache.IDTag(wallet.TagTokenSpotPrice, tt.wantID)}, tags)
		})
	}

	t.Run("unknown price", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.api.TokenSpotPrice(context.Background(), wallet.TokenRef{ChainID: "0x89", Symbol: "MATIC"})
		require.Error(t, err)
		assert.True(t, querycache.IsServiceError(err))
		assert.Equal(t, []querycache.Tag{querycache.GenericTag(wallet.TagUnknownError)},
			h.peek(t, wallet.GetTokenSpotPrice, wallet.TokenRef{ChainID: "0x89", Symbol: "MATIC"}).Tags)
	})
}

func TestTokensRegistry(t *testing.T) {
	t.Run("tokens are decorated per network", func(t *testing.T) {
		h := newHarness(t, nil)

		tokens, err := h.api.TokensRegistry(context.Background())
		require.NoError(t, err)

		usdcID := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48-0x1"
		daiID := "0x6b175474e89094c44da98b954eedeac495271d0f-0x1"
		assert.Equal(t, []string{usdcID, daiID}, tokens.IDs)
		assert.Equal(t, []string{usdcID, daiID}, tokens.IDsByChainID[wallet.MainnetChainID])
		assert.Empty(t, tokens.IDsByChainID[wallet.SolanaMainnetChainID])

		usdcToken, _ := tokens.Get(usdcID)
		daiToken, _ := tokens.Get(daiID)
		assert.Equal(t, wallet.DefaultTokenImageBaseURL+"usdc.png", usdcToken.Logo)
		assert.Equal(t, "data:image/png;base64,AAAA", daiToken.Logo)
		assert.Equal(t, wallet.MainnetChainID, daiToken.ChainID)
		assert.Equal(t, 4, h.fake.Calls("GetAllTokens"))
	})

	t.Run("no tokens anywhere is an error", func(t *testing.T) {
		h := newHarness(t, func(s *testsupport.WalletState) {
			s.KnownTokens = nil
		})

		_, err := h.api.TokensRegistry(context.Background())
		require.Error(t, err)
		assert.True(t, querycache.IsServiceError(err))
	})
}

func TestUserTokensRegistry(t *testing.T) {
	h := newHarness(t, nil)

	tokens, err := h.api.UserTokensRegistry(context.Background())
	require.NoError(t, err)

	ethID := "-0x1"
	usdcID := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48-0x1"
	baycID := "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d-0x1-0x1"
	localID := "-0x539"
	solID := "-0x65"
	filID := "-f"

	assert.Equal(t, []string{ethID, usdcID, baycID, localID, solID, filID}, tokens.IDs)
	assert.Equal(t, []string{ethID, usdcID, solID}, tokens.VisibleTokenIDs)
	assert.Equal(t, []string{ethID, usdcID}, tokens.VisibleTokenIDsByChainID[wallet.MainnetChainID])
	assert.Empty(t, tokens.VisibleTokenIDsByChainID[wallet.LocalhostChainID])
	assert.Equal(t, []string{localID}, tokens.IDsByChainID[wallet.LocalhostChainID])

	local, ok := tokens.Get(localID)
	require.True(t, ok)
	assert.False(t, local.Visible)
	assert.Equal(t, "ETH", local.Symbol)

	fil, _ := tokens.Get(filID)
	assert.Equal(t, "https://icons.example/fil.png", fil.Logo)
}

func TestERC721Metadata(t *testing.T) {
	ape := wallet.TokenRef{ChainID: wallet.MainnetChainID, ContractAddress: bayc, IsErc721: true, IsNft: true, TokenID: "0x1", Symbol: "BAYC"}

	t.Run("parsed metadata", func(t *testing.T) {
		h := newHarness(t, nil)

		md, err := h.api.ERC721Metadata(context.Background(), ape)
		require.NoError(t, err)
		assert.Equal(t, wallet.AssetIDKey(ape), md.ID)
		require.NotNil(t, md.Metadata)
		assert.Equal(t, "ipfs://bayc/1.png", md.Metadata.Image)
		assert.Equal(t, "Bored Ape #1", md.Metadata.Name)
	})

	t.Run("non erc721 token is rejected before any call", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.api.ERC721Metadata(context.Background(), usdcMainnet)
		require.Error(t, err)
		assert.True(t, querycache.IsValidation(err))
		assert.Zero(t, h.fake.Calls("GetERC721Metadata"))

		tags := h.peek(t, wallet.GetERC721Metadata, usdcMainnet).Tags
		assert.Contains(t, tags, querycache.GenericTag(wallet.TagUnknownError))
	})

	t.Run("unparsable response", func(t *testing.T) {
		h := newHarness(t, nil)
		bad := ape
		bad.TokenID = "0x2"

		_, err := h.api.ERC721Metadata(context.Background(), bad)
		require.Error(t, err)
		assert.True(t, querycache.IsServiceError(err))
		assert.Contains(t, querycache.Message(err), "not json")
	})

	t.Run("provider error", func(t *testing.T) {
		h := newHarness(t, nil)
		missing := ape
		missing.TokenID = "0x3"

		_, err := h.api.ERC721Metadata(context.Background(), missing)
		require.Error(t, err)
		assert.Equal(t, "token metadata not found", querycache.Message(err))
	})
}
