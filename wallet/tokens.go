package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-wallet-query/fanout"
	"github.com/goliatone/go-wallet-query/querycache"
)

func (a *API) getTokenSpotPrice(ctx context.Context, arg any) (any, error) {
	token, err := argAs[TokenRef](GetTokenSpotPrice, arg)
	if err != nil {
		return nil, err
	}
	if err := token.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid token")
	}

	currency, err := querycache.Initiate[string](ctx, a.client, GetDefaultFiatCurrency, nil)
	if err != nil {
		return nil, err
	}
	param := TokenParam(token)

	res, err := a.boundary.GetPrice(ctx, []string{param}, []string{currency}, TimeframeLive)
	if err != nil {
		return nil, serviceFailure("unable to find price for token "+token.Symbol, err)
	}
	if !res.Success || len(res.Values) == 0 {
		return nil, querycache.NewServiceError("unable to find price for token "+token.Symbol, nil)
	}

	price := res.Values[0]
	price.FromAsset = strings.ToLower(token.Symbol)
	return AssetPriceByID{
		AssetPrice:  price,
		ID:          param + "-" + currency,
		FromAssetID: AssetIDKey(token),
	}, nil
}

type chainTokens struct {
	network NetworkInfo
	tokens  []BlockchainToken
}

func (a *API) networkList(ctx context.Context) ([]NetworkInfo, error) {
	networks, err := querycache.Initiate[*NetworkRegistry](ctx, a.client, GetAllNetworks, nil)
	if err != nil {
		return nil, err
	}
	return networks.List(), nil
}

func (a *API) getTokensRegistry(ctx context.Context, _ any) (any, error) {
	networks, err := a.networkList(ctx)
	if err != nil {
		return nil, err
	}

	results := fanout.FanOut(ctx, networks, func(ctx context.Context, n NetworkInfo) (chainTokens, error) {
		tokens, err := a.boundary.GetAllTokens(ctx, n.ChainID, n.Coin)
		if err != nil {
			return chainTokens{}, serviceFailure("unable to fetch tokens for chain "+n.ChainID, err)
		}
		return chainTokens{network: n, tokens: a.decorateTokens(tokens, n.ChainID)}, nil
	}, a.fanOutOptions()...)
	perChain, err := fanout.Collect(results)
	if err != nil {
		return nil, err
	}

	reg := NewTokenRegistry()
	var all []BlockchainToken
	for _, ct := range perChain {
		reg.IDsByChainID[ct.network.ChainID] = tokenIDs(ct.tokens)
		all = append(all, ct.tokens...)
	}
	if len(all) == 0 {
		return nil, querycache.NewServiceError("unable to fetch tokens registry", nil)
	}
	reg.SetAll(all)
	return reg, nil
}

func (a *API) getUserTokensRegistry(ctx context.Context, _ any) (any, error) {
	networks, err := a.networkList(ctx)
	if err != nil {
		return nil, err
	}

	results := fanout.FanOut(ctx, networks, a.userAssetsForNetwork, a.fanOutOptions()...)
	perChain, err := fanout.Collect(results)
	if err != nil {
		return nil, err
	}

	reg := NewTokenRegistry()
	var all []BlockchainToken
	for _, ct := range perChain {
		chainID := ct.network.ChainID
		reg.IDsByChainID[chainID] = tokenIDs(ct.tokens)

		visible := make([]string, 0, len(ct.tokens))
		for _, t := range ct.tokens {
			if t.Visible {
				visible = append(visible, TokenAssetID(t))
			}
		}
		reg.VisibleTokenIDsByChainID[chainID] = visible
		reg.VisibleTokenIDs = append(reg.VisibleTokenIDs, visible...)
		all = append(all, ct.tokens...)
	}
	reg.SetAll(all)
	return reg, nil
}

// userAssetsForNetwork lists the user assets of one network. A network with
// no assets yields its native asset, hidden.
func (a *API) userAssetsForNetwork(ctx context.Context, n NetworkInfo) (chainTokens, error) {
	tokens, err := a.boundary.GetUserAssets(ctx, n.ChainID, n.Coin)
	if err != nil {
		return chainTokens{}, serviceFailure("unable to fetch user assets for chain "+n.ChainID, err)
	}
	if len(tokens) == 0 {
		native := MakeNetworkAsset(n)
		native.Visible = false
		return chainTokens{network: n, tokens: []BlockchainToken{native}}, nil
	}
	return chainTokens{network: n, tokens: a.decorateTokens(tokens, n.ChainID)}, nil
}

func (a *API) decorateTokens(tokens []BlockchainToken, chainID string) []BlockchainToken {
	out := make([]BlockchainToken, len(tokens))
	for i, t := range tokens {
		out[i] = addChainIDToToken(addLogoToToken(t, a.cfg.TokenImageBaseURL), chainID)
	}
	return out
}

func tokenIDs(tokens []BlockchainToken) []string {
	ids := make([]string, len(tokens))
	for i, t := range tokens {
		ids[i] = TokenAssetID(t)
	}
	return ids
}

func (a *API) getERC721Metadata(ctx context.Context, arg any) (any, error) {
	token, err := argAs[TokenRef](GetERC721Metadata, arg)
	if err != nil {
		return nil, err
	}
	if !token.IsErc721 {
		return nil, querycache.NewValidationError("cannot fetch erc-721 metadata for non erc-721 token")
	}
	if err := token.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid erc-721 token")
	}

	res, err := a.boundary.GetERC721Metadata(ctx, token.ContractAddress, token.TokenID, token.ChainID)
	if err != nil {
		return nil, serviceFailure("unable to fetch erc-721 metadata", err)
	}
	if res.Error != ProviderSuccess || res.ErrorMessage != "" {
		return nil, providerFailure(res.Error, res.ErrorMessage, "unable to fetch erc-721 metadata")
	}

	var metadata ERC721Metadata
	if err := json.Unmarshal([]byte(res.Response), &metadata); err != nil {
		return nil, querycache.NewServiceError(
			fmt.Sprintf("error parsing erc721 metadata result: %s", res.Response), err)
	}
	return ERC721MetadataByID{ID: AssetIDKey(token), Metadata: &metadata}, nil
}

func erc721MetadataTags(_ any, err error, arg any) []querycache.Tag {
	token, _ := arg.(TokenRef)
	tag := querycache.IDTag(TagERC721Metadata, AssetIDKey(token))
	if err != nil {
		return []querycache.Tag{tag, querycache.GenericTag(TagUnknownError)}
	}
	return []querycache.Tag{tag}
}
