package wallet

import (
	"context"

	"github.com/goliatone/go-wallet-query/querycache"
)

func (a *API) tokenArg(endpoint string, arg any) (BlockchainToken, error) {
	token, err := argAs[BlockchainToken](endpoint, arg)
	if err != nil {
		return token, err
	}
	if err := token.Validate(); err != nil {
		return token, invalidArgument(err, "invalid token")
	}
	return token, nil
}

// addUserToken stores token in the user asset list. NFTs take their logo
// from the token metadata image when one is published.
func (a *API) addUserToken(ctx context.Context, arg any) (any, error) {
	token, err := a.tokenArg(AddUserToken, arg)
	if err != nil {
		return nil, err
	}

	if token.IsErc721 {
		md, err := querycache.Initiate[ERC721MetadataByID](ctx, a.client, GetERC721Metadata, token.Ref())
		if err != nil {
			return nil, err
		}
		if md.Metadata != nil && md.Metadata.Image != "" {
			token.Logo = md.Metadata.Image
		}
	}

	id := TokenAssetID(token)
	ok, err := a.boundary.AddUserAsset(ctx, token)
	if err != nil {
		return nil, serviceFailure("error adding user token: "+id, err)
	}
	if !ok {
		return nil, querycache.NewServiceError("error adding user token: "+id, nil)
	}
	return id, nil
}

func (a *API) removeUserToken(ctx context.Context, arg any) (any, error) {
	token, err := a.tokenArg(RemoveUserToken, arg)
	if err != nil {
		return nil, err
	}
	ok, err := a.boundary.RemoveUserAsset(ctx, token)
	if err != nil {
		return nil, serviceFailure("unable to remove user asset: "+TokenAssetID(token), err)
	}
	if !ok {
		return nil, querycache.NewServiceError("unable to remove user asset: "+TokenAssetID(token), nil)
	}
	return true, nil
}

// updateUserToken replaces a user token by removing and re-adding it.
func (a *API) updateUserToken(ctx context.Context, arg any) (any, error) {
	token, err := a.tokenArg(UpdateUserToken, arg)
	if err != nil {
		return nil, err
	}
	if _, err := querycache.Mutate[bool](ctx, a.client, RemoveUserToken, token); err != nil {
		return nil, err
	}
	id, err := querycache.Mutate[string](ctx, a.client, AddUserToken, token)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (a *API) updateUserTokenPatches(arg any) []querycache.OptimisticPatch {
	token, ok := arg.(BlockchainToken)
	if !ok {
		return nil
	}
	return []querycache.OptimisticPatch{{
		Endpoint: GetUserTokensRegistry,
		Patch: func(draft any) (any, error) {
			tokens, ok := draft.(*TokenRegistry)
			if !ok {
				return draft, nil
			}
			tokens.UpsertToken(token)
			return tokens, nil
		},
	}}
}

func updateUserTokenTags(_ any, err error, arg any) []querycache.Tag {
	token, ok := arg.(BlockchainToken)
	if err != nil || !ok {
		return nil
	}
	return []querycache.Tag{querycache.IDTag(TagUserBlockchainTokens, TokenAssetID(token))}
}

func (a *API) updateUserAssetVisible(ctx context.Context, arg any) (any, error) {
	in, err := argAs[UserAssetVisibleArg](UpdateUserAssetVisible, arg)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalidArgument(err, "invalid asset visibility change")
	}
	ok, err := a.boundary.SetUserAssetVisible(ctx, in.Token, in.Visible)
	if err != nil {
		return nil, serviceFailure("could not update asset visibility for token: "+TokenAssetID(in.Token), err)
	}
	return ok, nil
}
