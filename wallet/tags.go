package wallet

import (
	"fmt"

	"github.com/goliatone/go-wallet-query/querycache"
)

// Tag types provided and invalidated by the wallet endpoints.
const (
	TagAccountInfos            = "AccountInfos"
	TagChainIDForCoinType      = "ChainIdForCoinType"
	TagDefaultAccountAddresses = "DefaultAccountAddresses"
	TagDefaultFiatCurrency     = "DefaultFiatCurrency"
	TagERC721Metadata          = "ERC721Metadata"
	TagHiddenNetworks          = "HiddenNetworks"
	TagKnownBlockchainTokens   = "KnownBlockchainTokens"
	TagNetwork                 = "Network"
	TagSelectedAccountAddress  = "SelectedAccountAddress"
	TagSelectedChainID         = "SelectedChainId"
	TagSelectedCoin            = "SelectedCoin"
	TagTokenSpotPrice          = "TokenSpotPrice"
	TagUserBlockchainTokens    = "UserBlockchainTokens"
	TagWalletInfo              = "WalletInfo"
	TagUnknownError            = "UNKNOWN_ERROR"
)

var unknownError = []querycache.Tag{querycache.GenericTag(TagUnknownError)}

type idLister interface {
	EntityIDs() []string
}

func provides(types ...string) querycache.TagsFunc {
	tags := make([]querycache.Tag, len(types))
	for i, typ := range types {
		tags[i] = querycache.GenericTag(typ)
	}
	return func(any, error, any) []querycache.Tag {
		return tags
	}
}

// providesRegistry tags a registry result with its type and one tag per id.
func providesRegistry(typ string) querycache.TagsFunc {
	return func(result any, err error, _ any) []querycache.Tag {
		if err != nil {
			return unknownError
		}
		tags := []querycache.Tag{querycache.GenericTag(typ)}
		if reg, ok := result.(idLister); ok {
			for _, id := range reg.EntityIDs() {
				tags = append(tags, querycache.IDTag(typ, id))
			}
		}
		return tags
	}
}

func cacheByIDArg(typ string) querycache.TagsFunc {
	return func(_ any, err error, arg any) []querycache.Tag {
		if err != nil {
			return unknownError
		}
		return []querycache.Tag{querycache.IDTag(typ, fmt.Sprint(arg))}
	}
}

func cacheByIDResultProperty[T any](typ string, id func(T) string) querycache.TagsFunc {
	return func(result any, err error, _ any) []querycache.Tag {
		v, ok := result.(T)
		if err != nil || !ok {
			return unknownError
		}
		return []querycache.Tag{querycache.IDTag(typ, id(v))}
	}
}

// invalidatesList invalidates every entity of the given types after a
// successful mutation.
func invalidatesList(types ...string) querycache.TagsFunc {
	return func(_ any, err error, _ any) []querycache.Tag {
		if err != nil {
			return nil
		}
		tags := make([]querycache.Tag, len(types))
		for i, typ := range types {
			tags[i] = querycache.GenericTag(typ)
		}
		return tags
	}
}
