package wallet

import (
	"maps"
	"slices"

	"github.com/goliatone/go-wallet-query/entity"
)

// NetworkRegistry holds every visible network, indexed by chain id, plus the
// chain ids of each coin family.
type NetworkRegistry struct {
	*entity.Registry[NetworkInfo]
	IDsByCoinType map[CoinType][]string
}

// NewNetworkRegistry normalizes networks.
func NewNetworkRegistry(networks []NetworkInfo, idsByCoinType map[CoinType][]string) *NetworkRegistry {
	if idsByCoinType == nil {
		idsByCoinType = map[CoinType][]string{}
	}
	return &NetworkRegistry{
		Registry:      entity.FromList(networkID, networks),
		IDsByCoinType: idsByCoinType,
	}
}

func networkID(n NetworkInfo) string { return n.ChainID }

// CopyValue deep copies the registry for optimistic drafts.
func (r *NetworkRegistry) CopyValue() any {
	out := &NetworkRegistry{
		Registry:      r.Registry.Clone(),
		IDsByCoinType: make(map[CoinType][]string, len(r.IDsByCoinType)),
	}
	for coin, ids := range r.IDsByCoinType {
		out.IDsByCoinType[coin] = slices.Clone(ids)
	}
	return out
}

// TokenRegistry holds tokens indexed by asset id. Visible ids are only
// populated for the user token registry.
type TokenRegistry struct {
	*entity.Registry[BlockchainToken]
	IDsByChainID             map[string][]string
	VisibleTokenIDs          []string
	VisibleTokenIDsByChainID map[string][]string
}

// NewTokenRegistry returns an empty token registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		Registry:                 entity.New(TokenAssetID),
		IDsByChainID:             map[string][]string{},
		VisibleTokenIDs:          []string{},
		VisibleTokenIDsByChainID: map[string][]string{},
	}
}

// UpsertToken inserts or replaces token and keeps the chain and visibility
// indexes in step with the registry.
func (r *TokenRegistry) UpsertToken(token BlockchainToken) {
	id := TokenAssetID(token)
	r.UpsertOne(token)
	if !slices.Contains(r.IDsByChainID[token.ChainID], id) {
		r.IDsByChainID[token.ChainID] = append(r.IDsByChainID[token.ChainID], id)
	}
	if token.Visible {
		if !slices.Contains(r.VisibleTokenIDs, id) {
			r.VisibleTokenIDs = append(r.VisibleTokenIDs, id)
		}
		if !slices.Contains(r.VisibleTokenIDsByChainID[token.ChainID], id) {
			r.VisibleTokenIDsByChainID[token.ChainID] = append(r.VisibleTokenIDsByChainID[token.ChainID], id)
		}
		return
	}
	r.VisibleTokenIDs = slices.DeleteFunc(r.VisibleTokenIDs, func(v string) bool { return v == id })
	if ids, ok := r.VisibleTokenIDsByChainID[token.ChainID]; ok {
		r.VisibleTokenIDsByChainID[token.ChainID] = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	}
}

// CopyValue deep copies the registry for optimistic drafts.
func (r *TokenRegistry) CopyValue() any {
	return &TokenRegistry{
		Registry:                 r.Registry.Clone(),
		IDsByChainID:             cloneIDMap(r.IDsByChainID),
		VisibleTokenIDs:          slices.Clone(r.VisibleTokenIDs),
		VisibleTokenIDsByChainID: cloneIDMap(r.VisibleTokenIDsByChainID),
	}
}

func cloneIDMap(in map[string][]string) map[string][]string {
	out := maps.Clone(in)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	if out == nil {
		out = map[string][]string{}
	}
	return out
}

func newAccountRegistry(infos []AccountInfo) *AccountRegistry {
	entities := make([]AccountInfoEntity, len(infos))
	for i, info := range infos {
		entities[i] = NewAccountEntity(info)
	}
	return entity.FromList(accountID, entities)
}

func accountID(a AccountInfoEntity) string { return a.Address }
