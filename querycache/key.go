package querycache

import (
	"github.com/goliatone/go-wallet-query/cache"
)

// QueryKey identifies one cacheable request: an endpoint plus its serialized
// arguments.
type QueryKey struct {
	Endpoint string
	Args     string
}

// NewKey builds the key for endpoint and arg. A nil arg yields empty Args.
func NewKey(serializer cache.KeySerializer, endpoint string, arg any) QueryKey {
	if arg == nil {
		return QueryKey{Endpoint: endpoint}
	}
	return QueryKey{Endpoint: endpoint, Args: serializer.SerializeArgs(arg)}
}

func (k QueryKey) String() string {
	if k.Args == "" {
		return k.Endpoint
	}
	return k.Endpoint + cache.KeySeparator + k.Args
}
