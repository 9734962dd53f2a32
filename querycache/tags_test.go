package querycache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagMatches(t *testing.T) {
	tests := []struct {
		name        string
		invalidated Tag
		provided    Tag
		want        bool
	}{
		{"generic matches generic", GenericTag("Network"), GenericTag("Network"), true},
		{"generic matches specific", GenericTag("Network"), IDTag("Network", "0x1"), true},
		{"specific matches generic", IDTag("Network", "0x1"), GenericTag("Network"), true},
		{"specific matches same id", IDTag("Network", "0x1"), IDTag("Network", "0x1"), true},
		{"specific skips other id", IDTag("Network", "0x6"), IDTag("Network", "0x5"), false},
		{"type mismatch", GenericTag("Network"), GenericTag("Token"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.invalidated.Matches(tt.provided))
		})
	}
}

func TestTagString(t *testing.T) {
	require.Equal(t, "Network", GenericTag("Network").String())
	require.Equal(t, "Network:0x1", IDTag("Network", "0x1").String())
}

func TestTagIndexInvalidateByTags(t *testing.T) {
	all := QueryKey{Endpoint: "getAllNetworks"}
	mainnet := QueryKey{Endpoint: "getNetwork", Args: "0x1"}
	goerli := QueryKey{Endpoint: "getNetwork", Args: "0x5"}
	tokens := QueryKey{Endpoint: "getTokensRegistry"}

	x := NewTagIndex()
	x.Record(all, []Tag{GenericTag("Network"), IDTag("Network", "0x1"), IDTag("Network", "0x5")})
	x.Record(mainnet, []Tag{IDTag("Network", "0x1")})
	x.Record(goerli, []Tag{IDTag("Network", "0x5")})
	x.Record(tokens, []Tag{GenericTag("KnownBlockchainTokens")})

	t.Run("generic tag hits every key of the type", func(t *testing.T) {
		got := x.InvalidateByTags([]Tag{GenericTag("Network")})
		require.Equal(t, []QueryKey{all, mainnet, goerli}, got)
	})

	t.Run("specific tag hits generic and same id", func(t *testing.T) {
		got := x.InvalidateByTags([]Tag{IDTag("Network", "0x1")})
		require.Equal(t, []QueryKey{all, mainnet}, got)
	})

	t.Run("union of several tags", func(t *testing.T) {
		got := x.InvalidateByTags([]Tag{IDTag("Network", "0x5"), GenericTag("KnownBlockchainTokens")})
		require.Equal(t, []QueryKey{all, goerli, tokens}, got)
	})

	t.Run("unknown type", func(t *testing.T) {
		require.Empty(t, x.InvalidateByTags([]Tag{GenericTag("Price")}))
	})
}

func TestTagIndexRecordReplaces(t *testing.T) {
	key := QueryKey{Endpoint: "getNetwork", Args: "0x1"}
	x := NewTagIndex()

	x.Record(key, []Tag{IDTag("Network", "0x1")})
	x.Record(key, []Tag{IDTag("Network", "0x2")})

	require.Equal(t, []Tag{IDTag("Network", "0x2")}, x.TagsFor(key))
	require.Empty(t, x.InvalidateByTags([]Tag{IDTag("Network", "0x1")}))
	require.Equal(t, []QueryKey{key}, x.InvalidateByTags([]Tag{IDTag("Network", "0x2")}))

	x.Record(key, nil)
	require.Nil(t, x.TagsFor(key))
	require.Equal(t, 0, x.Len())
}

func TestTagIndexForget(t *testing.T) {
	a := QueryKey{Endpoint: "a"}
	b := QueryKey{Endpoint: "b"}
	x := NewTagIndex()
	x.Record(a, []Tag{GenericTag("Network")})
	x.Record(b, []Tag{GenericTag("Network")})

	x.Forget(a)

	require.Equal(t, 1, x.Len())
	require.Equal(t, []QueryKey{b}, x.InvalidateByTags([]Tag{GenericTag("Network")}))
}
