package fanout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wallet-query/querycache"
)

func TestSumBalances(t *testing.T) {
	tests := []struct {
		name     string
		balances []string
		want     string
	}{
		{name: "empty shard is neutral", balances: []string{"1.5", "", "2.5"}, want: "4.0"},
		{name: "zero shards", balances: nil, want: "0"},
		{name: "all unknown", balances: []string{"", ""}, want: "0"},
		{name: "integers", balances: []string{"1", "2"}, want: "3"},
		{name: "widest scale wins", balances: []string{"1.25", "0.5"}, want: "1.75"},
		{name: "keeps trailing zeros", balances: []string{"1.50", "1"}, want: "2.50"},
		{name: "large values stay exact", balances: []string{"1000000000000000000000001", "1"}, want: "1000000000000000000000002"},
		{name: "hex", balances: []string{"0x10", "0xA"}, want: "26"},
		{name: "hex and decimal", balances: []string{"0x1", "0.5"}, want: "1.5"},
		{name: "whitespace", balances: []string{" 2 ", "\t"}, want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SumBalances(tt.balances)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSumBalancesRejectsGarbage(t *testing.T) {
	for _, in := range [][]string{{"1", "abc"}, {"0xZZ"}} {
		_, err := SumBalances(in)
		require.Error(t, err)
		require.True(t, querycache.IsValidation(err))
	}
}

func TestParseBalance(t *testing.T) {
	d, err := ParseBalance("0XFF")
	require.NoError(t, err)
	require.Equal(t, "255", d.String())

	d, err = ParseBalance("12.340")
	require.NoError(t, err)
	require.Equal(t, int32(-3), d.Exponent())
}
