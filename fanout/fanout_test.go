package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wallet-query/querycache"
)

func TestFanOutKeepsShardOrder(t *testing.T) {
	shards := []int{5, 1, 3, 0, 2}

	results := FanOut(context.Background(), shards, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})

	require.Len(t, results, len(shards))
	for i, r := range results {
		require.Equal(t, i, r.Index)
		require.Equal(t, shards[i]*10, r.Value)
		require.NoError(t, r.Err)
	}
}

func TestFanOutRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	shards := make([]int, 12)

	FanOut(context.Background(), shards, func(context.Context, int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	}, WithLimit(3))

	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFanOutIsolatesFailures(t *testing.T) {
	boom := querycache.NewServiceError("rpc down", nil)
	var calls atomic.Int32

	results := FanOut(context.Background(), []string{"eth", "sol", "fil"}, func(_ context.Context, coin string) (string, error) {
		calls.Add(1)
		switch coin {
		case "sol":
			return "", boom
		case "fil":
			panic("keyring missing")
		}
		return "0x1", nil
	})

	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, "0x1", results[0].Value)
	require.Same(t, boom, results[1].Err)
	require.True(t, querycache.IsInternal(results[2].Err))
	require.True(t, querycache.HasTextCode(results[2].Err, querycache.TextCodePanic))
}

func TestFanOutNoShards(t *testing.T) {
	results := FanOut(context.Background(), nil, func(context.Context, int) (int, error) {
		t.Fatal("no shard expected")
		return 0, nil
	})
	require.Empty(t, results)
}

func TestAggregate(t *testing.T) {
	t.Run("mixed balances", func(t *testing.T) {
		results := []Result[string]{{Index: 0, Value: "1.5"}, {Index: 1, Value: ""}, {Index: 2, Value: "2.5"}}
		got, err := Aggregate(results, Sum, ZeroBalance)
		require.NoError(t, err)
		require.Equal(t, "4.0", got)
	})

	t.Run("no shards", func(t *testing.T) {
		got, err := Aggregate(nil, Sum, ZeroBalance)
		require.NoError(t, err)
		require.Equal(t, "0", got)
	})

	t.Run("shard error surfaces as partial failure", func(t *testing.T) {
		boom := querycache.NewServiceError("rpc down", nil)
		results := []Result[string]{{Index: 0, Value: "1"}, {Index: 1, Err: boom}}

		got, err := Aggregate(results, Sum, ZeroBalance)
		require.Equal(t, ZeroBalance, got)
		require.True(t, querycache.IsPartialFailure(err))
		require.ErrorIs(t, err, boom)
		require.Contains(t, querycache.Message(err), "shard 1")
	})

	t.Run("combine error", func(t *testing.T) {
		results := []Result[string]{{Index: 0, Value: "abc"}}
		_, err := Aggregate(results, Sum, ZeroBalance)
		require.True(t, querycache.IsValidation(err))
	})
}

func TestCollect(t *testing.T) {
	values, err := Collect([]Result[int]{{Index: 0, Value: 1}, {Index: 1, Value: 2}})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, values)

	raw := errors.New("closed")
	_, err = Collect([]Result[int]{{Index: 0, Value: 1}, {Index: 1, Err: raw}})
	require.True(t, querycache.IsPartialFailure(err))
	require.ErrorIs(t, err, raw)
}
