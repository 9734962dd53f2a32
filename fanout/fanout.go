// Package fanout runs one logical request across many shards concurrently
// and merges the per-shard results.
package fanout

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-wallet-query/querycache"
)

// Result is the outcome of one shard.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Option customizes FanOut.
type Option func(*options)

type options struct {
	limit  int
	logger *zap.Logger
}

// WithLimit caps the number of shards running at once. Zero or less means no
// cap.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithLogger sets the logger used to report failed shards.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// FanOut calls fn for every shard concurrently and returns the results in
// shard order. A failing shard never cancels its siblings; a panic in fn
// becomes that shard's error.
func FanOut[S, T any](ctx context.Context, shards []S, fn func(ctx context.Context, shard S) (T, error), opts ...Option) []Result[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	results := make([]Result[T], len(shards))
	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for i, shard := range shards {
		g.Go(func() error {
			results[i] = runShard(ctx, i, shard, fn)
			if err := results[i].Err; err != nil {
				o.logger.Debug("fan-out shard failed", zap.Int("shard", i), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runShard[S, T any](ctx context.Context, i int, shard S, fn func(context.Context, S) (T, error)) (res Result[T]) {
	res.Index = i
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res.Value = zero
			res.Err = goerrors.New("fan-out shard failed unexpectedly", querycache.CategoryInternal).
				WithTextCode(querycache.TextCodePanic).
				WithMetadata(map[string]any{"shard": i, "panic": fmt.Sprint(r)})
		}
	}()
	res.Value, res.Err = fn(ctx, shard)
	return res
}

// Aggregate folds the shard values with combine starting from neutral. The
// first failed shard is returned as a partial failure wrapping its error.
func Aggregate[T any](results []Result[T], combine func(acc, v T) (T, error), neutral T) (T, error) {
	acc := neutral
	if err := FirstError(results); err != nil {
		return neutral, err
	}
	for _, r := range results {
		next, err := combine(acc, r.Value)
		if err != nil {
			return neutral, err
		}
		acc = next
	}
	return acc, nil
}

// Collect returns the shard values in order, or the first failure.
func Collect[T any](results []Result[T]) ([]T, error) {
	if err := FirstError(results); err != nil {
		return nil, err
	}
	out := make([]T, len(results))
	for i, r := range results {
		out[i] = r.Value
	}
	return out, nil
}

// FirstError returns the first failed shard as a partial failure.
func FirstError[T any](results []Result[T]) error {
	for _, r := range results {
		if r.Err != nil {
			return querycache.NewPartialFailure(r.Index, r.Err)
		}
	}
	return nil
}
