package querycache

import (
	"context"
	"sync"
)

// Future is the shared result of one fetch.
type Future struct {
	done chan struct{}
	once sync.Once
	data any
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(data any, err error) *Future {
	f := newFuture()
	f.resolve(data, err)
	return f
}

func closedFuture(key QueryKey) *Future {
	return resolvedFuture(nil, newInternalError("query cache is closed", TextCodeCacheClosed, map[string]any{
		"key": key.String(),
	}))
}

// resolve settles f. Only the first call takes effect.
func (f *Future) resolve(data any, err error) {
	f.once.Do(func() {
		f.data = data
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the fetch settles or ctx is done. Cancelling ctx does not
// cancel the fetch itself.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the settled value. It reports false while still pending.
func (f *Future) Result() (any, error, bool) {
	select {
	case <-f.done:
		return f.data, f.err, true
	default:
		return nil, nil, false
	}
}

// Await waits for f and converts the result to T.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	var zero T
	data, err := f.Wait(ctx)
	if err != nil {
		return zero, err
	}
	if data == nil {
		return zero, nil
	}
	typed, ok := data.(T)
	if !ok {
		return zero, newInternalError("query result has an unexpected type", TextCodeResultType, map[string]any{
			"type": typeName(data),
		})
	}
	return typed, nil
}
