package cache

import (
	"context"
	"errors"
)

// ErrInvalidResultType is matched by TypeMismatchError.
var ErrInvalidResultType = errors.New("cache: invalid result type")

// KeySerializer builds cache keys from a method or endpoint name plus arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
	SerializeArgs(args ...any) string
}

// KeyStringer lets argument types supply their own cache key segment.
type KeyStringer interface {
	CacheKey() string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through operations used to front slow service calls.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is a type-safe wrapper around CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, &TypeMismatchError{Key: key, Value: result}
	}
	return typed, nil
}

// TypeMismatchError is returned when a cached value cannot be converted to the requested type.
type TypeMismatchError struct {
	Key   string
	Value any
}

func (e *TypeMismatchError) Error() string {
	return "cache: value stored under " + e.Key + " has an unexpected type"
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrInvalidResultType
}
