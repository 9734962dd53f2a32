package querycache

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-wallet-query/cache"
)

// QueryFunc runs a query endpoint. It may initiate the endpoints it declares
// in DependsOn through the context it receives.
type QueryFunc func(ctx context.Context, arg any) (any, error)

// MutationFunc runs a mutation endpoint.
type MutationFunc func(ctx context.Context, arg any) (any, error)

// TagsFunc derives tags from an endpoint result. err is set when the call
// failed.
type TagsFunc func(result any, err error, arg any) []Tag

// QueryDef declares a cacheable query endpoint.
type QueryDef struct {
	Name         string
	DependsOn    []string
	Query        QueryFunc
	ProvidesTags TagsFunc
}

// Validate checks the definition shape.
func (d QueryDef) Validate() error {
	return validateDef(validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.DependsOn, validation.Each(validation.Required)),
		validation.Field(&d.Query, validation.NotNil),
	), "invalid query definition")
}

// OptimisticPatch targets the cached value of Endpoint(Arg).
type OptimisticPatch struct {
	Endpoint string
	Arg      any
	Patch    PatchFunc
}

// MutationDef declares a mutation endpoint.
type MutationDef struct {
	Name            string
	DependsOn       []string
	Mutate          MutationFunc
	InvalidatesTags TagsFunc
	Optimistic      func(arg any) []OptimisticPatch
}

// Validate checks the definition shape.
func (d MutationDef) Validate() error {
	return validateDef(validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.DependsOn, validation.Each(validation.Required)),
		validation.Field(&d.Mutate, validation.NotNil),
	), "invalid mutation definition")
}

func validateDef(err error, msg string) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, msg).WithTextCode(TextCodeInvalidArgument)
}

type endpointKind int

const (
	queryEndpoint endpointKind = iota + 1
	mutationEndpoint
)

// Client runs registered endpoints against a Cache.
type Client struct {
	store      *Cache
	serializer cache.KeySerializer
	strict     bool
	logger     *zap.Logger

	names     *xsync.MapOf[string, endpointKind]
	queries   *xsync.MapOf[string, QueryDef]
	mutations *xsync.MapOf[string, MutationDef]
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithKeySerializer overrides the serializer used to build query keys.
func WithKeySerializer(s cache.KeySerializer) ClientOption {
	return func(c *Client) {
		if s != nil {
			c.serializer = s
		}
	}
}

// WithStrictDependencies overrides the cache's StrictDependencies setting.
func WithStrictDependencies(strict bool) ClientOption {
	return func(c *Client) {
		c.strict = strict
	}
}

// NewClient returns a client bound to store.
func NewClient(store *Cache, opts ...ClientOption) *Client {
	c := &Client{
		store:      store,
		serializer: cache.NewDefaultKeySerializer(),
		strict:     store.strict,
		logger:     store.logger.Named("client"),
		names:      xsync.NewMapOf[string, endpointKind](),
		queries:    xsync.NewMapOf[string, QueryDef](),
		mutations:  xsync.NewMapOf[string, MutationDef](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Cache returns the underlying cache.
func (c *Client) Cache() *Cache { return c.store }

// RegisterQuery adds a query endpoint.
func (c *Client) RegisterQuery(def QueryDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := c.claim(def.Name, queryEndpoint); err != nil {
		return err
	}
	c.queries.Store(def.Name, def)
	return nil
}

// RegisterMutation adds a mutation endpoint.
func (c *Client) RegisterMutation(def MutationDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := c.claim(def.Name, mutationEndpoint); err != nil {
		return err
	}
	c.mutations.Store(def.Name, def)
	return nil
}

func (c *Client) claim(name string, kind endpointKind) error {
	if _, loaded := c.names.LoadOrStore(name, kind); loaded {
		return goerrors.New(fmt.Sprintf("endpoint %q is already registered", name), goerrors.CategoryConflict).
			WithTextCode(TextCodeDuplicateEndpoint)
	}
	return nil
}

// Validate checks the declared dependency graph: every dependency must be a
// registered endpoint and no endpoint may reach itself.
func (c *Client) Validate() error {
	graph := map[string][]string{}
	c.queries.Range(func(name string, def QueryDef) bool {
		graph[name] = def.DependsOn
		return true
	})
	c.mutations.Range(func(name string, def MutationDef) bool {
		graph[name] = def.DependsOn
		return true
	})

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, dep := range graph[name] {
			if _, ok := c.names.Load(dep); !ok {
				return newInternalError(
					fmt.Sprintf("endpoint %q depends on unknown endpoint %q", name, dep),
					TextCodeUnknownEndpoint,
					map[string]any{"endpoint": name, "dependency": dep},
				)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var path []string
	var visit func(string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			start := slices.Index(path, name)
			cycle := append(append([]string{}, path[start:]...), name)
			return newInternalError(
				"dependency cycle: "+strings.Join(cycle, " -> "),
				TextCodeDependencyCycle,
				map[string]any{"cycle": cycle},
			)
		case done:
			return nil
		}
		state[name] = visiting
		path = append(path, name)
		for _, dep := range graph[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}
	for _, name := range names {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Key returns the cache key of endpoint(arg).
func (c *Client) Key(endpoint string, arg any) QueryKey {
	return NewKey(c.serializer, endpoint, arg)
}

type chainKey struct{}

// frame is one step of the initiation chain carried in the context.
type frame struct {
	endpoint string
	key      QueryKey
	parent   *frame
}

func chainFrom(ctx context.Context) *frame {
	f, _ := ctx.Value(chainKey{}).(*frame)
	return f
}

func withFrame(ctx context.Context, endpoint string, key QueryKey) context.Context {
	return context.WithValue(ctx, chainKey{}, &frame{
		endpoint: endpoint,
		key:      key,
		parent:   chainFrom(ctx),
	})
}

func (f *frame) path() []string {
	var out []string
	for cur := f; cur != nil; cur = cur.parent {
		out = append(out, cur.key.String())
	}
	slices.Reverse(out)
	return out
}

// checkChain fails fast when key is already being initiated further up the
// chain, or when the caller did not declare endpoint as a dependency.
func (c *Client) checkChain(ctx context.Context, endpoint string, key QueryKey) error {
	parent := chainFrom(ctx)
	if parent == nil {
		return nil
	}
	for cur := parent; cur != nil; cur = cur.parent {
		if cur.key == key {
			path := append(parent.path(), key.String())
			return newInternalError(
				"dependency cycle: "+strings.Join(path, " -> "),
				TextCodeDependencyCycle,
				map[string]any{"cycle": path},
			)
		}
	}
	if c.strict && !slices.Contains(c.dependsOn(parent.endpoint), endpoint) {
		return newInternalError(
			fmt.Sprintf("endpoint %q does not declare a dependency on %q", parent.endpoint, endpoint),
			TextCodeUndeclaredDependency,
			map[string]any{"endpoint": parent.endpoint, "dependency": endpoint},
		)
	}
	return nil
}

func (c *Client) dependsOn(endpoint string) []string {
	if def, ok := c.queries.Load(endpoint); ok {
		return def.DependsOn
	}
	if def, ok := c.mutations.Load(endpoint); ok {
		return def.DependsOn
	}
	return nil
}

func unknownEndpoint(endpoint string) error {
	return newInternalError(
		fmt.Sprintf("unknown endpoint %q", endpoint),
		TextCodeUnknownEndpoint,
		map[string]any{"endpoint": endpoint},
	)
}

// InitiateAsync starts or joins the query endpoint(arg) and returns its
// Future. Fresh cached data resolves immediately.
func (c *Client) InitiateAsync(ctx context.Context, endpoint string, arg any) *Future {
	def, ok := c.queries.Load(endpoint)
	if !ok {
		return resolvedFuture(nil, unknownEndpoint(endpoint))
	}
	key := c.Key(endpoint, arg)
	if err := c.checkChain(ctx, endpoint, key); err != nil {
		c.logger.Error("query initiation rejected", zap.Stringer("key", key), zap.Error(err))
		return resolvedFuture(nil, err)
	}
	return c.store.Load(ctx, key, c.fetcher(def, key, arg))
}

// Refetch starts a new fetch of endpoint(arg) unless one is already pending.
func (c *Client) Refetch(ctx context.Context, endpoint string, arg any) *Future {
	def, ok := c.queries.Load(endpoint)
	if !ok {
		return resolvedFuture(nil, unknownEndpoint(endpoint))
	}
	key := c.Key(endpoint, arg)
	if err := c.checkChain(ctx, endpoint, key); err != nil {
		return resolvedFuture(nil, err)
	}
	return c.store.Fetch(ctx, key, c.fetcher(def, key, arg))
}

func (c *Client) fetcher(def QueryDef, key QueryKey, arg any) FetchFunc {
	return func(ctx context.Context) (any, []Tag, error) {
		result, err := def.Query(withFrame(ctx, def.Name, key), arg)
		var tags []Tag
		if def.ProvidesTags != nil {
			tags = def.ProvidesTags(result, err, arg)
		}
		return result, tags, err
	}
}

// Subscribe registers interest in endpoint(arg) and starts loading it. The
// returned func releases the subscription and is safe to call more than once.
func (c *Client) Subscribe(ctx context.Context, endpoint string, arg any) (func(), error) {
	if _, ok := c.queries.Load(endpoint); !ok {
		return nil, unknownEndpoint(endpoint)
	}
	key := c.Key(endpoint, arg)
	c.InitiateAsync(ctx, endpoint, arg)
	c.store.Subscribe(key)

	var once sync.Once
	return func() {
		once.Do(func() { c.store.Unsubscribe(key) })
	}, nil
}

// MutateAny runs the mutation endpoint(arg). Optimistic patches are applied
// first and rolled back when the mutation fails; the tags returned by
// InvalidatesTags are invalidated last. The mutation ignores ctx
// cancellation and always runs to completion.
func (c *Client) MutateAny(ctx context.Context, endpoint string, arg any) (any, error) {
	def, ok := c.mutations.Load(endpoint)
	if !ok {
		return nil, unknownEndpoint(endpoint)
	}
	key := c.Key(endpoint, arg)
	if err := c.checkChain(ctx, endpoint, key); err != nil {
		return nil, err
	}
	mctx := withFrame(context.WithoutCancel(ctx), endpoint, key)

	var records []*PatchRecord
	if def.Optimistic != nil {
		for _, p := range def.Optimistic(arg) {
			rec, err := c.store.optimist.ApplyOptimistic(c.Key(p.Endpoint, p.Arg), p.Patch)
			if err != nil {
				c.rollback(records)
				return nil, err
			}
			records = append(records, rec)
		}
	}

	result, err := c.runMutation(mctx, def, key, arg)
	if err != nil {
		c.rollback(records)
		c.logger.Debug("mutation failed", zap.String("endpoint", endpoint), zap.Error(err))
	} else {
		for _, rec := range records {
			c.store.optimist.Commit(rec)
		}
	}

	if def.InvalidatesTags != nil {
		if tags := def.InvalidatesTags(result, err, arg); len(tags) > 0 {
			c.store.InvalidateTags(tags...)
		}
	}
	return result, err
}

func (c *Client) rollback(records []*PatchRecord) {
	for i := len(records) - 1; i >= 0; i-- {
		c.store.optimist.Rollback(records[i])
	}
}

func (c *Client) runMutation(ctx context.Context, def MutationDef, key QueryKey, arg any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("mutation panicked", zap.Stringer("key", key), zap.Any("panic", r))
			result = nil
			err = newInternalError("mutation failed unexpectedly", TextCodePanic, map[string]any{
				"key":   key.String(),
				"panic": fmt.Sprint(r),
			})
		}
	}()
	result, err = def.Mutate(ctx, arg)
	return result, asErrorInfo(err)
}

// Initiate runs endpoint(arg) and waits for it. A failure is returned as the
// identical error value the query settled with.
func Initiate[T any](ctx context.Context, c *Client, endpoint string, arg any) (T, error) {
	return Await[T](ctx, c.InitiateAsync(ctx, endpoint, arg))
}

// Mutate is the typed form of MutateAny.
func Mutate[T any](ctx context.Context, c *Client, endpoint string, arg any) (T, error) {
	var zero T
	result, err := c.MutateAny(ctx, endpoint, arg)
	if err != nil || result == nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, newInternalError("mutation result has an unexpected type", TextCodeResultType, map[string]any{
			"endpoint": endpoint,
			"type":     typeName(result),
		})
	}
	return typed, nil
}
