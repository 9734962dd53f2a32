package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	Uninitialized Status = iota
	Pending
	Fulfilled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FetchFunc produces the data for a key along with the tags it provides.
// Tags are recorded for rejected results as well.
type FetchFunc func(ctx context.Context) (data any, tags []Tag, err error)

// Entry is a point-in-time snapshot of a cache entry.
type Entry struct {
	Key         QueryKey
	Status      Status
	Data        any
	Err         error
	Tags        []Tag
	Subscribers int
	Stale       bool
	UpdatedAt   time.Time
}

// Fresh reports whether the snapshot can be served without fetching.
func (e Entry) Fresh() bool {
	return e.Status == Fulfilled && !e.Stale
}

type entry struct {
	key         QueryKey
	status      Status
	data        any
	err         error
	tags        []Tag
	subscribers int
	stale       bool
	updatedAt   time.Time

	inflight *Future
	fetcher  FetchFunc

	// invalidated while a fetch was in flight
	invalidatedInFlight bool
	idleEpoch           uint64
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		Err:         e.err,
		Tags:        append([]Tag(nil), e.tags...),
		Subscribers: e.subscribers,
		Stale:       e.stale,
		UpdatedAt:   e.updatedAt,
	}
}

// Cache owns every query entry. At most one fetch runs per key; concurrent
// callers of a pending key share its Future.
type Cache struct {
	mu      sync.Mutex
	entries map[QueryKey]*entry
	closed  bool
	strict  bool

	tags     *TagIndex
	idle     *expirable.LRU[QueryKey, uint64]
	optimist *Optimist
	metrics  *Metrics
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewCache builds a cache from cfg.
func NewCache(cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Cache{
		entries: map[QueryKey]*entry{},
		strict:  cfg.StrictDependencies,
		tags:    NewTagIndex(),
		metrics: NewMetrics(cfg.Registerer),
		logger:  cfg.Logger.Named("querycache"),
	}
	c.idle = expirable.NewLRU[QueryKey, uint64](cfg.MaxIdleEntries, c.evict, cfg.KeepUnusedDataFor)
	c.optimist = newOptimist(c)
	return c, nil
}

// Tags exposes the tag index.
func (c *Cache) Tags() *TagIndex { return c.tags }

// Optimist returns the optimistic patch manager bound to this cache.
func (c *Cache) Optimist() *Optimist { return c.optimist }

// Metrics returns the cache counters.
func (c *Cache) Metrics() *Metrics { return c.metrics }

// Get returns a snapshot of key, creating an Uninitialized entry when absent.
func (c *Cache) Get(key QueryKey) Entry {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Entry{Key: key}
	}
	e, created := c.entryLocked(key)
	snap := e.snapshot()
	epoch, idle := c.idleCandidateLocked(e, created)
	c.mu.Unlock()

	c.markIdle(key, epoch, idle)
	return snap
}

// Peek returns a snapshot of key without creating an entry.
func (c *Cache) Peek(key QueryKey) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch runs fn for key unless a fetch is already pending, in which case the
// pending Future is returned.
func (c *Cache) Fetch(ctx context.Context, key QueryKey, fn FetchFunc) *Future {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return closedFuture(key)
	}
	e, _ := c.entryLocked(key)
	if e.status == Pending && e.inflight != nil {
		f := e.inflight
		c.mu.Unlock()
		c.metrics.Joins.Inc()
		c.logger.Debug("joined in-flight fetch", zap.Stringer("key", key))
		return f
	}
	f := c.startLocked(ctx, e, fn)
	c.mu.Unlock()
	return f
}

// Load is the read path. Fresh data resolves immediately, a pending fetch is
// joined and anything else starts a fetch.
func (c *Cache) Load(ctx context.Context, key QueryKey, fn FetchFunc) *Future {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return closedFuture(key)
	}
	e, _ := c.entryLocked(key)
	switch {
	case e.status == Fulfilled && !e.stale:
		data := e.data
		c.mu.Unlock()
		c.metrics.Hits.Inc()
		return resolvedFuture(data, nil)
	case e.status == Pending && e.inflight != nil:
		f := e.inflight
		c.mu.Unlock()
		c.metrics.Joins.Inc()
		c.logger.Debug("joined in-flight fetch", zap.Stringer("key", key))
		return f
	}
	c.metrics.Misses.Inc()
	f := c.startLocked(ctx, e, fn)
	c.mu.Unlock()
	return f
}

// Query loads key and waits for the result.
func (c *Cache) Query(ctx context.Context, key QueryKey, fn FetchFunc) (any, error) {
	return c.Load(ctx, key, fn).Wait(ctx)
}

// Subscribe adds a subscriber to key. A stale entry with a known fetcher is
// refetched.
func (c *Cache) Subscribe(key QueryKey) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e, _ := c.entryLocked(key)
	e.subscribers++
	cancelIdle := e.subscribers == 1
	if cancelIdle {
		e.idleEpoch++
	}
	if e.stale && e.status != Pending && e.fetcher != nil {
		c.startLocked(context.Background(), e, e.fetcher)
	}
	c.mu.Unlock()

	if cancelIdle {
		c.idle.Remove(key)
	}
}

// Unsubscribe removes a subscriber. The last one out starts the grace period.
func (c *Cache) Unsubscribe(key QueryKey) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.subscribers == 0 {
		c.mu.Unlock()
		return
	}
	e.subscribers--
	epoch, idle := c.idleCandidateLocked(e, e.subscribers == 0)
	c.mu.Unlock()

	c.markIdle(key, epoch, idle)
}

// Invalidate marks keys stale. Subscribed entries refetch now, unsubscribed
// ones on their next read, and pending ones once they settle.
func (c *Cache) Invalidate(keys ...QueryKey) {
	if len(keys) == 0 {
		return
	}

	refetched := 0
	c.mu.Lock()
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		c.metrics.Invalidations.Inc()
		if e.status == Pending {
			e.invalidatedInFlight = true
			continue
		}
		e.stale = true
		if e.subscribers > 0 && e.fetcher != nil && !c.closed {
			c.startLocked(context.Background(), e, e.fetcher)
			refetched++
		}
	}
	c.mu.Unlock()

	c.logger.Info("invalidated query keys",
		zap.Int("keys", len(keys)),
		zap.Int("refetched", refetched),
	)
}

// InvalidateTags invalidates every key whose provided tags match tags and
// returns those keys.
func (c *Cache) InvalidateTags(tags ...Tag) []QueryKey {
	if len(tags) == 0 {
		return nil
	}
	keys := c.tags.InvalidateByTags(tags)
	c.Invalidate(keys...)
	return keys
}

// Close drops every entry. In-flight fetches settle their futures but no
// longer update the cache.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	keys := make([]QueryKey, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = map[QueryKey]*entry{}
	c.mu.Unlock()

	c.idle.Purge()
	for _, key := range keys {
		c.tags.Forget(key)
	}
}

// Wait blocks until every fetch started by the cache has settled.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) entryLocked(key QueryKey) (*entry, bool) {
	if e, ok := c.entries[key]; ok {
		return e, false
	}
	e := &entry{key: key, status: Uninitialized}
	c.entries[key] = e
	return e, true
}

func (c *Cache) startLocked(ctx context.Context, e *entry, fn FetchFunc) *Future {
	f := newFuture()
	e.status = Pending
	e.inflight = f
	e.fetcher = fn
	e.stale = false
	e.invalidatedInFlight = false

	c.metrics.Fetches.Inc()
	c.logger.Debug("fetch started", zap.Stringer("key", e.key))

	c.wg.Add(1)
	go c.run(context.WithoutCancel(ctx), e, f, fn)
	return f
}

func (c *Cache) run(ctx context.Context, e *entry, f *Future, fn FetchFunc) {
	defer c.wg.Done()
	data, tags, err := c.call(ctx, e.key, fn)
	c.settle(e, f, data, tags, err)
}

func (c *Cache) call(ctx context.Context, key QueryKey, fn FetchFunc) (data any, tags []Tag, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("query panicked", zap.Stringer("key", key), zap.Any("panic", r))
			data, tags = nil, nil
			err = newInternalError("query failed unexpectedly", TextCodePanic, map[string]any{
				"key":   key.String(),
				"panic": fmt.Sprint(r),
			})
		}
	}()
	data, tags, err = fn(ctx)
	return data, tags, asErrorInfo(err)
}

func (c *Cache) settle(e *entry, f *Future, data any, tags []Tag, err error) {
	var (
		epoch uint64
		idle  bool
	)

	c.mu.Lock()
	if !c.closed && c.entries[e.key] == e && e.inflight == f {
		e.inflight = nil
		e.tags = tags
		e.updatedAt = time.Now()
		if err != nil {
			e.status = Rejected
			e.err = err
		} else {
			e.status = Fulfilled
			e.data = data
			e.err = nil
		}
		c.tags.Record(e.key, tags)

		if e.invalidatedInFlight {
			e.stale = true
			e.invalidatedInFlight = false
		}
		if e.stale && e.subscribers > 0 {
			c.startLocked(context.Background(), e, e.fetcher)
		} else {
			epoch, idle = c.idleCandidateLocked(e, e.subscribers == 0)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("fetch rejected", zap.Stringer("key", e.key), zap.Error(err))
	} else {
		c.logger.Debug("fetch fulfilled", zap.Stringer("key", e.key))
	}

	f.resolve(data, err)
	c.markIdle(e.key, epoch, idle)
}

func (c *Cache) idleCandidateLocked(e *entry, candidate bool) (uint64, bool) {
	if !candidate || c.closed || e.subscribers > 0 || e.status == Pending {
		return 0, false
	}
	e.idleEpoch++
	return e.idleEpoch, true
}

// markIdle must be called without c.mu held: the LRU invokes evict while
// holding its own lock.
func (c *Cache) markIdle(key QueryKey, epoch uint64, idle bool) {
	if idle {
		c.idle.Add(key, epoch)
	}
}

func (c *Cache) evict(key QueryKey, epoch uint64) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.idleEpoch != epoch || e.subscribers > 0 || e.status == Pending {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	c.mu.Unlock()

	c.tags.Forget(key)
	c.metrics.Evictions.Inc()
	c.logger.Debug("evicted idle entry", zap.Stringer("key", key))
}
