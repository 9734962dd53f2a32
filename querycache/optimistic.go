package querycache

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Copier is implemented by cached values that know how to deep copy
// themselves. Values without it are cloned through a msgpack round trip.
type Copier interface {
	CopyValue() any
}

// PatchFunc receives a private copy of the cached value and returns the
// optimistic value. It runs under the cache lock and must not call back into
// the cache.
type PatchFunc func(draft any) (any, error)

// PatchRecord is the before/after pair of one optimistic update.
type PatchRecord struct {
	ID           uuid.UUID
	Key          QueryKey
	Before       any
	BeforeErr    error
	BeforeStatus Status
	After        any
	Applied      bool
	CreatedAt    time.Time
}

// Optimist applies optimistic patches to cache entries and undoes them.
type Optimist struct {
	cache   *Cache
	pending *xsync.MapOf[uuid.UUID, *PatchRecord]
}

func newOptimist(c *Cache) *Optimist {
	return &Optimist{
		cache:   c,
		pending: xsync.NewMapOf[uuid.UUID, *PatchRecord](),
	}
}

// ApplyOptimistic patches a draft of the value cached under key and stores
// the result as fulfilled data. An entry that is missing or never produced
// data is left alone and the returned record has Applied set to false.
func (o *Optimist) ApplyOptimistic(key QueryKey, patch PatchFunc) (*PatchRecord, error) {
	if patch == nil {
		return nil, NewValidationError("optimistic patch is required")
	}

	rec := &PatchRecord{
		ID:        uuid.New(),
		Key:       key,
		CreatedAt: time.Now(),
	}

	c := o.cache
	c.mu.Lock()
	e, ok := c.entries[key]
	if c.closed || !ok || !hasData(e) {
		c.mu.Unlock()
		c.logger.Debug("optimistic patch skipped", zap.Stringer("key", key))
		return rec, nil
	}

	draft, err := cloneValue(e.data)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	after, err := applyPatch(patch, draft)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	rec.Before = e.data
	rec.BeforeErr = e.err
	rec.BeforeStatus = e.status
	rec.After = after
	rec.Applied = true

	e.data = after
	e.err = nil
	if e.inflight == nil {
		e.status = Fulfilled
	}
	e.updatedAt = time.Now()
	c.mu.Unlock()

	o.pending.Store(rec.ID, rec)
	c.logger.Debug("optimistic patch applied",
		zap.Stringer("key", key),
		zap.Stringer("patch", rec.ID),
	)
	return rec, nil
}

// Commit discards the record. The patched value stays until the next fetch.
func (o *Optimist) Commit(rec *PatchRecord) {
	if rec == nil {
		return
	}
	o.pending.Delete(rec.ID)
}

// Rollback restores the value and status captured when rec was applied, even
// when a refetch settled in between. A refetch still in flight is orphaned:
// its waiters receive the restored value and its result is discarded.
func (o *Optimist) Rollback(rec *PatchRecord) {
	if rec == nil {
		return
	}
	o.pending.Delete(rec.ID)
	if !rec.Applied {
		return
	}

	c := o.cache
	var (
		epoch uint64
		idle  bool
	)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e, created := c.entryLocked(rec.Key)
	orphan := e.inflight
	e.inflight = nil
	e.invalidatedInFlight = false
	e.data = rec.Before
	e.err = rec.BeforeErr
	e.status = settledStatus(rec.BeforeStatus, rec.BeforeErr)
	e.updatedAt = time.Now()
	epoch, idle = c.idleCandidateLocked(e, created || e.subscribers == 0)
	c.mu.Unlock()

	if orphan != nil {
		orphan.resolve(restoredResult(rec))
	}
	c.markIdle(rec.Key, epoch, idle)
	c.metrics.Rollbacks.Inc()
	c.logger.Warn("optimistic patch rolled back",
		zap.Stringer("key", rec.Key),
		zap.Stringer("patch", rec.ID),
	)
}

// Pending lists records that were neither committed nor rolled back, oldest
// first.
func (o *Optimist) Pending() []*PatchRecord {
	out := make([]*PatchRecord, 0, o.pending.Size())
	o.pending.Range(func(_ uuid.UUID, rec *PatchRecord) bool {
		out = append(out, rec)
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ApplyPatch is the typed form of ApplyOptimistic.
func ApplyPatch[T any](o *Optimist, key QueryKey, recipe func(draft T) (T, error)) (*PatchRecord, error) {
	if recipe == nil {
		return nil, NewValidationError("optimistic patch is required")
	}
	return o.ApplyOptimistic(key, func(draft any) (any, error) {
		typed, ok := draft.(T)
		if !ok {
			return nil, newInternalError("cached value has an unexpected type", TextCodeResultType, map[string]any{
				"key":  key.String(),
				"type": typeName(draft),
			})
		}
		return recipe(typed)
	})
}

func hasData(e *entry) bool {
	return e.status == Fulfilled || e.data != nil
}

// a Pending status without a fetch in flight cannot be restored as is
func settledStatus(s Status, err error) Status {
	if s != Pending {
		return s
	}
	if err != nil {
		return Rejected
	}
	return Fulfilled
}

func restoredResult(rec *PatchRecord) (any, error) {
	if settledStatus(rec.BeforeStatus, rec.BeforeErr) == Rejected {
		return nil, rec.BeforeErr
	}
	return rec.Before, nil
}

func applyPatch(patch PatchFunc, draft any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = newInternalError("optimistic patch failed unexpectedly", TextCodePanic, map[string]any{
				"panic": fmt.Sprint(r),
			})
		}
	}()
	out, err = patch(draft)
	return out, asErrorInfo(err)
}

func cloneValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if c, ok := v.(Copier); ok {
		return c.CopyValue(), nil
	}

	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, newInternalError("cached value cannot be copied", TextCodeUnexpected, map[string]any{
			"type":  typeName(v),
			"error": err.Error(),
		})
	}
	ptr := reflect.New(reflect.TypeOf(v))
	if err := msgpack.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, newInternalError("cached value cannot be copied", TextCodeUnexpected, map[string]any{
			"type":  typeName(v),
			"error": err.Error(),
		})
	}
	return ptr.Elem().Interface(), nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
