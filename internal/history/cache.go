// Package history owns the recent-places list and the selected place. The
// in-memory state is authoritative; the store only mirrors it.
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"places_backend/internal/adapters/storage"
	"places_backend/internal/domain"
	"places_backend/internal/events"
	"places_backend/platform/apperr"
	"places_backend/platform/logger"
)

const (
	// DefaultKey is the store key of the serialized history list.
	DefaultKey = "searchHistory"

	reasonLoaded   = "loaded"
	reasonUpserted = "upserted"
	reasonDeleted  = "deleted"
	reasonCleared  = "cleared"
)

// Options configures a Cache.
type Options struct {
	Key        string
	Bus        events.Bus
	Retry      RetryScheduler
	RetryDelay time.Duration
}

// Cache is the bounded, deduplicated, most-recent-first list of places plus
// the selected slot. Every mutation is applied under one lock and then
// handed to the writer as a full snapshot.
type Cache struct {
	store  storage.KeyValueStore
	key    string
	bus    events.Bus
	log    *logger.Logger
	writer *Writer

	mu       sync.Mutex
	items    []domain.Place
	selected *domain.Place
	version  uint64
	loaded   bool
	dirty    bool
}

// NewCache creates a cache over store and starts its writer.
func NewCache(store storage.KeyValueStore, opts Options, log *logger.Logger) *Cache {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	return &Cache{
		store:  store,
		key:    key,
		bus:    opts.Bus,
		log:    log,
		writer: NewWriter(store, key, opts.Retry, opts.RetryDelay, log),
		items:  []domain.Place{},
	}
}

// Key returns the store key this cache persists under.
func (c *Cache) Key() string {
	return c.key
}

// Load reads the persisted list once. Later calls return the current list.
// Missing or malformed data yields an empty list. A failed store read also
// yields an empty list but is retried on the next access.
func (c *Cache) Load(ctx context.Context) []domain.Place {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoadedLocked(ctx)
	return clonePlaces(c.items)
}

// Reload waits for pending writes and reads the store again, discarding the
// in-memory list. The selected place is not persisted and is reset.
func (c *Cache) Reload(ctx context.Context) []domain.Place {
	if err := c.writer.Flush(ctx); err != nil {
		c.log.WithContext(ctx).Warn("history reload after failed flush", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = nil
	c.dirty = false
	c.loadLocked(ctx)
	return clonePlaces(c.items)
}

// ensureLoadedLocked makes the first mutation merge into the stored list
// instead of overwriting it.
func (c *Cache) ensureLoadedLocked(ctx context.Context) {
	if !c.loaded {
		c.loadLocked(ctx)
	}
}

func (c *Cache) loadLocked(ctx context.Context) {
	items, err := c.readStore(ctx)
	c.items = items
	c.loaded = err == nil
	c.publishHistory(ctx, reasonLoaded)
}

// beginMutationLocked loads if needed and marks the list as owned by this
// session. Once mutated, the list is never replaced by a later read.
func (c *Cache) beginMutationLocked(ctx context.Context) {
	c.ensureLoadedLocked(ctx)
	c.loaded = true
	c.dirty = true
}

// readStore returns an error only when the store could not be read.
func (c *Cache) readStore(ctx context.Context) ([]domain.Place, error) {
	raw, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.log.WithContext(ctx).PersistenceFailure("get", c.key, err)
		return []domain.Place{}, err
	}
	if !found || raw == "" {
		return []domain.Place{}, nil
	}

	var stored []domain.Place
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.log.WithContext(ctx).Warn("history: malformed stored data, starting empty", "key", c.key, "error", err)
		return []domain.Place{}, nil
	}

	return normalize(stored), nil
}

// normalize drops invalid and duplicate entries, keeping the first (most
// recent) occurrence, and bounds the list.
func normalize(stored []domain.Place) []domain.Place {
	out := make([]domain.Place, 0, min(len(stored), domain.HistoryLimit))
	seen := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		if len(out) == domain.HistoryLimit {
			break
		}
		if p.Validate() != nil {
			continue
		}
		if _, dup := seen[p.PlaceID]; dup {
			continue
		}
		seen[p.PlaceID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// List returns a copy of the history, most recent first.
func (c *Cache) List() []domain.Place {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePlaces(c.items)
}

// Selected returns the selected place, or nil.
func (c *Cache) Selected() *domain.Place {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePlace(c.selected)
}

// UpsertMostRecent moves place to the front, replacing any entry with the
// same id, and evicts the tail beyond the limit.
func (c *Cache) UpsertMostRecent(ctx context.Context, place domain.Place) error {
	if err := validatePlace(place); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.beginMutationLocked(ctx)
	c.upsertLocked(place)
	c.persistLocked(ctx)
	c.publishHistory(ctx, reasonUpserted)
	return nil
}

// CommitSelection records place in the history and makes it the selected
// place in a single step.
func (c *Cache) CommitSelection(ctx context.Context, place domain.Place) error {
	if err := validatePlace(place); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.beginMutationLocked(ctx)
	c.upsertLocked(place)
	c.selected = clonePlace(&place)
	c.persistLocked(ctx)
	c.publishHistory(ctx, reasonUpserted)
	c.publishSelected(ctx)
	return nil
}

func (c *Cache) upsertLocked(place domain.Place) {
	next := make([]domain.Place, 0, domain.HistoryLimit)
	next = append(next, place)
	for _, existing := range c.items {
		if len(next) == domain.HistoryLimit {
			break
		}
		if existing.PlaceID == place.PlaceID {
			continue
		}
		next = append(next, existing)
	}
	c.items = next
}

// DeleteMany removes every entry whose id is in ids and returns how many
// were removed. Unknown ids are ignored.
func (c *Cache) DeleteMany(ctx context.Context, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoadedLocked(ctx)
	next := make([]domain.Place, 0, len(c.items))
	for _, p := range c.items {
		if _, ok := drop[p.PlaceID]; ok {
			continue
		}
		next = append(next, p)
	}

	removed := len(c.items) - len(next)
	if removed == 0 {
		return 0
	}

	c.loaded = true
	c.dirty = true
	c.items = next
	c.persistLocked(ctx)
	c.publishHistory(ctx, reasonDeleted)
	return removed
}

// Clear empties the list and erases the stored key. If the erase fails the
// list stays empty for this session.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = []domain.Place{}
	c.loaded = true
	c.dirty = true
	c.version++
	c.writer.Enqueue(writeOp{version: c.version, remove: true})
	c.publishHistory(ctx, reasonCleared)
}

// SetSelected replaces the selected place. nil clears it.
func (c *Cache) SetSelected(ctx context.Context, place *domain.Place) error {
	if place != nil {
		if err := validatePlace(*place); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = clonePlace(place)
	c.publishSelected(ctx)
	return nil
}

// Resync writes the current in-memory list again and waits for the result.
// The retry worker calls it after a failed write. A session that has not
// changed the list has nothing to write, so the stored key is left alone.
func (c *Cache) Resync(ctx context.Context) error {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	if len(c.items) == 0 {
		c.version++
		c.writer.Enqueue(writeOp{version: c.version, remove: true})
	} else {
		c.persistLocked(ctx)
	}
	c.mu.Unlock()

	return c.writer.Flush(ctx)
}

// Flush waits until every mutation so far has been written.
func (c *Cache) Flush(ctx context.Context) error {
	return c.writer.Flush(ctx)
}

// Close writes what is queued and stops the writer.
func (c *Cache) Close() {
	c.writer.Close()
}

func (c *Cache) persistLocked(ctx context.Context) {
	data, err := json.Marshal(c.items)
	if err != nil {
		c.log.WithContext(ctx).PersistenceFailure("encode", c.key, err)
		return
	}
	c.version++
	c.writer.Enqueue(writeOp{version: c.version, value: string(data)})
}

func (c *Cache) publishHistory(ctx context.Context, reason string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, events.HistoryChanged{
		BaseEvent: events.NewBaseEvent(),
		Reason:    reason,
		Items:     clonePlaces(c.items),
	})
}

func (c *Cache) publishSelected(ctx context.Context) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, events.SelectionChanged{
		BaseEvent: events.NewBaseEvent(),
		Place:     clonePlace(c.selected),
	})
}

func validatePlace(place domain.Place) error {
	if err := place.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func clonePlaces(items []domain.Place) []domain.Place {
	out := make([]domain.Place, len(items))
	copy(out, items)
	return out
}

func clonePlace(p *domain.Place) *domain.Place {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
