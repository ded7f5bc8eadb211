package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/jinzhu/copier"
)

// Source names the cache slots the pollers fill.
const (
	SourceSubway    = "subway"
	SourceInbound   = "inbound"
	SourceBikeshare = "bikeshare"
)

// Entry is the bookkeeping kept per source.
type Entry struct {
	LastUpdated time.Time
	LastError   string
	LastErrorAt time.Time

	FetchCount int64
	ErrorCount int64
}

type slot struct {
	entry Entry
	value any
}

// Cache holds the latest successful view per source. Values are deep copied
// in and out so a handler can never mutate what a poller stored.
type Cache struct {
	mutex sync.RWMutex
	slots map[string]*slot
}

func NewCache() *Cache {
	return &Cache{
		slots: map[string]*slot{},
	}
}

// Store records a successful fetch, keeping a deep copy of the view.
func Store[T any](cache *Cache, source string, value T, fetchedAt time.Time) error {
	var copied T
	if err := copier.CopyWithOption(&copied, value, copier.Option{DeepCopy: true}); err != nil {
		return err
	}

	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	stored := cache.slot(source)
	stored.value = copied
	stored.entry.LastUpdated = fetchedAt
	stored.entry.FetchCount++

	return nil
}

// Load returns a deep copy of the source's last good view. The boolean is
// false until a successful Store for the source.
func Load[T any](cache *Cache, source string) (T, Entry, bool) {
	var value T

	cache.mutex.RLock()
	defer cache.mutex.RUnlock()

	stored, found := cache.slots[source]
	if !found || stored.value == nil {
		return value, Entry{}, false
	}

	typed, matches := stored.value.(T)
	if !matches {
		return value, stored.entry, false
	}

	if err := copier.CopyWithOption(&value, typed, copier.Option{DeepCopy: true}); err != nil {
		return value, stored.entry, false
	}

	return value, stored.entry, true
}

// StoreError records a failed fetch. The previous good value stays served.
func (cache *Cache) StoreError(source string, fetchErr error, failedAt time.Time) {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	stored := cache.slot(source)
	stored.entry.LastError = fetchErr.Error()
	stored.entry.LastErrorAt = failedAt
	stored.entry.FetchCount++
	stored.entry.ErrorCount++
}

// Info returns the bookkeeping for a source without touching its value.
func (cache *Cache) Info(source string) (Entry, bool) {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()

	stored, found := cache.slots[source]
	if !found {
		return Entry{}, false
	}
	return stored.entry, true
}

// Sources lists every source that has reported at least once, sorted.
func (cache *Cache) Sources() []string {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()

	var sources []string
	for source := range cache.slots {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

func (cache *Cache) slot(source string) *slot {
	stored, found := cache.slots[source]
	if !found {
		stored = &slot{}
		cache.slots[source] = stored
	}
	return stored
}
