package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

const (
	// StoreKey is the store key the cache document is persisted under.
	StoreKey = "nina_dwd_translations"
	// TTL is how long a translation stays valid after it was written.
	TTL = 24 * time.Hour
)

// Text is the translatable content of a warning.
type Text struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

// Entry is a cached translation. Timestamp is the write time in Unix milliseconds.
type Entry struct {
	Text
	Timestamp int64 `json:"timestamp"`
}

// document is the persisted form: target language -> content key -> entry.
type document map[string]map[string]Entry

// ContentKey identifies a warning's translatable content.
func ContentKey(w domain.Warning) string {
	return strings.Join([]string{w.Headline, w.Description, w.Instruction}, "|")
}

// Cache holds translations per target language and content key, persisted as
// one JSON document in a Store. It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	store  Store
	clock  clockwork.Clock
	logger *slog.Logger
	doc    document
}

// NewCache loads the cache document from store and drops expired entries. A
// missing or unreadable document starts an empty cache.
func NewCache(ctx context.Context, store Store, clock clockwork.Clock, logger *slog.Logger) *Cache {
	c := &Cache{
		store:  store,
		clock:  clock,
		logger: logger,
		doc:    make(document),
	}
	c.load(ctx)
	return c
}

func (c *Cache) load(ctx context.Context) {
	data, err := c.store.Get(ctx, StoreKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("failed to load translation cache", "error", err)
		}
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("failed to decode translation cache", "error", err)
		return
	}
	if doc != nil {
		c.doc = doc
	}

	if c.prune() > 0 {
		if err := c.save(ctx); err != nil {
			c.logger.Warn("failed to save pruned translation cache", "error", err)
		}
	}
}

// prune removes expired entries and empty languages. Callers hold mu or own c exclusively.
func (c *Cache) prune() int {
	now := c.clock.Now()
	removed := 0
	for lang, entries := range c.doc {
		for key, e := range entries {
			if c.expired(e, now) {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(c.doc, lang)
		}
	}
	return removed
}

func (c *Cache) expired(e Entry, now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > TTL.Milliseconds()
}

func (c *Cache) save(ctx context.Context) error {
	data, err := json.Marshal(c.doc)
	if err != nil {
		return fmt.Errorf("encode translation cache: %w", err)
	}
	if err := c.store.Set(ctx, StoreKey, data); err != nil {
		return fmt.Errorf("save translation cache: %w", err)
	}
	return nil
}

// Get returns the unexpired translation for a language and content key.
func (c *Cache) Get(lang, key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.doc[lang][key]
	if !ok || c.expired(e, c.clock.Now()) {
		return Entry{}, false
	}
	return e, true
}

// Set stores a translation stamped with the current time and persists the document.
func (c *Cache) Set(ctx context.Context, lang, key string, text Text) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc[lang] == nil {
		c.doc[lang] = make(map[string]Entry)
	}
	c.doc[lang][key] = Entry{Text: text, Timestamp: c.clock.Now().UnixMilli()}
	return c.save(ctx)
}

// Clear drops every translation and removes the persisted document.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.doc = make(document)
	if err := c.store.Remove(ctx, StoreKey); err != nil {
		return fmt.Errorf("remove translation cache: %w", err)
	}
	return nil
}

// Len returns the number of cached translations across all languages.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, entries := range c.doc {
		n += len(entries)
	}
	return n
}

// Entries returns a copy of the cached translations of one language.
func (c *Cache) Entries(lang string) map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.doc[lang])
}

// Languages returns the languages that have cached translations, sorted.
func (c *Cache) Languages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.doc))
}
