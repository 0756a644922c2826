// Package cache holds the in-memory mirror of all quiz collections.
//
// The cache is derived state: the store is authoritative, the cache is
// seeded from it once at startup and updated write-through afterwards.
package cache

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/imorozov/wordquiz/internal/models"
)

// StoreWriter is the durable write dependency of the cache.
type StoreWriter interface {
	// UpsertWord writes or replaces the record keyed by word within collection.
	UpsertWord(ctx context.Context, collection, word, meaning string) error
}

// Punctuation glued to the following character gets one space inserted
// after it ("a,b" -> "a, b"). Words keep hyphens intact so compound words
// are not split.
var (
	meaningGlueRx = regexp.MustCompile(`([^\p{L}\p{N}\s]+)(\S)`)
	wordGlueRx    = regexp.MustCompile(`([^\p{L}\p{N}\s-]+)(\S)`)
)

// separator joins accumulated meanings of the same word.
const separator = " / "

// Cache is the in-memory mirror of all quiz collections plus the content
// version token. Safe for concurrent use.
type Cache struct {
	mu          sync.RWMutex
	version     string
	collections map[string]models.QuizCollection
	store       StoreWriter
}

// New constructs an empty Cache writing through to the given store.
func New(store StoreWriter) *Cache {
	return &Cache{
		collections: make(map[string]models.QuizCollection),
		store:       store,
	}
}

// Load seeds the cache verbatim from the store enumeration and sets the
// version token from the root configuration. This is the only place the
// cache accepts store content wholesale.
func (c *Cache) Load(cfg *models.RootConfig, collections map[string]models.QuizCollection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.version = cfg.Version
	c.collections = make(map[string]models.QuizCollection, len(collections))
	for name, col := range collections {
		copied := make(models.QuizCollection, len(col))
		for word, meaning := range col {
			copied[word] = meaning
		}
		c.collections[name] = copied
	}
}

// InsertWord normalizes the word and meaning, merges the meaning with any
// existing one, writes the result through to the store and mirrors it into
// memory only after the write succeeds. Returns the final entry as stored.
//
// A meaning that differs case-insensitively from the stored one is
// concatenated with " / " rather than overwritten; an equal meaning leaves
// the stored value unchanged.
func (c *Cache) InsertWord(ctx context.Context, collection, word, meaning string) (models.WordEntry, error) {
	word = NormalizeWord(word)
	meaning = NormalizeMeaning(meaning)

	c.mu.RLock()
	existing, hasExisting := "", false
	if col, ok := c.collections[collection]; ok {
		existing, hasExisting = col[word]
	}
	c.mu.RUnlock()

	merged := meaning
	if hasExisting {
		if strings.EqualFold(existing, meaning) {
			merged = existing
		} else {
			merged = existing + separator + meaning
		}
	}

	if err := c.store.UpsertWord(ctx, collection, word, merged); err != nil {
		return models.WordEntry{}, err
	}

	c.mu.Lock()
	col, ok := c.collections[collection]
	if !ok {
		col = models.QuizCollection{}
		c.collections[collection] = col
	}
	col[word] = merged
	c.mu.Unlock()

	return models.WordEntry{Collection: collection, Word: word, Meaning: merged}, nil
}

// Version returns the current content version token.
func (c *Cache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Snapshot returns a deep copy of the full quiz content plus the version
// token, safe to hand to any number of concurrent callers.
func (c *Cache) Snapshot() models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	collections := make(map[string]models.QuizCollection, len(c.collections))
	for name, col := range c.collections {
		copied := make(models.QuizCollection, len(col))
		for word, meaning := range col {
			copied[word] = meaning
		}
		collections[name] = copied
	}
	return models.Snapshot{Version: c.version, Collections: collections}
}

// NormalizeWord trims the word and spaces out glued punctuation, treating
// a literal hyphen as part of the word.
func NormalizeWord(word string) string {
	return wordGlueRx.ReplaceAllString(strings.TrimSpace(word), "$1 $2")
}

// NormalizeMeaning trims the meaning and spaces out glued punctuation.
func NormalizeMeaning(meaning string) string {
	return meaningGlueRx.ReplaceAllString(strings.TrimSpace(meaning), "$1 $2")
}
