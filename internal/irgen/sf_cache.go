package irgen

import (
	"github.com/adeptlang/go-adept/internal/ast"
	"github.com/adeptlang/go-adept/internal/compiler"
	"github.com/adeptlang/go-adept/internal/ir"
)

// SFCacheEntry caches what is known about a type's special functions.
// Each trilean distinguishes "definitely has", "definitely lacks", and
// "not yet computed"; conflating the last two would force repeated
// resolver work.
type SFCacheEntry struct {
	Type ast.Type

	HasPass   compiler.Trilean
	HasDefer  compiler.Trilean
	HasAssign compiler.Trilean

	Pass   ir.Endpoint
	Defer  ir.Endpoint
	Assign ir.Endpoint

	next *SFCacheEntry
}

// SFCache is the special-function cache: a fixed-capacity table keyed by
// AST type hash with chained entries.
type SFCache struct {
	storage  []*SFCacheEntry
	capacity uint64
}

const sfCacheSize = 1024

// NewSFCache makes an empty special-function cache.
func NewSFCache() *SFCache {
	return &SFCache{
		storage:  make([]*SFCacheEntry, sfCacheSize),
		capacity: sfCacheSize,
	}
}

// LocateOrInsert returns the cache entry for a type, creating an
// all-unknown entry when none exists.
func (c *SFCache) LocateOrInsert(t ast.Type) *SFCacheEntry {
	slot := ast.TypeHash(t) % c.capacity

	for entry := c.storage[slot]; entry != nil; entry = entry.next {
		if ast.TypesIdentical(entry.Type, t) {
			return entry
		}
	}

	entry := &SFCacheEntry{Type: t.Clone()}
	entry.next = c.storage[slot]
	c.storage[slot] = entry
	return entry
}

// readCached converts a cached trilean into an optional endpoint result.
// The second result reports whether the cache had an answer at all.
func readCached(has compiler.Trilean, cached ir.Endpoint) (optionalEndpoint, bool) {
	switch has {
	case compiler.True:
		return optionalEndpoint{Has: true, Endpoint: cached}, true
	case compiler.False:
		return optionalEndpoint{}, true
	}
	return optionalEndpoint{}, false
}

// optionalEndpoint is a maybe-found procedure resolution result.
type optionalEndpoint struct {
	Has      bool
	Endpoint ir.Endpoint
}
