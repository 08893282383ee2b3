// Package astcache memoizes parser output for the lifetime of one analysis
// run. Ownership is explicit: a Cache belongs to the ProjectContext that
// created it and dies with it, never a process-wide singleton, so
// independent runs share nothing and may execute concurrently.
package astcache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/fenwicklabs/canvaslint/internal/script/ast"
	"github.com/fenwicklabs/canvaslint/internal/script/parser"
)

// Result is one cached parse outcome. Failures are cached exactly like
// trees: a known-bad fragment is never re-parsed.
type Result struct {
	Tree    *ast.Node
	Failure *parser.Failure
}

// Stats reports cache effectiveness for the end-of-run log line.
type Stats struct {
	Hits     int
	Misses   int
	Failures int
}

// Cache is a map from exact script text to its parse result, safe for
// concurrent use. The singleflight group guarantees that concurrent
// GetOrParse calls for the same text race into exactly one parse.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Result
	group   singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// New creates an empty cache. One per project context.
func New() *Cache {
	return &Cache{entries: make(map[string]Result)}
}

// GetOrParse returns the AST for the given script text, parsing on first
// request. Exactly one of the results is non-nil. Because the parser is
// pure, every caller for the same text observes the same tree handle, which
// is what makes "structurally identical" cheap to verify: it is pointer
// identity.
func (c *Cache) GetOrParse(text string) (*ast.Node, *parser.Failure) {
	c.mu.RLock()
	res, ok := c.entries[text]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return res.Tree, res.Failure
	}

	v, _, _ := c.group.Do(text, func() (any, error) {
		// Double-check under the write path: a previous flight may have
		// populated the entry between the RUnlock and here.
		c.mu.RLock()
		if cached, ok := c.entries[text]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		tree, failure := parser.Parse(text)
		entry := Result{Tree: tree, Failure: failure}

		c.mu.Lock()
		c.entries[text] = entry
		c.mu.Unlock()

		c.misses.Add(1)
		if failure != nil {
			c.failures.Add(1)
		}
		return entry, nil
	})
	entry := v.(Result)
	return entry.Tree, entry.Failure
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     int(c.hits.Load()),
		Misses:   int(c.misses.Load()),
		Failures: int(c.failures.Load()),
	}
}

// Len returns the number of distinct script texts cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
