package matcher

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
)

// DefaultCacheSize bounds a cache created without an explicit size
const DefaultCacheSize = 4096

// Cache holds compiled matchers for the lifetime of one run. Matchers are
// pure functions of the path template, so descriptors that differ only by
// method share an entry. Cache is not safe for concurrent use.
type Cache struct {
	matchers *lru.Cache[string, *Matcher]
	hits     int
	misses   int
}

// NewCache creates a cache holding up to size matchers
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	matchers, err := lru.New[string, *Matcher](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher cache: %w", err)
	}
	return &Cache{matchers: matchers}, nil
}

// Get returns the matcher for a template, compiling it on first use
func (c *Cache) Get(template string) (*Matcher, error) {
	if m, ok := c.matchers.Get(template); ok {
		c.hits++
		return m, nil
	}
	c.misses++

	m, err := Compile(template)
	if err != nil {
		return nil, err
	}
	c.matchers.Add(template, m)
	return m, nil
}

// Stats returns the number of cache hits and misses so far
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Len returns the number of cached matchers
func (c *Cache) Len() int {
	return c.matchers.Len()
}

// Entry pairs a descriptor with its compiled matcher
type Entry struct {
	Endpoint endpoint.Descriptor
	Matcher  *Matcher
}

// Set is the ordered list of matchers tested against every line
type Set []Entry

// CompileAll compiles one matcher per unique descriptor, in input order.
// Duplicate descriptors are tested once so a line never produces two
// identical occurrences for the same (path, method).
func CompileAll(descriptors []endpoint.Descriptor, cache *Cache) (Set, error) {
	unique := endpoint.Unique(descriptors)
	set := make(Set, 0, len(unique))
	for _, d := range unique {
		m, err := cache.Get(d.Path)
		if err != nil {
			return nil, err
		}
		set = append(set, Entry{Endpoint: d, Matcher: m})
	}
	return set, nil
}

// MatchLine calls fn for every entry whose matcher fires on line, in set order
func (s Set) MatchLine(line string, fn func(endpoint.Descriptor)) {
	l := newLine(line)
	for _, e := range s {
		if e.Matcher.match(l) {
			fn(e.Endpoint)
		}
	}
}
