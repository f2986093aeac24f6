// Package runtime provides regular expression support shared by the
// engine simulator (the Matches value) and the rule filter.
package runtime

import (
	"sync"

	"github.com/coregx/coregex"
)

// DefaultCacheSize bounds the number of patterns a cache keeps.
const DefaultCacheSize = 100

// Regex wraps a compiled coregex pattern.
type Regex struct {
	pattern string
	re      *coregex.Regexp
}

// Compile creates a new Regex from pattern.
func Compile(pattern string) (*Regex, error) {
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{pattern: pattern, re: re}, nil
}

// MustCompile creates a Regex, panicking on error.
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Pattern returns the original pattern string.
func (r *Regex) Pattern() string {
	return r.pattern
}

// MatchString reports whether s contains any match.
func (r *Regex) MatchString(s string) bool {
	return r.re.MatchString(s)
}

// FindStringIndex returns the start and end of the first match, or nil.
func (r *Regex) FindStringIndex(s string) []int {
	return r.re.FindStringIndex(s)
}

// Filter compiles pattern into a predicate over rule names. An empty
// pattern selects every rule.
func Filter(pattern string) (func(string) bool, error) {
	if pattern == "" {
		return func(string) bool { return true }, nil
	}
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

// RegexCache provides thread-safe compiled regex caching with FIFO eviction.
// Reads are lock-free via sync.Map.
type RegexCache struct {
	cache   sync.Map   // map[string]*Regex
	orderMu sync.Mutex // Protects order for eviction
	order   []string   // FIFO order for eviction
	maxSize int
}

// NewRegexCache creates a cache holding at most maxSize patterns.
func NewRegexCache(maxSize int) *RegexCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &RegexCache{
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns a compiled regex, compiling and caching if needed.
func (c *RegexCache) Get(pattern string) (*Regex, error) {
	if re, ok := c.cache.Load(pattern); ok {
		return re.(*Regex), nil
	}

	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	// Another goroutine might have stored it already
	if existing, loaded := c.cache.LoadOrStore(pattern, re); loaded {
		return existing.(*Regex), nil
	}

	c.orderMu.Lock()
	c.order = append(c.order, pattern)
	for len(c.order) > c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.cache.Delete(oldest)
	}
	c.orderMu.Unlock()

	return re, nil
}

// Len returns the number of cached regexes.
func (c *RegexCache) Len() int {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	return len(c.order)
}

// Clear removes all cached regexes.
func (c *RegexCache) Clear() {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	for _, p := range c.order {
		c.cache.Delete(p)
	}
	c.order = c.order[:0]
}
