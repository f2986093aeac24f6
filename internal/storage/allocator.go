// Package storage allocates the storage cells that compiled rules read
// and write. Global cells are shared by every rule; each rule draws its
// own cells from a Partition with a private index space.
package storage

import (
	"fmt"
	"strconv"
	"sync"
)

// Handle names one storage cell.
type Handle struct {
	Index    int
	Name     string
	Global   bool // shared across rules
	Internal bool // compiler-generated, not visible in source
}

// String returns the handle as it appears in listings.
func (h Handle) String() string {
	if h.Global {
		return "global." + h.Name
	}
	return h.Name
}

// Allocator hands out cells for one rule.
//
// ruleGlobal cells live for the whole rule and are never released.
// Other cells belong to a scope and are released when it closes.
type Allocator interface {
	Allocate(nameHint string, ruleGlobal, internal bool) Handle
	Release(Handle)
}

// Pool owns global cells and the per-rule partitions.
// It is safe for concurrent use by rules lowered in parallel.
type Pool struct {
	mu         sync.Mutex
	globals    []Handle
	globalIdx  map[string]int
	partitions map[string]*Partition
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		globalIdx:  make(map[string]int),
		partitions: make(map[string]*Partition),
	}
}

// Global returns the cell for a globalvar declaration, allocating it
// on first use.
func (p *Pool) Global(name string) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i, ok := p.globalIdx[name]; ok {
		return p.globals[i]
	}
	h := Handle{Index: len(p.globals), Name: name, Global: true}
	p.globalIdx[name] = h.Index
	p.globals = append(p.globals, h)
	return h
}

// Globals returns all global cells in allocation order.
func (p *Pool) Globals() []Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Handle(nil), p.globals...)
}

// Rule returns the partition for the named rule, creating it if needed.
func (p *Pool) Rule(name string) *Partition {
	p.mu.Lock()
	defer p.mu.Unlock()

	part, ok := p.partitions[name]
	if !ok {
		part = &Partition{rule: name, names: make(map[string]int)}
		p.partitions[name] = part
	}
	return part
}

// Partition allocates the cells of a single rule. A partition is owned
// by the goroutine lowering that rule.
type Partition struct {
	rule  string
	cells []cell
	free  []int
	names map[string]int
}

type cell struct {
	handle     Handle
	live       bool
	ruleGlobal bool
}

var _ Allocator = (*Partition)(nil)

// Allocate returns a fresh cell, reusing a released scope cell when one
// is available. Rule-global cells never come from the free list so they
// stay distinct for the life of the rule.
func (p *Partition) Allocate(nameHint string, ruleGlobal, internal bool) Handle {
	if nameHint == "" {
		nameHint = "tmp"
	}
	name := p.uniqueName(nameHint)

	if !ruleGlobal && len(p.free) > 0 {
		idx := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		h := Handle{Index: idx, Name: name, Internal: internal}
		p.cells[idx] = cell{handle: h, live: true}
		return h
	}

	h := Handle{Index: len(p.cells), Name: name, Internal: internal}
	p.cells = append(p.cells, cell{handle: h, live: true, ruleGlobal: ruleGlobal})
	return h
}

// Release returns a scope cell to the free list.
func (p *Partition) Release(h Handle) {
	if h.Global || h.Index < 0 || h.Index >= len(p.cells) {
		panic(fmt.Sprintf("storage: release of foreign cell %s in rule %q", h, p.rule))
	}
	c := &p.cells[h.Index]
	if !c.live || c.handle.Name != h.Name {
		panic(fmt.Sprintf("storage: double release of %s in rule %q", h, p.rule))
	}
	if c.ruleGlobal {
		panic(fmt.Sprintf("storage: release of rule-global cell %s in rule %q", h, p.rule))
	}
	c.live = false
	p.free = append(p.free, h.Index)
}

// Size returns the number of distinct cells the rule needs at run time.
func (p *Partition) Size() int {
	return len(p.cells)
}

// Live returns the number of cells currently allocated.
func (p *Partition) Live() int {
	n := 0
	for _, c := range p.cells {
		if c.live {
			n++
		}
	}
	return n
}

// Names returns the most recent name given to each cell index.
func (p *Partition) Names() []string {
	names := make([]string, len(p.cells))
	for i, c := range p.cells {
		names[i] = c.handle.Name
	}
	return names
}

func (p *Partition) uniqueName(hint string) string {
	n, seen := p.names[hint]
	p.names[hint] = n + 1
	if !seen {
		return hint
	}
	return hint + "_" + strconv.Itoa(n)
}
