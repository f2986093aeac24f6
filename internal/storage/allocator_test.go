package storage

import (
	"fmt"
	"sync"
	"testing"
)

func TestPartitionAllocate(t *testing.T) {
	part := NewPool().Rule("r")

	a := part.Allocate("x", false, false)
	b := part.Allocate("x", false, false)
	c := part.Allocate("", true, true)

	if a.Index != 0 || b.Index != 1 || c.Index != 2 {
		t.Errorf("indices = %d, %d, %d, want 0, 1, 2", a.Index, b.Index, c.Index)
	}
	if a.Name != "x" || b.Name != "x_1" || c.Name != "tmp" {
		t.Errorf("names = %q, %q, %q", a.Name, b.Name, c.Name)
	}
	if !c.Internal || a.Internal {
		t.Errorf("internal flags = %v, %v", a.Internal, c.Internal)
	}
	if a.Global || c.Global {
		t.Error("partition cells must not be global")
	}
	if part.Live() != 3 {
		t.Errorf("Live() = %d, want 3", part.Live())
	}
}

func TestPartitionReuse(t *testing.T) {
	part := NewPool().Rule("r")

	counter := part.Allocate("counter", true, true)
	x := part.Allocate("x", false, false)
	part.Release(x)

	y := part.Allocate("y", false, false)
	if y.Index != x.Index {
		t.Errorf("released cell not reused: y.Index = %d, want %d", y.Index, x.Index)
	}

	part.Release(y)
	g := part.Allocate("g", true, true)
	if g.Index == y.Index || g.Index == counter.Index {
		t.Errorf("rule-global cell reused index %d", g.Index)
	}
	if part.Size() != 3 {
		t.Errorf("Size() = %d, want 3", part.Size())
	}
}

func TestPartitionReleasePanics(t *testing.T) {
	tests := []struct {
		name string
		run  func(p *Partition)
	}{
		{"double release", func(p *Partition) {
			h := p.Allocate("x", false, false)
			p.Release(h)
			p.Release(h)
		}},
		{"rule global", func(p *Partition) {
			p.Release(p.Allocate("c", true, true))
		}},
		{"global handle", func(p *Partition) {
			p.Release(Handle{Name: "g", Global: true})
		}},
		{"out of range", func(p *Partition) {
			p.Release(Handle{Index: 7, Name: "z"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.run(NewPool().Rule("r"))
		})
	}
}

func TestPoolGlobals(t *testing.T) {
	pool := NewPool()
	a := pool.Global("score")
	b := pool.Global("level")
	again := pool.Global("score")

	if a != again {
		t.Errorf("Global returned %v then %v for the same name", a, again)
	}
	if !a.Global || a.Index != 0 || b.Index != 1 {
		t.Errorf("globals = %+v, %+v", a, b)
	}
	if got := a.String(); got != "global.score" {
		t.Errorf("String() = %q", got)
	}
	if len(pool.Globals()) != 2 {
		t.Errorf("Globals() = %d, want 2", len(pool.Globals()))
	}
}

func TestPoolPartitionsAreIndependent(t *testing.T) {
	pool := NewPool()
	a := pool.Rule("a").Allocate("x", false, false)
	b := pool.Rule("b").Allocate("x", false, false)
	if a.Index != 0 || b.Index != 0 || a.Name != "x" || b.Name != "x" {
		t.Errorf("partitions share state: %+v, %+v", a, b)
	}
	if pool.Rule("a") != pool.Rule("a") {
		t.Error("Rule returned different partitions for the same name")
	}
}

func TestPoolConcurrent(t *testing.T) {
	pool := NewPool()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			part := pool.Rule(fmt.Sprintf("rule%d", i))
			for j := 0; j < 50; j++ {
				pool.Global(fmt.Sprintf("g%d", j%5))
				part.Release(part.Allocate("x", false, false))
			}
		}(i)
	}
	wg.Wait()

	if n := len(pool.Globals()); n != 5 {
		t.Errorf("Globals() = %d, want 5", n)
	}
}
