package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
)

// scope is one lexical block during lowering.
type scope struct {
	parent *scope
	frame  *frame
	vars   map[*semantic.Symbol]binding
	owned  []storage.Handle // cells released when the scope closes
}

// binding is how a source variable is read and written.
type binding struct {
	value isa.Value
	cell  storage.Handle
	store bool // cell is valid
}

func (c *ruleCompiler) pushScope() *scope {
	sc := &scope{
		parent: c.scope,
		frame:  c.frame,
		vars:   make(map[*semantic.Symbol]binding),
	}
	c.scope = sc
	return sc
}

// popScope closes the innermost scope. With teardown set it first
// clears every user cell the scope owns.
func (c *ruleCompiler) popScope(teardown bool) {
	sc := c.scope
	if teardown {
		c.emitTeardown(sc)
	}
	for i := len(sc.owned) - 1; i >= 0; i-- {
		c.unit.Alloc.Release(sc.owned[i])
	}
	c.scope = sc.parent
}

// emitTeardown clears the user cells of sc in reverse allocation order.
func (c *ruleCompiler) emitTeardown(sc *scope) {
	for i := len(sc.owned) - 1; i >= 0; i-- {
		h := sc.owned[i]
		if h.Internal {
			continue
		}
		c.unit.Stream.Emit(isa.NewSet(h, isa.Null{}))
	}
}

// declare gives sym a fresh cell in the current scope.
func (c *ruleCompiler) declare(sym *semantic.Symbol) storage.Handle {
	h := c.unit.Alloc.Allocate(sym.Name, false, false)
	c.scope.owned = append(c.scope.owned, h)
	c.scope.vars[sym] = binding{value: isa.Var{Cell: h}, cell: h, store: true}
	return h
}

// bind makes sym read as v in the current scope without a cell.
func (c *ruleCompiler) bind(sym *semantic.Symbol, v isa.Value) {
	c.scope.vars[sym] = binding{value: v}
}

// temp allocates an internal cell owned by the current scope.
func (c *ruleCompiler) temp(hint string) storage.Handle {
	h := c.unit.Alloc.Allocate(hint, false, true)
	c.scope.owned = append(c.scope.owned, h)
	return h
}

func (c *ruleCompiler) lookup(sym *semantic.Symbol) (binding, bool) {
	for sc := c.scope; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[sym]; ok {
			return b, true
		}
	}
	return binding{}, false
}
