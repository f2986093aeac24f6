package ast

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: Count all identifiers
//
//	count := 0
//	ast.Walk(program, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Ident); ok {
//	        count++
//	    }
//	    return true // continue traversal
//	})
func Walk(node Node, fn func(Node) bool) {
	Inspect(node, func(n, _ Node) bool { return fn(n) })
}

// Inspect traverses an AST with parent tracking.
// For each node, it calls fn(node, parent). The parent is nil for the root node.
// If fn returns false, the children of that node are not visited.
//
// Example: Find every loop that directly contains a break
//
//	ast.Inspect(rule, func(n, parent ast.Node) bool {
//	    if _, ok := n.(*ast.BreakStmt); ok {
//	        fmt.Printf("break at %s inside %T\n", n.Pos(), parent)
//	    }
//	    return true
//	})
func Inspect(node Node, fn func(node, parent Node) bool) {
	inspect(node, nil, fn)
}

func inspect(node, parent Node, fn func(node, parent Node) bool) {
	if isNil(node) || !fn(node, parent) {
		return
	}

	switch n := node.(type) {
	// Program-level
	case *Program:
		for _, g := range n.Globals {
			inspect(g, n, fn)
		}
		for _, f := range n.Functions {
			inspect(f, n, fn)
		}
		for _, r := range n.Rules {
			inspect(r, n, fn)
		}

	case *GlobalDecl:
		inspect(n.Name, n, fn)

	case *FuncDecl:
		for _, p := range n.Params {
			inspect(p, n, fn)
		}
		inspect(n.Body, n, fn)

	case *Rule:
		inspect(n.Body, n, fn)

	// Expressions
	case *NumLit, *StrLit, *BoolLit, *NullLit, *Ident:
		// no children

	case *ArrayLit:
		for _, e := range n.Elems {
			inspect(e, n, fn)
		}

	case *IndexExpr:
		inspect(n.Array, n, fn)
		inspect(n.Index, n, fn)

	case *BinaryExpr:
		inspect(n.Left, n, fn)
		inspect(n.Right, n, fn)

	case *UnaryExpr:
		inspect(n.Expr, n, fn)

	case *GroupExpr:
		inspect(n.Expr, n, fn)

	case *CallExpr:
		for _, arg := range n.Args {
			inspect(arg, n, fn)
		}

	// Statements
	case *DefineStmt:
		inspect(n.Name, n, fn)
		inspect(n.Value, n, fn)

	case *AssignStmt:
		inspect(n.Target, n, fn)
		inspect(n.Value, n, fn)

	case *IncDecStmt:
		inspect(n.Target, n, fn)

	case *ExprStmt:
		inspect(n.Expr, n, fn)

	case *BlockStmt:
		for _, s := range n.Stmts {
			inspect(s, n, fn)
		}

	case *IfStmt:
		inspect(n.Cond, n, fn)
		inspect(n.Then, n, fn)
		inspect(n.Else, n, fn)

	case *WhileStmt:
		inspect(n.Cond, n, fn)
		inspect(n.Body, n, fn)

	case *ForeachStmt:
		inspect(n.Var, n, fn)
		inspect(n.Collection, n, fn)
		inspect(n.Body, n, fn)

	case *BreakStmt, *ContinueStmt:
		// no children

	case *ReturnStmt:
		inspect(n.Value, n, fn)
	}
}

// isNil reports whether node is nil, including typed nil pointers
// stored in optional fields.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *BlockStmt:
		return n == nil
	case *Ident:
		return n == nil
	case *Rule:
		return n == nil
	case *FuncDecl:
		return n == nil
	case *Program:
		return n == nil
	}
	return false
}
