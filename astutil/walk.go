// Package astutil provides shared AST walking utilities for C-Next parse
// trees.
//
// These helpers are used by the analysis and ide packages for traversing
// statement and expression trees without each consumer reimplementing the
// node switch.
package astutil

import "github.com/jlaustill/c-next-sub006/ast"

// WalkExpr calls fn for every node in the expression tree, depth-first,
// parents before children.  Returning false from fn prunes the subtree.
func WalkExpr(expr ast.Expr, fn func(ast.Expr) bool) {
	if expr == nil {
		return
	}
	if !fn(expr) {
		return
	}
	switch x := expr.(type) {
	case *ast.SelectorExpr:
		WalkExpr(x.X, fn)
	case *ast.IndexExpr:
		WalkExpr(x.X, fn)
		WalkExpr(x.Index, fn)
	case *ast.BitIndexExpr:
		WalkExpr(x.X, fn)
		WalkExpr(x.Index, fn)
		WalkExpr(x.Width, fn)
	case *ast.CallExpr:
		WalkExpr(x.Fun, fn)
		for _, arg := range x.Args {
			WalkExpr(arg, fn)
		}
	case *ast.UnaryExpr:
		WalkExpr(x.X, fn)
	case *ast.BinaryExpr:
		WalkExpr(x.X, fn)
		WalkExpr(x.Y, fn)
	case *ast.ParenExpr:
		WalkExpr(x.X, fn)
	case *ast.ArrayLit:
		for _, el := range x.Elems {
			WalkExpr(el, fn)
		}
	}
}

// WalkStmt calls fn for every statement reachable from stmt, including
// statements nested in blocks and control structures.  Returning false from
// fn prunes the subtree.
func WalkStmt(stmt ast.Stmt, fn func(ast.Stmt) bool) {
	if stmt == nil {
		return
	}
	if !fn(stmt) {
		return
	}
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		for _, sub := range s.List {
			WalkStmt(sub, fn)
		}
	case *ast.IfStmt:
		WalkStmt(s.Body, fn)
		WalkStmt(s.Else, fn)
	case *ast.WhileStmt:
		WalkStmt(s.Body, fn)
	case *ast.ForStmt:
		WalkStmt(s.Init, fn)
		WalkStmt(s.Post, fn)
		WalkStmt(s.Body, fn)
	}
}

// Exprs calls fn for every expression appearing anywhere under stmt,
// depth-first.
func Exprs(stmt ast.Stmt, fn func(ast.Expr) bool) {
	WalkStmt(stmt, func(s ast.Stmt) bool {
		switch s := s.(type) {
		case *ast.DeclStmt:
			WalkExpr(s.Decl.Init, fn)
		case *ast.AssignStmt:
			WalkExpr(s.Target, fn)
			WalkExpr(s.Value, fn)
		case *ast.IfStmt:
			WalkExpr(s.Cond, fn)
		case *ast.WhileStmt:
			WalkExpr(s.Cond, fn)
		case *ast.ForStmt:
			WalkExpr(s.Cond, fn)
		case *ast.ReturnStmt:
			WalkExpr(s.Value, fn)
		case *ast.ExprStmt:
			WalkExpr(s.X, fn)
		}
		return true
	})
}

// BaseIdent unwraps parentheses and reports the bare identifier name of
// expr.  It returns false when expr is anything other than an identifier.
func BaseIdent(expr ast.Expr) (string, bool) {
	for {
		switch x := expr.(type) {
		case *ast.ParenExpr:
			expr = x.X
		case *ast.Ident:
			return x.Name, true
		default:
			return "", false
		}
	}
}

// RootIdent digs through parentheses, selectors, and subscripts to the
// identifier an lvalue expression ultimately names.  cfg.buf[i] reports
// ("cfg", true).  It returns false when the expression roots at anything
// other than an identifier.
func RootIdent(expr ast.Expr) (string, bool) {
	for {
		switch x := expr.(type) {
		case *ast.ParenExpr:
			expr = x.X
		case *ast.SelectorExpr:
			expr = x.X
		case *ast.IndexExpr:
			expr = x.X
		case *ast.BitIndexExpr:
			expr = x.X
		case *ast.Ident:
			return x.Name, true
		default:
			return "", false
		}
	}
}

// SelectorPath flattens a chain of selector expressions rooted at an
// identifier into its dotted segments, outermost first.  this.tick returns
// ["this", "tick"].  It returns false when the chain roots at anything
// other than an identifier.
func SelectorPath(expr ast.Expr) ([]string, bool) {
	var rev []string
	for {
		switch x := expr.(type) {
		case *ast.ParenExpr:
			expr = x.X
		case *ast.SelectorExpr:
			rev = append(rev, x.Sel)
			expr = x.X
		case *ast.Ident:
			rev = append(rev, x.Name)
			path := make([]string, 0, len(rev))
			for i := len(rev) - 1; i >= 0; i-- {
				path = append(path, rev[i])
			}
			return path, true
		default:
			return nil, false
		}
	}
}
