// Package visitor provides AST traversal over Condition trees,
// supplementing the core query language with the generic walk the
// validator uses.
package visitor

import "github.com/halsted/corpusql/internal/query/ast"

// Visitor is the interface for Condition traversal.
type Visitor interface {
	Visit(cond ast.Condition) Visitor
}

// Walk traverses a Condition tree in depth-first order.
func Walk(v Visitor, cond ast.Condition) {
	if cond == nil {
		return
	}
	if v = v.Visit(cond); v == nil {
		return
	}
	switch n := cond.(type) {
	case ast.NotCond:
		Walk(v, n.Inner)
	case ast.AndCond:
		for _, o := range n.Operands {
			Walk(v, o)
		}
	case ast.OrCond:
		for _, o := range n.Operands {
			Walk(v, o)
		}
	// ContainsCond, NERCond, POSCond, DepCond, HypernymCond, DateCond
	// are leaves with no Condition children.
	default:
	}
}

// WalkFunc calls fn for every node in cond; returning false from fn
// skips that node's children.
func WalkFunc(cond ast.Condition, fn func(ast.Condition) bool) {
	Walk(&funcVisitor{fn: fn}, cond)
}

type funcVisitor struct {
	fn func(ast.Condition) bool
}

func (v *funcVisitor) Visit(cond ast.Condition) Visitor {
	if v.fn(cond) {
		return v
	}
	return nil
}

// Inspect calls f for each node in cond.
func Inspect(cond ast.Condition, f func(ast.Condition) bool) {
	WalkFunc(cond, f)
}

// Variables returns every variable name referenced anywhere in cond,
// whether as a producer or a literal-bound consumer, deduplicated in
// first-seen order.
func Variables(cond ast.Condition) []string {
	seen := map[string]bool{}
	var out []string
	record := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	Inspect(cond, func(c ast.Condition) bool {
		switch n := c.(type) {
		case ast.ContainsCond:
			record(n.Variable)
		case ast.NERCond:
			record(n.Variable)
		case ast.POSCond:
			record(n.Variable)
		case ast.DateCond:
			record(n.Variable)
		}
		return true
	})
	return out
}
