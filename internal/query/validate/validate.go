// Package validate implements the semantic validator and variable
// registry (C8) of spec.md §4.8: every consumed variable must have a
// producer, qualified references must resolve, and ORDER BY columns
// must be known. Producer types are combined by least upper bound;
// consumers carry no required type, so no type-mismatch diagnostic is
// raised.
package validate

import (
	"fmt"

	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/visitor"
	"github.com/halsted/corpusql/pkg/models"
)

// Diagnostic is one validation failure. A non-empty Diagnostics list
// halts execution, per spec.md §4.8.
type Diagnostic struct {
	Message string
}

func (d Diagnostic) Error() string { return d.Message }

// VariableInfo tracks one variable's producers, consumers, and
// inferred type within a single logical scope.
type VariableInfo struct {
	Name      string
	Type      models.ValueType
	Producers int
	Consumers int
}

// Registry is the per-scope variable registry spec.md §4.8 describes.
// Scopes nest: the main query and each JOIN subquery get their own
// Registry, aliased under the subquery's name.
type Registry struct {
	vars map[string]*VariableInfo
}

func newRegistry() *Registry {
	return &Registry{vars: map[string]*VariableInfo{}}
}

func (r *Registry) entry(name string) *VariableInfo {
	v, ok := r.vars[name]
	if !ok {
		v = &VariableInfo{Name: name}
		r.vars[name] = v
	}
	return v
}

func (r *Registry) produce(name string, t models.ValueType) {
	e := r.entry(name)
	e.Producers++
	e.Type = models.LeastUpperBound(e.Type, t)
}

func (r *Registry) consume(name string) {
	r.entry(name).Consumers++
}

// Result is the outcome of validating one Query tree: a Registry per
// scope (keyed by mainAlias(q) for the main query, alias for each
// subquery) plus
// any diagnostics found.
type Result struct {
	Scopes      map[string]*Registry
	Diagnostics []Diagnostic
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Message: fmt.Sprintf(format, args...)})
}

// Query validates q (and every nested subquery) and returns the
// combined result.
func Query(q *ast.Query) *Result {
	res := &Result{Scopes: map[string]*Registry{}}
	validateScope(q, mainAlias(q), res)
	return res
}

// mainAlias resolves the name a JOIN ON clause uses to refer to the
// main query's side: its declared FromAlias, falling back to its FROM
// target, falling back to the conventional "main_alias" when neither
// is set (e.g. in tests constructing a bare *ast.Query by hand).
func mainAlias(q *ast.Query) string {
	switch {
	case q.FromAlias != "":
		return q.FromAlias
	case q.From != "":
		return q.From
	default:
		return "main_alias"
	}
}

func validateScope(q *ast.Query, alias string, res *Result) {
	reg := newRegistry()
	res.Scopes[alias] = reg

	if q.Where != nil {
		collectProducers(q.Where, reg)
	}

	for _, j := range q.Joins {
		validateScope(j.Sub, j.Alias, res)
	}

	if q.Where != nil {
		collectConsumers(q.Where, reg)
	}

	for _, col := range q.Select {
		validateSelectColumn(col, alias, reg, res)
	}

	if q.Joins != nil {
		for _, j := range q.Joins {
			if j.On != nil {
				validateJoinCond(j.On, alias, j.Alias, res)
			}
		}
	}

	validateOrderBy(q, reg, res)

	// Rule 1: every consumed variable needs a producer somewhere in scope.
	for _, v := range reg.vars {
		if v.Consumers > 0 && v.Producers == 0 {
			res.fail("variable ?%s is consumed but never produced in this scope", v.Name)
		}
	}
}

// collectProducers records every variable a Condition tree binds,
// per spec.md §4.9's "Binds" column.
func collectProducers(cond ast.Condition, reg *Registry) {
	visitor.Inspect(cond, func(c ast.Condition) bool {
		switch n := c.(type) {
		case ast.ContainsCond:
			if n.Variable != "" {
				reg.produce(n.Variable, models.ValueTerm)
			}
		case ast.NERCond:
			if n.Variable != "" {
				reg.produce(n.Variable, models.ValueEntity)
			}
		case ast.POSCond:
			if n.Variable != "" {
				reg.produce(n.Variable, models.ValuePOS)
			}
		case ast.DateCond:
			if n.Variable != "" {
				reg.produce(n.Variable, models.ValueDate)
			}
		}
		return true
	})
}

// collectConsumers records nothing: in this language every Variable
// field of a condition is itself a producer (DATE's included, handled
// above), so conditions contain no pure consumers.
func collectConsumers(cond ast.Condition, reg *Registry) {
	// No condition variant consumes a variable without also producing
	// it in this grammar; consumption is driven entirely by SELECT,
	// ORDER BY, and JOIN ON references, handled by their own callers.
}

func validateSelectColumn(col ast.SelectColumn, scope string, reg *Registry, res *Result) {
	switch col.Kind {
	case ast.SelectVariable:
		reg.consume(col.Variable)
	case ast.SelectQualifiedVariable:
		sub, ok := res.Scopes[col.Alias]
		if !ok {
			res.fail("select column %s references unknown subquery alias %q", col.String(), col.Alias)
			return
		}
		if v, ok := sub.vars[col.Variable]; !ok || v.Producers == 0 {
			res.fail("select column %s references ?%s which %s does not export", col.String(), col.Variable, col.Alias)
			return
		}
		sub.consume(col.Variable)
	case ast.SelectSnippet:
		reg.consume(col.Variable)
	}
}

func validateJoinCond(jc *ast.JoinCond, mainScope, subAlias string, res *Result) {
	validateRef(jc.Left, mainScope, res)
	validateRef(jc.Right, subAlias, res)
}

func validateRef(ref ast.Ref, expectedAlias string, res *Result) {
	reg, ok := res.Scopes[expectedAlias]
	if !ok {
		res.fail("reference %s names an unknown alias", ref)
		return
	}
	v, ok := reg.vars[ref.Variable]
	if !ok || v.Producers == 0 {
		res.fail("reference %s is not produced by %q", ref, expectedAlias)
		return
	}
	reg.consume(ref.Variable)
}

// validateOrderBy enforces rule 4: ORDER BY columns must reference a
// known select column (by name or variable).
func validateOrderBy(q *ast.Query, reg *Registry, res *Result) {
	known := map[string]bool{"title": true, "timestamp": true, "count": true}
	for _, c := range q.Select {
		known[c.Name()] = true
	}
	for _, term := range q.OrderBy {
		if !known[term.Column] {
			res.fail("ORDER BY column %q does not match any select column", term.Column)
		}
	}
}
