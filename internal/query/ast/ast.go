// Package ast defines the Abstract Syntax Tree nodes for the corpus
// query language of spec.md §4.7.
package ast

import (
	"fmt"
	"strings"
	"time"
)

// Node is the common interface of every AST node.
type Node interface {
	String() string
}

// Query is the root node. A Query nested under a JOIN is a subquery;
// both shapes use the same type per spec.md §9 ("model as a tree with
// subqueries owned by their parent").
type Query struct {
	From        string
	FromAlias   string
	Select      []SelectColumn
	Where       Condition
	Joins       []*Join
	OrderBy     []OrderTerm
	Limit       *int
	Granularity Granularity
	Window      *int // GRANULARITY SENTENCE [window] proximity-grouping hint
}

func (q *Query) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s", q.From)
	if q.FromAlias != "" {
		fmt.Fprintf(&b, " AS %s", q.FromAlias)
	}
	if len(q.Select) > 0 {
		cols := make([]string, len(q.Select))
		for i, c := range q.Select {
			cols[i] = c.String()
		}
		fmt.Fprintf(&b, " SELECT %s", strings.Join(cols, ", "))
	}
	if q.Where != nil {
		fmt.Fprintf(&b, " WHERE %s", q.Where.String())
	}
	for _, j := range q.Joins {
		fmt.Fprintf(&b, " %s", j.String())
	}
	if len(q.OrderBy) > 0 {
		terms := make([]string, len(q.OrderBy))
		for i, t := range q.OrderBy {
			terms[i] = t.String()
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(terms, ", "))
	}
	if q.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.Limit)
	}
	if q.Granularity != GranularityUnspecified {
		fmt.Fprintf(&b, " GRANULARITY %s", q.Granularity)
	}
	return b.String()
}

// Granularity names the result-unit identity spec.md §4.9 defines.
type Granularity int

const (
	GranularityUnspecified Granularity = iota
	GranularityDocument
	GranularitySentence
)

func (g Granularity) String() string {
	switch g {
	case GranularityDocument:
		return "DOCUMENT"
	case GranularitySentence:
		return "SENTENCE"
	default:
		return ""
	}
}

// JoinType names the OUTER/INNER behavior of a JOIN per spec.md §4.10.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
)

// Join is one `JOIN (subquery) AS alias [...] ON left TempPred right
// [WINDOW w]` clause.
type Join struct {
	Sub     *Query
	Alias   string
	Columns []string
	Type    JoinType
	On      *JoinCond
}

func (j *Join) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "JOIN (%s) AS %s", j.Sub.String(), j.Alias)
	if len(j.Columns) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(j.Columns, ", "))
	}
	if j.On != nil {
		fmt.Fprintf(&b, " ON %s", j.On.String())
	}
	return b.String()
}

// Ref is an `alias.?v` reference inside a JoinCond.
type Ref struct {
	Alias    string
	Variable string
}

func (r Ref) String() string { return fmt.Sprintf("%s.?%s", r.Alias, r.Variable) }

// JoinCond is the temporal predicate joining two subqueries, per
// spec.md §4.7's `JoinCond := Ref TempPred Ref [WINDOW Int]`.
type JoinCond struct {
	Left      Ref
	Predicate TemporalPredicate
	Right     Ref
	Window    *int
}

func (j *JoinCond) String() string {
	s := fmt.Sprintf("%s %s %s", j.Left, j.Predicate, j.Right)
	if j.Window != nil {
		s += fmt.Sprintf(" WINDOW %d", *j.Window)
	}
	return s
}

// TemporalPredicate enumerates the Nash range predicates of spec.md §4.6.
type TemporalPredicate int

const (
	PredContains TemporalPredicate = iota
	PredContainedBy
	PredIntersect
	PredProximity
	PredBefore
	PredBeforeEqual
	PredAfter
	PredAfterEqual
	PredEqual
)

func (p TemporalPredicate) String() string {
	switch p {
	case PredContains:
		return "CONTAINS"
	case PredContainedBy:
		return "CONTAINED_BY"
	case PredIntersect:
		return "INTERSECT"
	case PredProximity:
		return "PROXIMITY"
	case PredBefore:
		return "BEFORE"
	case PredBeforeEqual:
		return "BEFORE_EQUAL"
	case PredAfter:
		return "AFTER"
	case PredAfterEqual:
		return "AFTER_EQUAL"
	case PredEqual:
		return "EQUAL"
	default:
		return "UNKNOWN"
	}
}

// DateRange is a parsed `[start, end]` date-literal pair.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", d.Start.Format(time.RFC3339), d.End.Format(time.RFC3339))
}

// OrderTerm is one `ORDER BY` column, optionally descending.
type OrderTerm struct {
	Column     string
	Descending bool
}

func (o OrderTerm) String() string {
	if o.Descending {
		return "-" + o.Column
	}
	return o.Column
}
