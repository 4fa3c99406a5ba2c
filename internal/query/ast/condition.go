package ast

import (
	"fmt"
	"strings"
)

// Condition is the tagged-variant `Cond`/`Atom` node of spec.md §4.7.
// A sum type via a marker method, per spec.md §9's guidance to avoid
// open inheritance for Condition variants.
type Condition interface {
	Node
	conditionNode()
}

// ContainsCond is `CONTAINS(s1 [, s2, s3] | ?v, s | s, ?v)`.
type ContainsCond struct {
	Terms    []string // literal search terms (1-3 of them)
	Variable string   // set when binding the match to ?v instead of a literal list
	Literal  string   // the literal searched for when Variable is set
}

func (c ContainsCond) conditionNode() {}
func (c ContainsCond) String() string {
	if c.Variable != "" {
		return fmt.Sprintf("CONTAINS(?%s, %q)", c.Variable, c.Literal)
	}
	quoted := make([]string, len(c.Terms))
	for i, t := range c.Terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf("CONTAINS(%s)", strings.Join(quoted, ", "))
}

// NERCond is `NER(type, ?v | "literal")`.
type NERCond struct {
	EntityType string
	Variable   string // empty if matched against a literal
	Literal    string
}

func (c NERCond) conditionNode() {}
func (c NERCond) String() string {
	if c.Variable != "" {
		return fmt.Sprintf("NER(%s, ?%s)", c.EntityType, c.Variable)
	}
	return fmt.Sprintf("NER(%s, %q)", c.EntityType, c.Literal)
}

// POSCond is `POS(tag, ?v | "literal")`.
type POSCond struct {
	Tag      string
	Variable string
	Literal  string
}

func (c POSCond) conditionNode() {}
func (c POSCond) String() string {
	if c.Variable != "" {
		return fmt.Sprintf("POS(%s, ?%s)", c.Tag, c.Variable)
	}
	return fmt.Sprintf("POS(%s, %q)", c.Tag, c.Literal)
}

// DepCond is `DEP(head, relation, dependent)`; any part may be "*" to
// request a prefix scan + filter (spec.md §4.9).
type DepCond struct {
	Head       string
	Relation   string
	Dependent  string
}

func (c DepCond) conditionNode() {}
func (c DepCond) String() string {
	return fmt.Sprintf("DEP(%q, %q, %q)", c.Head, c.Relation, c.Dependent)
}

// HypernymCond is `HYPERNYM(category, instance)`.
type HypernymCond struct {
	Category string
	Instance string
}

func (c HypernymCond) conditionNode() {}
func (c HypernymCond) String() string {
	return fmt.Sprintf("HYPERNYM(%q, %q)", c.Category, c.Instance)
}

// DateCond is `DATE(pred[range][, ?v])`.
type DateCond struct {
	Predicate TemporalPredicate
	Range     DateRange
	Window    *int // only meaningful for PredProximity
	Variable  string
}

func (c DateCond) conditionNode() {}
func (c DateCond) String() string {
	s := fmt.Sprintf("DATE(%s%s", c.Predicate, c.Range)
	if c.Window != nil {
		s += fmt.Sprintf(" WINDOW %d", *c.Window)
	}
	if c.Variable != "" {
		s += fmt.Sprintf(", ?%s", c.Variable)
	}
	return s + ")"
}

// NotCond is `NOT(c)`.
type NotCond struct {
	Inner Condition
}

func (c NotCond) conditionNode() {}
func (c NotCond) String() string { return fmt.Sprintf("NOT(%s)", c.Inner) }

// AndCond is `c1 AND c2 AND ...`.
type AndCond struct {
	Operands []Condition
}

func (c AndCond) conditionNode() {}
func (c AndCond) String() string {
	parts := make([]string, len(c.Operands))
	for i, o := range c.Operands {
		parts[i] = o.String()
	}
	return strings.Join(parts, " AND ")
}

// OrCond is `c1 OR c2 OR ...`.
type OrCond struct {
	Operands []Condition
}

func (c OrCond) conditionNode() {}
func (c OrCond) String() string {
	parts := make([]string, len(c.Operands))
	for i, o := range c.Operands {
		parts[i] = o.String()
	}
	return strings.Join(parts, " OR ")
}
