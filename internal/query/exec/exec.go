// Package exec implements the condition executors (C9) and the query
// executor/join engine (C10) of spec.md §4.9/§4.10.
package exec

import (
	"context"
	"time"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/query/ast"
)

// MatchDetail is a single variable-binding occurrence attached to a
// position, per the glossary. VariableName is empty for details that
// exist only to carry a contributing position (e.g. a CONTAINS match
// with no bound variable).
type MatchDetail struct {
	DocumentID   uint32
	SentenceID   int32
	VariableName string
	Value        string
	BeginChar    uint32
	EndChar      uint32
	HasPosition  bool
	Timestamp    time.Time
}

// Match is one DocSentenceMatch: a document, or (document, sentence)
// when SentenceID != position.DocumentSentinel, together with every
// detail that contributed to it.
type Match struct {
	DocumentID uint32
	SentenceID int32
	Details    []MatchDetail
}

func matchKey(documentID uint32, sentenceID int32) uint64 {
	return uint64(documentID)<<32 | uint64(uint32(sentenceID))
}

// QueryResult is the output of evaluating one Query's conditions: a
// set of Matches at a fixed granularity.
type QueryResult struct {
	Granularity ast.Granularity
	Matches     []Match
}

// matchMap builds an index from (document_id, sentence_id) to *Match
// for O(1) merge operations.
type matchMap struct {
	order []uint64
	byKey map[uint64]*Match
}

func newMatchMap() *matchMap {
	return &matchMap{byKey: map[uint64]*Match{}}
}

func (m *matchMap) get(documentID uint32, sentenceID int32) (*Match, bool) {
	mm, ok := m.byKey[matchKey(documentID, sentenceID)]
	return mm, ok
}

func (m *matchMap) getOrCreate(documentID uint32, sentenceID int32) *Match {
	k := matchKey(documentID, sentenceID)
	if mm, ok := m.byKey[k]; ok {
		return mm
	}
	mm := &Match{DocumentID: documentID, SentenceID: sentenceID}
	m.byKey[k] = mm
	m.order = append(m.order, k)
	return mm
}

func (m *matchMap) result(gran ast.Granularity) *QueryResult {
	out := make([]Match, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, *m.byKey[k])
	}
	return &QueryResult{Granularity: gran, Matches: out}
}

// Context carries everything a condition executor needs: the opened
// index set, the document/annotation stores for surface-form and
// universe lookups, and the target granularity.
type Context struct {
	Ctx         context.Context
	Set         *indexset.Set
	Docs        docstore.DocumentStore
	Ann         docstore.AnnotationStore
	Granularity ast.Granularity
}

func (c *Context) checkCancelled() error {
	if c.Ctx == nil {
		return nil
	}
	if err := c.Ctx.Err(); err != nil {
		return corpuserr.Wrap(corpuserr.Cancelled, err, "query execution cancelled")
	}
	return nil
}

// Eval evaluates cond against c's index set and returns the resulting
// match set, dispatching on the condition's dynamic type per the
// table in spec.md §4.9.
func Eval(c *Context, cond ast.Condition) (*QueryResult, error) {
	if err := c.checkCancelled(); err != nil {
		return nil, err
	}
	switch n := cond.(type) {
	case ast.ContainsCond:
		return evalContains(c, n)
	case ast.NERCond:
		return evalNER(c, n)
	case ast.POSCond:
		return evalPOS(c, n)
	case ast.DepCond:
		return evalDep(c, n)
	case ast.HypernymCond:
		return evalHypernym(c, n)
	case ast.DateCond:
		return evalDate(c, n)
	case ast.NotCond:
		return evalNot(c, n)
	case ast.AndCond:
		return evalAnd(c, n)
	case ast.OrCond:
		return evalOr(c, n)
	default:
		return nil, corpuserr.New(corpuserr.ValidationError, "unsupported condition type %T", cond)
	}
}
