package exec

import (
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/temporal"
)

var predicateMap = map[ast.TemporalPredicate]temporal.Predicate{
	ast.PredContains:    temporal.Contains,
	ast.PredContainedBy: temporal.ContainedBy,
	ast.PredIntersect:   temporal.Intersect,
	ast.PredProximity:   temporal.Proximity,
	ast.PredBefore:      temporal.Before,
	ast.PredBeforeEqual: temporal.BeforeEqual,
	ast.PredAfter:       temporal.After,
	ast.PredAfterEqual:  temporal.AfterEqual,
	ast.PredEqual:       temporal.Equal,
}

// evalDate implements `DATE(pred[range][, ?v])` via the Nash temporal
// index: positions whose date satisfies pred against range bind ?v to
// the date, formatted YYYY-MM-DD.
func evalDate(c *Context, cond ast.DateCond) (*QueryResult, error) {
	idx, err := c.Set.Temporal()
	if err != nil {
		return nil, err
	}
	pred, ok := predicateMap[cond.Predicate]
	if !ok {
		pred = temporal.Intersect
	}
	window := 0
	if cond.Window != nil {
		window = *cond.Window
	}
	queryRange := temporal.Range{Start: cond.Range.Start, End: cond.Range.End}
	entries := idx.Query(queryRange, pred, window)

	m := newMatchMap()
	groupPositionsWithDate(m, c.Granularity, entries, cond.Variable)
	return m.result(c.Granularity), nil
}

// groupPositionsWithDate is like groupPositions but binds ?v to each
// entry's own range start date rather than a single fixed value.
func groupPositionsWithDate(m *matchMap, gran ast.Granularity, entries []temporal.Entry, variable string) {
	for _, e := range entries {
		p := e.Pos
		sentenceID := p.SentenceID
		if gran == ast.GranularityDocument {
			sentenceID = position.DocumentSentinel
		}
		match := m.getOrCreate(p.DocumentID, sentenceID)
		match.Details = append(match.Details, MatchDetail{
			DocumentID:   p.DocumentID,
			SentenceID:   p.SentenceID,
			VariableName: variable,
			Value:        e.Range.Start.Format("2006-01-02"),
			BeginChar:    p.BeginChar,
			EndChar:      p.EndChar,
			HasPosition:  true,
			Timestamp:    e.Range.Start,
		})
	}
}
