package exec

import (
	"time"

	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/temporal"
)

// JoinedMatch pairs one main-query Match with one subquery Match that
// survived the temporal join predicate, per spec.md §4.10 step 4.
// Right is the zero value for an unmatched LEFT-join row, and
// conversely for RIGHT.
type JoinedMatch struct {
	Left      Match
	HasLeft   bool
	Right     Match
	HasRight  bool
}

// Outcome is what ExecuteQuery produces: either a plain match set, or
// (when the query has a join) the set of joined pairs.
type Outcome struct {
	Granularity ast.Granularity
	Matches     []Match
	Joined      []JoinedMatch
	IsJoin      bool
}

// applyJoin runs the join engine of spec.md §4.10 over left and right
// using jc's predicate and window, honoring jc's join type.
func applyJoin(left, right *QueryResult, jt ast.JoinType, jc *ast.JoinCond) []JoinedMatch {
	leftValues := extractRefValues(left, jc.Left.Variable)
	rightValues := extractRefValues(right, jc.Right.Variable)

	pred, ok := predicateMap[jc.Predicate]
	if !ok {
		pred = temporal.Intersect
	}
	window := 0
	if jc.Window != nil {
		window = *jc.Window
	}

	matchedRight := map[uint64]bool{}
	var pairs []JoinedMatch

	for _, lm := range left.Matches {
		lvals := leftValues[matchKey(lm.DocumentID, lm.SentenceID)]
		found := false
		for _, rm := range right.Matches {
			rvals := rightValues[matchKey(rm.DocumentID, rm.SentenceID)]
			if !anyPredicateMatch(lvals, rvals, pred, window) {
				continue
			}
			pairs = append(pairs, JoinedMatch{Left: lm, HasLeft: true, Right: rm, HasRight: true})
			matchedRight[matchKey(rm.DocumentID, rm.SentenceID)] = true
			found = true
		}
		if !found && jt == ast.JoinLeft {
			pairs = append(pairs, JoinedMatch{Left: lm, HasLeft: true})
		}
	}
	if jt == ast.JoinRight {
		for _, rm := range right.Matches {
			if !matchedRight[matchKey(rm.DocumentID, rm.SentenceID)] {
				pairs = append(pairs, JoinedMatch{Right: rm, HasRight: true})
			}
		}
	}
	return pairs
}

func anyPredicateMatch(lvals, rvals []time.Time, pred temporal.Predicate, window int) bool {
	for _, l := range lvals {
		lr := temporal.Range{Start: l, End: l}
		for _, r := range rvals {
			rr := temporal.Range{Start: r, End: r}
			if temporal.Evaluate(lr, rr, pred, window) {
				return true
			}
		}
	}
	return false
}

// extractRefValues collects, per match key, every timestamp a
// variable's bindings carry in result — the "dates or date-bearing
// positions" spec.md §4.10 step 1/2 describes.
func extractRefValues(result *QueryResult, variable string) map[uint64][]time.Time {
	out := map[uint64][]time.Time{}
	for _, m := range result.Matches {
		k := matchKey(m.DocumentID, m.SentenceID)
		for _, d := range m.Details {
			if variable != "" && d.VariableName != variable {
				continue
			}
			if d.Timestamp.IsZero() {
				continue
			}
			out[k] = append(out[k], d.Timestamp)
		}
	}
	return out
}
