// Package temporal implements Nash (C6), the interval/range index
// backing the query language's DATE predicates and the cross-query
// temporal join.
package temporal

import (
	"sort"
	"time"

	"github.com/halsted/corpusql/internal/position"
)

// Range is an inclusive, closed date interval. A degenerate range has
// Start == End, as produced by a single date literal or a comparison
// operator (spec.md §4.6).
type Range struct {
	Start time.Time
	End   time.Time
}

// Predicate enumerates the temporal operators of spec.md §4.6/§4.7.
type Predicate int

const (
	Contains Predicate = iota
	ContainedBy
	Intersect
	Proximity
	Before
	BeforeEqual
	After
	AfterEqual
	Equal
)

func (p Predicate) String() string {
	switch p {
	case Contains:
		return "CONTAINS"
	case ContainedBy:
		return "CONTAINED_BY"
	case Intersect:
		return "INTERSECT"
	case Proximity:
		return "PROXIMITY"
	case Before:
		return "BEFORE"
	case BeforeEqual:
		return "BEFORE_EQUAL"
	case After:
		return "AFTER"
	case AfterEqual:
		return "AFTER_EQUAL"
	case Equal:
		return "EQUAL"
	default:
		return "UNKNOWN"
	}
}

// RangesIntersect reports whether a and b share at least one instant.
func RangesIntersect(a, b Range) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// RangeContains reports whether outer fully contains inner.
func RangeContains(outer, inner Range) bool {
	return !outer.Start.After(inner.Start) && !inner.End.After(outer.End)
}

// ProximityDays reports whether the closest pair of endpoints between a
// and b (one point taken from each side) lies within window days,
// per spec.md §4.6: "a match holds iff the absolute day difference
// between some date in the left side and some date in the right side
// is <= window".
func ProximityDays(a, b Range, window int) bool {
	best := -1
	for _, x := range [2]time.Time{a.Start, a.End} {
		for _, y := range [2]time.Time{b.Start, b.End} {
			d := daysBetween(x, y)
			if best == -1 || d < best {
				best = d
			}
		}
	}
	return best <= window
}

func daysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// Evaluate applies pred to the pair (left, right), window only used by
// Proximity. It satisfies the symmetric identities of spec.md §8:
// CONTAINS(a,b) <=> CONTAINED_BY(b,a); INTERSECT and PROXIMITY are
// themselves symmetric.
func Evaluate(left, right Range, pred Predicate, window int) bool {
	switch pred {
	case Contains:
		return RangeContains(left, right)
	case ContainedBy:
		return RangeContains(right, left)
	case Intersect:
		return RangesIntersect(left, right)
	case Proximity:
		return ProximityDays(left, right, window)
	case Before:
		return left.End.Before(right.Start)
	case BeforeEqual:
		return !left.End.After(right.Start)
	case After:
		return left.Start.After(right.End)
	case AfterEqual:
		return !left.Start.Before(right.End)
	case Equal:
		return left.Start.Equal(right.Start) && left.End.Equal(right.End)
	default:
		return false
	}
}

// Entry is one indexed occurrence: a date range attached to the match
// it was extracted from, and the Position that carries it so the
// caller can build a MatchDetail.
type Entry struct {
	DocumentID uint32
	SentenceID int32
	Range      Range
	Pos        position.Position
}

// Index is the built, queryable Nash structure: entries sorted by
// range start, which Query scans linearly. Construction is the
// caller's responsibility (exec.BuildTemporalIndex builds it from
// document timestamps); Index itself holds no reference to storage so
// it can be unit tested in isolation.
type Index struct {
	entries []Entry
}

// NewIndex builds an Index over entries, sorted by range start.
func NewIndex(entries []Entry) *Index {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.Start.Before(sorted[j].Range.Start) })
	return &Index{entries: sorted}
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Query returns every entry whose Range satisfies pred against query,
// in the order CONTAINS/CONTAINED_BY/INTERSECT/PROXIMITY/comparisons
// dictate (spec.md §4.6). Evaluate is always called as
// Evaluate(entry.Range, query, pred, window): entry is the "left" side.
func (idx *Index) Query(query Range, pred Predicate, window int) []Entry {
	var out []Entry
	// A binary-search lower bound on range start is a valid cutoff only
	// for predicates where a later start can never match an earlier
	// query window; PROXIMITY and CONTAINED_BY can still match from
	// entries starting well before the query, so every predicate scans
	// linearly from the start for correctness over the modest corpus
	// sizes this index targets (see DESIGN.md).
	for _, e := range idx.entries {
		if Evaluate(e.Range, query, pred, window) {
			out = append(out, e)
		}
	}
	return out
}
