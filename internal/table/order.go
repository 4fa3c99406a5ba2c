package table

import (
	"sort"
	"strconv"

	"github.com/halsted/corpusql/internal/query/ast"
)

// applyOrderAndLimit applies spec.md §4.11 steps 4-5: a stable sort on
// the listed columns (NULLs last), then a limit.
func applyOrderAndLimit(t *Table, order []ast.OrderTerm, limit *int) {
	if len(order) > 0 {
		sortRows(t, order)
	}
	if limit != nil && *limit >= 0 && *limit < len(t.Rows) {
		t.Rows = t.Rows[:*limit]
	}
}

func sortRows(t *Table, order []ast.OrderTerm) {
	type term struct {
		idx  int
		desc bool
	}
	var terms []term
	for _, o := range order {
		idx, ok := fieldByHeader(t, o.Column)
		if !ok {
			continue
		}
		terms = append(terms, term{idx: idx, desc: o.Descending})
	}
	if len(terms) == 0 {
		return
	}

	sort.SliceStable(t.Rows, func(i, j int) bool {
		for _, term := range terms {
			a, b := t.Rows[i][term.idx], t.Rows[j][term.idx]
			if a.Null || b.Null {
				// NULLs sort last regardless of sort direction.
				if a.Null == b.Null {
					continue
				}
				return b.Null
			}
			cmp := compareCells(a, b)
			if cmp == 0 {
				continue
			}
			if term.desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareCells compares two non-NULL cells numerically when both
// parse as numbers, falling back to a lexicographic string comparison.
func compareCells(a, b Cell) int {
	if af, aerr := strconv.ParseFloat(a.Value, 64); aerr == nil {
		if bf, berr := strconv.ParseFloat(b.Value, 64); berr == nil {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	default:
		return 0
	}
}
