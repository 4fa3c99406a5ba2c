// Package table implements the result table assembler of spec.md
// §4.11 (C11): it turns a query executor's Outcome into a Table of
// named columns and rows, ready for ORDER BY/LIMIT and export.
package table

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/exec"
)

// Cell is one table cell. Null distinguishes "no value" from the
// empty string, since ORDER BY sorts NULLs last (spec.md §4.11 step 4).
type Cell struct {
	Value string
	Null  bool
}

func nullCell() Cell          { return Cell{Null: true} }
func valueCell(v string) Cell { return Cell{Value: v} }

// Table is the assembled result: one header per column, one row per
// result unit (or a single summary row for aggregate queries).
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Build assembles a Table from outcome according to q's SELECT list,
// fetching TITLE/TIMESTAMP/METADATA/SNIPPET from docs as needed.
// docs may be nil, in which case TITLE/TIMESTAMP/METADATA cells are
// NULL and SNIPPET cells hold the no-snippet sentinel — the same
// behavior spec.md §4.11 step 3 specifies for a DocStoreError.
func Build(ctx context.Context, outcome *exec.Outcome, q *ast.Query, docs docstore.DocumentStore) (*Table, error) {
	b := &builder{
		ctx:       ctx,
		docs:      docs,
		mainAlias: q.FromAlias,
	}
	if outcome.IsJoin && len(q.Joins) > 0 {
		b.joinAlias = q.Joins[len(q.Joins)-1].Alias
	}

	var rows []row
	if outcome.IsJoin {
		rows = b.joinRows(outcome.Joined)
	} else {
		rows = b.plainRows(outcome.Matches)
	}

	t := b.assemble(rows, q.Select)
	applyOrderAndLimit(t, q.OrderBy, q.Limit)
	return t, nil
}

// row is an intermediate result-unit: the id columns plus every detail
// contributing to it, kept separate for left/right so joined qualified
// variables (`alias.?v`) resolve to the correct side.
type row struct {
	leftDocID, leftSentID   int64
	hasLeft                 bool
	rightDocID, rightSentID int64
	hasRight                bool
	leftDetails             []exec.MatchDetail
	rightDetails            []exec.MatchDetail
}

// primaryDocID is the document id used for row-level document-store
// lookups (TITLE/TIMESTAMP/METADATA/SNIPPET): the left side for plain
// and joined queries alike, or the right side for a join row that has
// no left, since spec.md §4.11 step 3 does not distinguish join sides
// for those columns.
func (r row) primaryDocID() (uint32, bool) {
	if r.hasLeft {
		return uint32(r.leftDocID), true
	}
	if r.hasRight {
		return uint32(r.rightDocID), true
	}
	return 0, false
}

type builder struct {
	ctx       context.Context
	docs      docstore.DocumentStore
	mainAlias string
	joinAlias string
}

func (b *builder) plainRows(matches []exec.Match) []row {
	rows := make([]row, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, row{
			leftDocID:   int64(m.DocumentID),
			leftSentID:  int64(m.SentenceID),
			hasLeft:     true,
			leftDetails: m.Details,
		})
	}
	return rows
}

func (b *builder) joinRows(pairs []exec.JoinedMatch) []row {
	rows := make([]row, 0, len(pairs))
	for _, p := range pairs {
		r := row{}
		if p.HasLeft {
			r.hasLeft = true
			r.leftDocID = int64(p.Left.DocumentID)
			r.leftSentID = int64(p.Left.SentenceID)
			r.leftDetails = p.Left.Details
		}
		if p.HasRight {
			r.hasRight = true
			r.rightDocID = int64(p.Right.DocumentID)
			r.rightSentID = int64(p.Right.SentenceID)
			r.rightDetails = p.Right.Details
		}
		rows = append(rows, r)
	}
	return rows
}

func (b *builder) assemble(rows []row, sel []ast.SelectColumn) *Table {
	if aggCol, ok := aggregateColumn(sel); ok {
		return b.assembleAggregate(rows, aggCol)
	}

	joinTable := isJoinTable(rows)
	idCols := idColumnNames(joinTable)
	cols := append([]string{}, idCols...)
	for _, c := range sel {
		cols = append(cols, c.Name())
	}

	t := &Table{Columns: cols}
	for _, r := range rows {
		cells := idCells(r, joinTable)
		for _, c := range sel {
			cells = append(cells, b.cellFor(r, c))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// isJoinTable reports whether any row carries a right side, which
// decides between plain and left_/right_-prefixed id columns.
func isJoinTable(rows []row) bool {
	for _, r := range rows {
		if r.hasRight {
			return true
		}
	}
	return false
}

// idColumnNames names the table's id columns: plain (document_id,
// sentence_id), or the left_/right_ prefixed pair joins use.
func idColumnNames(joinTable bool) []string {
	if joinTable {
		return []string{"left_document_id", "left_sentence_id", "right_document_id", "right_sentence_id"}
	}
	return []string{"document_id", "sentence_id"}
}

func idCells(r row, joinTable bool) []Cell {
	if !joinTable {
		return []Cell{idCell(r.leftDocID, r.hasLeft), idCell(r.leftSentID, r.hasLeft)}
	}
	return []Cell{
		idCell(r.leftDocID, r.hasLeft), idCell(r.leftSentID, r.hasLeft),
		idCell(r.rightDocID, r.hasRight), idCell(r.rightSentID, r.hasRight),
	}
}

func idCell(v int64, present bool) Cell {
	if !present {
		return nullCell()
	}
	return valueCell(strconv.FormatInt(v, 10))
}

func (b *builder) cellFor(r row, c ast.SelectColumn) Cell {
	switch c.Kind {
	case ast.SelectVariable:
		return b.variableCell(r, b.mainAlias, c.Variable, true)
	case ast.SelectQualifiedVariable:
		return b.variableCell(r, c.Alias, c.Variable, false)
	case ast.SelectSnippet:
		return b.snippetCell(r, c)
	case ast.SelectTitle:
		return b.docFieldCell(r, func(d docFields) (string, bool) { return d.Title, true })
	case ast.SelectTimestamp:
		return b.docFieldCell(r, func(d docFields) (string, bool) { return d.Timestamp, true })
	case ast.SelectMetadata:
		return b.metadataCell(r, c.Field)
	default:
		return nullCell()
	}
}

// variableCell resolves `?v` or `alias.?v`. preferLeftThenRight governs
// plain-query lookups, where there is no alias to disambiguate: search
// left details first, falling back to right (the joined subquery's side).
func (b *builder) variableCell(r row, alias, variable string, preferLeftThenRight bool) Cell {
	var details []exec.MatchDetail
	switch {
	case alias != "" && alias == b.joinAlias:
		details = r.rightDetails
	case alias != "" && alias == b.mainAlias:
		details = r.leftDetails
	case preferLeftThenRight:
		details = append(append([]exec.MatchDetail{}, r.leftDetails...), r.rightDetails...)
	default:
		details = r.leftDetails
	}
	for _, d := range details {
		if d.VariableName == variable {
			return valueCell(d.Value)
		}
	}
	return nullCell()
}

type docFields struct {
	Title     string
	Timestamp string
}

func (b *builder) docFieldCell(r row, pick func(docFields) (string, bool)) Cell {
	docID, ok := r.primaryDocID()
	if !ok || b.docs == nil {
		return nullCell()
	}
	doc, err := b.docs.Get(b.ctx, docID)
	if err != nil {
		log.Warn().Err(err).Uint32("document_id", docID).Msg("table: document store lookup failed")
		return nullCell()
	}
	fields := docFields{Title: doc.Title, Timestamp: doc.Timestamp.Format("2006-01-02T15:04:05Z07:00")}
	v, _ := pick(fields)
	return valueCell(v)
}

func (b *builder) metadataCell(r row, field string) Cell {
	docID, ok := r.primaryDocID()
	if !ok || b.docs == nil {
		return nullCell()
	}
	v, found, err := b.docs.Metadata(b.ctx, docID, field)
	if err != nil {
		log.Warn().Err(err).Uint32("document_id", docID).Str("field", field).Msg("table: metadata lookup failed")
		return nullCell()
	}
	if !found {
		return nullCell()
	}
	return valueCell(v)
}

func aggregateColumn(sel []ast.SelectColumn) (ast.SelectColumn, bool) {
	for _, c := range sel {
		if c.IsAggregate() {
			return c, true
		}
	}
	return ast.SelectColumn{}, false
}

func (b *builder) assembleAggregate(rows []row, col ast.SelectColumn) *Table {
	var value int
	switch col.Kind {
	case ast.SelectCountStar:
		value = len(rows)
	case ast.SelectCountUniqueVariable:
		seen := map[string]struct{}{}
		for _, r := range rows {
			if cell := b.variableCell(r, "", col.Variable, true); !cell.Null {
				seen[cell.Value] = struct{}{}
			}
		}
		value = len(seen)
	case ast.SelectCountDocuments:
		seen := map[int64]struct{}{}
		for _, r := range rows {
			if docID, ok := r.primaryDocID(); ok {
				seen[int64(docID)] = struct{}{}
			}
		}
		value = len(seen)
	}
	return &Table{
		Columns: []string{"count"},
		Rows:    [][]Cell{{valueCell(strconv.Itoa(value))}},
	}
}

// fieldByHeader returns a row's cell for a column header, used by
// ORDER BY to resolve names like "title" or a variable's Name().
func fieldByHeader(t *Table, header string) (int, bool) {
	for i, h := range t.Columns {
		if h == header || strings.EqualFold(h, header) {
			return i, true
		}
	}
	return 0, false
}
