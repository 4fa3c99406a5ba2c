package table

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/exec"
	"github.com/halsted/corpusql/pkg/models"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

type fakeDocStore struct {
	docs map[uint32]models.Document
	meta map[uint32]map[string]string
}

func (f *fakeDocStore) Get(ctx context.Context, id uint32) (models.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return models.Document{}, os.ErrNotExist
	}
	return d, nil
}

func (f *fakeDocStore) Metadata(ctx context.Context, id uint32, field string) (string, bool, error) {
	m, ok := f.meta[id]
	if !ok {
		return "", false, nil
	}
	v, ok := m[field]
	return v, ok, nil
}

func (f *fakeDocStore) ListIDs(ctx context.Context) ([]uint32, error) { return nil, nil }

func TestBuildPlainTableBindsVariables(t *testing.T) {
	outcome := &exec.Outcome{
		Granularity: ast.GranularityDocument,
		Matches: []exec.Match{
			{DocumentID: 1, SentenceID: position.DocumentSentinel, Details: []exec.MatchDetail{
				{VariableName: "a", Value: "fox"},
			}},
			{DocumentID: 2, SentenceID: position.DocumentSentinel, Details: []exec.MatchDetail{
				{VariableName: "a", Value: "dog"},
			}},
		},
	}
	q := &ast.Query{
		From:   "main",
		Select: []ast.SelectColumn{{Kind: ast.SelectVariable, Variable: "a"}},
	}
	tbl, err := Build(context.Background(), outcome, q, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Columns[0] != "document_id" || tbl.Columns[1] != "sentence_id" {
		t.Fatalf("want plain id columns, got %v", tbl.Columns)
	}
	valCol := len(tbl.Columns) - 1
	if tbl.Rows[0][valCol].Value != "fox" || tbl.Rows[1][valCol].Value != "dog" {
		t.Fatalf("unexpected bound values: %+v", tbl.Rows)
	}
}

func TestBuildCountStarCollapsesToOneRow(t *testing.T) {
	outcome := &exec.Outcome{
		Matches: []exec.Match{{DocumentID: 1}, {DocumentID: 2}, {DocumentID: 3}},
	}
	q := &ast.Query{
		From:   "main",
		Select: []ast.SelectColumn{{Kind: ast.SelectCountStar}},
	}
	tbl, err := Build(context.Background(), outcome, q, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("want 1 summary row, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0][0].Value != "3" {
		t.Fatalf("want count=3, got %s", tbl.Rows[0][0].Value)
	}
}

func TestBuildTitleAndMetadataFromDocStore(t *testing.T) {
	docs := &fakeDocStore{
		docs: map[uint32]models.Document{
			1: {ID: 1, Title: "A Tale", Timestamp: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
		meta: map[uint32]map[string]string{1: {"author": "someone"}},
	}
	outcome := &exec.Outcome{Matches: []exec.Match{{DocumentID: 1, SentenceID: position.DocumentSentinel}}}
	q := &ast.Query{
		From: "main",
		Select: []ast.SelectColumn{
			{Kind: ast.SelectTitle},
			{Kind: ast.SelectMetadata, Field: "author"},
		},
	}
	tbl, err := Build(context.Background(), outcome, q, docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := tbl.Rows[0]
	if row[2].Value != "A Tale" {
		t.Fatalf("want title cell, got %+v", row[2])
	}
	if row[3].Value != "someone" {
		t.Fatalf("want metadata cell, got %+v", row[3])
	}
}

func TestBuildMissingDocStoreRowNeverFails(t *testing.T) {
	outcome := &exec.Outcome{Matches: []exec.Match{{DocumentID: 99, SentenceID: position.DocumentSentinel}}}
	q := &ast.Query{From: "main", Select: []ast.SelectColumn{{Kind: ast.SelectTitle}}}
	docs := &fakeDocStore{docs: map[uint32]models.Document{}}
	tbl, err := Build(context.Background(), outcome, q, docs)
	if err != nil {
		t.Fatalf("missing doc must not fail the row: %v", err)
	}
	if !tbl.Rows[0][2].Null {
		t.Fatalf("want NULL title cell for missing document, got %+v", tbl.Rows[0][2])
	}
}

func TestBuildJoinTableUsesLeftRightPrefixedIDs(t *testing.T) {
	outcome := &exec.Outcome{
		IsJoin: true,
		Joined: []exec.JoinedMatch{
			{
				Left: exec.Match{DocumentID: 1, SentenceID: position.DocumentSentinel, Details: []exec.MatchDetail{
					{VariableName: "p", Value: "2020-01-01"},
				}},
				HasLeft: true,
				Right: exec.Match{DocumentID: 5, SentenceID: position.DocumentSentinel, Details: []exec.MatchDetail{
					{VariableName: "d", Value: "2020-01-10"},
				}},
				HasRight: true,
			},
		},
	}
	q := &ast.Query{
		From:      "main",
		FromAlias: "m",
		Select: []ast.SelectColumn{
			{Kind: ast.SelectVariable, Variable: "p"},
			{Kind: ast.SelectQualifiedVariable, Alias: "j", Variable: "d"},
		},
		Joins: []*ast.Join{{Alias: "j"}},
	}
	tbl, err := Build(context.Background(), outcome, q, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Columns[0] != "left_document_id" || tbl.Columns[2] != "right_document_id" {
		t.Fatalf("want left_/right_ id columns, got %v", tbl.Columns)
	}
	row := tbl.Rows[0]
	if row[4].Value != "2020-01-01" {
		t.Fatalf("want left-bound ?p, got %+v", row[4])
	}
	if row[5].Value != "2020-01-10" {
		t.Fatalf("want right-bound j.?d, got %+v", row[5])
	}
}

func TestSnippetWordBoundaryTrim(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog."
	got := wordBoundarySnippet(text, 16, 19, 2)
	if got == "" {
		t.Fatalf("expected a non-empty snippet")
	}
	if got[:3] != "..." {
		t.Fatalf("want leading ellipsis, got %q", got)
	}
}

func TestOrderByDescendingWithNullsLast(t *testing.T) {
	tbl := &Table{
		Columns: []string{"document_id", "?v"},
		Rows: [][]Cell{
			{valueCell("1"), valueCell("b")},
			{valueCell("2"), nullCell()},
			{valueCell("3"), valueCell("a")},
		},
	}
	applyOrderAndLimit(tbl, []ast.OrderTerm{{Column: "?v", Descending: true}}, nil)
	if tbl.Rows[0][1].Value != "b" || tbl.Rows[1][1].Value != "a" {
		t.Fatalf("want descending b,a before NULL, got %+v", tbl.Rows)
	}
	if !tbl.Rows[2][1].Null {
		t.Fatalf("want NULL last regardless of descending order, got %+v", tbl.Rows[2])
	}
}

func TestLimitAppliesAfterOrder(t *testing.T) {
	tbl := &Table{
		Columns: []string{"document_id"},
		Rows: [][]Cell{
			{valueCell("3")}, {valueCell("1")}, {valueCell("2")},
		},
	}
	limit := 2
	applyOrderAndLimit(tbl, []ast.OrderTerm{{Column: "document_id"}}, &limit)
	if len(tbl.Rows) != 2 {
		t.Fatalf("want 2 rows after limit, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0][0].Value != "1" || tbl.Rows[1][0].Value != "2" {
		t.Fatalf("want smallest 2 after ordering, got %+v", tbl.Rows)
	}
}
