package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/halsted/corpusql/internal/table"
)

func sampleTable() *table.Table {
	return &table.Table{
		Columns: []string{"document_id", "?a"},
		Rows: [][]table.Cell{
			{{Value: "1"}, {Value: "fox"}},
			{{Value: "2"}, {Null: true}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTable(), CSV); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "document_id,?a") {
		t.Fatalf("want a header row, got %q", out)
	}
	if !strings.Contains(out, "1,fox") {
		t.Fatalf("want a data row, got %q", out)
	}
}

func TestWriteJSONNullsAreJSONNull(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTable(), JSON); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]*string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[1]["?a"] != nil {
		t.Fatalf("want a JSON null for the missing cell, got %v", rows[1]["?a"])
	}
	if rows[0]["?a"] == nil || *rows[0]["?a"] != "fox" {
		t.Fatalf("want ?a=fox, got %v", rows[0]["?a"])
	}
}

func TestWriteHTMLContainsTableMarkup(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleTable(), HTML); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<table") || !strings.Contains(out, "<th>document_id</th>") {
		t.Fatalf("want table markup with column headers, got %q", out)
	}
}

func TestFormatFlagParsesFormatAndPath(t *testing.T) {
	f, path, err := FormatFlag("csv:out/results.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != CSV || path != "out/results.csv" {
		t.Fatalf("want csv:out/results.csv, got %s:%s", f, path)
	}
}

func TestFormatFlagRejectsUnknownFormat(t *testing.T) {
	if _, _, err := FormatFlag("yaml:out.yaml"); err == nil {
		t.Fatalf("expected an error for an unsupported format")
	}
}

func TestFormatFlagRejectsMissingColon(t *testing.T) {
	if _, _, err := FormatFlag("csv"); err == nil {
		t.Fatalf("expected an error for a malformed export flag")
	}
}
