// Package export renders a table.Table to CSV, JSON, or HTML, to
// satisfy the query CLI's `--export FORMAT:FILE` flag (spec.md §6).
// spec.md §1 names file-format export as an out-of-scope external
// collaborator, so this package stays intentionally thin and
// stdlib-only.
package export

import (
	"encoding/csv"
	"encoding/json"
	"html/template"
	"io"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/table"
)

// Format names one of the CLI's supported export targets.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	HTML Format = "html"
)

// ParseFormat validates a `FORMAT:FILE` flag's format half.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case CSV, JSON, HTML:
		return Format(s), nil
	default:
		return "", corpuserr.New(corpuserr.ValidationError, "unknown export format %q (want csv, json, or html)", s)
	}
}

// Write renders t in the given format to w.
func Write(w io.Writer, t *table.Table, format Format) error {
	switch format {
	case CSV:
		return writeCSV(w, t)
	case JSON:
		return writeJSON(w, t)
	case HTML:
		return writeHTML(w, t)
	default:
		return corpuserr.New(corpuserr.ValidationError, "unknown export format %q", format)
	}
}

func writeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "write csv header")
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, c := range row {
			if !c.Null {
				record[i] = c.Value
			}
		}
		if err := cw.Write(record); err != nil {
			return corpuserr.Wrap(corpuserr.StorageError, err, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "flush csv")
	}
	return nil
}

// jsonRow is a table row keyed by column name, with NULL cells
// represented as a JSON null rather than an empty string.
type jsonRow map[string]*string

func writeJSON(w io.Writer, t *table.Table) error {
	rows := make([]jsonRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := make(jsonRow, len(t.Columns))
		for i, col := range t.Columns {
			if i >= len(row) || row[i].Null {
				r[col] = nil
				continue
			}
			v := row[i].Value
			r[col] = &v
		}
		rows = append(rows, r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "encode json export")
	}
	return nil
}

const htmlTemplateSrc = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Query Result</title></head>
<body>
<table border="1" cellpadding="4" cellspacing="0">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{if .Null}}{{else}}{{.Value}}{{end}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("result").Parse(htmlTemplateSrc))

func writeHTML(w io.Writer, t *table.Table) error {
	if err := htmlTemplate.Execute(w, t); err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "render html export")
	}
	return nil
}

// FormatFlag parses a CLI `--export FORMAT:FILE` value into its
// format and destination path.
func FormatFlag(spec string) (Format, string, error) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			f, err := ParseFormat(spec[:i])
			if err != nil {
				return "", "", err
			}
			if i+1 >= len(spec) {
				return "", "", corpuserr.New(corpuserr.ValidationError, "export flag %q missing a destination file", spec)
			}
			return f, spec[i+1:], nil
		}
	}
	return "", "", corpuserr.New(corpuserr.ValidationError, "export flag %q must be FORMAT:FILE", spec)
}
