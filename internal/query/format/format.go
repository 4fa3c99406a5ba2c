// Package format renders a parsed Query back to text, and produces the
// indented condition tree the CLI's --explain flag prints.
package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/halsted/corpusql/internal/query/ast"
)

// Options controls rendering.
type Options struct {
	Indent string
}

// DefaultOptions match the teacher's formatter defaults.
var DefaultOptions = Options{Indent: "  "}

// Query renders q back to its canonical single-line text form.
func Query(q *ast.Query) string { return q.String() }

// Explain renders cond as an indented tree, one node per line, for the
// query CLI's --explain diagnostic output.
func Explain(cond ast.Condition) string {
	f := &explainer{opts: DefaultOptions}
	f.write(cond, 0)
	return f.buf.String()
}

type explainer struct {
	buf  bytes.Buffer
	opts Options
}

func (f *explainer) indent(depth int) string {
	return strings.Repeat(f.opts.Indent, depth)
}

func (f *explainer) write(cond ast.Condition, depth int) {
	if cond == nil {
		return
	}
	switch n := cond.(type) {
	case ast.AndCond:
		fmt.Fprintf(&f.buf, "%sAND\n", f.indent(depth))
		for _, o := range n.Operands {
			f.write(o, depth+1)
		}
	case ast.OrCond:
		fmt.Fprintf(&f.buf, "%sOR\n", f.indent(depth))
		for _, o := range n.Operands {
			f.write(o, depth+1)
		}
	case ast.NotCond:
		fmt.Fprintf(&f.buf, "%sNOT\n", f.indent(depth))
		f.write(n.Inner, depth+1)
	default:
		fmt.Fprintf(&f.buf, "%s%s\n", f.indent(depth), cond.String())
	}
}
