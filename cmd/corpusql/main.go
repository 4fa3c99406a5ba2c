// Command corpusql runs corpus queries from the command line: one
// positional query string, or an interactive read-eval-print loop over
// stdin when none is given. Results render as a table, or export to
// CSV/JSON/HTML with --export (spec.md §6).
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/halsted/corpusql/internal/config"
	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/export"
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/query/exec"
	"github.com/halsted/corpusql/internal/query/format"
	"github.com/halsted/corpusql/internal/query/parser"
	"github.com/halsted/corpusql/internal/query/validate"
	"github.com/halsted/corpusql/internal/table"
	"github.com/halsted/corpusql/internal/temporal"
)

func main() {
	fs := pflag.NewFlagSet("corpusql", pflag.ContinueOnError)

	explain := fs.Bool("explain", false, "print the validated query plan instead of running it")
	exportSpec := fs.String("export", "", "FORMAT:FILE, e.g. csv:out.csv, json:out.json, html:out.html")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()
	docs, err := docstore.NewPGStore(ctx, cfg.DocStoreDSN)
	if err != nil {
		logger.Error().Err(err).Msg("connect document store")
		os.Exit(2)
	}
	defer docs.Close()

	sets := newSetCache(cfg.IndexDir, docs, docs)
	defer sets.closeAll()

	args := fs.Args()
	if len(args) > 0 {
		text := strings.Join(args, " ")
		code := runOne(ctx, &logger, sets, docs, text, *explain, *exportSpec)
		os.Exit(code)
	}

	repl(ctx, &logger, sets, docs, *explain, *exportSpec)
}

// repl reads one query per line from stdin until EOF, printing a
// result table (or error) for each, mirroring the teacher's
// line-oriented CLI tools.
func repl(ctx context.Context, logger *zerolog.Logger, sets *setCache, docs docstore.DocumentStore, explain bool, exportSpec string) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if code := runOne(ctx, logger, sets, docs, line, explain, exportSpec); code != 0 {
			logger.Warn().Int("exit_code", code).Msg("query failed")
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		logger.Error().Err(err).Msg("read stdin")
		os.Exit(2)
	}
}

// runOne parses, validates, executes, and renders a single query text,
// returning the process exit code spec.md §6 assigns to its outcome:
// 0 success, 1 user error (parse/validation), 2 runtime I/O error.
func runOne(ctx context.Context, logger *zerolog.Logger, sets *setCache, docs docstore.DocumentStore, text string, explain bool, exportSpec string) int {
	traceID := uuid.NewString()
	log := logger.With().Str("trace_id", traceID).Logger()

	q, err := parser.ParseString(text)
	if err != nil {
		log.Warn().Err(err).Msg("parse query")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	result := validate.Query(q)
	if len(result.Diagnostics) > 0 {
		for _, d := range result.Diagnostics {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return 1
	}

	if explain {
		fmt.Println(format.Query(q))
		if q.Where != nil {
			fmt.Println(format.Explain(q.Where))
		}
		return 0
	}

	outcome, err := exec.ExecuteQuery(ctx, q, sets.resolve, docs, sets.ann())
	if err != nil {
		return classifyAndReport(&log, err)
	}

	t, err := table.Build(ctx, outcome, q, docs)
	if err != nil {
		return classifyAndReport(&log, err)
	}

	if exportSpec != "" {
		f, path, err := export.FormatFlag(exportSpec)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := os.Create(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("create export file")
			return 2
		}
		defer out.Close()
		if err := export.Write(out, t, f); err != nil {
			log.Error().Err(err).Msg("write export")
			return 2
		}
		return 0
	}

	printTable(t)
	return 0
}

func classifyAndReport(log *zerolog.Logger, err error) int {
	var ce *corpuserr.Error
	if asCorpusErr(err, &ce) {
		switch ce.Kind {
		case corpuserr.ParseError, corpuserr.ValidationError, corpuserr.SchemaError:
			fmt.Fprintln(os.Stderr, err)
			return 1
		default:
			log.Error().Err(err).Msg("query execution failed")
			return 2
		}
	}
	log.Error().Err(err).Msg("query execution failed")
	return 2
}

func asCorpusErr(err error, target **corpuserr.Error) bool {
	for err != nil {
		if ce, ok := err.(*corpuserr.Error); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func printTable(t *table.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			if c.Null {
				cells[i] = "NULL"
			} else {
				cells[i] = c.Value
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

// setCache opens each named index set at most once per process
// (spec.md §4.12's single-open-handle guarantee) and supplies the
// lazily-built temporal index via the self-referencing closure
// indexset.Open expects, since indexset cannot import exec directly.
type setCache struct {
	root   string
	opened map[string]*indexset.Set
	docs   docstore.DocumentStore
	annSt  docstore.AnnotationStore
}

func newSetCache(root string, docs docstore.DocumentStore, ann docstore.AnnotationStore) *setCache {
	return &setCache{root: root, opened: map[string]*indexset.Set{}, docs: docs, annSt: ann}
}

func (c *setCache) ann() docstore.AnnotationStore { return c.annSt }

func (c *setCache) resolve(name string) (*indexset.Set, error) {
	if s, ok := c.opened[name]; ok {
		return s, nil
	}
	if err := indexset.CheckLayout(c.root, name); err != nil {
		return nil, err
	}
	set, err := indexset.Open(c.root, name, true, func() (*temporal.Index, error) {
		return exec.BuildTemporalIndex(context.Background(), c.docs, c.annSt)
	})
	if err != nil {
		return nil, err
	}
	c.opened[name] = set
	return set, nil
}

func (c *setCache) closeAll() {
	for _, s := range c.opened {
		_ = s.Close()
	}
}
