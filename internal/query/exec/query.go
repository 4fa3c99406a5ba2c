package exec

import (
	"context"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/query/ast"
)

// SetResolver opens (or returns an already-open) index set by name,
// used to bind each Query/subquery's `FROM` clause to a concrete
// index-set handle (spec.md §4.10 step "open index-set handles").
type SetResolver func(name string) (*indexset.Set, error)

func effectiveGranularity(g ast.Granularity) ast.Granularity {
	if g == ast.GranularityUnspecified {
		return ast.GranularityDocument
	}
	return g
}

// ExecuteQuery runs the pipeline of spec.md §4.10: resolve the index
// set, evaluate conditions (falling back to the document/sentence
// universe when WHERE is absent), recursively execute every JOIN
// subquery, and apply the temporal join if one is present.
func ExecuteQuery(ctx context.Context, q *ast.Query, resolve SetResolver, docs docstore.DocumentStore, ann docstore.AnnotationStore) (*Outcome, error) {
	set, err := resolve(q.From)
	if err != nil {
		return nil, err
	}
	gran := effectiveGranularity(q.Granularity)
	c := &Context{Ctx: ctx, Set: set, Docs: docs, Ann: ann, Granularity: gran}

	mainResult, err := evalWhereOrUniverse(c, q.Where)
	if err != nil {
		return nil, err
	}

	if len(q.Joins) == 0 {
		return &Outcome{Granularity: gran, Matches: mainResult.Matches}, nil
	}

	// JOINs apply in order: each JOIN before the last narrows the left
	// side to the left matches it paired, and only the last JOIN's
	// pairs become the joined outcome.
	outcome := &Outcome{Granularity: gran, IsJoin: true}
	left := mainResult
	for i, j := range q.Joins {
		subResult, subGran, err := executeSubquery(ctx, j.Sub, resolve, docs, ann)
		if err != nil {
			return nil, err
		}
		jt := j.Type
		if j.On == nil {
			return nil, corpuserr.New(corpuserr.ValidationError, "join %q has no ON clause", j.Alias)
		}
		pairs := applyJoin(left, subResult, jt, j.On)
		if i == len(q.Joins)-1 {
			outcome.Joined = pairs
			outcome.Granularity = finerGranularity(gran, subGran)
			return outcome, nil
		}
		// Narrow the left side to matches that survived this join
		// before applying the next one.
		left = &QueryResult{Granularity: gran, Matches: leftMatchesOf(pairs)}
	}
	return outcome, nil
}

func leftMatchesOf(pairs []JoinedMatch) []Match {
	var out []Match
	for _, p := range pairs {
		if p.HasLeft {
			out = append(out, p.Left)
		}
	}
	return out
}

// finerGranularity returns the finer (more specific) of two
// granularities, per spec.md §4.10: "Granularity of the joined result
// is the finer of the two queries' granularities."
func finerGranularity(a, b ast.Granularity) ast.Granularity {
	if a == ast.GranularitySentence || b == ast.GranularitySentence {
		return ast.GranularitySentence
	}
	return ast.GranularityDocument
}

func executeSubquery(ctx context.Context, sub *ast.Query, resolve SetResolver, docs docstore.DocumentStore, ann docstore.AnnotationStore) (*QueryResult, ast.Granularity, error) {
	set, err := resolve(sub.From)
	if err != nil {
		return nil, 0, err
	}
	gran := effectiveGranularity(sub.Granularity)
	c := &Context{Ctx: ctx, Set: set, Docs: docs, Ann: ann, Granularity: gran}
	res, err := evalWhereOrUniverse(c, sub.Where)
	if err != nil {
		return nil, 0, err
	}
	return res, gran, nil
}

func evalWhereOrUniverse(c *Context, where ast.Condition) (*QueryResult, error) {
	if where == nil {
		universe, err := universeMatches(c)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Granularity: c.Granularity, Matches: universe}, nil
	}
	return Eval(c, where)
}
