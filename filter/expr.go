package filter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/cel-go/cel"

	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
)

var celEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(fmt.Sprintf("filter: cel env: %v", err))
	}
	celEnv = env
}

// Expr matches documents for which a CEL expression over `doc` evaluates to
// true, e.g. `doc.year >= 2000 && doc.genre in ['rock', 'jazz']`.
//
// Evaluation errors (missing keys, type mismatches) and non-boolean results
// count as no match.
// Expr always scans, so it is the slowest filter kind.
type Expr struct {
	source  string
	program cel.Program
}

// NewExpr compiles a CEL expression.
func NewExpr(source string) (*Expr, error) {
	ast, issues := celEnv.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", issues.Err())
	}

	prg, err := celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %w", err)
	}

	return &Expr{source: source, program: prg}, nil
}

// MustExpr is like NewExpr but panics on error.
func MustExpr(source string) *Expr {
	e, err := NewExpr(source)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the expression text.
func (e *Expr) Source() string { return e.source }

// Key implements Filter.
func (e *Expr) Key() string { return "cel(" + strconv.Quote(e.source) + ")" }

// Eval evaluates the expression against a single document.
func (e *Expr) Eval(doc metadata.Document) bool {
	out, _, err := e.program.Eval(map[string]any{
		"doc": doc.Native(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Match implements Filter.
func (e *Expr) Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	return scan(ctx, seg, e.Eval)
}
