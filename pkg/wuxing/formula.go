package wuxing

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Formula is a compiled arithmetic expression over the single variable x.
// Builtins are disabled and x is the only name in scope.
type Formula struct {
	source  string
	program *vm.Program
	err     error
}

// CompileFormula compiles src. Compilation errors are kept and reported by Eval.
func CompileFormula(src string) *Formula {
	f := &Formula{source: src}
	if src == "" {
		f.err = &FormulaEvaluationError{Formula: src, Err: fmt.Errorf("empty formula")}
		return f
	}
	program, err := expr.Compile(src,
		expr.Env(map[string]any{"x": 0.0}),
		expr.DisableAllBuiltins(),
	)
	if err != nil {
		f.err = &FormulaEvaluationError{Formula: src, Err: err}
		return f
	}
	f.program = program
	return f
}

// Source returns the expression text
func (f *Formula) Source() string {
	return f.source
}

// Eval evaluates the formula at x
func (f *Formula) Eval(x float64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	out, err := expr.Run(f.program, map[string]any{"x": x})
	if err != nil {
		return 0, &FormulaEvaluationError{Formula: f.source, Err: err}
	}

	var v float64
	switch n := out.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return 0, &FormulaEvaluationError{Formula: f.source, Err: fmt.Errorf("non-numeric result %v (%T)", out, out)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FormulaEvaluationError{Formula: f.source, Err: fmt.Errorf("result %v out of domain", v)}
	}
	return v, nil
}
