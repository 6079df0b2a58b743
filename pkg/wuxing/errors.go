package wuxing

import (
	"fmt"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

// InvalidElementError is returned when an (expected, actual) pair has no rule in the table
type InvalidElementError struct {
	Expected types.Element
	Actual   types.Element
}

func (e *InvalidElementError) Error() string {
	return fmt.Sprintf("no interaction rule for expected %q and actual %q", e.Expected, e.Actual)
}

// FormulaEvaluationError wraps any failure to compile or evaluate a rule formula.
// The scorer recovers from it with a coefficient of 1.0.
type FormulaEvaluationError struct {
	Formula string
	Err     error
}

func (e *FormulaEvaluationError) Error() string {
	return fmt.Sprintf("evaluate formula %q: %v", e.Formula, e.Err)
}

func (e *FormulaEvaluationError) Unwrap() error { return e.Err }
