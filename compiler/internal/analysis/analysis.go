package analysis

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// Result is the outcome of semantic analysis.
type Result struct {
	Globals *types.Scope
	Errors  *Errors
	// TypeChecked is false when declaration errors stopped analysis before
	// type checking.
	TypeChecked bool
}

// Analyze resolves declarations and, when that produced no errors, type
// checks program.
func Analyze(program *ast.Program) *Result {
	errors := &Errors{}
	globals := NewDeclarationAnalyzer(errors).Analyze(program)
	result := &Result{Globals: globals, Errors: errors}
	if errors.HasErrors() {
		return result
	}
	NewTypeChecker(globals, errors).Check(program)
	result.TypeChecked = true
	return result
}
