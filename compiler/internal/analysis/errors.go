// Package analysis implements ChocoPy semantic analysis: declaration
// resolution into scope tables, followed by type checking.
package analysis

import (
	"fmt"
	"sort"

	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
)

// SemanticError is a declaration, reference or type error reported at Node.
// The message is Format applied to Args.
type SemanticError struct {
	Node   ast.Node
	Format string
	Args   []interface{}
}

func (err *SemanticError) Pos() ast.Location {
	return err.Node.Pos()
}

func (err *SemanticError) Message() string {
	return fmt.Sprintf(err.Format, err.Args...)
}

func (err *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s", err.Pos(), err.Message())
}

// Errors collects semantic errors. Analysis continues after each one.
type Errors struct {
	errors []*SemanticError
}

// SemError records an error positioned at node.
func (errs *Errors) SemError(node ast.Node, format string, args ...interface{}) {
	errs.errors = append(errs.errors, &SemanticError{Node: node, Format: format, Args: args})
}

func (errs *Errors) HasErrors() bool {
	return len(errs.errors) > 0
}

func (errs *Errors) Len() int {
	return len(errs.errors)
}

// Sorted returns the errors ordered by source position. Errors at the same
// position keep the order they were reported in.
func (errs *Errors) Sorted() []*SemanticError {
	ret := make([]*SemanticError, len(errs.errors))
	copy(ret, errs.errors)
	sort.SliceStable(ret, func(i, j int) bool {
		pi, pj := ret[i].Pos(), ret[j].Pos()
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Col < pj.Col
	})
	return ret
}

// Messages returns the sorted error messages without positions.
func (errs *Errors) Messages() []string {
	var ret []string
	for _, err := range errs.Sorted() {
		ret = append(ret, err.Message())
	}
	return ret
}
