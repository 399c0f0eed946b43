// Package pipeline runs the compiler stages in order: parse, declaration
// analysis, type checking and code generation.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/xiaobogaga/chocopy/compiler/internal/analysis"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/codegen"
	"github.com/xiaobogaga/chocopy/compiler/internal/config"
	"github.com/xiaobogaga/chocopy/compiler/internal/parser"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// Result is what the stages that ran produced. Asm is empty unless code
// generation ran.
type Result struct {
	Program *ast.Program
	Globals *types.Scope
	Errors  *analysis.Errors
	Asm     string
}

// Failed reports whether analysis found errors.
func (result *Result) Failed() bool {
	return result.Errors != nil && result.Errors.HasErrors()
}

type Compiler struct {
	Config *config.Config
	Logger *log.Logger
}

// NewCompiler returns a compiler for cfg that logs to w when cfg.Verbose is set.
func NewCompiler(cfg *config.Config, w io.Writer) *Compiler {
	if !cfg.Verbose {
		w = io.Discard
	}
	return &Compiler{Config: cfg, Logger: log.New(w, "chocopyc: ", 0)}
}

// CompileFile reads the source at path and compiles it.
func (compiler *Compiler) CompileFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}
	compiler.Logger.Printf("compiling %s", path)
	return compiler.Compile(string(data))
}

// Compile runs the configured stages over src. Syntax and backend failures
// are returned as errors; semantic errors are collected in the result and
// stop the stages after the one that found them.
func (compiler *Compiler) Compile(src string) (*Result, error) {
	compiler.Logger.Println("start parser")
	program, err := parser.ParseString(src)
	if err != nil {
		return nil, err
	}
	result := &Result{Program: program, Errors: &analysis.Errors{}}
	if !compiler.Config.Runs(config.StageCheck) {
		return result, nil
	}

	compiler.Logger.Println("start semantic analysis")
	checked := analysis.Analyze(program)
	result.Globals, result.Errors = checked.Globals, checked.Errors
	if result.Failed() {
		stage := "type checker"
		if !checked.TypeChecked {
			stage = "declaration analysis"
		}
		compiler.Logger.Printf("%s found %d errors", stage, result.Errors.Len())
		return result, nil
	}
	if !compiler.Config.Runs(config.StageCodegen) {
		return result, nil
	}

	compiler.Logger.Println("start generate codes")
	result.Asm, err = codegen.Generate(program, result.Globals, compiler.Config.EmitComments)
	if err != nil {
		return nil, fmt.Errorf("code generation: %w", err)
	}
	return result, nil
}
