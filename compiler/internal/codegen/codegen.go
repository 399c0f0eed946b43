// Package codegen lowers a type-checked program to RISC-V assembly for a
// stack-frame and static-link machine model.
package codegen

import (
	"fmt"

	"github.com/xiaobogaga/chocopy/compiler/internal/asm"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// Runtime routines linked with the generated code. Routines taking
// arguments expect them pushed left to right and leave their result in a0.
var runtimeLabels = []string{
	"heap.init", "alloc", "abort",
	"$print", "$len", "$input", "$object.__init__",
	"conslist", "concat", "strcat", "streql", "strneql", "strindex",
}

// builtinFuncs maps the predefined functions to their runtime labels.
var builtinFuncs = map[string]string{
	"print": "$print",
	"len":   "$len",
	"input": "$input",
}

// CodeGenerator emits the code of one program. It only reads the scope
// tables and the inferred types written by the type checker.
type CodeGenerator struct {
	backend    *asm.Backend
	constants  *asm.ConstantPool
	globals    *types.Scope
	frames     *FrameTable
	classOrder []*ClassLayout
	classes    map[string]*ClassLayout
	funcTypes  map[*FrameLayout]*types.FuncType

	// State of the frame being emitted.
	frame      *FrameLayout
	epilogue   string
	returnType types.ValueType
}

func NewCodeGenerator(backend *asm.Backend, globals *types.Scope) *CodeGenerator {
	return &CodeGenerator{
		backend:   backend,
		constants: asm.NewConstantPool(),
		globals:   globals,
		funcTypes: map[*FrameLayout]*types.FuncType{},
	}
}

// Generate emits program and returns the assembly text. program must have
// passed analysis without errors.
func Generate(program *ast.Program, globals *types.Scope, emitComments bool) (string, error) {
	return NewCodeGenerator(asm.NewBackend(emitComments), globals).Generate(program)
}

func (g *CodeGenerator) Generate(program *ast.Program) (string, error) {
	g.frames = BuildFrames(program)
	g.classOrder, g.classes = buildClassLayouts(program, g.globals, g.frames)
	g.backend.DeclareExternal(runtimeLabels...)

	g.backend.StartCode()
	g.emitMain(program)
	for _, frame := range g.frames.Order {
		g.emitFunction(frame)
	}
	g.emitRuntimeHelpers()

	g.backend.StartData()
	g.emitPrototypes()
	g.emitDispatchTables()
	g.emitGlobals(program)
	g.constants.Emit(g.backend, asm.ObjectHeaders{
		IntTag:       intTag,
		BoolTag:      boolTag,
		StrTag:       strTag,
		IntDispatch:  g.classes["int"].DispatchTableLabel(),
		BoolDispatch: g.classes["bool"].DispatchTableLabel(),
		StrDispatch:  g.classes["str"].DispatchTableLabel(),
	})
	return g.backend.Finish()
}

func (g *CodeGenerator) emitMain(program *ast.Program) {
	main := g.frames.Main
	g.frame, g.returnType, g.epilogue = main, types.None, ""
	g.backend.EmitGlobalLabel("main")
	g.backend.EmitJAL("heap.init", "initialize heap")
	size := main.Size()
	g.backend.EmitADDI(asm.SP, asm.SP, -size, "reserve top-level frame")
	g.backend.EmitSW(asm.Zero, asm.SP, size-4, "no return address")
	g.backend.EmitSW(asm.Zero, asm.SP, size-8, "no control link")
	g.backend.EmitADDI(asm.FP, asm.SP, size, "new fp is at old sp")
	g.genStatements(program.Statements)
	g.backend.EmitLI(asm.A0, 10, "code for exit")
	g.backend.EmitECALL("exit")
}

func (g *CodeGenerator) emitFunction(frame *FrameLayout) {
	funcType := g.funcType(frame)
	g.frame, g.returnType = frame, funcType.Return
	g.epilogue = frame.Label + "$epilogue"
	g.backend.EmitComment(fmt.Sprintf("function %s, depth %d", frame.Name, frame.Depth))
	g.backend.EmitGlobalLabel(frame.Label)
	size := frame.Size()
	g.backend.EmitADDI(asm.SP, asm.SP, -size, "reserve frame")
	g.backend.EmitSW(asm.RA, asm.SP, size-4, "save return address")
	g.backend.EmitSW(asm.FP, asm.SP, size-8, "save control link")
	g.backend.EmitADDI(asm.FP, asm.SP, size, "new fp is at old sp")
	for _, decl := range frame.Def.Declarations {
		varDef, ok := decl.(*ast.VarDef)
		if !ok {
			continue
		}
		name := varDef.Var.Name.Name
		declared, _ := funcType.Scope.Lookup(name)
		offset, _ := frame.Offset(name)
		g.genExprAs(varDef.Value, declared.(types.ValueType))
		g.backend.EmitSW(asm.A0, asm.FP, offset, "init local "+name)
	}
	g.genStatements(frame.Def.Statements)
	g.backend.EmitMV(asm.A0, asm.Zero, "implicit return None")
	g.backend.EmitLocalLabel(g.epilogue, "epilogue")
	g.backend.EmitLW(asm.RA, asm.FP, -4, "restore return address")
	g.backend.EmitMV(asm.SP, asm.FP, "pop frame")
	g.backend.EmitLW(asm.FP, asm.SP, -8, "restore control link")
	g.backend.EmitJR(asm.RA, "return to caller")
}

// funcType finds the function entry that the resolver built for frame.
func (g *CodeGenerator) funcType(frame *FrameLayout) *types.FuncType {
	if funcType, ok := g.funcTypes[frame]; ok {
		return funcType
	}
	var scope *types.Scope
	switch {
	case frame.Class != "":
		scope = g.globals.GetScope(frame.Class)
	case frame.Parent == g.frames.Main:
		scope = g.globals
	default:
		scope = g.funcType(frame.Parent).Scope
	}
	entry, _ := scope.Lookup(frame.Def.Name.Name)
	funcType := entry.(*types.FuncType)
	g.funcTypes[frame] = funcType
	return funcType
}

func (g *CodeGenerator) emitPrototypes() {
	for _, layout := range g.classOrder {
		g.backend.EmitAlign(2)
		g.backend.EmitGlobalLabel(layout.PrototypeLabel())
		g.backend.EmitWordLiteral(layout.Tag, "type tag for class "+layout.Name)
		switch layout.Name {
		case "int", "bool":
			g.backend.EmitWordLiteral(asm.HeaderWords+1, "object size")
			g.backend.EmitWordAddress(layout.DispatchTableLabel(), "pointer to dispatch table")
			g.backend.EmitWordLiteral(0, "value")
			continue
		case "str":
			g.backend.EmitWordLiteral(int32(asm.StrSizeWords(0)), "object size")
			g.backend.EmitWordAddress(layout.DispatchTableLabel(), "pointer to dispatch table")
			g.backend.EmitWordLiteral(0, "string length")
			g.backend.EmitWordLiteral(0, "empty string")
			continue
		}
		g.backend.EmitWordLiteral(int32(asm.HeaderWords+len(layout.attrs)), "object size")
		g.backend.EmitWordAddress(layout.DispatchTableLabel(), "pointer to dispatch table")
		for _, attr := range layout.attrs {
			g.emitLiteralWord(attr.value, attr.typ, "attribute "+attr.name)
		}
	}
	g.backend.EmitAlign(2)
	g.backend.EmitGlobalLabel(listPrototype)
	g.backend.EmitWordLiteral(listTag, "type tag for lists")
	g.backend.EmitWordLiteral(asm.HeaderWords+1, "object size")
	g.backend.EmitWordLiteral(0, "lists have no dispatch table")
	g.backend.EmitWordLiteral(0, "list length")
}

func (g *CodeGenerator) emitDispatchTables() {
	for _, layout := range g.classOrder {
		g.backend.EmitGlobalLabel(layout.DispatchTableLabel())
		for _, label := range layout.MethodLabels() {
			g.backend.EmitWordAddress(label, "")
		}
	}
}

func (g *CodeGenerator) emitGlobals(program *ast.Program) {
	for _, decl := range program.Declarations {
		varDef, ok := decl.(*ast.VarDef)
		if !ok {
			continue
		}
		name := varDef.Var.Name.Name
		declared, _ := g.globals.Lookup(name)
		g.backend.EmitGlobalLabel(globalLabel(name))
		g.emitLiteralWord(varDef.Value, declared.(types.ValueType), "global "+name)
	}
}

// emitLiteralWord writes the initial value of a variable or attribute of type target.
func (g *CodeGenerator) emitLiteralWord(literal ast.Literal, target types.ValueType, comment string) {
	boxed := !isUnboxed(target)
	switch lit := literal.(type) {
	case *ast.IntegerLiteral:
		if boxed {
			g.backend.EmitWordAddress(g.constants.IntConstant(lit.Value), comment)
			return
		}
		g.backend.EmitWordLiteral(lit.Value, comment)
	case *ast.BooleanLiteral:
		if boxed {
			g.backend.EmitWordAddress(g.constants.BoolConstant(lit.Value), comment)
			return
		}
		g.backend.EmitWordLiteral(boolWord(lit.Value), comment)
	case *ast.StringLiteral:
		g.backend.EmitWordAddress(g.constants.StrConstant(lit.Value), comment)
	case *ast.NoneLiteral:
		g.backend.EmitWordLiteral(0, comment)
	default:
		panic("codegen: unknown literal kind")
	}
}

func boolWord(value bool) int32 {
	if value {
		return 1
	}
	return 0
}

// isUnboxed reports whether values of type t live in registers as raw words.
func isUnboxed(t types.ValueType) bool {
	return t == types.Int || t == types.Bool
}
