package codegen

import "github.com/xiaobogaga/chocopy/compiler/internal/asm"

// Exit codes passed to abort.
const (
	errorDivZero = 2
	errorOOB     = 3
	errorNone    = 4
)

const (
	errorNoneLabel = "error.None"
	errorDivLabel  = "error.Div"
	errorOOBLabel  = "error.OOB"
)

// emitRuntimeHelpers writes the boxing routines and the error handlers the
// generated code branches to.
func (g *CodeGenerator) emitRuntimeHelpers() {
	b := g.backend

	// makeint boxes the int in a0.
	b.EmitGlobalLabel("makeint")
	b.EmitADDI(asm.SP, asm.SP, -8, "")
	b.EmitSW(asm.RA, asm.SP, 4, "")
	b.EmitSW(asm.A0, asm.SP, 0, "")
	b.EmitLA(asm.A0, g.classes["int"].PrototypeLabel(), "")
	b.EmitJAL("alloc", "")
	b.EmitLW(asm.T0, asm.SP, 0, "")
	b.EmitSW(asm.T0, asm.A0, valueOffset, "")
	b.EmitLW(asm.RA, asm.SP, 4, "")
	b.EmitADDI(asm.SP, asm.SP, 8, "")
	b.EmitJR(asm.RA, "")

	// makebool returns the False or True constant for the bool in a0. The two
	// constants are adjacent, four words each.
	b.EmitGlobalLabel("makebool")
	b.EmitSLLI(asm.A0, asm.A0, 4, "")
	b.EmitLA(asm.T0, g.constants.BoolConstant(false), "")
	b.EmitADD(asm.A0, asm.A0, asm.T0, "")
	b.EmitJR(asm.RA, "")

	g.emitErrorHandler(errorNoneLabel, errorNone, "Operation on None")
	g.emitErrorHandler(errorDivLabel, errorDivZero, "Division by zero")
	g.emitErrorHandler(errorOOBLabel, errorOOB, "Index out of bounds")
}

func (g *CodeGenerator) emitErrorHandler(label string, code int32, message string) {
	g.backend.EmitGlobalLabel(label)
	g.backend.EmitLI(asm.A0, code, "exit code")
	g.backend.EmitLA(asm.A1, g.constants.StrConstant(message), "error message")
	g.backend.EmitJ("abort", "")
}
