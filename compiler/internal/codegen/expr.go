package codegen

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/asm"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

func (g *CodeGenerator) push(r asm.Register, comment string) {
	g.backend.EmitADDI(asm.SP, asm.SP, -asm.WordSize, "")
	g.backend.EmitSW(r, asm.SP, 0, comment)
}

func (g *CodeGenerator) pop(r asm.Register) {
	g.backend.EmitLW(r, asm.SP, 0, "")
	g.backend.EmitADDI(asm.SP, asm.SP, asm.WordSize, "")
}

func (g *CodeGenerator) popDiscard(words int) {
	g.backend.EmitADDI(asm.SP, asm.SP, asm.WordSize*words, "")
}

// box converts the value in a0 from type value to the representation of type target.
func (g *CodeGenerator) box(value, target types.ValueType) {
	if isUnboxed(target) {
		return
	}
	switch value {
	case types.Int:
		g.backend.EmitJAL("makeint", "box int")
	case types.Bool:
		g.backend.EmitJAL("makebool", "box bool")
	}
}

// genExprAs evaluates expr into a0 in the representation of type target.
func (g *CodeGenerator) genExprAs(expr ast.Expr, target types.ValueType) {
	if !isUnboxed(target) {
		switch e := expr.(type) {
		case *ast.IntegerLiteral:
			g.backend.EmitLA(asm.A0, g.constants.IntConstant(e.Value), "boxed int constant")
			return
		case *ast.BooleanLiteral:
			g.backend.EmitLA(asm.A0, g.constants.BoolConstant(e.Value), "boxed bool constant")
			return
		}
	}
	g.genExpr(expr)
	g.box(expr.InferredType(), target)
}

// genExpr evaluates expr into a0. Temporaries pushed on the stack are popped
// before it returns.
func (g *CodeGenerator) genExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		g.backend.EmitLI(asm.A0, e.Value, "")
	case *ast.BooleanLiteral:
		g.backend.EmitLI(asm.A0, boolWord(e.Value), "")
	case *ast.NoneLiteral:
		g.backend.EmitMV(asm.A0, asm.Zero, "None")
	case *ast.StringLiteral:
		g.backend.EmitLA(asm.A0, g.constants.StrConstant(e.Value), "")
	case *ast.Identifier:
		g.loadVariable(e.Name)
	case *ast.UnaryExpr:
		g.genExpr(e.Operand)
		if e.Operator == ast.OpNot {
			g.backend.EmitXORI(asm.A0, asm.A0, 1, "not")
		} else {
			g.backend.EmitSUB(asm.A0, asm.Zero, asm.A0, "negate")
		}
	case *ast.BinaryExpr:
		g.genBinaryExpr(e)
	case *ast.IfExpr:
		g.genIfExpr(e)
	case *ast.ListExpr:
		g.genListExpr(e)
	case *ast.IndexExpr:
		g.genIndexExpr(e)
	case *ast.MemberExpr:
		g.genExpr(e.Object)
		g.backend.EmitBEQZ(asm.A0, errorNoneLabel, "")
		layout := g.classOf(e.Object.InferredType())
		g.backend.EmitLW(asm.A0, asm.A0, layout.AttrOffset(e.Member.Name), "attribute "+e.Member.Name)
	case *ast.CallExpr:
		g.genCallExpr(e)
	case *ast.MethodCallExpr:
		g.genMethodCallExpr(e)
	default:
		panic("codegen: unknown expression kind")
	}
}

// emitFrameWalk leaves in t0 the frame pointer hops static links above the current frame.
func (g *CodeGenerator) emitFrameWalk(hops int) {
	if hops == 0 {
		g.backend.EmitMV(asm.T0, asm.FP, "")
		return
	}
	frame := g.frame
	g.backend.EmitLW(asm.T0, asm.FP, frame.StaticLinkOffset(), "static link")
	for i := 1; i < hops; i++ {
		frame = frame.Parent
		g.backend.EmitLW(asm.T0, asm.T0, frame.StaticLinkOffset(), "static link")
	}
}

func (g *CodeGenerator) loadVariable(name string) {
	v := g.frame.resolve(name)
	switch {
	case v.global:
		g.backend.EmitLWLabel(asm.A0, v.label, "global "+name)
	case v.owner == g.frame:
		g.backend.EmitLW(asm.A0, asm.FP, v.offset, "local "+name)
	default:
		g.emitFrameWalk(g.frame.Depth - v.owner.Depth)
		g.backend.EmitLW(asm.A0, asm.T0, v.offset, "nonlocal "+name)
	}
}

// storeVariable stores a0 into name.
func (g *CodeGenerator) storeVariable(name string) {
	v := g.frame.resolve(name)
	switch {
	case v.global:
		g.backend.EmitSWLabel(asm.A0, v.label, asm.T0, "global "+name)
	case v.owner == g.frame:
		g.backend.EmitSW(asm.A0, asm.FP, v.offset, "local "+name)
	default:
		g.emitFrameWalk(g.frame.Depth - v.owner.Depth)
		g.backend.EmitSW(asm.A0, asm.T0, v.offset, "nonlocal "+name)
	}
}

// genOperands evaluates left into t0 and right into a0.
func (g *CodeGenerator) genOperands(left, right ast.Expr) {
	g.genExpr(left)
	g.push(asm.A0, "left operand")
	g.genExpr(right)
	g.pop(asm.T0)
}

func (g *CodeGenerator) genBinaryExpr(expr *ast.BinaryExpr) {
	leftType, rightType := expr.Left.InferredType(), expr.Right.InferredType()
	switch expr.Operator {
	case ast.OpAnd, ast.OpOr:
		done := g.backend.FreshLabel("logic_end")
		g.genExpr(expr.Left)
		if expr.Operator == ast.OpAnd {
			g.backend.EmitBEQZ(asm.A0, done, "short-circuit and")
		} else {
			g.backend.EmitBNEZ(asm.A0, done, "short-circuit or")
		}
		g.genExpr(expr.Right)
		g.backend.EmitLocalLabel(done, "")
	case ast.OpAdd:
		switch {
		case leftType == types.Str:
			g.genRuntimeCall("strcat", expr.Left, expr.Right)
		case leftType == types.Int:
			g.genOperands(expr.Left, expr.Right)
			g.backend.EmitADD(asm.A0, asm.T0, asm.A0, "")
		default:
			g.genListConcat(expr)
		}
	case ast.OpSub:
		g.genOperands(expr.Left, expr.Right)
		g.backend.EmitSUB(asm.A0, asm.T0, asm.A0, "")
	case ast.OpMul:
		g.genOperands(expr.Left, expr.Right)
		g.backend.EmitMUL(asm.A0, asm.T0, asm.A0, "")
	case ast.OpFloorDiv, ast.OpMod:
		g.genOperands(expr.Left, expr.Right)
		g.genFloorDivMod(expr.Operator)
	case ast.OpEq, ast.OpNe:
		if leftType == types.Str && rightType == types.Str {
			routine := "streql"
			if expr.Operator == ast.OpNe {
				routine = "strneql"
			}
			g.genRuntimeCall(routine, expr.Left, expr.Right)
			return
		}
		g.genOperands(expr.Left, expr.Right)
		if expr.Operator == ast.OpEq {
			g.genComparison(func(label string) { g.backend.EmitBEQ(asm.T0, asm.A0, label, "==") })
		} else {
			g.genComparison(func(label string) { g.backend.EmitBNE(asm.T0, asm.A0, label, "!=") })
		}
	case ast.OpIs:
		g.genOperands(expr.Left, expr.Right)
		g.genComparison(func(label string) { g.backend.EmitBEQ(asm.T0, asm.A0, label, "is") })
	case ast.OpLt:
		g.genOperands(expr.Left, expr.Right)
		g.genComparison(func(label string) { g.backend.EmitBLT(asm.T0, asm.A0, label, "<") })
	case ast.OpGt:
		g.genOperands(expr.Left, expr.Right)
		g.genComparison(func(label string) { g.backend.EmitBLT(asm.A0, asm.T0, label, ">") })
	case ast.OpLe:
		g.genOperands(expr.Left, expr.Right)
		g.genComparison(func(label string) { g.backend.EmitBGE(asm.A0, asm.T0, label, "<=") })
	case ast.OpGe:
		g.genOperands(expr.Left, expr.Right)
		g.genComparison(func(label string) { g.backend.EmitBGE(asm.T0, asm.A0, label, ">=") })
	default:
		panic("codegen: unknown binary operator " + expr.Operator)
	}
}

// genComparison materializes a branch condition as 0 or 1 in a0.
func (g *CodeGenerator) genComparison(branchToTrue func(label string)) {
	isTrue := g.backend.FreshLabel("cmp_true")
	end := g.backend.FreshLabel("cmp_end")
	branchToTrue(isTrue)
	g.backend.EmitLI(asm.A0, 0, "false")
	g.backend.EmitJ(end, "")
	g.backend.EmitLocalLabel(isTrue, "")
	g.backend.EmitLI(asm.A0, 1, "true")
	g.backend.EmitLocalLabel(end, "")
}

// genFloorDivMod computes t0 // a0 or t0 % a0 with the result rounded toward
// negative infinity.
func (g *CodeGenerator) genFloorDivMod(op string) {
	b := g.backend
	done := b.FreshLabel("divmod_end")
	b.EmitBEQZ(asm.A0, errorDivLabel, "division by zero")
	if op == ast.OpFloorDiv {
		b.EmitDIV(asm.T1, asm.T0, asm.A0, "")
		b.EmitREM(asm.T2, asm.T0, asm.A0, "")
		b.EmitBEQZ(asm.T2, done, "exact")
		b.EmitXOR(asm.T2, asm.T2, asm.A0, "")
		b.EmitBGE(asm.T2, asm.Zero, done, "same signs")
		b.EmitADDI(asm.T1, asm.T1, -1, "round down")
	} else {
		b.EmitREM(asm.T1, asm.T0, asm.A0, "")
		b.EmitBEQZ(asm.T1, done, "exact")
		b.EmitXOR(asm.T2, asm.T1, asm.A0, "")
		b.EmitBGE(asm.T2, asm.Zero, done, "same signs")
		b.EmitADD(asm.T1, asm.T1, asm.A0, "take the divisor's sign")
	}
	b.EmitLocalLabel(done, "")
	b.EmitMV(asm.A0, asm.T1, "")
}

// genRuntimeCall passes args to a runtime routine on the stack.
func (g *CodeGenerator) genRuntimeCall(routine string, args ...ast.Expr) {
	for _, arg := range args {
		g.genExpr(arg)
		g.push(asm.A0, "")
	}
	g.backend.EmitJAL(routine, "")
	g.popDiscard(len(args))
}

// genListConcat calls concat with each list and the routine that boxes its
// elements into the result's element type, or 0 when none is needed.
func (g *CodeGenerator) genListConcat(expr *ast.BinaryExpr) {
	resultElement := types.ElementType(expr.InferredType())
	for _, operand := range []ast.Expr{expr.Left, expr.Right} {
		g.genExpr(operand)
		g.push(asm.A0, "list operand")
		element := types.ElementType(operand.InferredType())
		switch {
		case isUnboxed(resultElement) || !isUnboxed(element):
			g.push(asm.Zero, "no element conversion")
		case element == types.Int:
			g.backend.EmitLA(asm.T0, "makeint", "")
			g.push(asm.T0, "element conversion")
		default:
			g.backend.EmitLA(asm.T0, "makebool", "")
			g.push(asm.T0, "element conversion")
		}
	}
	g.backend.EmitJAL("concat", "")
	g.popDiscard(4)
}

func (g *CodeGenerator) genIfExpr(expr *ast.IfExpr) {
	resultType := expr.InferredType()
	elseLabel := g.backend.FreshLabel("ifexpr_else")
	end := g.backend.FreshLabel("ifexpr_end")
	g.genExpr(expr.Condition)
	g.backend.EmitBEQZ(asm.A0, elseLabel, "")
	g.genExprAs(expr.ThenExpr, resultType)
	g.backend.EmitJ(end, "")
	g.backend.EmitLocalLabel(elseLabel, "")
	g.genExprAs(expr.ElseExpr, resultType)
	g.backend.EmitLocalLabel(end, "")
}

func (g *CodeGenerator) genListExpr(expr *ast.ListExpr) {
	element := types.ElementType(expr.InferredType())
	for _, e := range expr.Elements {
		g.genExprAs(e, element)
		g.push(asm.A0, "list element")
	}
	g.backend.EmitLI(asm.A0, int32(len(expr.Elements)), "list length")
	g.push(asm.A0, "")
	g.backend.EmitJAL("conslist", "")
	g.popDiscard(len(expr.Elements) + 1)
}

// genListElementAddress leaves in a0 the address of the indexed element
// minus elementsOffset, after the None and bounds checks.
func (g *CodeGenerator) genListElementAddress(expr *ast.IndexExpr) {
	g.genOperands(expr.List, expr.Index)
	g.backend.EmitBEQZ(asm.T0, errorNoneLabel, "")
	g.backend.EmitLW(asm.T1, asm.T0, valueOffset, "list length")
	g.backend.EmitBLT(asm.A0, asm.Zero, errorOOBLabel, "")
	g.backend.EmitBGE(asm.A0, asm.T1, errorOOBLabel, "")
	g.backend.EmitSLLI(asm.A0, asm.A0, 2, "")
	g.backend.EmitADD(asm.A0, asm.A0, asm.T0, "")
}

func (g *CodeGenerator) genIndexExpr(expr *ast.IndexExpr) {
	if expr.List.InferredType() == types.Str {
		g.genRuntimeCall("strindex", expr.List, expr.Index)
		return
	}
	g.genListElementAddress(expr)
	g.backend.EmitLW(asm.A0, asm.A0, elementsOffset, "list element")
}

// classOf returns the layout for values of class type t.
func (g *CodeGenerator) classOf(t types.ValueType) *ClassLayout {
	classValue, ok := t.(types.ClassValueType)
	if !ok {
		panic("codegen: not a class type: " + t.String())
	}
	layout, ok := g.classes[classValue.Name]
	if !ok {
		panic("codegen: unknown class " + classValue.Name)
	}
	return layout
}

// pushStaticLink pushes the static link for a callee at calleeDepth.
func (g *CodeGenerator) pushStaticLink(calleeDepth int) {
	g.emitFrameWalk(g.frame.Depth - calleeDepth + 1)
	g.push(asm.T0, "static link")
}

func (g *CodeGenerator) pushArgs(params []types.ValueType, args []ast.Expr) {
	for i, arg := range args {
		g.genExprAs(arg, params[i])
		g.push(asm.A0, "argument")
	}
}

func (g *CodeGenerator) genCallExpr(expr *ast.CallExpr) {
	name := expr.Function.Name
	if callee, ok := g.frame.resolveFunc(name); ok {
		g.pushStaticLink(callee.Depth)
		g.pushArgs(g.funcType(callee).Params, expr.Args)
		g.backend.EmitJAL(callee.Label, "call "+callee.Name)
		g.popDiscard(len(expr.Args) + 1)
		return
	}
	if layout, ok := g.classes[name]; ok {
		g.genConstructorCall(layout)
		return
	}
	label, ok := builtinFuncs[name]
	if !ok {
		panic("codegen: unknown function " + name)
	}
	entry, _ := g.globals.Lookup(name)
	g.pushStaticLink(1)
	g.pushArgs(entry.(*types.FuncType).Params, expr.Args)
	g.backend.EmitJAL(label, "call "+name)
	g.popDiscard(len(expr.Args) + 1)
}

// genConstructorCall allocates an object from the class prototype and runs
// its __init__ through the dispatch table.
func (g *CodeGenerator) genConstructorCall(layout *ClassLayout) {
	g.backend.EmitLA(asm.A0, layout.PrototypeLabel(), "")
	g.backend.EmitJAL("alloc", "new "+layout.Name)
	g.push(asm.A0, "new object")
	g.pushStaticLink(1)
	g.push(asm.A0, "self")
	g.backend.EmitLW(asm.A1, asm.A0, dispatchOffset, "dispatch table")
	g.backend.EmitLW(asm.A1, asm.A1, layout.MethodOffset("__init__"), "__init__")
	g.backend.EmitJALR(asm.A1, "")
	g.popDiscard(2)
	g.pop(asm.A0)
}

func (g *CodeGenerator) genMethodCallExpr(expr *ast.MethodCallExpr) {
	method := expr.Method
	receiverType := method.Object.InferredType()
	layout := g.classOf(receiverType)
	members := g.globals.GetScope(layout.Name)
	entry, _ := members.Get(method.Member.Name)
	methodType := entry.(*types.FuncType)

	g.pushStaticLink(1)
	g.genExprAs(method.Object, methodType.Params[0])
	g.push(asm.A0, "self")
	g.pushArgs(methodType.Params[1:], expr.Args)
	g.backend.EmitLW(asm.A0, asm.SP, asm.WordSize*len(expr.Args), "self")
	g.backend.EmitBEQZ(asm.A0, errorNoneLabel, "")
	g.backend.EmitLW(asm.A1, asm.A0, dispatchOffset, "dispatch table")
	g.backend.EmitLW(asm.A1, asm.A1, layout.MethodOffset(method.Member.Name), method.Member.Name)
	g.backend.EmitJALR(asm.A1, "")
	g.popDiscard(len(expr.Args) + 2)
}
