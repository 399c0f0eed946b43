package codegen

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/asm"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

func (g *CodeGenerator) genStatements(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		g.genStatement(stmt)
	}
}

func (g *CodeGenerator) genStatement(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		g.genExpr(s.Expr)
	case *ast.AssignStmt:
		g.genAssignStmt(s)
	case *ast.IfStmt:
		g.genIfStmt(s)
	case *ast.WhileStmt:
		g.genWhileStmt(s)
	case *ast.ForStmt:
		g.genForStmt(s)
	case *ast.ReturnStmt:
		g.genReturnStmt(s)
	default:
		panic("codegen: unknown statement kind")
	}
}

// genAssignStmt evaluates the value once and stores it into every target,
// boxing it for targets of type object.
func (g *CodeGenerator) genAssignStmt(stmt *ast.AssignStmt) {
	valueType := stmt.Value.InferredType()
	g.genExpr(stmt.Value)
	if len(stmt.Targets) == 1 {
		g.box(valueType, stmt.Targets[0].InferredType())
		g.genStore(stmt.Targets[0])
		return
	}
	g.push(asm.A0, "keep assigned value")
	for _, target := range stmt.Targets {
		g.backend.EmitLW(asm.A0, asm.SP, 0, "assigned value")
		g.box(valueType, target.InferredType())
		g.genStore(target)
	}
	g.popDiscard(1)
}

// genStore stores a0 into target.
func (g *CodeGenerator) genStore(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Identifier:
		g.storeVariable(t.Name)
	case *ast.MemberExpr:
		g.push(asm.A0, "value to store")
		g.genExpr(t.Object)
		g.backend.EmitBEQZ(asm.A0, errorNoneLabel, "")
		g.pop(asm.T0)
		layout := g.classOf(t.Object.InferredType())
		g.backend.EmitSW(asm.T0, asm.A0, layout.AttrOffset(t.Member.Name), "store attribute "+t.Member.Name)
	case *ast.IndexExpr:
		g.push(asm.A0, "value to store")
		g.genListElementAddress(t)
		g.pop(asm.T0)
		g.backend.EmitSW(asm.T0, asm.A0, elementsOffset, "store list element")
	default:
		panic("codegen: invalid assignment target")
	}
}

func (g *CodeGenerator) genIfStmt(stmt *ast.IfStmt) {
	g.genExpr(stmt.Condition)
	end := g.backend.FreshLabel("if_end")
	if len(stmt.ElseBody) == 0 {
		g.backend.EmitBEQZ(asm.A0, end, "")
		g.genStatements(stmt.ThenBody)
		g.backend.EmitLocalLabel(end, "")
		return
	}
	elseLabel := g.backend.FreshLabel("if_else")
	g.backend.EmitBEQZ(asm.A0, elseLabel, "")
	g.genStatements(stmt.ThenBody)
	g.backend.EmitJ(end, "")
	g.backend.EmitLocalLabel(elseLabel, "")
	g.genStatements(stmt.ElseBody)
	g.backend.EmitLocalLabel(end, "")
}

func (g *CodeGenerator) genWhileStmt(stmt *ast.WhileStmt) {
	check := g.backend.FreshLabel("while_check")
	exit := g.backend.FreshLabel("while_exit")
	g.backend.EmitLocalLabel(check, "")
	g.genExpr(stmt.Condition)
	g.backend.EmitBEQZ(asm.A0, exit, "")
	g.genStatements(stmt.Body)
	g.backend.EmitJ(check, "")
	g.backend.EmitLocalLabel(exit, "")
}

// genForStmt keeps the sequence and the next index in the statement's
// hidden frame slots, so the body may freely reassign the loop variable.
func (g *CodeGenerator) genForStmt(stmt *ast.ForStmt) {
	seq, index := g.frame.ForSlots(stmt)
	iterableType := stmt.Iterable.InferredType()
	check := g.backend.FreshLabel("for_check")
	exit := g.backend.FreshLabel("for_exit")

	g.genExpr(stmt.Iterable)
	g.backend.EmitBEQZ(asm.A0, errorNoneLabel, "")
	g.backend.EmitSW(asm.A0, asm.FP, seq, "for sequence")
	g.backend.EmitSW(asm.Zero, asm.FP, index, "for index")
	g.backend.EmitLocalLabel(check, "")
	g.backend.EmitLW(asm.T0, asm.FP, seq, "")
	g.backend.EmitLW(asm.T1, asm.FP, index, "")
	g.backend.EmitLW(asm.T2, asm.T0, valueOffset, "length")
	g.backend.EmitBGE(asm.T1, asm.T2, exit, "")
	var elementType types.ValueType
	if iterableType == types.Str {
		elementType = types.Str
		g.push(asm.T0, "")
		g.push(asm.T1, "")
		g.backend.EmitJAL("strindex", "")
		g.popDiscard(2)
	} else {
		elementType = types.ElementType(iterableType)
		g.backend.EmitSLLI(asm.T1, asm.T1, 2, "")
		g.backend.EmitADD(asm.T1, asm.T1, asm.T0, "")
		g.backend.EmitLW(asm.A0, asm.T1, elementsOffset, "element")
	}
	g.backend.EmitLW(asm.T1, asm.FP, index, "")
	g.backend.EmitADDI(asm.T1, asm.T1, 1, "")
	g.backend.EmitSW(asm.T1, asm.FP, index, "")
	g.box(elementType, stmt.Identifier.InferredType())
	g.storeVariable(stmt.Identifier.Name)
	g.genStatements(stmt.Body)
	g.backend.EmitJ(check, "")
	g.backend.EmitLocalLabel(exit, "")
}

func (g *CodeGenerator) genReturnStmt(stmt *ast.ReturnStmt) {
	if stmt.Value == nil {
		g.backend.EmitMV(asm.A0, asm.Zero, "return None")
	} else {
		g.genExprAs(stmt.Value, g.returnType)
	}
	g.backend.EmitJ(g.epilogue, "")
}
