package ast

import (
	"strconv"
	"strings"
)

// Dump renders a node as a compact s-expression, e.g. `(+ a (* b 2))`.
// It is used by tests and by the -stop_after=parse driver mode.
func Dump(node Node) string {
	buf := &strings.Builder{}
	dump(buf, node)
	return buf.String()
}

func dumpList[T Node](buf *strings.Builder, head string, nodes []T) {
	buf.WriteString("(" + head)
	for _, node := range nodes {
		buf.WriteByte(' ')
		dump(buf, node)
	}
	buf.WriteByte(')')
}

func dump(buf *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Program:
		buf.WriteString("(program ")
		dumpList(buf, "decls", n.Declarations)
		buf.WriteByte(' ')
		dumpList(buf, "stmts", n.Statements)
		buf.WriteByte(')')
	case *VarDef:
		buf.WriteString("(var " + n.Var.Name.Name + " " + n.Var.Type.String() + " ")
		dump(buf, n.Value)
		buf.WriteByte(')')
	case *FuncDef:
		buf.WriteString("(def " + n.Name.Name + " (")
		for i, param := range n.Params {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(param.Name.Name + ":" + param.Type.String())
		}
		buf.WriteByte(')')
		if n.ReturnType != nil {
			buf.WriteString(" -> " + n.ReturnType.String())
		}
		buf.WriteByte(' ')
		dumpList(buf, "decls", n.Declarations)
		buf.WriteByte(' ')
		dumpList(buf, "stmts", n.Statements)
		buf.WriteByte(')')
	case *ClassDef:
		buf.WriteString("(class " + n.Name.Name + " " + n.SuperClass.Name + " ")
		dumpList(buf, "decls", n.Declarations)
		buf.WriteByte(')')
	case *GlobalDecl:
		buf.WriteString("(global " + n.Variable.Name + ")")
	case *NonLocalDecl:
		buf.WriteString("(nonlocal " + n.Variable.Name + ")")
	case *ExprStmt:
		dump(buf, n.Expr)
	case *AssignStmt:
		buf.WriteString("(=")
		for _, target := range n.Targets {
			buf.WriteByte(' ')
			dump(buf, target)
		}
		buf.WriteByte(' ')
		dump(buf, n.Value)
		buf.WriteByte(')')
	case *IfStmt:
		buf.WriteString("(if ")
		dump(buf, n.Condition)
		buf.WriteByte(' ')
		dumpList(buf, "then", n.ThenBody)
		buf.WriteByte(' ')
		dumpList(buf, "else", n.ElseBody)
		buf.WriteByte(')')
	case *WhileStmt:
		buf.WriteString("(while ")
		dump(buf, n.Condition)
		buf.WriteByte(' ')
		dumpList(buf, "do", n.Body)
		buf.WriteByte(')')
	case *ForStmt:
		buf.WriteString("(for " + n.Identifier.Name + " ")
		dump(buf, n.Iterable)
		buf.WriteByte(' ')
		dumpList(buf, "do", n.Body)
		buf.WriteByte(')')
	case *ReturnStmt:
		buf.WriteString("(return")
		if n.Value != nil {
			buf.WriteByte(' ')
			dump(buf, n.Value)
		}
		buf.WriteByte(')')
	case *IntegerLiteral:
		buf.WriteString(strconv.Itoa(int(n.Value)))
	case *StringLiteral:
		buf.WriteString(strconv.Quote(n.Value))
	case *BooleanLiteral:
		if n.Value {
			buf.WriteString("True")
		} else {
			buf.WriteString("False")
		}
	case *NoneLiteral:
		buf.WriteString("None")
	case *Identifier:
		buf.WriteString(n.Name)
	case *BinaryExpr:
		buf.WriteString("(" + n.Operator + " ")
		dump(buf, n.Left)
		buf.WriteByte(' ')
		dump(buf, n.Right)
		buf.WriteByte(')')
	case *UnaryExpr:
		buf.WriteString("(" + n.Operator + " ")
		dump(buf, n.Operand)
		buf.WriteByte(')')
	case *IfExpr:
		buf.WriteString("(ifexpr ")
		dump(buf, n.Condition)
		buf.WriteByte(' ')
		dump(buf, n.ThenExpr)
		buf.WriteByte(' ')
		dump(buf, n.ElseExpr)
		buf.WriteByte(')')
	case *ListExpr:
		dumpList(buf, "list", n.Elements)
	case *IndexExpr:
		buf.WriteString("(index ")
		dump(buf, n.List)
		buf.WriteByte(' ')
		dump(buf, n.Index)
		buf.WriteByte(')')
	case *MemberExpr:
		buf.WriteString("(. ")
		dump(buf, n.Object)
		buf.WriteString(" " + n.Member.Name + ")")
	case *CallExpr:
		dumpList(buf, "call "+n.Function.Name, n.Args)
	case *MethodCallExpr:
		buf.WriteString("(method ")
		dump(buf, n.Method)
		for _, arg := range n.Args {
			buf.WriteByte(' ')
			dump(buf, arg)
		}
		buf.WriteByte(')')
	default:
		panic("ast: unknown node kind")
	}
}
