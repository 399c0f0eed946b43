// Package ast defines the ChocoPy syntax tree. Each syntactic category is a
// closed interface: only the node types of this package implement it.
package ast

import (
	"fmt"
)

// Location is a 1-based source position.
type Location struct {
	Line int
	Col  int
}

func (l Location) Pos() Location {
	return l
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

type Node interface {
	Pos() Location
}

// Program is a list of top-level declarations followed by top-level
// statements.
type Program struct {
	Location
	Declarations []Declaration
	Statements   []Stmt
}

// Declaration is one of *VarDef, *FuncDef, *ClassDef, *GlobalDecl and
// *NonLocalDecl.
type Declaration interface {
	Node
	// DeclName is the identifier the declaration binds.
	DeclName() *Identifier
	declaration()
}

type TypedVar struct {
	Location
	Name *Identifier
	Type TypeAnnotation
}

type VarDef struct {
	Location
	Var   *TypedVar
	Value Literal
}

type FuncDef struct {
	Location
	Name   *Identifier
	Params []*TypedVar
	// ReturnType is nil when the signature has no return annotation.
	ReturnType   TypeAnnotation
	Declarations []Declaration
	Statements   []Stmt
}

type ClassDef struct {
	Location
	Name         *Identifier
	SuperClass   *Identifier
	Declarations []Declaration
}

type GlobalDecl struct {
	Location
	Variable *Identifier
}

type NonLocalDecl struct {
	Location
	Variable *Identifier
}

func (d *VarDef) DeclName() *Identifier       { return d.Var.Name }
func (d *FuncDef) DeclName() *Identifier      { return d.Name }
func (d *ClassDef) DeclName() *Identifier     { return d.Name }
func (d *GlobalDecl) DeclName() *Identifier   { return d.Variable }
func (d *NonLocalDecl) DeclName() *Identifier { return d.Variable }

func (*VarDef) declaration()       {}
func (*FuncDef) declaration()      {}
func (*ClassDef) declaration()     {}
func (*GlobalDecl) declaration()   {}
func (*NonLocalDecl) declaration() {}

// TypeAnnotation is *ClassTypeAnnotation or *ListTypeAnnotation.
type TypeAnnotation interface {
	Node
	String() string
	typeAnnotation()
}

type ClassTypeAnnotation struct {
	Location
	ClassName string
}

type ListTypeAnnotation struct {
	Location
	ElementType TypeAnnotation
}

func (a *ClassTypeAnnotation) String() string { return a.ClassName }
func (a *ListTypeAnnotation) String() string  { return "[" + a.ElementType.String() + "]" }

func (*ClassTypeAnnotation) typeAnnotation() {}
func (*ListTypeAnnotation) typeAnnotation()  {}

// Stmt is one of *ExprStmt, *AssignStmt, *IfStmt, *WhileStmt, *ForStmt and
// *ReturnStmt. `pass` produces no node.
type Stmt interface {
	Node
	stmt()
}

type ExprStmt struct {
	Location
	Expr Expr
}

// AssignStmt is `t1 = t2 = ... = value`.
type AssignStmt struct {
	Location
	Targets []Expr
	Value   Expr
}

// IfStmt also represents elif chains: an elif is an IfStmt that is the only
// statement of ElseBody.
type IfStmt struct {
	Location
	Condition Expr
	ThenBody  []Stmt
	ElseBody  []Stmt
}

type WhileStmt struct {
	Location
	Condition Expr
	Body      []Stmt
}

type ForStmt struct {
	Location
	Identifier *Identifier
	Iterable   Expr
	Body       []Stmt
}

type ReturnStmt struct {
	Location
	// Value is nil for a bare return.
	Value Expr
}

func (*ExprStmt) stmt()   {}
func (*AssignStmt) stmt() {}
func (*IfStmt) stmt()     {}
func (*WhileStmt) stmt()  {}
func (*ForStmt) stmt()    {}
func (*ReturnStmt) stmt() {}
