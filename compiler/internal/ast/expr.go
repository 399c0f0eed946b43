package ast

import (
	"fmt"

	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// Expr is an expression node. Every expression carries an inferred-type slot
// written once by the type checker and read by the code generator. The slot
// holds a value type, except for the name of a called function or method,
// which holds the callee's function or class entry.
type Expr interface {
	Node
	// InferredType returns the value type in the slot, or nil when the slot
	// is empty or holds a function or class entry.
	InferredType() types.ValueType
	// SetInferredType records t and returns it. Writing the slot twice is a
	// programming error and panics.
	SetInferredType(t types.ValueType) types.ValueType
	// SymbolType returns the raw slot.
	SymbolType() types.SymbolType
	// SetSymbolType records a function or class entry, with the same
	// write-once rule as SetInferredType.
	SetSymbolType(t types.SymbolType) types.SymbolType
	expr()
}

// Literal is the subset of expressions allowed as variable initializers.
type Literal interface {
	Expr
	literal()
}

type exprBase struct {
	Location
	inferredType types.SymbolType
}

func (e *exprBase) InferredType() types.ValueType {
	valueType, _ := e.inferredType.(types.ValueType)
	return valueType
}

func (e *exprBase) SymbolType() types.SymbolType {
	return e.inferredType
}

func (e *exprBase) SetInferredType(t types.ValueType) types.ValueType {
	if t == nil {
		panic(fmt.Sprintf("ast: nil inferred type at %s", e.Location))
	}
	e.SetSymbolType(t)
	return t
}

func (e *exprBase) SetSymbolType(t types.SymbolType) types.SymbolType {
	if t == nil {
		panic(fmt.Sprintf("ast: nil inferred type at %s", e.Location))
	}
	if e.inferredType != nil {
		panic(fmt.Sprintf("ast: inferred type at %s written twice (%s, then %s)", e.Location, e.inferredType, t))
	}
	e.inferredType = t
	return t
}

func (*exprBase) expr() {}

type IntegerLiteral struct {
	exprBase
	Value int32
}

type StringLiteral struct {
	exprBase
	Value string
}

type BooleanLiteral struct {
	exprBase
	Value bool
}

type NoneLiteral struct {
	exprBase
}

func (*IntegerLiteral) literal() {}
func (*StringLiteral) literal()  {}
func (*BooleanLiteral) literal() {}
func (*NoneLiteral) literal()    {}

type Identifier struct {
	exprBase
	Name string
}

// Operators of BinaryExpr and UnaryExpr.
const (
	OpAdd      = "+"
	OpSub      = "-"
	OpMul      = "*"
	OpFloorDiv = "//"
	OpMod      = "%"
	OpEq       = "=="
	OpNe       = "!="
	OpLt       = "<"
	OpGt       = ">"
	OpLe       = "<="
	OpGe       = ">="
	OpIs       = "is"
	OpAnd      = "and"
	OpOr       = "or"
	OpNot      = "not"
)

type BinaryExpr struct {
	exprBase
	Left     Expr
	Operator string
	Right    Expr
}

type UnaryExpr struct {
	exprBase
	Operator string
	Operand  Expr
}

// IfExpr is `ThenExpr if Condition else ElseExpr`.
type IfExpr struct {
	exprBase
	Condition Expr
	ThenExpr  Expr
	ElseExpr  Expr
}

type ListExpr struct {
	exprBase
	Elements []Expr
}

type IndexExpr struct {
	exprBase
	List  Expr
	Index Expr
}

type MemberExpr struct {
	exprBase
	Object Expr
	Member *Identifier
}

// CallExpr calls a global function, a nested function or a class
// constructor.
type CallExpr struct {
	exprBase
	Function *Identifier
	Args     []Expr
}

type MethodCallExpr struct {
	exprBase
	Method *MemberExpr
	Args   []Expr
}

func NewIntegerLiteral(loc Location, value int32) *IntegerLiteral {
	return &IntegerLiteral{exprBase: exprBase{Location: loc}, Value: value}
}

func NewStringLiteral(loc Location, value string) *StringLiteral {
	return &StringLiteral{exprBase: exprBase{Location: loc}, Value: value}
}

func NewBooleanLiteral(loc Location, value bool) *BooleanLiteral {
	return &BooleanLiteral{exprBase: exprBase{Location: loc}, Value: value}
}

func NewNoneLiteral(loc Location) *NoneLiteral {
	return &NoneLiteral{exprBase: exprBase{Location: loc}}
}

func NewIdentifier(loc Location, name string) *Identifier {
	return &Identifier{exprBase: exprBase{Location: loc}, Name: name}
}

func NewBinaryExpr(loc Location, left Expr, operator string, right Expr) *BinaryExpr {
	return &BinaryExpr{exprBase: exprBase{Location: loc}, Left: left, Operator: operator, Right: right}
}

func NewUnaryExpr(loc Location, operator string, operand Expr) *UnaryExpr {
	return &UnaryExpr{exprBase: exprBase{Location: loc}, Operator: operator, Operand: operand}
}

func NewIfExpr(loc Location, condition, thenExpr, elseExpr Expr) *IfExpr {
	return &IfExpr{exprBase: exprBase{Location: loc}, Condition: condition, ThenExpr: thenExpr, ElseExpr: elseExpr}
}

func NewListExpr(loc Location, elements []Expr) *ListExpr {
	return &ListExpr{exprBase: exprBase{Location: loc}, Elements: elements}
}

func NewIndexExpr(loc Location, list, index Expr) *IndexExpr {
	return &IndexExpr{exprBase: exprBase{Location: loc}, List: list, Index: index}
}

func NewMemberExpr(loc Location, object Expr, member *Identifier) *MemberExpr {
	return &MemberExpr{exprBase: exprBase{Location: loc}, Object: object, Member: member}
}

func NewCallExpr(loc Location, function *Identifier, args []Expr) *CallExpr {
	return &CallExpr{exprBase: exprBase{Location: loc}, Function: function, Args: args}
}

func NewMethodCallExpr(loc Location, method *MemberExpr, args []Expr) *MethodCallExpr {
	return &MethodCallExpr{exprBase: exprBase{Location: loc}, Method: method, Args: args}
}
