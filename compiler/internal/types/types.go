// Package types is the semantic type model: the entries stored in scope
// tables and the subtyping rules between value types.
package types

import (
	"strings"

	"github.com/xiaobogaga/chocopy/compiler/internal/symtab"
)

// SymbolType is an entry of a scope table. The set of implementations is
// closed: ClassValueType, ListValueType, *FuncType and *ClassType.
type SymbolType interface {
	String() string
	symbolType()
}

// ValueType is the type of a value: a class value type or a list type.
type ValueType interface {
	SymbolType
	valueType()
}

// Scope is a scope table holding semantic entries.
type Scope = symtab.Table[SymbolType]

func NewScope(parent *Scope) *Scope {
	return symtab.NewTable(parent)
}

// ClassValueType is the type of an instance of the named class. The pseudo
// classes <None> and <Empty> type the None literal and the empty list.
type ClassValueType struct {
	Name string
}

func (ClassValueType) symbolType() {}
func (ClassValueType) valueType()  {}

func (t ClassValueType) String() string {
	return t.Name
}

// ListValueType is the type of a list whose elements have type Element.
type ListValueType struct {
	Element ValueType
}

func (ListValueType) symbolType() {}
func (ListValueType) valueType()  {}

func (t ListValueType) String() string {
	return "[" + t.Element.String() + "]"
}

var (
	Object = ClassValueType{Name: "object"}
	Int    = ClassValueType{Name: "int"}
	Str    = ClassValueType{Name: "str"}
	Bool   = ClassValueType{Name: "bool"}
	None   = ClassValueType{Name: "<None>"}
	Empty  = ClassValueType{Name: "<Empty>"}
)

// FuncType is a function or method signature. Scope is the function's own
// scope table, nil for built-in functions.
type FuncType struct {
	Name   string
	Params []ValueType
	Return ValueType
	Scope  *Scope
}

func (*FuncType) symbolType() {}

func (t *FuncType) String() string {
	params := make([]string, 0, len(t.Params))
	for _, param := range t.Params {
		params = append(params, param.String())
	}
	return "(" + strings.Join(params, ", ") + ") -> " + t.Return.String()
}

// SameSignature reports whether other has the same return type and the same
// parameter types after skipping the first skip parameters of both.
func (t *FuncType) SameSignature(other *FuncType, skip int) bool {
	if len(t.Params) != len(other.Params) || !Equal(t.Return, other.Return) {
		return false
	}
	for i := skip; i < len(t.Params); i++ {
		if !Equal(t.Params[i], other.Params[i]) {
			return false
		}
	}
	return true
}

// ClassType is a class declaration. Super is empty for object. Members holds
// attributes and methods and is parented at the superclass's member table.
type ClassType struct {
	Name    string
	Super   string
	Special bool
	Members *Scope
}

func (*ClassType) symbolType() {}

func (t *ClassType) String() string {
	return "<class " + t.Name + ">"
}

// Equal compares two value types structurally. nil equals only nil.
func Equal(t1, t2 ValueType) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}
	return t1 == t2
}

func IsValueType(t SymbolType) bool {
	_, ok := t.(ValueType)
	return ok
}

func IsListType(t SymbolType) bool {
	_, ok := t.(ListValueType)
	return ok
}

func IsFuncType(t SymbolType) bool {
	_, ok := t.(*FuncType)
	return ok
}

func IsClassType(t SymbolType) bool {
	_, ok := t.(*ClassType)
	return ok
}

// IsSpecialType reports the built-in value classes int, str and bool: they
// cannot be extended, never hold None and cannot be compared with `is`.
// It is false for <None>, <Empty> and lists. The predicate that groups those
// three for assignability is IsPermissiveType, and the two are disjoint.
func IsSpecialType(t SymbolType) bool {
	return t == Int || t == Str || t == Bool
}

// IsPermissiveType reports <None>, <Empty> and list types, the types that
// unify with others by assignability rather than by class chains.
func IsPermissiveType(t SymbolType) bool {
	return t == None || t == Empty || IsListType(t)
}

// ElementType returns the element type of a list, or nil.
func ElementType(t ValueType) ValueType {
	if list, ok := t.(ListValueType); ok {
		return list.Element
	}
	return nil
}
