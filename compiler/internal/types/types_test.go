package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testHierarchy() ScopeHierarchy {
	globals := NewScope(nil)
	classes := []struct{ name, super string }{
		{"object", ""},
		{"int", "object"},
		{"str", "object"},
		{"bool", "object"},
		{"A", "object"},
		{"B", "A"},
		{"C", "A"},
		{"D", "B"},
	}
	for _, class := range classes {
		_ = globals.Put(class.name, &ClassType{Name: class.name, Super: class.super, Members: NewScope(nil)})
	}
	_ = globals.Put("x", Int)
	return ScopeHierarchy{Globals: globals}
}

func class(name string) ClassValueType {
	return ClassValueType{Name: name}
}

func list(element ValueType) ListValueType {
	return ListValueType{Element: element}
}

func TestPredicates(t *testing.T) {
	fn := &FuncType{Params: []ValueType{Int}, Return: None}
	cls := &ClassType{Name: "A", Super: "object"}
	assert.True(t, IsValueType(Int))
	assert.True(t, IsValueType(list(Int)))
	assert.False(t, IsValueType(fn))
	assert.True(t, IsListType(list(Int)))
	assert.True(t, IsFuncType(fn))
	assert.True(t, IsClassType(cls))
	assert.False(t, IsClassType(class("A")))
	for _, special := range []ValueType{Int, Str, Bool} {
		assert.True(t, IsSpecialType(special), special.String())
	}
	for _, permissive := range []ValueType{None, Empty, list(Int)} {
		assert.False(t, IsSpecialType(permissive), permissive.String())
		assert.True(t, IsPermissiveType(permissive), permissive.String())
	}
	assert.False(t, IsSpecialType(Object))
	assert.True(t, IsPermissiveType(None))
	assert.True(t, IsPermissiveType(Empty))
	assert.True(t, IsPermissiveType(list(class("A"))))
	assert.False(t, IsPermissiveType(Int))
	assert.Equal(t, "[[int]]", list(list(Int)).String())
	assert.Equal(t, "(int) -> <None>", fn.String())
}

func TestIsAncestor(t *testing.T) {
	h := testHierarchy()
	testData := []struct {
		parent, child ValueType
		expected      bool
	}{
		{class("A"), class("A"), true},
		{class("A"), class("B"), true},
		{class("A"), class("D"), true},
		{class("B"), class("A"), false},
		{class("C"), class("D"), false},
		{Object, class("D"), true},
		{Object, Int, true},
		{Object, None, true},
		{Object, Empty, true},
		{Object, list(Int), true},
		{list(Int), list(Int), true},
		{list(Object), list(Int), false},
		{class("A"), class("Missing"), false},
		{class("Missing"), class("A"), false},
		{class("x"), class("A"), false},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, IsAncestor(h, data.parent, data.child), "%s <: %s", data.child, data.parent)
	}
}

func TestIsAncestorTransitive(t *testing.T) {
	h := testHierarchy()
	all := []ValueType{Object, Int, Str, Bool, class("A"), class("B"), class("C"), class("D")}
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				if IsAncestor(h, a, b) && IsAncestor(h, b, c) {
					assert.True(t, IsAncestor(h, a, c), "%s %s %s", a, b, c)
				}
			}
		}
	}
}

func TestCommonAncestor(t *testing.T) {
	h := testHierarchy()
	testData := []struct {
		t1, t2   ValueType
		expected ValueType
	}{
		{class("B"), class("C"), class("A")},
		{class("D"), class("C"), class("A")},
		{class("D"), class("B"), class("B")},
		{Int, Str, Object},
		{Int, Int, Int},
		{nil, Int, Int},
		{class("A"), nil, class("A")},
		{class("A"), None, class("A")},
		{list(Int), Empty, list(Int)},
		{list(Int), list(Str), Object},
		{Int, None, Object},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, CommonAncestor(h, data.t1, data.t2), "%v %v", data.t1, data.t2)
		assert.Equal(t, data.expected, CommonAncestor(h, data.t2, data.t1), "%v %v", data.t2, data.t1)
	}
	all := []ValueType{Object, Int, Str, Bool, class("A"), class("B"), class("C"), class("D")}
	for _, a := range all {
		for _, b := range all {
			common := CommonAncestor(h, a, b)
			assert.True(t, IsAncestor(h, common, a))
			assert.True(t, IsAncestor(h, common, b))
		}
	}
}

func TestIsTypeCompatible(t *testing.T) {
	h := testHierarchy()
	testData := []struct {
		target, value ValueType
		expected      bool
	}{
		{class("A"), class("B"), true},
		{class("B"), class("A"), false},
		{class("B"), None, true},
		{Object, None, true},
		{Int, None, false},
		{Str, None, false},
		{Bool, None, false},
		{list(Int), None, true},
		{list(Int), Empty, true},
		{list(list(Int)), Empty, false},
		{list(class("A")), list(None), true},
		{list(Int), list(None), false},
		{list(Object), list(Int), false},
		{Int, Bool, false},
		{Object, Str, true},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, IsTypeCompatible(h, data.target, data.value), "%s := %s", data.target, data.value)
	}
}

func TestSameSignature(t *testing.T) {
	base := &FuncType{Params: []ValueType{class("A"), Int}, Return: Int}
	override := &FuncType{Params: []ValueType{class("B"), Int}, Return: Int}
	changed := &FuncType{Params: []ValueType{class("B"), Int}, Return: Bool}
	assert.True(t, base.SameSignature(override, 1))
	assert.False(t, base.SameSignature(override, 0))
	assert.False(t, base.SameSignature(changed, 1))
}
