package codegen

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/asm"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// Type tags stored in the first header word of every object.
const (
	objectTag    int32 = 0
	intTag       int32 = 1
	boolTag      int32 = 2
	strTag       int32 = 3
	listTag      int32 = -1
	firstUserTag int32 = 4
)

const (
	dispatchOffset = 8
	// valueOffset holds the value of an int or bool and the length of a str or list.
	valueOffset = 12
	// elementsOffset is where list elements and str characters start.
	elementsOffset = 16
)

const listPrototype = "$.list$prototype"

type attribute struct {
	name  string
	typ   types.ValueType
	value ast.Literal
}

type method struct {
	name  string
	label string
}

// ClassLayout is the object layout and dispatch table of one class.
type ClassLayout struct {
	Name  string
	Tag   int32
	Super *ClassLayout

	attrs       []attribute
	methods     []method
	attrIndex   map[string]int
	methodIndex map[string]int
}

func newClassLayout(name string, tag int32, super *ClassLayout) *ClassLayout {
	layout := &ClassLayout{
		Name:        name,
		Tag:         tag,
		Super:       super,
		attrIndex:   map[string]int{},
		methodIndex: map[string]int{},
	}
	if super != nil {
		layout.attrs = append(layout.attrs, super.attrs...)
		layout.methods = append(layout.methods, super.methods...)
		for name, i := range super.attrIndex {
			layout.attrIndex[name] = i
		}
		for name, i := range super.methodIndex {
			layout.methodIndex[name] = i
		}
	}
	return layout
}

func (layout *ClassLayout) addAttr(attr attribute) {
	layout.attrIndex[attr.name] = len(layout.attrs)
	layout.attrs = append(layout.attrs, attr)
}

// addMethod appends a new dispatch slot or overrides the inherited one.
func (layout *ClassLayout) addMethod(name, label string) {
	if i, ok := layout.methodIndex[name]; ok {
		layout.methods[i] = method{name: name, label: label}
		return
	}
	layout.methodIndex[name] = len(layout.methods)
	layout.methods = append(layout.methods, method{name: name, label: label})
}

// AttrOffset is the byte offset of attribute name inside an object.
func (layout *ClassLayout) AttrOffset(name string) int {
	i, ok := layout.attrIndex[name]
	if !ok {
		panic("codegen: no attribute " + name + " in class " + layout.Name)
	}
	return asm.WordSize * (asm.HeaderWords + i)
}

// MethodOffset is the byte offset of method name inside the dispatch table.
func (layout *ClassLayout) MethodOffset(name string) int {
	i, ok := layout.methodIndex[name]
	if !ok {
		panic("codegen: no method " + name + " in class " + layout.Name)
	}
	return asm.WordSize * i
}

// MethodLabels returns the dispatch table entries in slot order.
func (layout *ClassLayout) MethodLabels() []string {
	ret := make([]string, 0, len(layout.methods))
	for _, m := range layout.methods {
		ret = append(ret, m.label)
	}
	return ret
}

func (layout *ClassLayout) PrototypeLabel() string {
	return "$" + layout.Name + "$prototype"
}

func (layout *ClassLayout) DispatchTableLabel() string {
	return "$" + layout.Name + "$dispatchTable"
}

// buildClassLayouts lays out the built-in classes and every class declared
// in program. A superclass is always declared before its subclasses.
func buildClassLayouts(program *ast.Program, globals *types.Scope, frames *FrameTable) ([]*ClassLayout, map[string]*ClassLayout) {
	object := newClassLayout("object", objectTag, nil)
	object.addMethod("__init__", "$object.__init__")
	order := []*ClassLayout{
		object,
		newClassLayout("int", intTag, object),
		newClassLayout("bool", boolTag, object),
		newClassLayout("str", strTag, object),
	}
	byName := map[string]*ClassLayout{}
	for _, layout := range order {
		byName[layout.Name] = layout
	}
	tag := firstUserTag
	for _, decl := range program.Declarations {
		classDef, ok := decl.(*ast.ClassDef)
		if !ok {
			continue
		}
		layout := newClassLayout(classDef.Name.Name, tag, byName[classDef.SuperClass.Name])
		tag++
		members := globals.GetScope(classDef.Name.Name)
		for _, member := range classDef.Declarations {
			switch d := member.(type) {
			case *ast.VarDef:
				attrType, _ := members.Lookup(d.Var.Name.Name)
				layout.addAttr(attribute{name: d.Var.Name.Name, typ: attrType.(types.ValueType), value: d.Value})
			case *ast.FuncDef:
				layout.addMethod(d.Name.Name, frames.Methods[classDef.Name.Name][d.Name.Name].Label)
			}
		}
		order = append(order, layout)
		byName[layout.Name] = layout
	}
	return order, byName
}
