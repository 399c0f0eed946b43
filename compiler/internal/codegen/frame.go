package codegen

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/asm"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
)

// Frame shape, from high to low addresses:
//
//	static link            fp + 4*n
//	argument 0 .. n-1      fp + 4*(n-1) .. fp + 0
//	saved ra               fp - 4
//	saved fp               fp - 8
//	local 0 ..             fp - 12, fp - 16, ...
//
// The caller pushes the static link and then the arguments left to right, so
// fp is the value of sp on entry. Locals include two hidden slots per `for`
// statement that hold the sequence and the next index.

// savedWords is the number of words between fp and the first local.
const savedWords = 2

// FrameLayout is the precomputed frame of the top-level program or of one
// function or method.
type FrameLayout struct {
	Name   string
	Label  string
	Depth  int
	Parent *FrameLayout
	// Class is the enclosing class of a method, empty otherwise.
	Class     string
	Params    []string
	Locals    []string
	Globals   map[string]bool
	NonLocals map[string]bool
	// Funcs are the functions declared directly in this frame.
	Funcs map[string]*FrameLayout
	Def   *ast.FuncDef

	slots    map[string]int
	forSlots map[*ast.ForStmt]int
	hidden   int
}

func newFrameLayout(name, label string, parent *FrameLayout) *FrameLayout {
	frame := &FrameLayout{
		Name:      name,
		Label:     label,
		Parent:    parent,
		Globals:   map[string]bool{},
		NonLocals: map[string]bool{},
		Funcs:     map[string]*FrameLayout{},
		slots:     map[string]int{},
		forSlots:  map[*ast.ForStmt]int{},
	}
	if parent != nil {
		frame.Depth = parent.Depth + 1
	}
	return frame
}

// StaticLinkOffset is the fp-relative offset of the static link.
func (frame *FrameLayout) StaticLinkOffset() int {
	return asm.WordSize * len(frame.Params)
}

func (frame *FrameLayout) paramOffset(i int) int {
	return asm.WordSize * (len(frame.Params) - 1 - i)
}

func localOffset(k int) int {
	return -asm.WordSize * (savedWords + 1 + k)
}

// NumLocals counts declared locals and hidden slots.
func (frame *FrameLayout) NumLocals() int {
	return len(frame.Locals) + frame.hidden
}

// Size is the number of bytes the prologue reserves.
func (frame *FrameLayout) Size() int {
	return asm.WordSize * (savedWords + frame.NumLocals())
}

// Offset returns the fp-relative offset of a parameter or local owned by this frame.
func (frame *FrameLayout) Offset(name string) (int, bool) {
	offset, ok := frame.slots[name]
	return offset, ok
}

// ForSlots returns the offsets of the sequence and index slots of stmt.
func (frame *FrameLayout) ForSlots(stmt *ast.ForStmt) (seq, index int) {
	k, ok := frame.forSlots[stmt]
	if !ok {
		panic("codegen: for statement without frame slots")
	}
	return localOffset(k), localOffset(k + 1)
}

// FrameTable holds every frame layout of a program.
type FrameTable struct {
	Main *FrameLayout
	// Order lists the function frames in the order they are emitted.
	Order   []*FrameLayout
	Methods map[string]map[string]*FrameLayout
	byDef   map[*ast.FuncDef]*FrameLayout
}

// BuildFrames computes the frame layouts of program. It runs before any
// instruction is emitted and the layouts are read-only afterwards.
func BuildFrames(program *ast.Program) *FrameTable {
	table := &FrameTable{
		Main:    newFrameLayout("main", "main", nil),
		Methods: map[string]map[string]*FrameLayout{},
		byDef:   map[*ast.FuncDef]*FrameLayout{},
	}
	table.Main.allocForSlots(program.Statements)
	for _, decl := range program.Declarations {
		switch d := decl.(type) {
		case *ast.FuncDef:
			frame := table.buildFunc(d, d.Name.Name, table.Main)
			table.Main.Funcs[d.Name.Name] = frame
		case *ast.ClassDef:
			methods := map[string]*FrameLayout{}
			for _, member := range d.Declarations {
				funcDef, ok := member.(*ast.FuncDef)
				if !ok {
					continue
				}
				frame := table.buildFunc(funcDef, d.Name.Name+"."+funcDef.Name.Name, table.Main)
				frame.Class = d.Name.Name
				methods[funcDef.Name.Name] = frame
			}
			table.Methods[d.Name.Name] = methods
		}
	}
	return table
}

// Frame returns the layout built for funcDef.
func (table *FrameTable) Frame(funcDef *ast.FuncDef) *FrameLayout {
	return table.byDef[funcDef]
}

func (table *FrameTable) buildFunc(funcDef *ast.FuncDef, name string, parent *FrameLayout) *FrameLayout {
	frame := newFrameLayout(name, "$"+name, parent)
	frame.Def = funcDef
	table.byDef[funcDef] = frame
	table.Order = append(table.Order, frame)
	for _, param := range funcDef.Params {
		frame.Params = append(frame.Params, param.Name.Name)
	}
	for i, param := range frame.Params {
		frame.slots[param] = frame.paramOffset(i)
	}
	for _, decl := range funcDef.Declarations {
		switch d := decl.(type) {
		case *ast.VarDef:
			frame.slots[d.Var.Name.Name] = localOffset(len(frame.Locals))
			frame.Locals = append(frame.Locals, d.Var.Name.Name)
		case *ast.GlobalDecl:
			frame.Globals[d.Variable.Name] = true
		case *ast.NonLocalDecl:
			frame.NonLocals[d.Variable.Name] = true
		}
	}
	frame.allocForSlots(funcDef.Statements)
	for _, decl := range funcDef.Declarations {
		if nested, ok := decl.(*ast.FuncDef); ok {
			frame.Funcs[nested.Name.Name] = table.buildFunc(nested, name+"."+nested.Name.Name, frame)
		}
	}
	return frame
}

// allocForSlots reserves two hidden locals for every for statement in stmts, nested ones included.
func (frame *FrameLayout) allocForSlots(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ForStmt:
			frame.forSlots[s] = len(frame.Locals) + frame.hidden
			frame.hidden += 2
			frame.allocForSlots(s.Body)
		case *ast.WhileStmt:
			frame.allocForSlots(s.Body)
		case *ast.IfStmt:
			frame.allocForSlots(s.ThenBody)
			frame.allocForSlots(s.ElseBody)
		}
	}
}

// variable is the resolved storage of a name as seen from one frame.
type variable struct {
	global bool
	label  string
	owner  *FrameLayout
	offset int
}

// resolve finds the storage of name referenced from this frame, following
// global and nonlocal declarations. Names no function frame owns are globals.
func (frame *FrameLayout) resolve(name string) variable {
	for f := frame; f != nil && f.Depth > 0; f = f.Parent {
		if f.Globals[name] {
			break
		}
		if f.NonLocals[name] {
			continue
		}
		if offset, ok := f.slots[name]; ok {
			return variable{owner: f, offset: offset}
		}
	}
	return variable{global: true, label: globalLabel(name)}
}

// resolveFunc finds the frame of the function name called from this frame.
func (frame *FrameLayout) resolveFunc(name string) (*FrameLayout, bool) {
	for f := frame; f != nil; f = f.Parent {
		if callee, ok := f.Funcs[name]; ok {
			return callee, true
		}
		if _, ok := f.slots[name]; ok {
			return nil, false
		}
	}
	return nil, false
}

func globalLabel(name string) string {
	return "$" + name
}
