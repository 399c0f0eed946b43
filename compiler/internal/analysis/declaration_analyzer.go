package analysis

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// ReturnEntry is the pseudo-name under which a function scope records its
// return type. It cannot clash with an identifier since `return` is a keyword.
const ReturnEntry = "return"

// DeclarationAnalyzer builds the scope tables of a program and reports
// declaration errors.
type DeclarationAnalyzer struct {
	globals   *types.Scope
	hierarchy types.ScopeHierarchy
	errors    *Errors
}

func NewDeclarationAnalyzer(errors *Errors) *DeclarationAnalyzer {
	globals := types.NewScope(nil)
	return &DeclarationAnalyzer{
		globals:   globals,
		hierarchy: types.ScopeHierarchy{Globals: globals},
		errors:    errors,
	}
}

// Analyze resolves every declaration of program and returns the global
// scope. Function scopes are registered on their enclosing scope with
// PutScope, class member tables on the global scope.
func (analyzer *DeclarationAnalyzer) Analyze(program *ast.Program) *types.Scope {
	analyzer.initBuiltins()
	redeclared := analyzer.findRedeclarations(analyzer.globals, program.Declarations)
	// Classes first, so that any annotation can name a class declared later. A
	// superclass still has to be declared before its subclasses.
	var classes []*ast.ClassDef
	var classTypes []*types.ClassType
	for _, decl := range program.Declarations {
		classDef, ok := decl.(*ast.ClassDef)
		if !ok || redeclared[decl] {
			continue
		}
		if classType := analyzer.declareClass(classDef); classType != nil {
			classes = append(classes, classDef)
			classTypes = append(classTypes, classType)
		}
	}
	for _, decl := range program.Declarations {
		if varDef, ok := decl.(*ast.VarDef); ok && !redeclared[decl] {
			analyzer.declareVar(analyzer.globals, varDef)
		}
	}
	for i, classDef := range classes {
		analyzer.analyzeClassBody(classDef, classTypes[i])
	}
	// Function bodies see every global variable and class.
	for _, decl := range program.Declarations {
		if funcDef, ok := decl.(*ast.FuncDef); ok && !redeclared[decl] {
			analyzer.declareFunc(analyzer.globals, funcDef)
		}
	}
	return analyzer.globals
}

// findRedeclarations reports, in source order, every declaration whose name is
// already bound in scope or taken by an earlier declaration. Declarations are
// bound by kind, not in source order, so duplicates are found here to land on
// the later declaration.
func (analyzer *DeclarationAnalyzer) findRedeclarations(scope *types.Scope, decls []ast.Declaration) map[ast.Declaration]bool {
	redeclared := map[ast.Declaration]bool{}
	seen := map[string]bool{}
	for _, decl := range decls {
		id := decl.DeclName()
		if seen[id.Name] || scope.Declares(id.Name) {
			analyzer.errors.SemError(id, "Duplicate declaration of identifier in same scope: %s", id.Name)
			redeclared[decl] = true
			continue
		}
		seen[id.Name] = true
	}
	return redeclared
}

func (analyzer *DeclarationAnalyzer) initBuiltins() {
	objectMembers := types.NewScope(nil)
	_ = objectMembers.Put("__init__", &types.FuncType{
		Name:   "__init__",
		Params: []types.ValueType{types.Object},
		Return: types.None,
	})
	_ = analyzer.globals.Put("object", &types.ClassType{Name: "object", Members: objectMembers})
	analyzer.globals.PutScope("object", objectMembers)
	for _, name := range []string{"int", "str", "bool"} {
		members := types.NewScope(objectMembers)
		_ = analyzer.globals.Put(name, &types.ClassType{Name: name, Super: "object", Special: true, Members: members})
		analyzer.globals.PutScope(name, members)
	}
	_ = analyzer.globals.Put("print", &types.FuncType{Name: "print", Params: []types.ValueType{types.Object}, Return: types.None})
	_ = analyzer.globals.Put("input", &types.FuncType{Name: "input", Return: types.Str})
	_ = analyzer.globals.Put("len", &types.FuncType{Name: "len", Params: []types.ValueType{types.Object}, Return: types.Int})
}

// isClassName reports whether name is bound to a class in the global scope.
func (analyzer *DeclarationAnalyzer) isClassName(name string) bool {
	entry, ok := analyzer.globals.Lookup(name)
	return ok && types.IsClassType(entry)
}

// resolveAnnotation converts a type annotation. ok is false, and an error has been reported, when it names a
// class that does not exist.
func (analyzer *DeclarationAnalyzer) resolveAnnotation(annotation ast.TypeAnnotation) (types.ValueType, bool) {
	switch a := annotation.(type) {
	case *ast.ClassTypeAnnotation:
		if !analyzer.isClassName(a.ClassName) {
			analyzer.errors.SemError(a, "Invalid type annotation; there is no class named: %s", a.ClassName)
			return nil, false
		}
		return types.ClassValueType{Name: a.ClassName}, true
	case *ast.ListTypeAnnotation:
		element, ok := analyzer.resolveAnnotation(a.ElementType)
		if !ok {
			return nil, false
		}
		return types.ListValueType{Element: element}, true
	}
	panic("analysis: unknown type annotation")
}

// checkNewName reports a duplicate or class-shadowing declaration of id in scope, returning false when id must
// not be bound.
func (analyzer *DeclarationAnalyzer) checkNewName(scope *types.Scope, id *ast.Identifier) bool {
	if scope.Declares(id.Name) {
		analyzer.errors.SemError(id, "Duplicate declaration of identifier in same scope: %s", id.Name)
		return false
	}
	if scope != analyzer.globals && analyzer.isClassName(id.Name) {
		analyzer.errors.SemError(id, "Cannot shadow class name: %s", id.Name)
		return false
	}
	return true
}

func (analyzer *DeclarationAnalyzer) declareVar(scope *types.Scope, varDef *ast.VarDef) {
	id := varDef.Var.Name
	valueType, ok := analyzer.resolveAnnotation(varDef.Var.Type)
	if !ok || !analyzer.checkNewName(scope, id) {
		return
	}
	_ = scope.Put(id.Name, valueType)
}

// declareClass validates the superclass and binds the class with an empty member table. It returns nil when the
// class is dropped.
func (analyzer *DeclarationAnalyzer) declareClass(classDef *ast.ClassDef) *types.ClassType {
	name, superName := classDef.Name.Name, classDef.SuperClass.Name
	superEntry, ok := analyzer.globals.Lookup(superName)
	if !ok {
		analyzer.errors.SemError(classDef.SuperClass, "Super-class not defined: %s", superName)
		return nil
	}
	superClass, ok := superEntry.(*types.ClassType)
	if !ok {
		analyzer.errors.SemError(classDef.SuperClass, "Super-class must be a class: %s", superName)
		return nil
	}
	if superClass.Special {
		analyzer.errors.SemError(classDef.SuperClass, "Cannot extend special class: %s", superName)
		return nil
	}
	if !analyzer.checkNewName(analyzer.globals, classDef.Name) {
		return nil
	}
	members := types.NewScope(superClass.Members)
	classType := &types.ClassType{Name: name, Super: superName, Members: members}
	// The self entry lets method signatures refer to the enclosing class.
	_ = members.Put(name, classType)
	_ = analyzer.globals.Put(name, classType)
	analyzer.globals.PutScope(name, members)
	return classType
}

func (analyzer *DeclarationAnalyzer) analyzeClassBody(classDef *ast.ClassDef, classType *types.ClassType) {
	members := classType.Members
	inherited := members.Parent()
	for _, decl := range classDef.Declarations {
		id := decl.DeclName()
		if analyzer.isClassName(id.Name) {
			analyzer.errors.SemError(id, "Cannot shadow class name: %s", id.Name)
			continue
		}
		if members.Declares(id.Name) {
			analyzer.errors.SemError(id, "Duplicate declaration of identifier in same scope: %s", id.Name)
			continue
		}
		switch d := decl.(type) {
		case *ast.VarDef:
			if _, ok := inherited.Get(id.Name); ok {
				analyzer.errors.SemError(id, "Cannot re-define attribute: %s", id.Name)
				continue
			}
			if valueType, ok := analyzer.resolveAnnotation(d.Var.Type); ok {
				_ = members.Put(id.Name, valueType)
			}
		case *ast.FuncDef:
			// Methods do not see attributes unqualified: their scope hangs off the globals.
			funcType := analyzer.buildFunc(analyzer.globals, d)
			analyzer.checkMethod(classType, d, funcType)
			_ = members.Put(id.Name, funcType)
			members.PutScope(id.Name, funcType.Scope)
		}
	}
}

func (analyzer *DeclarationAnalyzer) checkMethod(classType *types.ClassType, funcDef *ast.FuncDef, funcType *types.FuncType) {
	id := funcDef.Name
	self := types.ClassValueType{Name: classType.Name}
	if len(funcType.Params) == 0 || !types.Equal(funcType.Params[0], self) {
		analyzer.errors.SemError(id, "First parameter of the following method must be of the enclosing class: %s", id.Name)
		return
	}
	inheritedEntry, ok := classType.Members.Parent().Get(id.Name)
	if !ok {
		return
	}
	inheritedFunc, isFunc := inheritedEntry.(*types.FuncType)
	if !isFunc {
		analyzer.errors.SemError(id, "Cannot re-define attribute: %s", id.Name)
		return
	}
	if len(inheritedFunc.Params) == len(funcType.Params) && id.Name == "__init__" && len(funcType.Params) == 1 {
		return
	}
	if !inheritedFunc.SameSignature(funcType, 1) {
		analyzer.errors.SemError(id, "Method overridden with different type signature: %s", id.Name)
	}
}

// declareFunc builds a function nested in scope and binds it there.
func (analyzer *DeclarationAnalyzer) declareFunc(scope *types.Scope, funcDef *ast.FuncDef) {
	funcType := analyzer.buildFunc(scope, funcDef)
	if !analyzer.checkNewName(scope, funcDef.Name) {
		return
	}
	_ = scope.Put(funcDef.Name.Name, funcType)
	scope.PutScope(funcDef.Name.Name, funcType.Scope)
}

// buildFunc creates the function's scope, parented at parent, and resolves its parameters and nested
// declarations.
func (analyzer *DeclarationAnalyzer) buildFunc(parent *types.Scope, funcDef *ast.FuncDef) *types.FuncType {
	scope := types.NewScope(parent)
	funcType := &types.FuncType{Name: funcDef.Name.Name, Scope: scope, Return: types.None}
	for _, param := range funcDef.Params {
		paramType, ok := analyzer.resolveAnnotation(param.Type)
		if !ok {
			paramType = types.Object
		}
		funcType.Params = append(funcType.Params, paramType)
		if ok && analyzer.checkNewName(scope, param.Name) {
			_ = scope.Put(param.Name.Name, paramType)
		}
	}
	if funcDef.ReturnType != nil {
		if returnType, ok := analyzer.resolveAnnotation(funcDef.ReturnType); ok {
			funcType.Return = returnType
		} else {
			funcType.Return = types.Object
		}
	}
	redeclared := analyzer.findRedeclarations(scope, funcDef.Declarations)
	for _, decl := range funcDef.Declarations {
		if redeclared[decl] {
			continue
		}
		switch d := decl.(type) {
		case *ast.VarDef:
			analyzer.declareVar(scope, d)
		case *ast.GlobalDecl:
			analyzer.declareGlobal(scope, d)
		case *ast.NonLocalDecl:
			analyzer.declareNonLocal(scope, d)
		}
	}
	_ = scope.Put(ReturnEntry, funcType.Return)
	for _, decl := range funcDef.Declarations {
		if nested, ok := decl.(*ast.FuncDef); ok && !redeclared[decl] {
			analyzer.declareFunc(scope, nested)
		}
	}
	analyzer.checkAssignTargets(scope, funcDef.Statements)
	if types.IsSpecialType(funcType.Return) && !alwaysReturns(funcDef.Statements) {
		analyzer.errors.SemError(funcDef.Name, "All paths in this function/method must have a return statement: %s", funcDef.Name.Name)
	}
	return funcType
}

func (analyzer *DeclarationAnalyzer) declareGlobal(scope *types.Scope, decl *ast.GlobalDecl) {
	id := decl.Variable
	if !analyzer.checkNewName(scope, id) {
		return
	}
	entry, ok := analyzer.globals.Lookup(id.Name)
	if !ok || !types.IsValueType(entry) {
		analyzer.errors.SemError(id, "Not a global variable: %s", id.Name)
		return
	}
	_ = scope.Put(id.Name, entry)
}

func (analyzer *DeclarationAnalyzer) declareNonLocal(scope *types.Scope, decl *ast.NonLocalDecl) {
	id := decl.Variable
	if !analyzer.checkNewName(scope, id) {
		return
	}
	outer := scope.Parent()
	if outer == analyzer.globals {
		analyzer.errors.SemError(id, "Not a nonlocal variable: %s", id.Name)
		return
	}
	entry, ok := outer.Lookup(id.Name)
	if !ok || !types.IsValueType(entry) {
		analyzer.errors.SemError(id, "Not a nonlocal variable: %s", id.Name)
		return
	}
	_ = scope.Put(id.Name, entry)
}

// checkAssignTargets reports variables assigned in a function body without being declared in the function
// itself, including through global or nonlocal declarations.
func (analyzer *DeclarationAnalyzer) checkAssignTargets(scope *types.Scope, stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			for _, target := range s.Targets {
				if id, ok := target.(*ast.Identifier); ok && !scope.Declares(id.Name) {
					analyzer.errors.SemError(id, "Cannot assign to variable that is not explicitly declared in this scope: %s", id.Name)
				}
			}
		case *ast.ForStmt:
			if !scope.Declares(s.Identifier.Name) {
				analyzer.errors.SemError(s.Identifier, "Cannot assign to variable that is not explicitly declared in this scope: %s", s.Identifier.Name)
			}
			analyzer.checkAssignTargets(scope, s.Body)
		case *ast.IfStmt:
			analyzer.checkAssignTargets(scope, s.ThenBody)
			analyzer.checkAssignTargets(scope, s.ElseBody)
		case *ast.WhileStmt:
			analyzer.checkAssignTargets(scope, s.Body)
		}
	}
}

// alwaysReturns reports whether every path through stmts ends in a return.
func alwaysReturns(stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ReturnStmt:
			return true
		case *ast.IfStmt:
			if alwaysReturns(s.ThenBody) && alwaysReturns(s.ElseBody) {
				return true
			}
		}
	}
	return false
}
