package analysis

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/types"
)

// TypeChecker infers the type of every value expression, writing it to the
// expression's inferred-type slot, and reports type errors. It runs only on
// programs whose declarations resolved without errors.
type TypeChecker struct {
	globals   *types.Scope
	hierarchy types.ScopeHierarchy
	errors    *Errors
}

func NewTypeChecker(globals *types.Scope, errors *Errors) *TypeChecker {
	return &TypeChecker{
		globals:   globals,
		hierarchy: types.ScopeHierarchy{Globals: globals},
		errors:    errors,
	}
}

func (checker *TypeChecker) Check(program *ast.Program) {
	for _, decl := range program.Declarations {
		switch d := decl.(type) {
		case *ast.VarDef:
			checker.checkVarDef(checker.globals, d)
		case *ast.FuncDef:
			checker.checkFuncDef(checker.globals.GetScope(d.Name.Name), d)
		case *ast.ClassDef:
			checker.checkClassDef(d)
		}
	}
	checker.checkStatements(checker.globals, program.Statements)
}

func (checker *TypeChecker) isCompatible(target, value types.ValueType) bool {
	return types.IsTypeCompatible(checker.hierarchy, target, value)
}

func (checker *TypeChecker) join(t1, t2 types.ValueType) types.ValueType {
	return types.CommonAncestor(checker.hierarchy, t1, t2)
}

func (checker *TypeChecker) checkVarDef(scope *types.Scope, varDef *ast.VarDef) {
	valueType := checker.checkExpr(scope, varDef.Value)
	entry, ok := scope.Lookup(varDef.Var.Name.Name)
	if !ok {
		return
	}
	declared, ok := entry.(types.ValueType)
	if ok && !checker.isCompatible(declared, valueType) {
		checker.errors.SemError(varDef, "Expected type `%s`; got type `%s`", declared, valueType)
	}
}

func (checker *TypeChecker) checkClassDef(classDef *ast.ClassDef) {
	members := checker.globals.GetScope(classDef.Name.Name)
	if members == nil {
		return
	}
	for _, decl := range classDef.Declarations {
		switch d := decl.(type) {
		case *ast.VarDef:
			checker.checkVarDef(members, d)
		case *ast.FuncDef:
			checker.checkFuncDef(members.GetScope(d.Name.Name), d)
		}
	}
}

func (checker *TypeChecker) checkFuncDef(scope *types.Scope, funcDef *ast.FuncDef) {
	if scope == nil {
		return
	}
	for _, decl := range funcDef.Declarations {
		switch d := decl.(type) {
		case *ast.VarDef:
			checker.checkVarDef(scope, d)
		case *ast.FuncDef:
			checker.checkFuncDef(scope.GetScope(d.Name.Name), d)
		}
	}
	checker.checkStatements(scope, funcDef.Statements)
}

func (checker *TypeChecker) checkStatements(scope *types.Scope, stmts []ast.Stmt) {
	for _, stmt := range stmts {
		checker.checkStatement(scope, stmt)
	}
}

func (checker *TypeChecker) checkStatement(scope *types.Scope, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		checker.checkExpr(scope, s.Expr)
	case *ast.AssignStmt:
		checker.checkAssignStmt(scope, s)
	case *ast.IfStmt:
		checker.checkCondition(scope, s.Condition)
		checker.checkStatements(scope, s.ThenBody)
		checker.checkStatements(scope, s.ElseBody)
	case *ast.WhileStmt:
		checker.checkCondition(scope, s.Condition)
		checker.checkStatements(scope, s.Body)
	case *ast.ForStmt:
		checker.checkForStmt(scope, s)
	case *ast.ReturnStmt:
		checker.checkReturnStmt(scope, s)
	default:
		panic("analysis: unknown statement kind")
	}
}

func (checker *TypeChecker) checkCondition(scope *types.Scope, condition ast.Expr) {
	if t := checker.checkExpr(scope, condition); t != types.Bool {
		checker.errors.SemError(condition, "Condition expression cannot be of type `%s`", t)
	}
}

func (checker *TypeChecker) checkAssignStmt(scope *types.Scope, stmt *ast.AssignStmt) {
	valueType := checker.checkExpr(scope, stmt.Value)
	if len(stmt.Targets) > 1 && valueType == (types.ListValueType{Element: types.None}) {
		checker.errors.SemError(stmt, "Right-hand side of multiple assignment may not be [<None>]")
	}
	for _, target := range stmt.Targets {
		targetType := checker.checkExpr(scope, target)
		if index, ok := target.(*ast.IndexExpr); ok && index.List.InferredType() == types.Str {
			checker.errors.SemError(target, "`str` is not a list type")
			continue
		}
		if !checker.isCompatible(targetType, valueType) {
			checker.errors.SemError(target, "Expected type `%s`; got type `%s`", targetType, valueType)
		}
	}
}

func (checker *TypeChecker) checkForStmt(scope *types.Scope, stmt *ast.ForStmt) {
	iterableType := checker.checkExpr(scope, stmt.Iterable)
	var elementType types.ValueType
	switch {
	case iterableType == types.Str:
		elementType = types.Str
	case types.IsListType(iterableType):
		elementType = types.ElementType(iterableType)
	default:
		checker.errors.SemError(stmt.Iterable, "Cannot iterate over value of type `%s`", iterableType)
	}
	varType := checker.checkExpr(scope, stmt.Identifier)
	if elementType != nil && !checker.isCompatible(varType, elementType) {
		checker.errors.SemError(stmt.Identifier, "Expected type `%s`; got type `%s`", varType, elementType)
	}
	checker.checkStatements(scope, stmt.Body)
}

func (checker *TypeChecker) checkReturnStmt(scope *types.Scope, stmt *ast.ReturnStmt) {
	var valueType types.ValueType = types.None
	if stmt.Value != nil {
		valueType = checker.checkExpr(scope, stmt.Value)
	}
	if scope == checker.globals {
		checker.errors.SemError(stmt, "Return statement cannot appear at the top level")
		return
	}
	entry, _ := scope.Lookup(ReturnEntry)
	expected, ok := entry.(types.ValueType)
	if !ok || checker.isCompatible(expected, valueType) {
		return
	}
	if stmt.Value == nil {
		checker.errors.SemError(stmt, "Expected type `%s`; got `None`", expected)
		return
	}
	checker.errors.SemError(stmt.Value, "Expected type `%s`; got type `%s`", expected, valueType)
}

// checkExpr infers the type of expr and records it in the expression's slot. Erroneous expressions get a
// fallback type so that analysis can continue.
func (checker *TypeChecker) checkExpr(scope *types.Scope, expr ast.Expr) types.ValueType {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return e.SetInferredType(types.Int)
	case *ast.StringLiteral:
		return e.SetInferredType(types.Str)
	case *ast.BooleanLiteral:
		return e.SetInferredType(types.Bool)
	case *ast.NoneLiteral:
		return e.SetInferredType(types.None)
	case *ast.Identifier:
		return e.SetInferredType(checker.checkIdentifier(scope, e))
	case *ast.UnaryExpr:
		return e.SetInferredType(checker.checkUnaryExpr(scope, e))
	case *ast.BinaryExpr:
		return e.SetInferredType(checker.checkBinaryExpr(scope, e))
	case *ast.IfExpr:
		checker.checkCondition(scope, e.Condition)
		return e.SetInferredType(checker.join(checker.checkExpr(scope, e.ThenExpr), checker.checkExpr(scope, e.ElseExpr)))
	case *ast.ListExpr:
		return e.SetInferredType(checker.checkListExpr(scope, e))
	case *ast.IndexExpr:
		return e.SetInferredType(checker.checkIndexExpr(scope, e))
	case *ast.MemberExpr:
		return e.SetInferredType(checker.checkMemberExpr(scope, e))
	case *ast.CallExpr:
		return e.SetInferredType(checker.checkCallExpr(scope, e))
	case *ast.MethodCallExpr:
		return e.SetInferredType(checker.checkMethodCallExpr(scope, e))
	}
	panic("analysis: unknown expression kind")
}

func (checker *TypeChecker) checkIdentifier(scope *types.Scope, id *ast.Identifier) types.ValueType {
	entry, ok := scope.Get(id.Name)
	if valueType, isValue := entry.(types.ValueType); ok && isValue {
		return valueType
	}
	checker.errors.SemError(id, "Not a variable: %s", id.Name)
	return types.Object
}

func (checker *TypeChecker) checkUnaryExpr(scope *types.Scope, expr *ast.UnaryExpr) types.ValueType {
	operandType := checker.checkExpr(scope, expr.Operand)
	switch expr.Operator {
	case ast.OpSub:
		if operandType != types.Int {
			checker.errors.SemError(expr, "Cannot apply operator `%s` on type `%s`", expr.Operator, operandType)
		}
		return types.Int
	case ast.OpNot:
		if operandType != types.Bool {
			checker.errors.SemError(expr, "Cannot apply operator `%s` on type `%s`", expr.Operator, operandType)
		}
		return types.Bool
	}
	panic("analysis: unknown unary operator " + expr.Operator)
}

func (checker *TypeChecker) checkBinaryExpr(scope *types.Scope, expr *ast.BinaryExpr) types.ValueType {
	left := checker.checkExpr(scope, expr.Left)
	right := checker.checkExpr(scope, expr.Right)
	result, ok := checker.binaryResult(expr.Operator, left, right)
	if !ok {
		checker.errors.SemError(expr, "Cannot apply operator `%s` on types `%s` and `%s`", expr.Operator, left, right)
	}
	return result
}

// binaryResult returns the result type of `left op right`. When ok is false, result is the fallback type.
func (checker *TypeChecker) binaryResult(op string, left, right types.ValueType) (result types.ValueType, ok bool) {
	switch op {
	case ast.OpAnd, ast.OpOr:
		return types.Bool, left == types.Bool && right == types.Bool
	case ast.OpSub, ast.OpMul, ast.OpFloorDiv, ast.OpMod:
		return types.Int, left == types.Int && right == types.Int
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return types.Bool, left == types.Int && right == types.Int
	case ast.OpEq, ast.OpNe:
		return types.Bool, left == right && types.IsSpecialType(left)
	case ast.OpIs:
		return types.Bool, !types.IsSpecialType(left) && !types.IsSpecialType(right)
	case ast.OpAdd:
		switch {
		case left == types.Int && right == types.Int:
			return types.Int, true
		case left == types.Str && right == types.Str:
			return types.Str, true
		case isListLike(left) && isListLike(right):
			if left == types.Empty && right == types.Empty {
				return types.Empty, true
			}
			element := checker.join(types.ElementType(left), types.ElementType(right))
			return types.ListValueType{Element: element}, true
		case left == types.Int || right == types.Int:
			return types.Int, false
		}
		return types.Object, false
	}
	panic("analysis: unknown binary operator " + op)
}

// isListLike accepts list types and the type of the empty list.
func isListLike(t types.ValueType) bool {
	return t == types.Empty || types.IsListType(t)
}

func (checker *TypeChecker) checkListExpr(scope *types.Scope, expr *ast.ListExpr) types.ValueType {
	if len(expr.Elements) == 0 {
		return types.Empty
	}
	var element types.ValueType
	for _, e := range expr.Elements {
		element = checker.join(element, checker.checkExpr(scope, e))
	}
	return types.ListValueType{Element: element}
}

func (checker *TypeChecker) checkIndexExpr(scope *types.Scope, expr *ast.IndexExpr) types.ValueType {
	listType := checker.checkExpr(scope, expr.List)
	indexType := checker.checkExpr(scope, expr.Index)
	var result types.ValueType
	switch {
	case listType == types.Str:
		result = types.Str
	case types.IsListType(listType):
		result = types.ElementType(listType)
	default:
		checker.errors.SemError(expr, "Cannot index into type `%s`", listType)
		return types.Object
	}
	if indexType != types.Int {
		checker.errors.SemError(expr.Index, "Index is of non-integer type `%s`", indexType)
	}
	return result
}

// classOf returns the class entry for values of type t, or nil for lists and pseudo classes.
func (checker *TypeChecker) classOf(t types.ValueType) *types.ClassType {
	classValue, ok := t.(types.ClassValueType)
	if !ok {
		return nil
	}
	entry, _ := checker.globals.Lookup(classValue.Name)
	classType, _ := entry.(*types.ClassType)
	return classType
}

func (checker *TypeChecker) checkMemberExpr(scope *types.Scope, expr *ast.MemberExpr) types.ValueType {
	objectType := checker.checkExpr(scope, expr.Object)
	classType := checker.classOf(objectType)
	if classType == nil {
		checker.errors.SemError(expr, "Cannot access attribute of non-class type `%s`", objectType)
		return expr.Member.SetInferredType(types.Object)
	}
	entry, ok := classType.Members.Get(expr.Member.Name)
	if attr, isValue := entry.(types.ValueType); ok && isValue {
		return expr.Member.SetInferredType(attr)
	}
	checker.errors.SemError(expr.Member, "There is no attribute named `%s` in class `%s`", expr.Member.Name, classType.Name)
	return expr.Member.SetInferredType(types.Object)
}

// checkArgs checks args against params. Every argument is checked even when the arity is wrong.
func (checker *TypeChecker) checkArgs(scope *types.Scope, node ast.Node, params []types.ValueType, args []ast.Expr) {
	argTypes := make([]types.ValueType, 0, len(args))
	for _, arg := range args {
		argTypes = append(argTypes, checker.checkExpr(scope, arg))
	}
	if len(params) != len(args) {
		checker.errors.SemError(node, "Expected %d arguments; got %d", len(params), len(args))
		return
	}
	for i, param := range params {
		if !checker.isCompatible(param, argTypes[i]) {
			checker.errors.SemError(args[i], "Expected type `%s`; got type `%s` in parameter %d", param, argTypes[i], i+1)
		}
	}
}

// checkCallExpr types the call. The callee name gets the function entry, or
// the __init__ entry for a constructor call.
func (checker *TypeChecker) checkCallExpr(scope *types.Scope, expr *ast.CallExpr) types.ValueType {
	name := expr.Function.Name
	entry, _ := scope.Get(name)
	switch callee := entry.(type) {
	case *types.FuncType:
		expr.Function.SetSymbolType(callee)
		checker.checkArgs(scope, expr, callee.Params, expr.Args)
		return callee.Return
	case *types.ClassType:
		if callee.Special {
			expr.Function.SetSymbolType(callee)
			checker.checkArgs(scope, expr, nil, expr.Args)
			checker.errors.SemError(expr.Function, "Cannot instantiate special class: %s", name)
			return types.ClassValueType{Name: name}
		}
		initEntry, _ := callee.Members.Get("__init__")
		initType := initEntry.(*types.FuncType)
		expr.Function.SetSymbolType(initType)
		checker.checkArgs(scope, expr, initType.Params[1:], expr.Args)
		return types.ClassValueType{Name: name}
	}
	expr.Function.SetInferredType(types.Object)
	for _, arg := range expr.Args {
		checker.checkExpr(scope, arg)
	}
	checker.errors.SemError(expr.Function, "Not a function or class: %s", name)
	return types.Object
}

// checkMethodCallExpr types the call. The member expression and its name get
// the method entry.
func (checker *TypeChecker) checkMethodCallExpr(scope *types.Scope, expr *ast.MethodCallExpr) types.ValueType {
	method := expr.Method
	receiverType := checker.checkExpr(scope, method.Object)
	classType := checker.classOf(receiverType)
	var methodType *types.FuncType
	if classType != nil {
		entry, _ := classType.Members.Get(method.Member.Name)
		methodType, _ = entry.(*types.FuncType)
	}
	if methodType == nil || len(methodType.Params) == 0 {
		method.SetInferredType(types.Object)
		method.Member.SetInferredType(types.Object)
		for _, arg := range expr.Args {
			checker.checkExpr(scope, arg)
		}
		checker.errors.SemError(method.Member, "There is no method named `%s` in class `%s`", method.Member.Name, receiverType)
		return types.Object
	}
	method.SetSymbolType(methodType)
	method.Member.SetSymbolType(methodType)
	checker.checkArgs(scope, expr, methodType.Params[1:], expr.Args)
	return methodType.Return
}
