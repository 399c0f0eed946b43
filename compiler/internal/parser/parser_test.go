package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
)

func TestParser_ParseExpression(t *testing.T) {
	testData := []struct {
		Content  string
		Expected string
	}{
		{Content: "a + b * c", Expected: "(+ a (* b c))"},
		{Content: "a * b + c * d", Expected: "(+ (* a b) (* c d))"},
		{Content: "a - b - c", Expected: "(- (- a b) c)"},
		{Content: "a // b % c", Expected: "(% (// a b) c)"},
		{Content: "(a + b) * c", Expected: "(* (+ a b) c)"},
		{Content: "-a * b", Expected: "(* (- a) b)"},
		{Content: "a < b + 1", Expected: "(< a (+ b 1))"},
		{Content: "not a == b", Expected: "(not (== a b))"},
		{Content: "a and b or c and d", Expected: "(or (and a b) (and c d))"},
		{Content: "a is None", Expected: "(is a None)"},
		{Content: "a if b else c", Expected: "(ifexpr b a c)"},
		{Content: "x.f(1)[0].y", Expected: "(. (index (method (. x f) 1) 0) y)"},
		{Content: "[1, 2][0]", Expected: "(index (list 1 2) 0)"},
		{Content: "[]", Expected: "(list)"},
		{Content: `f() + g("s", True)`, Expected: `(+ (call f) (call g "s" True))`},
	}
	for _, data := range testData {
		program, err := ParseString(data.Content + "\n")
		assert.Nil(t, err, data.Content)
		if !assert.Len(t, program.Statements, 1, data.Content) {
			continue
		}
		stmt := program.Statements[0].(*ast.ExprStmt)
		assert.Equal(t, data.Expected, ast.Dump(stmt.Expr), data.Content)
	}
}

func TestParser_ParseProgram(t *testing.T) {
	src := `
class A(object):
    x: int = 0
    def get(self: "A") -> int:
        return self.x

a: A = None
count: int = 0

def outer(n: int) -> int:
    y: int = 1
    global count
    def inner() -> int:
        nonlocal y
        y = y + 1
        return y
    count = inner()
    return count

a = A()
if a.get() > 1:
    pass
elif count == 0:
    count = count = 2
else:
    print("no")
while count < 10:
    count = count + 1
for i in [1, 2]:
    print(i)
`
	program, err := ParseString(src)
	assert.Nil(t, err)
	assert.Len(t, program.Declarations, 4)
	assert.Len(t, program.Statements, 4)

	class := program.Declarations[0].(*ast.ClassDef)
	assert.Equal(t, "A", class.Name.Name)
	assert.Equal(t, "object", class.SuperClass.Name)
	assert.Len(t, class.Declarations, 2)
	method := class.Declarations[1].(*ast.FuncDef)
	assert.Equal(t, "A", method.Params[0].Type.String())
	assert.Equal(t, "int", method.ReturnType.String())

	outer := program.Declarations[3].(*ast.FuncDef)
	assert.Equal(t, "outer", outer.Name.Name)
	assert.Len(t, outer.Declarations, 3)
	assert.IsType(t, &ast.GlobalDecl{}, outer.Declarations[1])
	inner := outer.Declarations[2].(*ast.FuncDef)
	assert.IsType(t, &ast.NonLocalDecl{}, inner.Declarations[0])
	assert.Len(t, inner.Statements, 2)
	assert.Equal(t, 13, inner.Pos().Line)

	ifStmt := program.Statements[1].(*ast.IfStmt)
	assert.Empty(t, ifStmt.ThenBody)
	elif := ifStmt.ElseBody[0].(*ast.IfStmt)
	assign := elif.ThenBody[0].(*ast.AssignStmt)
	assert.Len(t, assign.Targets, 2)
	assert.Equal(t, `(call print "no")`, ast.Dump(elif.ElseBody[0]))
	assert.Equal(t, "(for i (list 1 2) (do (call print i)))", ast.Dump(program.Statements[3]))
}

func TestParser_SyntaxErrors(t *testing.T) {
	testData := []struct {
		Content string
	}{
		{Content: "a < b < c\n"},
		{Content: "1 = x\n"},
		{Content: "f() = 1\n"},
		{Content: "def f():\n    x: int = 1\n"},
		{Content: "x: int = y\n"},
		{Content: "class A(object):\n    x = 1\n"},
		{Content: "class A:\n    pass\n"},
		{Content: "global x\n"},
		{Content: "if x\n    pass\n"},
		{Content: "x = (1 + 2\n"},
		{Content: "    x = 1\n"},
		{Content: "def f(x: int, ) -> int:\n    return x\n"},
	}
	for _, data := range testData {
		_, err := ParseString(data.Content)
		assert.NotNil(t, err, data.Content)
	}
}
