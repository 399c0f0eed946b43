package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/chocopy/compiler/internal/analysis"
	"github.com/xiaobogaga/chocopy/compiler/internal/asm"
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
	"github.com/xiaobogaga/chocopy/compiler/internal/parser"
)

func analyzed(t *testing.T, src string) (*ast.Program, *analysis.Result) {
	program, err := parser.ParseString(src)
	require.Nil(t, err, src)
	result := analysis.Analyze(program)
	require.Empty(t, result.Errors.Messages(), src)
	return program, result
}

func generate(t *testing.T, src string) []string {
	program, result := analyzed(t, src)
	text, err := Generate(program, result.Globals, false)
	require.Nil(t, err, src)
	return asm.Instructions(text)
}

// containsInOrder reports whether expected appears in lines as a subsequence.
func containsInOrder(lines, expected []string) bool {
	i := 0
	for _, line := range lines {
		if i < len(expected) && line == expected[i] {
			i++
		}
	}
	return i == len(expected)
}

// containsRun reports whether expected appears in lines as consecutive lines.
func containsRun(lines, expected []string) bool {
	for start := 0; start+len(expected) <= len(lines); start++ {
		match := true
		for i, line := range expected {
			if lines[start+i] != line {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// functionBody returns the lines from the label of a function up to its final return.
func functionBody(lines []string, label string) []string {
	for i, line := range lines {
		if line != label+":" {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if lines[j] == "jr ra" {
				return lines[i : j+1]
			}
		}
	}
	return nil
}

func count(lines []string, target string) int {
	n := 0
	for _, line := range lines {
		if line == target {
			n++
		}
	}
	return n
}

func TestBuildFrames_Offsets(t *testing.T) {
	src := `
def f(a: int, b: int) -> int:
    x: int = 0
    y: bool = True
    for x in [1]:
        for x in [2]:
            pass
    return a
`
	program, _ := analyzed(t, src)
	frames := BuildFrames(program)
	frame := frames.Main.Funcs["f"]
	require.NotNil(t, frame)
	assert.Equal(t, 1, frame.Depth)
	assert.Same(t, frames.Main, frame.Parent)
	assert.Equal(t, "$f", frame.Label)
	testData := []struct {
		Name   string
		Offset int
	}{
		{Name: "a", Offset: 4},
		{Name: "b", Offset: 0},
		{Name: "x", Offset: -12},
		{Name: "y", Offset: -16},
	}
	for _, data := range testData {
		offset, ok := frame.Offset(data.Name)
		assert.True(t, ok, data.Name)
		assert.Equal(t, data.Offset, offset, data.Name)
	}
	assert.Equal(t, 8, frame.StaticLinkOffset())
	assert.Equal(t, 6, frame.NumLocals())
	assert.Equal(t, 32, frame.Size())

	outer := program.Declarations[0].(*ast.FuncDef).Statements[0].(*ast.ForStmt)
	seq, index := frame.ForSlots(outer)
	assert.Equal(t, -20, seq)
	assert.Equal(t, -24, index)
	inner := outer.Body[0].(*ast.ForStmt)
	seq, index = frame.ForSlots(inner)
	assert.Equal(t, -28, seq)
	assert.Equal(t, -32, index)
}

func TestBuildFrames_Nesting(t *testing.T) {
	src := `
x: int = 0
class A(object):
    def m(self: A) -> int:
        def helper() -> int:
            return 1
        return helper()
def outer():
    y: int = 0
    def inner():
        global x
        nonlocal y
        z: int = 0
        x = y
    inner()
`
	program, _ := analyzed(t, src)
	frames := BuildFrames(program)
	method := frames.Methods["A"]["m"]
	require.NotNil(t, method)
	assert.Equal(t, "$A.m", method.Label)
	assert.Equal(t, "A", method.Class)
	assert.Equal(t, 1, method.Depth)
	helper := method.Funcs["helper"]
	require.NotNil(t, helper)
	assert.Equal(t, "$A.m.helper", helper.Label)
	assert.Equal(t, 2, helper.Depth)

	outer := frames.Main.Funcs["outer"]
	inner := outer.Funcs["inner"]
	assert.Equal(t, "$outer.inner", inner.Label)
	assert.Same(t, outer, inner.Parent)
	assert.Equal(t, []string{"z"}, inner.Locals)

	v := inner.resolve("x")
	assert.True(t, v.global)
	assert.Equal(t, "$x", v.label)
	v = inner.resolve("y")
	assert.False(t, v.global)
	assert.Same(t, outer, v.owner)
	assert.Equal(t, -12, v.offset)
	v = inner.resolve("z")
	assert.Same(t, inner, v.owner)

	callee, ok := inner.resolveFunc("inner")
	assert.True(t, ok)
	assert.Same(t, inner, callee)
	_, ok = inner.resolveFunc("print")
	assert.False(t, ok)

	assert.Equal(t, []*FrameLayout{method, helper, outer, inner}, frames.Order)
	assert.Same(t, outer, frames.Frame(program.Declarations[2].(*ast.FuncDef)))
}

func TestGenerate_NonLocalAccessWalksOneHop(t *testing.T) {
	src := `
def outer() -> int:
    x: int = 0
    def inner() -> int:
        nonlocal x
        x = x + 1
        return x
    return inner()
print(outer())
`
	lines := generate(t, src)
	inner := functionBody(lines, "$outer.inner")
	require.NotNil(t, inner)
	assert.True(t, containsRun(inner, []string{"lw t0, 0(fp)", "lw a0, -12(t0)"}))
	assert.True(t, containsRun(inner, []string{"lw t0, 0(fp)", "sw a0, -12(t0)"}))
	assert.Equal(t, 0, count(inner, "lw t0, 0(t0)"))

	outer := functionBody(lines, "$outer")
	require.NotNil(t, outer)
	assert.True(t, containsRun(outer, []string{"mv t0, fp", "addi sp, sp, -4", "sw t0, 0(sp)", "jal $outer.inner", "addi sp, sp, 4"}))
	assert.True(t, containsRun(outer, []string{"li a0, 0", "sw a0, -12(fp)"}))
}

func TestGenerate_NonLocalAccessWalksTwoHops(t *testing.T) {
	src := `
def a() -> int:
    x: int = 1
    def b() -> int:
        def c() -> int:
            return x
        return c()
    return b()
print(a())
`
	lines := generate(t, src)
	c := functionBody(lines, "$a.b.c")
	require.NotNil(t, c)
	assert.True(t, containsRun(c, []string{"lw t0, 0(fp)", "lw t0, 0(t0)", "lw a0, -12(t0)"}))
	b := functionBody(lines, "$a.b")
	assert.True(t, containsRun(b, []string{"mv t0, fp", "addi sp, sp, -4", "sw t0, 0(sp)", "jal $a.b.c"}))
}

func TestGenerate_CallSiblingPassesCallerLink(t *testing.T) {
	src := `
def f(n: int) -> int:
    def g() -> int:
        return n
    def h() -> int:
        return g()
    return h()
print(f(1))
`
	lines := generate(t, src)
	h := functionBody(lines, "$f.h")
	require.NotNil(t, h)
	assert.True(t, containsRun(h, []string{"lw t0, 0(fp)", "addi sp, sp, -4", "sw t0, 0(sp)", "jal $f.g"}))
	g := functionBody(lines, "$f.g")
	assert.True(t, containsRun(g, []string{"lw t0, 0(fp)", "lw a0, 0(t0)"}))
}

func TestGenerate_FunctionShape(t *testing.T) {
	src := `
def f(b: bool) -> int:
    if b:
        return 1
    return 2
print(f(True))
`
	lines := generate(t, src)
	body := functionBody(lines, "$f")
	require.NotNil(t, body)
	assert.Equal(t, []string{"$f:", "addi sp, sp, -8", "sw ra, 4(sp)", "sw fp, 0(sp)", "addi fp, sp, 8"}, body[:5])
	assert.Equal(t, 2, count(body, "j $f$epilogue"))
	assert.Equal(t, 1, count(body, "$f$epilogue:"))
	assert.Equal(t, []string{"$f$epilogue:", "lw ra, -4(fp)", "mv sp, fp", "lw fp, -8(sp)", "jr ra"}, body[len(body)-5:])
	assert.True(t, containsRun(body, []string{"lw a0, 0(fp)", "beqz a0, if_end_1"}))

	assert.True(t, containsInOrder(lines, []string{
		".globl main", "main:", "jal heap.init",
		"mv t0, fp", "addi sp, sp, -4", "sw t0, 0(sp)",
		"li a0, 1", "addi sp, sp, -4", "sw a0, 0(sp)",
		"jal $f", "addi sp, sp, 8",
		"jal makeint",
		"jal $print",
		"li a0, 10", "ecall",
	}))
}

func TestGenerate_Boxing(t *testing.T) {
	testData := []struct {
		Name     string
		Content  string
		Expected []string
	}{
		{
			Name:     "int assigned to object",
			Content:  "x: object = None\nx = 1\n",
			Expected: []string{"li a0, 1", "jal makeint", "sw a0, $x, t0"},
		},
		{
			Name:     "bool literal argument",
			Content:  "print(True)\n",
			Expected: []string{"la a0, const_1", "addi sp, sp, -4", "sw a0, 0(sp)", "jal $print"},
		},
		{
			Name:     "bool expression argument",
			Content:  "print(not False)\n",
			Expected: []string{"li a0, 0", "xori a0, a0, 1", "jal makebool", "jal $print"},
		},
		{
			Name:     "int stays unboxed for int target",
			Content:  "x: int = 0\nx = 3\n",
			Expected: []string{"li a0, 3", "sw a0, $x, t0"},
		},
		{
			Name:     "list of objects boxes elements",
			Content:  "l: [object] = None\nl = [1, True]\n",
			Expected: []string{"la a0, const_2", "la a0, const_1", "li a0, 2", "jal conslist", "addi sp, sp, 12"},
		},
		{
			Name:     "return boxes into object",
			Content:  "def f() -> object:\n    return 5\n",
			Expected: []string{"la a0, const_2", "j $f$epilogue"},
		},
		{
			Name:     "conditional expression joins to object",
			Content:  "x: object = None\nx = 1 if True else \"s\"\n",
			Expected: []string{"beqz a0, ifexpr_else_1", "la a0, const_2", "j ifexpr_end_2", "ifexpr_else_1:", "la a0, const_3", "ifexpr_end_2:"},
		},
	}
	for _, data := range testData {
		lines := generate(t, data.Content)
		assert.True(t, containsInOrder(lines, data.Expected), data.Name)
	}
}

func TestGenerate_Expressions(t *testing.T) {
	testData := []struct {
		Name     string
		Content  string
		Expected []string
	}{
		{
			Name:    "less than",
			Content: "print(1 < 2)\n",
			Expected: []string{
				"li a0, 1", "addi sp, sp, -4", "sw a0, 0(sp)", "li a0, 2", "lw t0, 0(sp)", "addi sp, sp, 4",
				"blt t0, a0, cmp_true_1", "li a0, 0", "j cmp_end_2", "cmp_true_1:", "li a0, 1", "cmp_end_2:",
				"jal makebool",
			},
		},
		{
			Name:     "greater or equal",
			Content:  "print(1 >= 2)\n",
			Expected: []string{"bge t0, a0, cmp_true_1", "li a0, 0", "j cmp_end_2"},
		},
		{
			Name:     "greater than",
			Content:  "print(1 > 2)\n",
			Expected: []string{"blt a0, t0, cmp_true_1"},
		},
		{
			Name:     "bool inequality",
			Content:  "print(True != False)\n",
			Expected: []string{"bne t0, a0, cmp_true_1"},
		},
		{
			Name:     "identity",
			Content:  "print(None is None)\n",
			Expected: []string{"mv a0, zero", "mv a0, zero", "beq t0, a0, cmp_true_1"},
		},
		{
			Name:     "short-circuit and",
			Content:  "b: bool = False\nprint(b and not b)\n",
			Expected: []string{"lw a0, $b", "beqz a0, logic_end_1", "lw a0, $b", "xori a0, a0, 1", "logic_end_1:"},
		},
		{
			Name:     "short-circuit or",
			Content:  "b: bool = False\nprint(b or True)\n",
			Expected: []string{"lw a0, $b", "bnez a0, logic_end_1", "li a0, 1", "logic_end_1:"},
		},
		{
			Name:     "negation",
			Content:  "x: int = 1\nx = -x\n",
			Expected: []string{"lw a0, $x", "sub a0, zero, a0", "sw a0, $x, t0"},
		},
		{
			Name:    "floor division",
			Content: "print(7 // 2)\n",
			Expected: []string{
				"beqz a0, error.Div", "div t1, t0, a0", "rem t2, t0, a0", "beqz t2, divmod_end_1",
				"xor t2, t2, a0", "bge t2, zero, divmod_end_1", "addi t1, t1, -1", "divmod_end_1:", "mv a0, t1",
			},
		},
		{
			Name:     "modulo",
			Content:  "print(7 % 2)\n",
			Expected: []string{"beqz a0, error.Div", "rem t1, t0, a0", "add t1, t1, a0", "mv a0, t1"},
		},
		{
			Name:     "arithmetic",
			Content:  "print(1 + 2 * 3 - 4)\n",
			Expected: []string{"mul a0, t0, a0", "add a0, t0, a0", "sub a0, t0, a0"},
		},
		{
			Name:     "string concatenation",
			Content:  "print(\"a\" + \"b\")\n",
			Expected: []string{"la a0, const_2", "la a0, const_3", "jal strcat", "addi sp, sp, 8"},
		},
		{
			Name:     "string equality",
			Content:  "print(\"a\" == \"b\")\n",
			Expected: []string{"jal streql", "addi sp, sp, 8", "jal makebool"},
		},
		{
			Name:     "string inequality",
			Content:  "print(\"a\" != \"b\")\n",
			Expected: []string{"jal strneql"},
		},
		{
			Name:     "string index",
			Content:  "print(\"ab\"[1])\n",
			Expected: []string{"li a0, 1", "jal strindex", "addi sp, sp, 8"},
		},
		{
			Name:    "list index",
			Content: "l: [int] = None\nprint(l[1])\n",
			Expected: []string{
				"lw a0, $l", "li a0, 1", "lw t0, 0(sp)", "beqz t0, error.None", "lw t1, 12(t0)",
				"blt a0, zero, error.OOB", "bge a0, t1, error.OOB", "slli a0, a0, 2", "add a0, a0, t0", "lw a0, 16(a0)",
			},
		},
		{
			Name:    "list concatenation",
			Content: "l: [object] = None\nl = [1] + [None]\n",
			Expected: []string{
				"jal conslist", "la t0, makeint", "sw t0, 0(sp)",
				"jal conslist", "sw zero, 0(sp)", "jal concat", "addi sp, sp, 16",
			},
		},
		{
			Name:     "input and len",
			Content:  "print(len(input()))\n",
			Expected: []string{"jal $input", "jal $len", "jal makeint", "jal $print"},
		},
	}
	for _, data := range testData {
		lines := generate(t, data.Content)
		assert.True(t, containsInOrder(lines, data.Expected), data.Name)
	}
}

func TestGenerate_Statements(t *testing.T) {
	testData := []struct {
		Name     string
		Content  string
		Expected []string
	}{
		{
			Name:    "while loop",
			Content: "x: int = 0\nwhile x < 3:\n    x = x + 1\n",
			Expected: []string{
				"while_check_1:", "lw a0, $x", "blt t0, a0, cmp_true_3", "beqz a0, while_exit_2",
				"add a0, t0, a0", "sw a0, $x, t0", "j while_check_1", "while_exit_2:",
			},
		},
		{
			Name:    "if else",
			Content: "x: int = 0\nif x == 0:\n    x = 1\nelif x == 1:\n    x = 2\nelse:\n    x = 3\n",
			Expected: []string{
				"beqz a0, if_else_4", "li a0, 1", "j if_end_3", "if_else_4:",
				"beqz a0, if_else_8", "li a0, 2", "j if_end_7", "if_else_8:", "li a0, 3", "if_end_7:", "if_end_3:",
			},
		},
		{
			Name:    "for over list",
			Content: "i: int = 0\nfor i in [1, 2]:\n    print(i)\n",
			Expected: []string{
				"addi sp, sp, -16", "jal conslist", "beqz a0, error.None", "sw a0, -12(fp)", "sw zero, -16(fp)",
				"for_check_1:", "lw t0, -12(fp)", "lw t1, -16(fp)", "lw t2, 12(t0)", "bge t1, t2, for_exit_2",
				"lw a0, 16(t1)", "addi t1, t1, 1", "sw t1, -16(fp)", "sw a0, $i, t0",
				"jal makeint", "jal $print", "j for_check_1", "for_exit_2:",
			},
		},
		{
			Name:     "for over string",
			Content:  "c: str = \"\"\nfor c in \"abc\":\n    print(c)\n",
			Expected: []string{"for_check_1:", "jal strindex", "addi sp, sp, 8", "sw a0, $c, t0", "jal $print"},
		},
		{
			Name:     "multiple assignment",
			Content:  "x: int = 0\ny: object = None\nx = y = 1\n",
			Expected: []string{"li a0, 1", "sw a0, 0(sp)", "lw a0, 0(sp)", "sw a0, $x, t0", "lw a0, 0(sp)", "jal makeint", "sw a0, $y, t0", "addi sp, sp, 4"},
		},
		{
			Name:     "list element assignment",
			Content:  "l: [int] = None\nl[0] = 5\n",
			Expected: []string{"li a0, 5", "sw a0, 0(sp)", "lw a0, $l", "bge a0, t1, error.OOB", "lw t0, 0(sp)", "sw t0, 16(a0)"},
		},
	}
	for _, data := range testData {
		lines := generate(t, data.Content)
		assert.True(t, containsInOrder(lines, data.Expected), data.Name)
	}
}

func TestGenerate_Classes(t *testing.T) {
	src := `
class A(object):
    x: int = 5
    def get(self: A) -> int:
        return self.x
class B(A):
    y: object = 1
    def get(self: B) -> int:
        return 0
    def set(self: B, v: int):
        self.x = v
a: A = None
a = B()
print(a.get())
a.x = 2
`
	lines := generate(t, src)
	assert.True(t, containsRun(lines, []string{"$A$prototype:", ".word 4", ".word 4", ".word $A$dispatchTable", ".word 5"}))
	assert.True(t, containsRun(lines, []string{"$B$prototype:", ".word 5", ".word 5", ".word $B$dispatchTable", ".word 5"}))
	assert.True(t, containsRun(lines, []string{"$A$dispatchTable:", ".word $object.__init__", ".word $A.get"}))
	assert.True(t, containsRun(lines, []string{"$B$dispatchTable:", ".word $object.__init__", ".word $B.get", ".word $B.set"}))
	assert.True(t, containsRun(lines, []string{"$object$dispatchTable:", ".word $object.__init__"}))
	assert.True(t, containsRun(lines, []string{"$.list$prototype:", ".word -1", ".word 4", ".word 0", ".word 0"}))

	get := functionBody(lines, "$A.get")
	assert.True(t, containsRun(get, []string{"lw a0, 0(fp)", "beqz a0, error.None", "lw a0, 12(a0)"}))
	set := functionBody(lines, "$B.set")
	assert.True(t, containsInOrder(set, []string{"lw a0, 0(fp)", "sw a0, 0(sp)", "lw a0, 4(fp)", "beqz a0, error.None", "lw t0, 0(sp)", "sw t0, 12(a0)"}))

	assert.True(t, containsInOrder(lines, []string{
		"la a0, $B$prototype", "jal alloc", "lw a1, 8(a0)", "lw a1, 0(a1)", "jalr a1", "addi sp, sp, 8", "lw a0, 0(sp)",
		"lw a0, 0(sp)", "beqz a0, error.None", "lw a1, 8(a0)", "lw a1, 4(a1)", "jalr a1", "addi sp, sp, 8",
	}))
}

func TestGenerate_GlobalsAndConstants(t *testing.T) {
	src := "x: int = 42\nb: bool = True\ns: str = \"hi\"\no: object = 7\nn: [int] = None\nprint(s)\nprint(\"hi\")\n"
	lines := generate(t, src)
	assert.True(t, containsRun(lines, []string{"$x:", ".word 42"}))
	assert.True(t, containsRun(lines, []string{"$b:", ".word 1"}))
	assert.True(t, containsRun(lines, []string{"$n:", ".word 0"}))
	for _, name := range []string{"$s:", "$o:"} {
		i := indexOf(lines, name)
		require.True(t, i >= 0, name)
		assert.True(t, strings.HasPrefix(lines[i+1], ".word const_"), name)
	}
	assert.Equal(t, 1, count(lines, ".string \"hi\""))
	assert.True(t, containsRun(lines, []string{".globl const_0", "const_0:", ".word 2", ".word 4", ".word $bool$dispatchTable", ".word 0"}))
	assert.True(t, containsRun(lines, []string{".globl const_1", "const_1:", ".word 2", ".word 4", ".word $bool$dispatchTable", ".word 1"}))
	assert.True(t, containsRun(lines, []string{"makebool:", "slli a0, a0, 4", "la t0, const_0", "add a0, a0, t0", "jr ra"}))
	assert.True(t, containsInOrder(lines, []string{"error.None:", "li a0, 4", "j abort", "error.Div:", "li a0, 2", "error.OOB:", "li a0, 3"}))
}

func TestGenerate_LocalInitializers(t *testing.T) {
	src := "def f():\n    a: int = 3\n    b: object = True\n    c: str = \"x\"\n    d: [int] = None\n    pass\n"
	lines := generate(t, src)
	body := functionBody(lines, "$f")
	assert.True(t, containsInOrder(body, []string{
		"addi sp, sp, -24",
		"li a0, 3", "sw a0, -12(fp)",
		"la a0, const_1", "sw a0, -16(fp)",
		"sw a0, -20(fp)",
		"mv a0, zero", "sw a0, -24(fp)",
		"mv a0, zero", "$f$epilogue:",
	}))
}

func indexOf(lines []string, target string) int {
	for i, line := range lines {
		if line == target {
			return i
		}
	}
	return -1
}

func TestGenerate_Comments(t *testing.T) {
	program, result := analyzed(t, "x: int = 1\nprint(x)\n")
	text, err := Generate(program, result.Globals, true)
	require.Nil(t, err)
	assert.Contains(t, text, "# global x")
	plain, err := Generate(program, result.Globals, false)
	require.Nil(t, err)
	assert.NotContains(t, plain, "#")
	assert.Equal(t, asm.Instructions(plain), asm.Instructions(text))
}
