package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/chocopy/compiler/internal/config"
)

func newCompiler(stopAfter string) *Compiler {
	cfg := config.Default()
	cfg.StopAfter = stopAfter
	return NewCompiler(cfg, nil)
}

func TestCompile_Stages(t *testing.T) {
	src := "x: int = 1\nprint(x)\n"
	testData := []struct {
		StopAfter  string
		HasGlobals bool
		HasAsm     bool
	}{
		{StopAfter: config.StageParse},
		{StopAfter: config.StageCheck, HasGlobals: true},
		{StopAfter: config.StageCodegen, HasGlobals: true, HasAsm: true},
	}
	for _, data := range testData {
		result, err := newCompiler(data.StopAfter).Compile(src)
		require.Nil(t, err, data.StopAfter)
		assert.NotNil(t, result.Program)
		assert.False(t, result.Failed())
		assert.Equal(t, data.HasGlobals, result.Globals != nil, data.StopAfter)
		assert.Equal(t, data.HasAsm, result.Asm != "", data.StopAfter)
	}
}

func TestCompile_SemanticErrorsStopStages(t *testing.T) {
	testData := []struct {
		Content  string
		Expected []string
		Log      string
	}{
		{
			Content:  "x: int = 1\nx: int = 2\nprint(y)\n",
			Expected: []string{"Duplicate declaration of identifier in same scope: x"},
			Log:      "chocopyc: declaration analysis found 1 errors",
		},
		{
			Content:  "x: int = 1\nx = True\n",
			Expected: []string{"Expected type `int`; got type `bool`"},
			Log:      "chocopyc: type checker found 1 errors",
		},
	}
	for _, data := range testData {
		var logs bytes.Buffer
		cfg := config.Default()
		cfg.Verbose = true
		result, err := NewCompiler(cfg, &logs).Compile(data.Content)
		require.Nil(t, err)
		assert.True(t, result.Failed())
		assert.Equal(t, data.Expected, result.Errors.Messages())
		assert.Empty(t, result.Asm)
		lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
		assert.Equal(t, data.Log, lines[len(lines)-1])
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := newCompiler(config.StageCodegen).Compile("x: int\n")
	assert.NotNil(t, err)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.py")
	require.Nil(t, os.WriteFile(path, []byte("print(\"hello\")\n"), 0o644))
	var logs bytes.Buffer
	cfg := config.Default()
	cfg.Verbose = true
	result, err := NewCompiler(cfg, &logs).CompileFile(path)
	require.Nil(t, err)
	assert.Contains(t, result.Asm, "jal $print")
	assert.Equal(t, []string{
		"chocopyc: compiling " + path,
		"chocopyc: start parser",
		"chocopyc: start semantic analysis",
		"chocopyc: start generate codes",
	}, strings.Split(strings.TrimSpace(logs.String()), "\n"))

	_, err = NewCompiler(cfg, &logs).CompileFile(filepath.Join(t.TempDir(), "missing.py"))
	assert.ErrorContains(t, err, "reading source")
}
