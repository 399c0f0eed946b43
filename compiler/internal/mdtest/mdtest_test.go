package mdtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	doc := "# Cases\n\nSome prose.\n\n" +
		"## Test: first\n\n```chocopy\nx: int = 1\nprint(x)\n```\n\n```errors\n```\n\n" +
		"## Notes\n\nnot a test heading\n\n" +
		"## Test: second\n\n```chocopy\nprint(1)\n```\n\n```asm\n  li a0, 1\n\njal $print\n```\n\n" +
		"```errors\nNot a variable: y\n```\n"
	testCases, err := Extract(doc)
	require.Nil(t, err)
	require.Len(t, testCases, 2)

	assert.Equal(t, "first", testCases[0].Name)
	assert.Equal(t, 5, testCases[0].Line)
	assert.Equal(t, "x: int = 1\nprint(x)\n", testCases[0].Input)
	assert.True(t, testCases[0].HasErrors)
	assert.Nil(t, testCases[0].Errors)
	assert.Nil(t, testCases[0].Asm)

	assert.Equal(t, "second", testCases[1].Name)
	assert.Equal(t, "print(1)\n", testCases[1].Input)
	assert.Equal(t, []string{"li a0, 1", "jal $print"}, testCases[1].Asm)
	assert.Equal(t, []string{"Not a variable: y"}, testCases[1].Errors)
}

func TestExtract_Invalid(t *testing.T) {
	testData := []struct {
		Name    string
		Content string
		Err     string
	}{
		{
			Name:    "missing input",
			Content: "## Test: a\n\n```errors\n```\n",
			Err:     "has no chocopy fence",
		},
		{
			Name:    "missing assertion",
			Content: "## Test: a\n\n```chocopy\nprint(1)\n```\n",
			Err:     "has no assertion fence",
		},
		{
			Name:    "two inputs",
			Content: "## Test: a\n\n```chocopy\nprint(1)\n```\n\n```chocopy\nprint(2)\n```\n",
			Err:     "multiple input fences",
		},
		{
			Name:    "unknown fence",
			Content: "## Test: a\n\n```python\nprint(1)\n```\n",
			Err:     "unknown fence language 'python'",
		},
		{
			Name:    "fence before any test",
			Content: "```chocopy\nprint(1)\n```\n",
			Err:     "fence found outside of test case",
		},
	}
	for _, data := range testData {
		_, err := Extract(data.Content)
		if assert.NotNil(t, err, data.Name) {
			assert.Contains(t, err.Error(), data.Err, data.Name)
		}
	}
}

func TestExtract_UnlabeledFenceOutsideTest(t *testing.T) {
	testCases, err := Extract("```\nplain\n```\n")
	assert.Nil(t, err)
	assert.Empty(t, testCases)
}

func TestExtractFile_Missing(t *testing.T) {
	_, err := ExtractFile("testdata/does-not-exist.md")
	assert.NotNil(t, err)
}
