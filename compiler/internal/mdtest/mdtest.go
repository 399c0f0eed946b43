// Package mdtest extracts compiler test cases from Markdown documents.
//
// A test case starts at a heading `Test: <name>` and is followed by one
// `chocopy` fence holding the program and at least one assertion fence:
//
//   - `errors`: the expected semantic error messages, one per line, in
//     source order. An empty fence asserts that analysis succeeds.
//   - `asm`: lines that must appear in the generated assembly, in order.
package mdtest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	FenceInput  = "chocopy"
	FenceErrors = "errors"
	FenceAsm    = "asm"
)

type TestCase struct {
	Name  string
	Line  int
	Input string
	// Errors is nil when the test has no errors fence.
	Errors    []string
	HasErrors bool
	Asm       []string
}

// ExtractFile reads path and extracts its test cases.
func ExtractFile(path string) ([]TestCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cases, err := Extract(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Extract parses a Markdown document and returns its test cases in document order.
func Extract(markdown string) ([]TestCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase
	finish := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		testCases = append(testCases, *current)
		return nil
	}
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkSkipChildren, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{Name: strings.TrimPrefix(heading, "Test: "), Line: lineNumber(n, source)}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			line := lineNumber(n, source)
			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
				}
				return ast.WalkContinue, nil
			}
			content := codeBlockContent(n, source)
			switch language {
			case FenceInput:
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", line, current.Name)
				}
				current.Input = content
			case FenceErrors:
				current.HasErrors = true
				current.Errors = nonEmptyLines(content)
			case FenceAsm:
				current.Asm = append(current.Asm, nonEmptyLines(content)...)
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err = finish(); err != nil {
		return nil, err
	}
	return testCases, nil
}

func validate(testCase *TestCase) error {
	if strings.TrimSpace(testCase.Input) == "" {
		return fmt.Errorf("line %d: test '%s' has no %s fence", testCase.Line, testCase.Name, FenceInput)
	}
	if !testCase.HasErrors && len(testCase.Asm) == 0 {
		return fmt.Errorf("line %d: test '%s' has no assertion fence", testCase.Line, testCase.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func codeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := codeBlock.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.String()
}

func nonEmptyLines(content string) []string {
	var ret []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ret = append(ret, line)
		}
	}
	return ret
}

// lineNumber is the 1-based line of the node's first content line, or of the node itself for headings.
func lineNumber(node ast.Node, source []byte) int {
	offset := -1
	if node.Lines().Len() > 0 {
		offset = node.Lines().At(0).Start
	} else if heading, ok := node.(*ast.Heading); ok && heading.FirstChild() != nil {
		if t, ok := heading.FirstChild().(*ast.Text); ok {
			offset = t.Segment.Start
		}
	}
	if offset < 0 {
		return 0
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
