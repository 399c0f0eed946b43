package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// A small line-based reader for the assembly the backend writes. It does not
// encode anything: it only collects label declarations and label references,
// so that a mistake in the generator shows up before the text reaches a real
// assembler.
//
// A line is one of:
// * label:, declares a label at the current position.
// * .directive operands, where only `.word label` references a label.
// * mnemonic operands, where jumps, branches, `la` and the label forms of
//   `lw`/`sw` reference a label.
// Anything after an unquoted '#' is a comment.

var labelFormat = regexp.MustCompile(`^[A-Za-z_.$][0-9A-Za-z_.$]*$`)

// labelOperand maps mnemonics to the index of their label operand.
var labelOperand = map[string]int{
	"j":    0,
	"jal":  0,
	"beqz": 1,
	"bnez": 1,
	"la":   1,
	"beq":  2,
	"bne":  2,
	"blt":  2,
	"bge":  2,
	"bgt":  2,
	"ble":  2,
}

type labelLocation struct {
	label string
	line  int
}

type checker struct {
	line             int
	labelLocationMap map[string]int
	symbolLocations  []labelLocation
	external         map[string]bool
}

// Check reads assembly text and reports the first duplicate label
// declaration, malformed label, or reference to a label that is neither
// declared in the text nor listed in external.
func Check(rd io.Reader, external map[string]bool) error {
	c := &checker{line: 1, labelLocationMap: map[string]int{}, external: external}
	bfReader := bufio.NewReader(rd)
	for {
		line, err := bfReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if trimmed, ok := trimLine(line); ok {
			if err := c.checkLine(trimmed); err != nil {
				return err
			}
		}
		if err == io.EOF {
			return c.checkReferences()
		}
		c.line++
	}
}

// Instructions returns the lines of text with comments and blank lines
// removed and surrounding space trimmed.
func Instructions(text string) []string {
	var ret []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed, ok := trimLine(line); ok {
			ret = append(ret, trimmed)
		}
	}
	return ret
}

// trimLine removes the comment and surrounding space from line, reporting
// whether anything remains.
func trimLine(line string) (string, bool) {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case '#':
			if !inString {
				line = line[:i]
				i = len(line)
			}
		}
	}
	line = strings.TrimSpace(line)
	return line, line != ""
}

func (c *checker) checkLine(line string) error {
	if strings.HasSuffix(line, ":") {
		return c.checkLabelDeclaration(strings.TrimSuffix(line, ":"))
	}
	mnemonic, rest, _ := strings.Cut(line, " ")
	operands := splitOperands(rest)
	switch mnemonic {
	case ".word":
		if len(operands) != 1 {
			return c.makeSyntaxErr(".word expects one operand")
		}
		if _, err := strconv.ParseInt(operands[0], 10, 32); err != nil {
			return c.reference(operands[0])
		}
		return nil
	case "lw", "sw":
		// Only the label forms (`lw rd, label` and `sw rs, label, tmp`) reference labels.
		if len(operands) >= 2 && !strings.Contains(operands[1], "(") {
			return c.reference(operands[1])
		}
		return nil
	}
	index, ok := labelOperand[mnemonic]
	if !ok {
		return nil
	}
	if index >= len(operands) {
		return c.makeSyntaxErr(fmt.Sprintf("%s expects a label operand", mnemonic))
	}
	return c.reference(operands[index])
}

func splitOperands(rest string) []string {
	if strings.TrimSpace(rest) == "" {
		return nil
	}
	operands := strings.Split(rest, ",")
	for i := range operands {
		operands[i] = strings.TrimSpace(operands[i])
	}
	return operands
}

func (c *checker) checkLabelDeclaration(label string) error {
	if !labelFormat.MatchString(label) {
		return c.makeSyntaxErr(fmt.Sprintf("wrong label format %s", label))
	}
	if _, exist := c.labelLocationMap[label]; exist {
		return c.makeSyntaxErr(fmt.Sprintf("found duplicate label %s", label))
	}
	c.labelLocationMap[label] = c.line
	return nil
}

// reference records a label use. Labels can be used before they are declared, so they are resolved at the end.
func (c *checker) reference(label string) error {
	if !labelFormat.MatchString(label) {
		return c.makeSyntaxErr(fmt.Sprintf("wrong label format %s", label))
	}
	c.symbolLocations = append(c.symbolLocations, labelLocation{label: label, line: c.line})
	return nil
}

func (c *checker) checkReferences() error {
	for _, location := range c.symbolLocations {
		if _, exist := c.labelLocationMap[location.label]; exist || c.external[location.label] {
			continue
		}
		return makeSyntaxErrAtSpecificLine(location.line, fmt.Sprintf("undefined label %s", location.label))
	}
	return nil
}

func (c *checker) makeSyntaxErr(msg string) error {
	return makeSyntaxErrAtSpecificLine(c.line, msg)
}

func makeSyntaxErrAtSpecificLine(line int, msg string) error {
	return errors.New(fmt.Sprintf("syntax err at line %d: %s", line, msg))
}
