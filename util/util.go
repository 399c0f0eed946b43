package util

// Character classes used by the ChocoPy tokenizer. Source text is treated as
// ASCII; anything outside these classes is reported by the tokenizer.

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsIdentifierStart reports whether b can start an identifier.
func IsIdentifierStart(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

// IsIdentifierPart reports whether b can continue an identifier.
func IsIdentifierPart(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsNumber(b)
}

// IsBlank reports the in-line whitespace, excluding line terminators.
func IsBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\f'
}

func IsLineEnd(b byte) bool {
	return b == '\n' || b == '\r'
}

// IndentWidth is the column width of the leading whitespace of line. Tabs
// advance to the next multiple of 8, as in Python.
func IndentWidth(line []byte) (width int, n int) {
	for n < len(line) {
		switch line[n] {
		case ' ':
			width++
		case '\t':
			width += 8 - width%8
		case '\f':
			width = 0
		default:
			return
		}
		n++
	}
	return
}
