package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xiaobogaga/chocopy/util"
)

// A line-oriented tokenizer for ChocoPy.

// ChocoPy source has those elements:
// * KeyWord: False, None, True, and, class, def, elif, else, for, global, if, in, is, nonlocal, not, or,
//            pass, return, while. The remaining python keywords are reserved.
// * Symbol: + - * // % < > <= >= == != = ( ) [ ] , : . ->
// * Constant: integer, string ("xxx" with \" \\ \n \t escapes)
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: # to the end of the line.
// Indentation is turned into IndentTP / DedentTP tokens, and every logical line ends with NewLineTP.

type TokenType int

const (
	FalseTP              TokenType = iota // False
	NoneTP                                // None
	TrueTP                                // True
	AndTP                                 // and
	ClassTP                               // class
	DefTP                                 // def
	ElifTP                                // elif
	ElseTP                                // else
	ForTP                                 // for
	GlobalTP                              // global
	IfTP                                  // if
	InTP                                  // in
	IsTP                                  // is
	NonLocalTP                            // nonlocal
	NotTP                                 // not
	OrTP                                  // or
	PassTP                                // pass
	ReturnTP                              // return
	WhileTP                               // while
	AddTP                                 // +
	MinusTP                               // -
	MultiplyTP                            // *
	FloorDivTP                            // //
	ModTP                                 // %
	LessTP                                // <
	GreaterTP                             // >
	LessEqualTP                           // <=
	GreaterEqualTP                        // >=
	EqualEqualTP                          // ==
	NotEqualTP                            // !=
	AssignTP                              // =
	LeftParentThesesTP                    // (
	RightParentThesesTP                   // )
	LeftSquareBracketTP                   // [
	RightSquareBracketTP                  // ]
	CommaTP                               // ,
	ColonTP                               // :
	DotTP                                 // .
	ArrowTP                               // ->
	IntegerTP                             // 1010
	StringTP                              // "xxx"
	IdentifierTP                          // varA
	NewLineTP                             // end of a logical line
	IndentTP                              // deeper indentation
	DedentTP                              // shallower indentation
	EOFTP                                 // end of input
)

var keyWordTokenTPMap = map[string]TokenType{
	"False":    FalseTP,
	"None":     NoneTP,
	"True":     TrueTP,
	"and":      AndTP,
	"class":    ClassTP,
	"def":      DefTP,
	"elif":     ElifTP,
	"else":     ElseTP,
	"for":      ForTP,
	"global":   GlobalTP,
	"if":       IfTP,
	"in":       InTP,
	"is":       IsTP,
	"nonlocal": NonLocalTP,
	"not":      NotTP,
	"or":       OrTP,
	"pass":     PassTP,
	"return":   ReturnTP,
	"while":    WhileTP,
}

var reservedKeyWords = map[string]bool{
	"as": true, "assert": true, "async": true, "await": true, "break": true, "continue": true, "del": true,
	"except": true, "finally": true, "from": true, "import": true, "lambda": true, "raise": true, "try": true,
	"with": true, "yield": true,
}

// symbolTokenTPMap holds every operator and delimiter. Two-character symbols are matched first.
var symbolTokenTPMap = map[string]TokenType{
	"+":  AddTP,
	"-":  MinusTP,
	"*":  MultiplyTP,
	"//": FloorDivTP,
	"%":  ModTP,
	"<":  LessTP,
	">":  GreaterTP,
	"<=": LessEqualTP,
	">=": GreaterEqualTP,
	"==": EqualEqualTP,
	"!=": NotEqualTP,
	"=":  AssignTP,
	"(":  LeftParentThesesTP,
	")":  RightParentThesesTP,
	"[":  LeftSquareBracketTP,
	"]":  RightSquareBracketTP,
	",":  CommaTP,
	":":  ColonTP,
	".":  DotTP,
	"->": ArrowTP,
}

type Token struct {
	content string
	line    int
	col     int
	tp      TokenType
}

func (t *Token) Content() string {
	return t.content
}

func (t *Token) Type() TokenType {
	return t.tp
}

func (t *Token) String() string {
	switch t.tp {
	case NewLineTP:
		return "NEWLINE"
	case IndentTP:
		return "INDENT"
	case DedentTP:
		return "DEDENT"
	case EOFTP:
		return "EOF"
	case StringTP:
		return strconv.Quote(t.content)
	}
	return t.content
}

type Tokenizer struct {
	currentPos  int
	currentLine int
	indents     []int
	tokens      []*Token
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos = 0
	tokenizer.currentLine = 0
	tokenizer.indents = []int{0}
	tokenizer.tokens = nil
}

// Tokenize accepts a source `rd` and tokenizes its content according to ChocoPy rules.
func (tokenizer *Tokenizer) Tokenize(rd io.Reader) ([]*Token, error) {
	tokenizer.Reset()
	bfReader := bufio.NewReader(rd)
	for {
		tokenizer.currentLine++
		tokenizer.currentPos = 0
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(line) > 0 {
			if parseErr := tokenizer.parseLine(line); parseErr != nil {
				return nil, parseErr
			}
		}
		if err == io.EOF {
			break
		}
	}
	for len(tokenizer.indents) > 1 {
		tokenizer.indents = tokenizer.indents[:len(tokenizer.indents)-1]
		tokenizer.addToken("", DedentTP, 1)
	}
	tokenizer.addToken("", EOFTP, 1)
	return tokenizer.tokens, nil
}

func (tokenizer *Tokenizer) parseLine(line []byte) error {
	width, n := util.IndentWidth(line)
	tokenizer.currentPos = n
	if tokenizer.isBlankLine(line) {
		return nil
	}
	if err := tokenizer.updateIndentation(line, width); err != nil {
		return err
	}
	for {
		token, err := tokenizer.getNextToken(line)
		if err != nil {
			return err
		}
		if token == nil {
			break
		}
		tokenizer.tokens = append(tokenizer.tokens, token)
	}
	tokenizer.addToken("", NewLineTP, len(line)+1)
	return nil
}

// isBlankLine reports lines holding only whitespace or a comment. They do not take part in indentation.
func (tokenizer *Tokenizer) isBlankLine(line []byte) bool {
	pos := tokenizer.currentPos
	for pos < len(line) && (util.IsBlank(line[pos]) || util.IsLineEnd(line[pos])) {
		pos++
	}
	return pos >= len(line) || line[pos] == '#'
}

func (tokenizer *Tokenizer) updateIndentation(line []byte, width int) error {
	top := tokenizer.indents[len(tokenizer.indents)-1]
	if width > top {
		tokenizer.indents = append(tokenizer.indents, width)
		tokenizer.addToken("", IndentTP, 1)
		return nil
	}
	for width < tokenizer.indents[len(tokenizer.indents)-1] {
		tokenizer.indents = tokenizer.indents[:len(tokenizer.indents)-1]
		tokenizer.addToken("", DedentTP, 1)
	}
	if width != tokenizer.indents[len(tokenizer.indents)-1] {
		return tokenizer.makeError(string(line), "unindent does not match any outer indentation level")
	}
	return nil
}

func (tokenizer *Tokenizer) addToken(content string, tp TokenType, col int) {
	tokenizer.tokens = append(tokenizer.tokens, &Token{content: content, line: tokenizer.currentLine, col: col, tp: tp})
}

// getNextToken returns the next token from line, or nil when the line is exhausted.
func (tokenizer *Tokenizer) getNextToken(line []byte) (*Token, error) {
	tokenizer.trimSpace(line)
	if !tokenizer.hasRemainCharacters(line) || line[tokenizer.currentPos] == '#' {
		return nil, nil
	}
	switch c := line[tokenizer.currentPos]; {
	case c == '"':
		return tokenizer.tokenString(line)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(line)
	case util.IsIdentifierStart(c):
		return tokenizer.toKeywordOrIdentifier(line)
	default:
		return tokenizer.tokenSymbol(line)
	}
}

func (tokenizer *Tokenizer) trimSpace(line []byte) {
	for tokenizer.currentPos < len(line) {
		l := line[tokenizer.currentPos]
		if util.IsBlank(l) || util.IsLineEnd(l) {
			tokenizer.currentPos++
			continue
		}
		break
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(line []byte) bool {
	return tokenizer.currentPos < len(line)
}

func (tokenizer *Tokenizer) makeToken(content string, tp TokenType, startPos int) *Token {
	return &Token{content: content, line: tokenizer.currentLine, col: startPos + 1, tp: tp}
}

func (tokenizer *Tokenizer) tokenSymbol(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	if startPos+1 < len(line) {
		if tp, ok := symbolTokenTPMap[string(line[startPos:startPos+2])]; ok {
			tokenizer.currentPos += 2
			return tokenizer.makeToken(string(line[startPos:startPos+2]), tp, startPos), nil
		}
	}
	symbol := string(line[startPos])
	tp, ok := symbolTokenTPMap[symbol]
	if !ok {
		return nil, tokenizer.makeError(symbol, "unknown character")
	}
	tokenizer.currentPos++
	return tokenizer.makeToken(symbol, tp, startPos), nil
}

func (tokenizer *Tokenizer) tokenString(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	tokenizer.currentPos++
	content := make([]byte, 0, 16)
	for tokenizer.currentPos < len(line) {
		c := line[tokenizer.currentPos]
		switch {
		case c == '"':
			tokenizer.currentPos++
			return tokenizer.makeToken(string(content), StringTP, startPos), nil
		case c == '\\':
			if tokenizer.currentPos+1 >= len(line) {
				return nil, tokenizer.makeError(string(line[startPos:]), "incorrect string format")
			}
			escaped, ok := map[byte]byte{'"': '"', '\\': '\\', 'n': '\n', 't': '\t'}[line[tokenizer.currentPos+1]]
			if !ok {
				return nil, tokenizer.makeError(string(line[startPos:]), "unknown escape sequence")
			}
			content = append(content, escaped)
			tokenizer.currentPos += 2
		case c < 32 || c > 126:
			return nil, tokenizer.makeError(string(line[startPos:]), "incorrect string format")
		default:
			content = append(content, c)
			tokenizer.currentPos++
		}
	}
	// No closing quote on this line.
	return nil, tokenizer.makeError(string(line[startPos:]), "incorrect string format")
}

func (tokenizer *Tokenizer) tokenNumber(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) && util.IsNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	content := string(line[startPos:tokenizer.currentPos])
	if tokenizer.currentPos < len(line) && util.IsIdentifierStart(line[tokenizer.currentPos]) {
		return nil, tokenizer.makeError(content, "incorrect identifier format")
	}
	if len(content) > 1 && content[0] == '0' {
		return nil, tokenizer.makeError(content, "leading zeros in integer literal")
	}
	value, err := strconv.ParseInt(content, 10, 64)
	if err != nil || value > math.MaxInt32 {
		return nil, tokenizer.makeError(content, "integer literal out of range")
	}
	return tokenizer.makeToken(content, IntegerTP, startPos), nil
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) && util.IsIdentifierPart(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	word := string(line[startPos:tokenizer.currentPos])
	if keyWordTP, isKeyWord := keyWordTokenTPMap[word]; isKeyWord {
		return tokenizer.makeToken(word, keyWordTP, startPos), nil
	}
	if reservedKeyWords[word] {
		return nil, tokenizer.makeError(word, "reserved keyword")
	}
	return tokenizer.makeToken(word, IdentifierTP, startPos), nil
}

func (tokenizer *Tokenizer) makeError(near string, msg string) error {
	return errors.New(fmt.Sprintf("tokenizer error near %s at line %d, msg: %s", near, tokenizer.currentLine, msg))
}
