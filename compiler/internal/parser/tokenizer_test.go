package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenTypes(tokens []*Token) []TokenType {
	ret := make([]TokenType, 0, len(tokens))
	for _, token := range tokens {
		ret = append(ret, token.tp)
	}
	return ret
}

func TestTokenizer_Indentation(t *testing.T) {
	tokenizer := &Tokenizer{}
	src := "if x:\n    y = 1\n\n    # comment only\nz\n"
	tokens, err := tokenizer.Tokenize(strings.NewReader(src))
	assert.Nil(t, err)
	assert.Equal(t, []TokenType{
		IfTP, IdentifierTP, ColonTP, NewLineTP,
		IndentTP, IdentifierTP, AssignTP, IntegerTP, NewLineTP,
		DedentTP, IdentifierTP, NewLineTP,
		EOFTP,
	}, tokenTypes(tokens))
}

func TestTokenizer_DedentAtEOF(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader("def f():\n  if x:\n    pass"))
	assert.Nil(t, err)
	types := tokenTypes(tokens)
	assert.Equal(t, []TokenType{NewLineTP, DedentTP, DedentTP, EOFTP}, types[len(types)-4:])
}

func TestTokenizer_Symbols(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader("a//b->c<=d>=e==f!=g%h<i>j=k[l](m),n:o.p"))
	assert.Nil(t, err)
	var symbols []TokenType
	for _, token := range tokens {
		if token.tp != IdentifierTP {
			symbols = append(symbols, token.tp)
		}
	}
	assert.Equal(t, []TokenType{
		FloorDivTP, ArrowTP, LessEqualTP, GreaterEqualTP, EqualEqualTP, NotEqualTP, ModTP, LessTP, GreaterTP,
		AssignTP, LeftSquareBracketTP, RightSquareBracketTP, LeftParentThesesTP, RightParentThesesTP, CommaTP,
		ColonTP, DotTP, NewLineTP, EOFTP,
	}, symbols)
}

func TestTokenizer_Literals(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader(`x = "a\"b\\c\n" + 2147483647 # tail`))
	assert.Nil(t, err)
	assert.Equal(t, StringTP, tokens[2].tp)
	assert.Equal(t, "a\"b\\c\n", tokens[2].content)
	assert.Equal(t, IntegerTP, tokens[4].tp)
	assert.Equal(t, "2147483647", tokens[4].content)
	assert.Equal(t, 1, tokens[2].line)
	assert.Equal(t, 5, tokens[2].col)
}

func TestTokenizer_KeywordsAndIdentifiers(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader("nonlocal global None True False is_ready"))
	assert.Nil(t, err)
	assert.Equal(t, []TokenType{NonLocalTP, GlobalTP, NoneTP, TrueTP, FalseTP, IdentifierTP, NewLineTP, EOFTP}, tokenTypes(tokens))
}

func TestTokenizer_Errors(t *testing.T) {
	testData := []struct {
		Content string
	}{
		{Content: "if x:\n    y\n  z\n"},
		{Content: `x = "unterminated`},
		{Content: `x = "bad \q escape"`},
		{Content: "x = 2147483648"},
		{Content: "x = 007"},
		{Content: "x = 1abc"},
		{Content: "break"},
		{Content: "x = a ! b"},
		{Content: "x = $"},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		_, err := tokenizer.Tokenize(strings.NewReader(data.Content))
		assert.NotNil(t, err, data.Content)
	}
}
