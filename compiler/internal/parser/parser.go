// Package parser turns ChocoPy source text into an ast.Program. It is a
// recursive-descent parser over the tokens produced by Tokenizer.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
)

type Parser struct {
	currentTokenPos int
	currentTokens   []*Token
}

func (parser *Parser) reset() {
	parser.currentTokenPos = 0
	parser.currentTokens = nil
}

// ParseString tokenizes and parses src.
func ParseString(src string) (*ast.Program, error) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	parser := &Parser{}
	return parser.Parse(tokens)
}

// Parse builds the program from tokens, which must end with EOFTP. The first
// syntax error stops parsing.
func (parser *Parser) Parse(tokens []*Token) (*ast.Program, error) {
	parser.reset()
	parser.currentTokens = tokens
	program := &ast.Program{Location: ast.Location{Line: 1, Col: 1}}
	for {
		decl, err := parser.parseDeclaration(false)
		if err != nil {
			return nil, err
		}
		if decl == nil {
			break
		}
		program.Declarations = append(program.Declarations, decl)
	}
	for !parser.isToken(EOFTP) {
		stmt, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}
	return program, nil
}

// parseDeclaration parses one var_def, func_def or class_def, and global/nonlocal declarations when
// inFunction is set. It returns nil when the next tokens do not start a declaration.
func (parser *Parser) parseDeclaration(inFunction bool) (ast.Declaration, error) {
	switch {
	case parser.isToken(IdentifierTP) && parser.peekToken(1).tp == ColonTP:
		return parser.parseVarDef()
	case parser.isToken(DefTP):
		return parser.parseFuncDef()
	case parser.isToken(ClassTP) && !inFunction:
		return parser.parseClassDef()
	case parser.isToken(GlobalTP) && inFunction:
		token := parser.stepForward()
		name, err := parser.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.GlobalDecl{Location: parser.location(token), Variable: name}, parser.expectNewLine()
	case parser.isToken(NonLocalTP) && inFunction:
		token := parser.stepForward()
		name, err := parser.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.NonLocalDecl{Location: parser.location(token), Variable: name}, parser.expectNewLine()
	}
	return nil, nil
}

// var_def: typed_var = literal NEWLINE
func (parser *Parser) parseVarDef() (*ast.VarDef, error) {
	typedVar, err := parser.parseTypedVar()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(AssignTP, true); !match {
		return nil, parser.makeError(true, "expect = in variable definition")
	}
	value, err := parser.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &ast.VarDef{Location: typedVar.Location, Var: typedVar, Value: value}, parser.expectNewLine()
}

// typed_var: ID : type
func (parser *Parser) parseTypedVar() (*ast.TypedVar, error) {
	name, err := parser.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(ColonTP, true); !match {
		return nil, parser.makeError(true, "expect : after variable name")
	}
	annotation, err := parser.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}
	return &ast.TypedVar{Location: name.Location, Name: name, Type: annotation}, nil
}

// type: ID | STRING | [ type ]
func (parser *Parser) parseTypeAnnotation() (ast.TypeAnnotation, error) {
	token := parser.currentToken()
	switch token.tp {
	case IdentifierTP, StringTP:
		parser.stepForward()
		return &ast.ClassTypeAnnotation{Location: parser.location(token), ClassName: token.content}, nil
	case LeftSquareBracketTP:
		parser.stepForward()
		element, err := parser.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
		if _, match := parser.expectToken(RightSquareBracketTP, true); !match {
			return nil, parser.makeError(true, "expect ] in list type")
		}
		return &ast.ListTypeAnnotation{Location: parser.location(token), ElementType: element}, nil
	}
	return nil, parser.makeError(true, "expect a type annotation")
}

func (parser *Parser) parseLiteral() (ast.Literal, error) {
	token := parser.currentToken()
	loc := parser.location(token)
	switch token.tp {
	case NoneTP:
		parser.stepForward()
		return ast.NewNoneLiteral(loc), nil
	case TrueTP, FalseTP:
		parser.stepForward()
		return ast.NewBooleanLiteral(loc, token.tp == TrueTP), nil
	case IntegerTP:
		parser.stepForward()
		value, _ := strconv.ParseInt(token.content, 10, 32)
		return ast.NewIntegerLiteral(loc, int32(value)), nil
	case StringTP:
		parser.stepForward()
		return ast.NewStringLiteral(loc, token.content), nil
	}
	return nil, parser.makeError(true, "expect a literal")
}

// func_def: def ID ( [typed_var [, typed_var]*] ) [-> type] : NEWLINE INDENT func_body DEDENT
// func_body: [global_decl | nonlocal_decl | var_def | func_def]* stmt+
func (parser *Parser) parseFuncDef() (*ast.FuncDef, error) {
	defToken := parser.stepForward()
	name, err := parser.parseIdentifier()
	if err != nil {
		return nil, err
	}
	funcDef := &ast.FuncDef{Location: parser.location(defToken), Name: name}
	if _, match := parser.expectToken(LeftParentThesesTP, true); !match {
		return nil, parser.makeError(true, "expect ( after function name")
	}
	for !parser.isToken(RightParentThesesTP) {
		if len(funcDef.Params) > 0 {
			if _, match := parser.expectToken(CommaTP, true); !match {
				return nil, parser.makeError(true, "expect , between parameters")
			}
		}
		param, err := parser.parseTypedVar()
		if err != nil {
			return nil, err
		}
		funcDef.Params = append(funcDef.Params, param)
	}
	parser.stepForward()
	if _, match := parser.expectToken(ArrowTP, true); match {
		funcDef.ReturnType, err = parser.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
	}
	if err = parser.expectBlockStart(); err != nil {
		return nil, err
	}
	for {
		decl, err := parser.parseDeclaration(true)
		if err != nil {
			return nil, err
		}
		if decl == nil {
			break
		}
		funcDef.Declarations = append(funcDef.Declarations, decl)
	}
	funcDef.Statements, err = parser.parseStatementsUntilDedent()
	return funcDef, err
}

// class_def: class ID ( ID ) : NEWLINE INDENT class_body DEDENT
// class_body: pass NEWLINE | [var_def | func_def]+
func (parser *Parser) parseClassDef() (*ast.ClassDef, error) {
	classToken := parser.stepForward()
	name, err := parser.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(LeftParentThesesTP, true); !match {
		return nil, parser.makeError(true, "expect ( after class name")
	}
	superClass, err := parser.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true, "expect ) after super class")
	}
	if err = parser.expectBlockStart(); err != nil {
		return nil, err
	}
	classDef := &ast.ClassDef{Location: parser.location(classToken), Name: name, SuperClass: superClass}
	for {
		if _, match := parser.expectToken(DedentTP, true); match {
			break
		}
		if _, match := parser.expectToken(PassTP, true); match {
			if err = parser.expectNewLine(); err != nil {
				return nil, err
			}
			continue
		}
		decl, err := parser.parseDeclaration(false)
		if err != nil {
			return nil, err
		}
		if _, isClass := decl.(*ast.ClassDef); decl == nil || isClass {
			return nil, parser.makeError(true, "expect attribute or method definition in class body")
		}
		classDef.Declarations = append(classDef.Declarations, decl)
	}
	return classDef, nil
}

// expectBlockStart consumes `: NEWLINE INDENT`.
func (parser *Parser) expectBlockStart() error {
	if _, match := parser.expectToken(ColonTP, true); !match {
		return parser.makeError(true, "expect :")
	}
	if err := parser.expectNewLine(); err != nil {
		return err
	}
	if _, match := parser.expectToken(IndentTP, true); !match {
		return parser.makeError(true, "expect an indented block")
	}
	return nil
}

// parseBlock parses `: NEWLINE INDENT stmt+ DEDENT`.
func (parser *Parser) parseBlock() ([]ast.Stmt, error) {
	if err := parser.expectBlockStart(); err != nil {
		return nil, err
	}
	return parser.parseStatementsUntilDedent()
}

// parseStatementsUntilDedent parses at least one statement and consumes the closing DEDENT.
func (parser *Parser) parseStatementsUntilDedent() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	count := 0
	for !parser.isToken(DedentTP) {
		if parser.isToken(EOFTP) {
			return nil, parser.makeError(true, "unexpected end of input")
		}
		stmt, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		count++
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if count == 0 {
		return nil, parser.makeError(true, "expect at least one statement")
	}
	parser.stepForward()
	return stmts, nil
}

// parseStatement returns nil for `pass`.
func (parser *Parser) parseStatement() (ast.Stmt, error) {
	token := parser.currentToken()
	switch token.tp {
	case IfTP:
		return parser.parseIfStatement()
	case WhileTP:
		parser.stepForward()
		condition, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := parser.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Location: parser.location(token), Condition: condition, Body: body}, nil
	case ForTP:
		parser.stepForward()
		identifier, err := parser.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if _, match := parser.expectToken(InTP, true); !match {
			return nil, parser.makeError(true, "expect in")
		}
		iterable, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := parser.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.ForStmt{Location: parser.location(token), Identifier: identifier, Iterable: iterable, Body: body}, nil
	}
	stmt, err := parser.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	return stmt, parser.expectNewLine()
}

// if expr : block [elif expr : block]* [else : block]
func (parser *Parser) parseIfStatement() (*ast.IfStmt, error) {
	token := parser.stepForward()
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	thenBody, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	ifStmt := &ast.IfStmt{Location: parser.location(token), Condition: condition, ThenBody: thenBody}
	switch parser.currentToken().tp {
	case ElifTP:
		elif, err := parser.parseIfStatement()
		if err != nil {
			return nil, err
		}
		ifStmt.ElseBody = []ast.Stmt{elif}
	case ElseTP:
		parser.stepForward()
		ifStmt.ElseBody, err = parser.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return ifStmt, nil
}

// simple_stmt: pass | return [expr] | [target =]* expr
func (parser *Parser) parseSimpleStatement() (ast.Stmt, error) {
	token := parser.currentToken()
	switch token.tp {
	case PassTP:
		parser.stepForward()
		return nil, nil
	case ReturnTP:
		parser.stepForward()
		ret := &ast.ReturnStmt{Location: parser.location(token)}
		if parser.isToken(NewLineTP) {
			return ret, nil
		}
		value, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		ret.Value = value
		return ret, nil
	}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if !parser.isToken(AssignTP) {
		return &ast.ExprStmt{Location: parser.location(token), Expr: expr}, nil
	}
	exprs := []ast.Expr{expr}
	for {
		if _, match := parser.expectToken(AssignTP, true); !match {
			break
		}
		expr, err = parser.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	targets := exprs[:len(exprs)-1]
	for _, target := range targets {
		switch target.(type) {
		case *ast.Identifier, *ast.MemberExpr, *ast.IndexExpr:
		default:
			return nil, parser.makeErrorAt(target.Pos(), "cannot assign to expression")
		}
	}
	return &ast.AssignStmt{Location: parser.location(token), Targets: targets, Value: exprs[len(exprs)-1]}, nil
}

func (parser *Parser) parseIdentifier() (*ast.Identifier, error) {
	token, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true, "expect an identifier")
	}
	return ast.NewIdentifier(parser.location(token), token.content), nil
}

func (parser *Parser) expectNewLine() error {
	if _, match := parser.expectToken(NewLineTP, true); !match {
		return parser.makeError(true, "expect end of line")
	}
	return nil
}

func (parser *Parser) location(token *Token) ast.Location {
	return ast.Location{Line: token.line, Col: token.col}
}

// expectToken reports whether the current token has type tp, and moves forward when walk is set and it matches.
func (parser *Parser) expectToken(tp TokenType, walk bool) (*Token, bool) {
	token := parser.currentToken()
	if token.tp != tp {
		return nil, false
	}
	if walk {
		parser.stepForward()
	}
	return token, true
}

func (parser *Parser) isToken(tp TokenType) bool {
	return parser.currentToken().tp == tp
}

// currentToken never runs past the trailing EOF token.
func (parser *Parser) currentToken() *Token {
	return parser.peekToken(0)
}

func (parser *Parser) peekToken(offset int) *Token {
	pos := parser.currentTokenPos + offset
	if pos >= len(parser.currentTokens) {
		if len(parser.currentTokens) == 0 {
			return &Token{tp: EOFTP, line: 1, col: 1}
		}
		return parser.currentTokens[len(parser.currentTokens)-1]
	}
	return parser.currentTokens[pos]
}

func (parser *Parser) stepForward() *Token {
	token := parser.currentToken()
	if parser.currentTokenPos < len(parser.currentTokens) {
		parser.currentTokenPos++
	}
	return token
}

func (parser *Parser) makeError(useCurrentPos bool, msg string) error {
	token := parser.currentToken()
	if !useCurrentPos && parser.currentTokenPos > 0 {
		token = parser.currentTokens[parser.currentTokenPos-1]
	}
	return errors.New(fmt.Sprintf("syntax error near %s at line %d, col %d: %s", token, token.line, token.col, msg))
}

func (parser *Parser) makeErrorAt(loc ast.Location, msg string) error {
	return errors.New(fmt.Sprintf("syntax error at line %d, col %d: %s", loc.Line, loc.Col, msg))
}
