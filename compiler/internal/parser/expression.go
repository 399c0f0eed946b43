package parser

import (
	"github.com/xiaobogaga/chocopy/compiler/internal/ast"
)

// opAst is a binary operator between two terms of a comparison/arithmetic chain.
type opAst struct {
	op       string
	priority int
}

var binaryOpPriority = map[TokenType]opAst{
	EqualEqualTP:   {ast.OpEq, 1},
	NotEqualTP:     {ast.OpNe, 1},
	LessTP:         {ast.OpLt, 1},
	GreaterTP:      {ast.OpGt, 1},
	LessEqualTP:    {ast.OpLe, 1},
	GreaterEqualTP: {ast.OpGe, 1},
	IsTP:           {ast.OpIs, 1},
	AddTP:          {ast.OpAdd, 2},
	MinusTP:        {ast.OpSub, 2},
	MultiplyTP:     {ast.OpMul, 3},
	FloorDivTP:     {ast.OpFloorDiv, 3},
	ModTP:          {ast.OpMod, 3},
}

// comparisonPriority operators do not associate: `a < b < c` is rejected.
const comparisonPriority = 1

// buildExpressionsTree folds terms and the operators between them into a tree, honoring priorities.
// Operators of equal priority associate to the left.
func buildExpressionsTree(ops []opAst, exprTerms []ast.Expr) ast.Expr {
	ret, _ := buildExpressionsTree0(ops, exprTerms, 0, 0)
	return ret
}

func buildExpressionsTree0(ops []opAst, exprTerms []ast.Expr, loc int, minPriority int) (ast.Expr, int) {
	lhs := exprTerms[loc]
	i := loc
	for i < len(ops) && ops[i].priority >= minPriority {
		op := ops[i]
		rhs := exprTerms[i+1]
		j := i + 1
		for j < len(ops) && ops[j].priority > op.priority {
			rhs, j = buildExpressionsTree0(ops, exprTerms, j, ops[j].priority)
		}
		lhs = ast.NewBinaryExpr(lhs.Pos(), lhs, op.op, rhs)
		exprTerms[j] = lhs
		i = j
	}
	return lhs, i
}

// expr: or_expr [if or_expr else expr]
func (parser *Parser) parseExpression() (ast.Expr, error) {
	expr, err := parser.parseOrExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(IfTP, true); !match {
		return expr, nil
	}
	condition, err := parser.parseOrExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(ElseTP, true); !match {
		return nil, parser.makeError(true, "expect else in conditional expression")
	}
	elseExpr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewIfExpr(expr.Pos(), condition, expr, elseExpr), nil
}

func (parser *Parser) parseOrExpression() (ast.Expr, error) {
	return parser.parseLogicalChain(OrTP, ast.OpOr, parser.parseAndExpression)
}

func (parser *Parser) parseAndExpression() (ast.Expr, error) {
	return parser.parseLogicalChain(AndTP, ast.OpAnd, parser.parseNotExpression)
}

func (parser *Parser) parseLogicalChain(tp TokenType, op string, operand func() (ast.Expr, error)) (ast.Expr, error) {
	lhs, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		if _, match := parser.expectToken(tp, true); !match {
			return lhs, nil
		}
		rhs, err := operand()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinaryExpr(lhs.Pos(), lhs, op, rhs)
	}
}

func (parser *Parser) parseNotExpression() (ast.Expr, error) {
	token, match := parser.expectToken(NotTP, true)
	if !match {
		return parser.parseBinaryExpression()
	}
	operand, err := parser.parseNotExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewUnaryExpr(parser.location(token), ast.OpNot, operand), nil
}

// parseBinaryExpression collects `term op term op ...` and builds the tree by precedence climbing.
func (parser *Parser) parseBinaryExpression() (ast.Expr, error) {
	term, err := parser.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	terms := []ast.Expr{term}
	var ops []opAst
	comparisons := 0
	for {
		op, ok := binaryOpPriority[parser.currentToken().tp]
		if !ok {
			break
		}
		if op.priority == comparisonPriority {
			comparisons++
			if comparisons > 1 {
				return nil, parser.makeError(true, "comparison operators cannot be chained")
			}
		}
		parser.stepForward()
		term, err = parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		terms = append(terms, term)
	}
	return buildExpressionsTree(ops, terms), nil
}

func (parser *Parser) parseUnaryExpression() (ast.Expr, error) {
	token, match := parser.expectToken(MinusTP, true)
	if !match {
		return parser.parsePrimaryExpression()
	}
	operand, err := parser.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewUnaryExpr(parser.location(token), ast.OpSub, operand), nil
}

// primary: atom [. ID [( args )] | [ expr ]]*
func (parser *Parser) parsePrimaryExpression() (ast.Expr, error) {
	expr, err := parser.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch parser.currentToken().tp {
		case DotTP:
			parser.stepForward()
			member, err := parser.parseIdentifier()
			if err != nil {
				return nil, err
			}
			memberExpr := ast.NewMemberExpr(expr.Pos(), expr, member)
			if !parser.isToken(LeftParentThesesTP) {
				expr = memberExpr
				continue
			}
			args, err := parser.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = ast.NewMethodCallExpr(expr.Pos(), memberExpr, args)
		case LeftSquareBracketTP:
			parser.stepForward()
			index, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, match := parser.expectToken(RightSquareBracketTP, true); !match {
				return nil, parser.makeError(true, "expect ]")
			}
			expr = ast.NewIndexExpr(expr.Pos(), expr, index)
		default:
			return expr, nil
		}
	}
}

// atom: ID [( args )] | literal | [ [expr [, expr]*] ] | ( expr )
func (parser *Parser) parseAtom() (ast.Expr, error) {
	token := parser.currentToken()
	switch token.tp {
	case IdentifierTP:
		identifier, _ := parser.parseIdentifier()
		if !parser.isToken(LeftParentThesesTP) {
			return identifier, nil
		}
		args, err := parser.parseArguments()
		if err != nil {
			return nil, err
		}
		return ast.NewCallExpr(identifier.Pos(), identifier, args), nil
	case LeftSquareBracketTP:
		parser.stepForward()
		var elements []ast.Expr
		for !parser.isToken(RightSquareBracketTP) {
			if len(elements) > 0 {
				if _, match := parser.expectToken(CommaTP, true); !match {
					return nil, parser.makeError(true, "expect , between list elements")
				}
			}
			element, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
		}
		parser.stepForward()
		return ast.NewListExpr(parser.location(token), elements), nil
	case LeftParentThesesTP:
		parser.stepForward()
		expr, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, match := parser.expectToken(RightParentThesesTP, true); !match {
			return nil, parser.makeError(true, "expect )")
		}
		return expr, nil
	case NoneTP, TrueTP, FalseTP, IntegerTP, StringTP:
		return parser.parseLiteral()
	}
	return nil, parser.makeError(true, "expect an expression")
}

// args: ( [expr [, expr]*] )
func (parser *Parser) parseArguments() ([]ast.Expr, error) {
	parser.stepForward()
	var args []ast.Expr
	for !parser.isToken(RightParentThesesTP) {
		if len(args) > 0 {
			if _, match := parser.expectToken(CommaTP, true); !match {
				return nil, parser.makeError(true, "expect , between arguments")
			}
		}
		arg, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	parser.stepForward()
	return args, nil
}
