package parser

import (
	"strings"
	"unicode"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/scanner"
)

// parseExpr is the single entry point for parsing a (sub-)expression. It
// tracks nesting depth per spec.md §4.2 — every recursive descent back
// into a parenthesized, bracketed, or argument sub-expression funnels
// through here.
func (p *Parser) parseExpr() (ast.Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprDepth {
		return nil, p.errorf("expression nesting exceeds maximum depth of %d", maxExprDepth)
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		start := p.cur().Span
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Sp: start}, Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		start := p.cur().Span
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Sp: start}, Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.isKeyword("not") {
		start := p.cur().Span
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.Base{Sp: start}, Op: "not", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.kind() == scanner.OPERATOR && comparisonOps[p.lexeme()] {
		op := p.lexeme()
		start := p.cur().Span
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Base: ast.Base{Sp: start}, Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.kind() == scanner.OPERATOR && (p.lexeme() == "+" || p.lexeme() == "-") {
		op := p.lexeme()
		start := p.cur().Span
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Sp: start}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.kind() == scanner.OPERATOR && (p.lexeme() == "*" || p.lexeme() == "/" || p.lexeme() == "%") {
		op := p.lexeme()
		start := p.cur().Span
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Sp: start}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.kind() == scanner.OPERATOR && p.lexeme() == "-" {
		start := p.cur().Span
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.Base{Sp: start}, Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("("):
			start := p.cur().Span
			p.advance()
			args, kwargs, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			base = &ast.CallExpr{Base: ast.Base{Sp: start}, Callee: base, Args: args, Kwargs: kwargs}
		case p.isPunct("["):
			start := p.cur().Span
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			base = &ast.IndexExpr{Base: ast.Base{Sp: start}, Object: base, Index: idx}
		case p.isPunct("."):
			start := p.cur().Span
			p.advance()
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.isPunct("(") {
				p.advance()
				args, kwargs, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				if _, err := p.expectPunct(")"); err != nil {
					return nil, err
				}
				base = &ast.MethodCallExpr{Base: ast.Base{Sp: start}, Receiver: base, Method: field, Args: args, Kwargs: kwargs}
			} else {
				base = &ast.MemberExpr{Base: ast.Base{Sp: start}, Object: base, Field: field}
			}
		default:
			return base, nil
		}
	}
}

// parseArgList parses a comma-separated argument list where keyword args
// (`name: value`) must follow all positional args.
func (p *Parser) parseArgList() ([]ast.Expr, []ast.KeywordArg, error) {
	var args []ast.Expr
	var kwargs []ast.KeywordArg
	if p.isPunct(")") {
		return nil, nil, nil
	}
	seenKwarg := false
	for {
		if p.kind() == scanner.IDENT && p.nextIsColon() {
			name, err := p.expectIdent()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expectOperator(":"); err != nil {
				return nil, nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			kwargs = append(kwargs, ast.KeywordArg{Name: name, Value: val})
			seenKwarg = true
		} else {
			if seenKwarg {
				return nil, nil, p.errorf("positional argument cannot follow a keyword argument")
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, val)
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	return args, kwargs, nil
}

func (p *Parser) nextIsColon() bool {
	i := p.pos + 1
	return i < len(p.toks) && p.toks[i].Kind == scanner.OPERATOR && p.toks[i].Lexeme == ":"
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case scanner.INT:
		p.advance()
		v, err := parseIntLiteral(t.Lexeme)
		if err != nil {
			return nil, &ParseError{Line: t.Span.Line, Col: t.Span.Col, Msg: err.Error()}
		}
		return &ast.IntLit{Base: ast.Base{Sp: t.Span}, Value: v}, nil
	case scanner.FLOAT:
		p.advance()
		v, err := parseFloatLiteral(t.Lexeme)
		if err != nil {
			return nil, &ParseError{Line: t.Span.Line, Col: t.Span.Col, Msg: err.Error()}
		}
		return &ast.FloatLit{Base: ast.Base{Sp: t.Span}, Value: v}, nil
	case scanner.STRING:
		p.advance()
		return &ast.StringLit{Base: ast.Base{Sp: t.Span}, Value: unescapeString(t.Lexeme)}, nil
	case scanner.KEYWORD:
		return p.parseKeywordAtom()
	case scanner.IDENT:
		p.advance()
		if p.isPunct("(") && startsUpper(t.Lexeme) {
			start := t.Span
			p.advance()
			args, kwargs, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if len(args) > 0 {
				return nil, p.errorf("object construction %q requires keyword arguments", t.Lexeme)
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return &ast.ObjectExpr{Base: ast.Base{Sp: start}, TypeName: t.Lexeme, Kwargs: kwargs}, nil
		}
		return &ast.Ident{Base: ast.Base{Sp: t.Span}, Name: t.Lexeme}, nil
	case scanner.PUNCT:
		if t.Lexeme == "(" {
			p.advance()
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
		if t.Lexeme == "[" {
			start := t.Span
			p.advance()
			var elems []ast.Expr
			if !p.isPunct("]") {
				for {
					e, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					elems = append(elems, e)
					if p.isPunct(",") {
						p.advance()
						continue
					}
					break
				}
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			return &ast.ListExpr{Base: ast.Base{Sp: start}, Elements: elems}, nil
		}
		return nil, p.errorf("unexpected token %q", t.Lexeme)
	default:
		return nil, p.errorf("unexpected token %s %q", t.Kind, t.Lexeme)
	}
}

func (p *Parser) parseKeywordAtom() (ast.Expr, error) {
	t := p.cur()
	switch t.Lexeme {
	case "true":
		p.advance()
		return &ast.BoolLit{Base: ast.Base{Sp: t.Span}, Value: true}, nil
	case "false":
		p.advance()
		return &ast.BoolLit{Base: ast.Base{Sp: t.Span}, Value: false}, nil
	case "null":
		p.advance()
		return &ast.NullLit{Base: ast.Base{Sp: t.Span}}, nil
	case "old":
		p.advance()
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ast.OldExpr{Base: ast.Base{Sp: t.Span}, X: inner}, nil
	case "has":
		p.advance()
		cap, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &ast.HasExpr{Base: ast.Base{Sp: t.Span}, Capability: cap}, nil
	case "await":
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AwaitExpr{Base: ast.Base{Sp: t.Span}, X: inner}, nil
	default:
		return nil, p.errorf("unexpected keyword %q in expression", t.Lexeme)
	}
}

func startsUpper(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsUpper([]rune(s)[0])
}

func unescapeString(lexeme string) string {
	if len(lexeme) >= 2 {
		lexeme = lexeme[1 : len(lexeme)-1]
	}
	var sb strings.Builder
	for i := 0; i < len(lexeme); i++ {
		if lexeme[i] == '\\' && i+1 < len(lexeme) {
			switch lexeme[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			}
			i++
			continue
		}
		sb.WriteByte(lexeme[i])
	}
	return sb.String()
}
