package parser

import (
	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/scanner"
)

// parseStmtBlock parses `: NEWLINE INDENT stmt* DEDENT`.
func (p *Parser) parseStmtBlock() ([]ast.Statement, error) {
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for p.kind() != scanner.DEDENT {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Statement, error) {
	switch {
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("emit"):
		return p.parseEmit()
	case p.isKeyword("parallel"):
		return p.parseParallel()
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseIf() (*ast.IfStmt, error) {
	start := p.cur().Span
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStmtBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Base: ast.Base{Sp: start}, Condition: cond, Then: then}
	save := p.pos
	p.skipNewlines()
	if p.isKeyword("else") {
		p.advance()
		if p.isKeyword("if") {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = []ast.Statement{elseIf}
			return stmt, nil
		}
		elseBody, err := p.parseStmtBlock()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
		return stmt, nil
	}
	p.pos = save
	return stmt, nil
}

func (p *Parser) parseWhile() (*ast.WhileStmt, error) {
	start := p.cur().Span
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmtBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Base: ast.Base{Sp: start}, Condition: cond, Body: body}, nil
}

func (p *Parser) parseFor() (*ast.ForStmt, error) {
	start := p.cur().Span
	p.advance()
	v, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	coll, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmtBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Base: ast.Base{Sp: start}, Var: v, Collection: coll, Body: body}, nil
}

func (p *Parser) parseReturn() (*ast.ReturnStmt, error) {
	start := p.cur().Span
	p.advance()
	stmt := &ast.ReturnStmt{Base: ast.Base{Sp: start}}
	if p.kind() != scanner.NEWLINE && p.kind() != scanner.EOF && p.kind() != scanner.DEDENT {
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Value = val
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseEmit() (*ast.EmitStmt, error) {
	start := p.cur().Span
	p.advance()
	event, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &ast.EmitStmt{Base: ast.Base{Sp: start}, Event: event}
	if p.isPunct("(") {
		p.advance()
		args, kwargs, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		stmt.Args = args
		stmt.Kwargs = kwargs
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseParallel() (*ast.ParallelStmt, error) {
	start := p.cur().Span
	p.advance()
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	stmt := &ast.ParallelStmt{Base: ast.Base{Sp: start}}
	for p.kind() != scanner.DEDENT {
		s, err := p.parseAssignOrExprStmt()
		if err != nil {
			return nil, err
		}
		assign, ok := s.(*ast.AssignStmt)
		if !ok {
			return nil, p.errorf("parallel blocks may only contain assignment statements")
		}
		stmt.Assignments = append(stmt.Assignments, assign)
		p.skipNewlines()
	}
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseAssignOrExprStmt parses either `target[.path] = value` or a bare
// expression statement, disambiguating by scanning ahead for `=` not part
// of `==`.
func (p *Parser) parseAssignOrExprStmt() (ast.Statement, error) {
	start := p.cur().Span
	if p.kind() == scanner.IDENT && p.looksLikeAssignment() {
		name, segs, err := p.dottedPath()
		if err != nil {
			return nil, err
		}
		if p.isPunct("[") {
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			if _, err := p.expectOperator("="); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectNewline(); err != nil {
				return nil, err
			}
			var obj ast.Expr = &ast.Ident{Base: ast.Base{Sp: start}, Name: name}
			for _, seg := range segs[1:] {
				obj = &ast.MemberExpr{Base: ast.Base{Sp: start}, Object: obj, Field: seg}
			}
			return &ast.IndexAssignStmt{Base: ast.Base{Sp: start}, Object: obj, Index: idx, Value: val}, nil
		}
		if _, err := p.expectOperator("="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		target := segs[0]
		path := segs[1:]
		return &ast.AssignStmt{Base: ast.Base{Sp: start}, Target: target, Path: path, Value: val}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Base: ast.Base{Sp: start}, X: expr}, nil
}

// looksLikeAssignment scans ahead from the current IDENT to see whether
// the statement is `ident('.'ident)*('['expr']')? =` (not `==`).
func (p *Parser) looksLikeAssignment() bool {
	i := p.pos
	if p.toks[i].Kind != scanner.IDENT {
		return false
	}
	i++
	for i+1 < len(p.toks) && p.toks[i].Kind == scanner.PUNCT && p.toks[i].Lexeme == "." {
		if p.toks[i+1].Kind != scanner.IDENT {
			return false
		}
		i += 2
	}
	if i < len(p.toks) && p.toks[i].Kind == scanner.PUNCT && p.toks[i].Lexeme == "[" {
		depth := 0
		for ; i < len(p.toks); i++ {
			if p.toks[i].Kind == scanner.PUNCT && p.toks[i].Lexeme == "[" {
				depth++
			} else if p.toks[i].Kind == scanner.PUNCT && p.toks[i].Lexeme == "]" {
				depth--
				if depth == 0 {
					i++
					break
				}
			}
		}
	}
	return i < len(p.toks) && p.toks[i].Kind == scanner.OPERATOR && p.toks[i].Lexeme == "="
}
