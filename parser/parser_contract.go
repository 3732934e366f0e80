package parser

import (
	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/scanner"
)

func (p *Parser) parseContract() (*ast.Contract, error) {
	start := p.cur().Span
	c := &ast.Contract{Base: ast.Base{Sp: start}}
	for p.isKeyword("pure") || p.isKeyword("async") {
		if p.lexeme() == "pure" {
			c.Pure = true
		} else {
			c.Async = true
		}
		p.advance()
	}
	if _, err := p.expectKeyword("contract"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	c.Name = name

	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if !p.isPunct(")") {
		for {
			pname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			param := ast.Param{Name: pname}
			if p.isOperator(":") {
				p.advance()
				ptype, err := p.parseType()
				if err != nil {
					return nil, err
				}
				param.Type = ptype
			}
			c.Params = append(c.Params, param)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	if p.isOperator("->") {
		p.advance()
		rtype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		c.ReturnType = rtype
	}

	if p.isOperator("=") {
		p.advance()
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.IsExprBody = true
		c.ExprBody = body
		c.HasBody = true
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		return c, nil
	}

	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	for p.kind() != scanner.DEDENT {
		if err := p.parseContractSection(c); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) parseContractSection(c *ast.Contract) error {
	switch {
	case p.isKeyword("precondition"):
		p.advance()
		expr, err := p.parseSingleExprBlock()
		if err != nil {
			return err
		}
		c.Precondition = expr
		c.HasPrecondition = true
	case p.isKeyword("postcondition"):
		p.advance()
		expr, err := p.parseSingleExprBlock()
		if err != nil {
			return err
		}
		c.Postcondition = expr
		c.HasPostcondition = true
	case p.isKeyword("effects"):
		p.advance()
		eff, err := p.parseEffectsBlock()
		if err != nil {
			return err
		}
		c.Effects = eff
		c.HasEffects = true
	case p.isKeyword("permissions"):
		p.advance()
		perm, err := p.parsePermissionsBlock()
		if err != nil {
			return err
		}
		c.Permissions = perm
		c.HasPermissions = true
	case p.isKeyword("body"):
		p.advance()
		stmts, err := p.parseStmtBlock()
		if err != nil {
			return err
		}
		c.Body = stmts
		c.HasBody = true
	case p.isKeyword("on_failure"):
		p.advance()
		stmts, err := p.parseStmtBlock()
		if err != nil {
			return err
		}
		c.OnFailure = stmts
		c.HasOnFailure = true
	default:
		return p.errorf("expected a contract section keyword, found %s %q", p.kind(), p.lexeme())
	}
	return nil
}

// parseSingleExprBlock parses `: NEWLINE INDENT expr NEWLINE DEDENT`.
func (p *Parser) parseSingleExprBlock() (ast.Expr, error) {
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseEffectsBlock() (*ast.Effects, error) {
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	eff := &ast.Effects{}
	for p.kind() != scanner.DEDENT {
		switch {
		case p.isKeyword("modifies"):
			p.advance()
			names, err := p.identList()
			if err != nil {
				return nil, err
			}
			eff.Modifies = names
		case p.isKeyword("reads"):
			p.advance()
			names, err := p.identList()
			if err != nil {
				return nil, err
			}
			eff.Reads = names
		case p.isKeyword("emits"):
			p.advance()
			names, err := p.identList()
			if err != nil {
				return nil, err
			}
			eff.Emits = names
		case p.isKeyword("touches_nothing_else"):
			p.advance()
			eff.TouchesNothingElse = true
		default:
			return nil, p.errorf("expected modifies/reads/emits/touches_nothing_else, found %s %q", p.kind(), p.lexeme())
		}
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return eff, nil
}

func (p *Parser) parsePermissionsBlock() (*ast.Permissions, error) {
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	perm := &ast.Permissions{}
	for p.kind() != scanner.DEDENT {
		switch {
		case p.isKeyword("grants"):
			p.advance()
			names, err := p.identList()
			if err != nil {
				return nil, err
			}
			perm.Grants = names
		case p.isKeyword("denies"):
			p.advance()
			names, err := p.identList()
			if err != nil {
				return nil, err
			}
			perm.Denies = names
		case p.isKeyword("escalation"):
			p.advance()
			perm.Escalation = true
		default:
			return nil, p.errorf("expected grants/denies/escalation, found %s %q", p.kind(), p.lexeme())
		}
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return perm, nil
}
