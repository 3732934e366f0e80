package parser

import (
	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/scanner"
)

var primitiveNames = map[string]ast.TypeTag{
	"Int": ast.TInt, "Float": ast.TFloat, "String": ast.TString,
	"Bool": ast.TBool, "Null": ast.TNull, "List": ast.TList,
	"Object": ast.TObject, "Any": ast.TAny,
}

// parseType parses a type expression: a primitive, a generic
// Name<Arg,...>, a named (nominal) reference, or any of those followed by
// one or more `[label]` flow annotations.
func (p *Parser) parseType() (ast.Type, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var base ast.Type
	if p.isOperator("<") {
		p.advance()
		var args []ast.Type
		for {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectOperator(">"); err != nil {
			return nil, err
		}
		base = &ast.Generic{Name: name, Args: args}
	} else if tag, ok := primitiveNames[name]; ok {
		base = &ast.Primitive{Tag: tag}
	} else {
		base = &ast.Named{Name: name}
	}

	var labels []string
	for p.isPunct("[") {
		p.advance()
		label, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}
	if len(labels) > 0 {
		return &ast.Annotated{Inner: base, Labels: labels}, nil
	}
	return base, nil
}

func (p *Parser) parseTypeDecl() (*ast.TypeDecl, error) {
	start := p.cur().Span
	if _, err := p.expectKeyword("type"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	td := &ast.TypeDecl{Base: ast.Base{Sp: start}, Name: name}
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	if err := p.expectBlockOpen(); err != nil {
		return nil, err
	}
	for p.kind() != scanner.DEDENT {
		if p.isKeyword("denies") {
			p.advance()
			from, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOperator("->"); err != nil {
				return nil, err
			}
			to, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			td.Constraints = append(td.Constraints, ast.FlowConstraint{From: from, To: to, Deny: true})
		} else {
			fname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOperator(":"); err != nil {
				return nil, err
			}
			ftype, err := p.parseType()
			if err != nil {
				return nil, err
			}
			td.Fields = append(td.Fields, ast.TypeDeclField{Name: fname, Type: ftype})
		}
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	if err := p.expectBlockClose(); err != nil {
		return nil, err
	}
	return td, nil
}

func (p *Parser) parseSharedState() (*ast.SharedState, error) {
	start := p.cur().Span
	if _, err := p.expectKeyword("shared"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOperator(":"); err != nil {
		return nil, err
	}
	ftype, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ss := &ast.SharedState{Base: ast.Base{Sp: start}, Name: name, Type: ftype}
	if p.isOperator("=") {
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ss.InitialVal = val
	}
	if p.kind() != scanner.NEWLINE && p.kind() != scanner.EOF {
		return nil, p.errorf("expected end of line after shared state declaration")
	}
	p.advance()
	p.skipNewlines()
	if p.kind() == scanner.INDENT {
		p.advance()
		for p.kind() != scanner.DEDENT {
			attr, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOperator(":"); err != nil {
				return nil, err
			}
			switch attr {
			case "access":
				v, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				ss.Access = v
			case "isolation":
				v, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				ss.Isolation = v
			case "audit":
				v, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				ss.Audit = v == "true"
			default:
				return nil, p.errorf("unknown shared state attribute %q", attr)
			}
			if err := p.expectNewline(); err != nil {
				return nil, err
			}
			p.skipNewlines()
		}
		if err := p.expectBlockClose(); err != nil {
			return nil, err
		}
	}
	return ss, nil
}
