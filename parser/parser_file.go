package parser

import (
	"strings"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/scanner"
)

func (p *Parser) parseFile() (*ast.File, error) {
	start := p.cur().Span
	f := &ast.File{Base: ast.Base{Sp: start}}
	p.skipNewlines()

	seen := map[string]bool{}
	for p.isHeaderField() {
		kw := p.lexeme()
		switch kw {
		case "intent":
			p.advance()
			s, err := p.expectKind(scanner.STRING)
			if err != nil {
				return nil, err
			}
			f.Intent = unquote(s.Lexeme)
			seen["intent"] = true
		case "scope":
			p.advance()
			path, segs, err := p.dottedPath()
			if err != nil {
				return nil, err
			}
			if len(segs) < 2 {
				return nil, p.errorf("scope must have at least 2 dotted segments")
			}
			for _, seg := range segs {
				if strings.ToLower(seg) != seg {
					return nil, p.errorf("scope segments must be lowercase, found %q", seg)
				}
			}
			f.Scope = path
			seen["scope"] = true
		case "risk":
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			level, ok := ast.ParseRiskLevel(name)
			if !ok {
				return nil, p.errorf("unknown risk level %q", name)
			}
			f.Risk = level
			seen["risk"] = true
		case "requires":
			p.advance()
			for {
				name, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				f.Requires = append(f.Requires, name)
				if p.isPunct(",") {
					p.advance()
					continue
				}
				break
			}
		case "use":
			p.advance()
			s, err := p.expectKind(scanner.STRING)
			if err != nil {
				return nil, err
			}
			imp := ast.UseImport{Module: unquote(s.Lexeme)}
			if p.isKeyword("as") {
				p.advance()
				alias, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				imp.Alias = alias
			}
			f.Use = append(f.Use, imp)
		}
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}

	if !seen["intent"] || !seen["scope"] || !seen["risk"] {
		return nil, p.errorf("file header must declare intent, scope, and risk before any declaration")
	}

	for p.kind() != scanner.EOF {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, decl)
		p.skipNewlines()
	}

	return f, nil
}

func (p *Parser) isHeaderField() bool {
	if p.kind() != scanner.KEYWORD {
		return false
	}
	switch p.lexeme() {
	case "intent", "scope", "risk", "requires", "use":
		return true
	default:
		return false
	}
}

func (p *Parser) parseDecl() (ast.Decl, error) {
	switch {
	case p.isKeyword("type"):
		return p.parseTypeDecl()
	case p.isKeyword("shared"):
		return p.parseSharedState()
	case p.isKeyword("contract"), p.isKeyword("pure"), p.isKeyword("async"):
		return p.parseContract()
	default:
		return nil, p.errorf("expected a declaration (contract, type, or shared), found %s %q", p.kind(), p.lexeme())
	}
}

func unquote(lexeme string) string {
	if len(lexeme) >= 2 && lexeme[0] == '"' && lexeme[len(lexeme)-1] == '"' {
		inner := lexeme[1 : len(lexeme)-1]
		var sb strings.Builder
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) {
				switch inner[i+1] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '\\':
					sb.WriteByte('\\')
				case '"':
					sb.WriteByte('"')
				default:
					sb.WriteByte(inner[i+1])
				}
				i++
				continue
			}
			sb.WriteByte(inner[i])
		}
		return sb.String()
	}
	return lexeme
}
