// Package parser is a hand-written recursive-descent parser turning a
// Covenant token stream into an *ast.File.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/covenant-lang/covenant/ast"
	"github.com/covenant-lang/covenant/scanner"
)

// maxExprDepth is the §4.2 cap: expression nesting past this depth is a
// parse error.
const maxExprDepth = 256

// ParseError is a fatal syntax error, carrying the 1-based line/column
// where it was detected.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parser turns a token slice into an *ast.File.
type Parser struct {
	toks  []scanner.Token
	pos   int
	depth int
}

// Parse lexes and parses src, returning the *ast.File.
func Parse(src, filename string) (*ast.File, error) {
	toks, err := scanner.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseFile()
}

// ParseTokens parses an already-lexed token stream.
func ParseTokens(toks []scanner.Token) (*ast.File, error) {
	p := &Parser{toks: toks}
	return p.parseFile()
}

func (p *Parser) cur() scanner.Token  { return p.toks[p.pos] }
func (p *Parser) kind() scanner.Kind  { return p.toks[p.pos].Kind }
func (p *Parser) lexeme() string      { return p.toks[p.pos].Lexeme }

func (p *Parser) advance() scanner.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	t := p.cur()
	return &ParseError{Line: t.Span.Line, Col: t.Span.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) isKeyword(kw string) bool {
	return p.kind() == scanner.KEYWORD && p.lexeme() == kw
}

func (p *Parser) isOperator(op string) bool {
	return p.kind() == scanner.OPERATOR && p.lexeme() == op
}

func (p *Parser) isPunct(s string) bool {
	return p.kind() == scanner.PUNCT && p.lexeme() == s
}

func (p *Parser) expectKeyword(kw string) (scanner.Token, error) {
	if !p.isKeyword(kw) {
		return scanner.Token{}, p.errorf("expected keyword %q, found %s %q", kw, p.kind(), p.lexeme())
	}
	return p.advance(), nil
}

func (p *Parser) expectOperator(op string) (scanner.Token, error) {
	if !p.isOperator(op) {
		return scanner.Token{}, p.errorf("expected %q, found %s %q", op, p.kind(), p.lexeme())
	}
	return p.advance(), nil
}

func (p *Parser) expectPunct(s string) (scanner.Token, error) {
	if !p.isPunct(s) {
		return scanner.Token{}, p.errorf("expected %q, found %s %q", s, p.kind(), p.lexeme())
	}
	return p.advance(), nil
}

func (p *Parser) expectKind(k scanner.Kind) (scanner.Token, error) {
	if p.kind() != k {
		return scanner.Token{}, p.errorf("expected %s, found %s %q", k, p.kind(), p.lexeme())
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (string, error) {
	t, err := p.expectKind(scanner.IDENT)
	if err != nil {
		return "", err
	}
	return t.Lexeme, nil
}

func (p *Parser) skipNewlines() {
	for p.kind() == scanner.NEWLINE {
		p.advance()
	}
}

func (p *Parser) expectNewline() error {
	if p.kind() != scanner.NEWLINE && p.kind() != scanner.EOF {
		return p.errorf("expected end of line, found %s %q", p.kind(), p.lexeme())
	}
	if p.kind() == scanner.NEWLINE {
		p.advance()
	}
	return nil
}

// expectBlockOpen consumes NEWLINE INDENT and returns once positioned at the
// first token of the block; the caller must consume up to and including
// the matching DEDENT.
func (p *Parser) expectBlockOpen() error {
	if err := p.expectNewline(); err != nil {
		return err
	}
	p.skipNewlines()
	if _, err := p.expectKind(scanner.INDENT); err != nil {
		return err
	}
	return nil
}

func (p *Parser) expectBlockClose() error {
	p.skipNewlines()
	if _, err := p.expectKind(scanner.DEDENT); err != nil {
		return err
	}
	return nil
}

// dottedPath parses IDENT ('.' IDENT)* and returns the joined string plus
// the individual segments.
func (p *Parser) dottedPath() (string, []string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", nil, err
	}
	segs := []string{first}
	for p.isPunct(".") {
		p.advance()
		seg, err := p.expectIdent()
		if err != nil {
			return "", nil, err
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, "."), segs, nil
}

// identList parses a bracketed comma-separated list of dotted identifiers:
// '[' ident (',' ident)* ']' or an empty '[' ']'.
func (p *Parser) identList() ([]string, error) {
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var out []string
	if !p.isPunct("]") {
		for {
			path, _, err := p.dottedPath()
			if err != nil {
				return nil, err
			}
			out = append(out, path)
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
	return out, nil
}

func parseIntLiteral(lexeme string) (int64, error) {
	return strconv.ParseInt(lexeme, 10, 64)
}

func parseFloatLiteral(lexeme string) (float64, error) {
	return strconv.ParseFloat(lexeme, 64)
}
