// Package scanner turns Covenant source bytes into a token stream.
package scanner

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	NEWLINE
	INDENT
	DEDENT
	IDENT
	KEYWORD
	INT
	FLOAT
	STRING
	OPERATOR
	PUNCT
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case INDENT:
		return "INDENT"
	case DEDENT:
		return "DEDENT"
	case IDENT:
		return "IDENT"
	case KEYWORD:
		return "KEYWORD"
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	case OPERATOR:
		return "OPERATOR"
	case PUNCT:
		return "PUNCT"
	default:
		return "UNKNOWN"
	}
}

// Span is a byte range in the source plus its 1-based line/column start.
type Span struct {
	Start, End int // byte offsets, half-open [Start, End)
	Line, Col  int // 1-based, position of Start
}

// Token is one lexical unit.
type Token struct {
	Kind   Kind
	Lexeme string
	Span   Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Span.Line, t.Span.Col)
}

// Keywords is the fixed keyword set recognized by the lexer. Any identifier
// matching one of these becomes a KEYWORD token instead of IDENT.
var Keywords = map[string]bool{
	"intent": true, "scope": true, "risk": true, "requires": true, "use": true,
	"as": true, "type": true, "shared": true, "contract": true, "pure": true,
	"async": true, "precondition": true, "postcondition": true, "effects": true,
	"permissions": true, "body": true, "on_failure": true, "if": true, "else": true,
	"while": true, "for": true, "in": true, "return": true, "emit": true,
	"await": true, "old": true, "has": true, "and": true, "or": true, "not": true,
	"true": true, "false": true, "null": true, "modifies": true, "reads": true,
	"emits": true, "touches_nothing_else": true, "grants": true, "denies": true,
	"escalation": true, "parallel": true,
}
