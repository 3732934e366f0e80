// Package diag implements Covenant's static diagnostic model: a shared,
// by-reference sink that every verification pass writes into, a fixed
// severity/code taxonomy (spec.md §7), and a caret-snippet renderer
// grounded on the teacher pack's error-wrapping style.
package diag

import "github.com/covenant-lang/covenant/scanner"

// Severity is one of error, warning, info.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// SuggestedFix is exact text to paste at (or near) the primary span.
type SuggestedFix struct {
	Description string
	Text        string
}

// Diagnostic is one static finding produced by a verification pass.
type Diagnostic struct {
	Code     string
	Severity Severity
	Span     scanner.Span
	Message  string
	Fix      *SuggestedFix
}

// Sink collects diagnostics from every pass. It is passed by reference
// into each pass — spec.md §9 ("the diagnostic sink is a single collector
// passed by reference to every pass").
type Sink struct {
	diags []Diagnostic
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Add appends d to the sink.
func (s *Sink) Add(d Diagnostic) { s.diags = append(s.diags, d) }

// Report is a convenience constructor + Add.
func (s *Sink) Report(code string, sev Severity, span scanner.Span, msg string, fix *SuggestedFix) {
	s.Add(Diagnostic{Code: code, Severity: sev, Span: span, Message: msg, Fix: fix})
}

// All returns every diagnostic collected so far, in report order.
func (s *Sink) All() []Diagnostic { return s.diags }

// HasErrors reports whether any collected diagnostic is an Error.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors/Warnings/Infos filter All() by severity.
func (s *Sink) Errors() []Diagnostic   { return s.filter(Error) }
func (s *Sink) Warnings() []Diagnostic { return s.filter(Warning) }
func (s *Sink) Infos() []Diagnostic    { return s.filter(Info) }

func (s *Sink) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.diags {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
