package diag

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// UseColor reports whether ANSI color should be used for diagnostic
// output on fd, honoring NO_COLOR and falling back to a TTY check —
// mirrors the teacher's `term.IsTerminal` gate in cmd/cmd.go.
func UseColor(fd uintptr) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(fd))
}

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

func severityColor(sev Severity) string {
	switch sev {
	case Error:
		return colorRed
	case Warning:
		return colorYellow
	default:
		return colorBlue
	}
}

// Format renders one diagnostic as a single-line header followed by a
// caret-annotated source snippet, in the spirit of the teacher pack's
// `WrapErrorWithSource` (daios-ai-msg/errors.go): up to one line of
// context before and after, a caret aligned under the 1-based column, and
// (when present) a suggested-fix block delimited by a stable sentinel so
// tooling can parse it out (spec.md §6).
func Format(d Diagnostic, file, src string, color bool) string {
	var sb strings.Builder
	sevLabel := strings.ToUpper(d.Severity.String())
	if color {
		sb.WriteString(severityColor(d.Severity))
		sb.WriteString(colorBold)
	}
	fmt.Fprintf(&sb, "%s %s: %s:%d:%d: %s", sevLabel, d.Code, file, d.Span.Line, d.Span.Col, d.Message)
	if color {
		sb.WriteString(colorReset)
	}
	sb.WriteString("\n")
	sb.WriteString(renderSnippet(src, d.Span.Line, d.Span.Col))
	if d.Fix != nil {
		sb.WriteString("--- suggested fix ---\n")
		sb.WriteString(d.Fix.Text)
		if !strings.HasSuffix(d.Fix.Text, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("--- end suggested fix ---\n")
	}
	return sb.String()
}

// renderSnippet reproduces the caret-snippet shape used throughout the
// pack's diagnostic renderers: one line of context before/after, a
// right-aligned line-number gutter, and a caret under the 1-based column.
func renderSnippet(src string, line, col int) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		return ""
	}
	start := line - 1
	if start < 1 {
		start = 1
	}
	end := line + 1
	if end > len(lines) {
		end = len(lines)
	}

	gutterWidth := len(fmt.Sprintf("%d", end))
	var sb strings.Builder
	for n := start; n <= end; n++ {
		text := ""
		if n-1 < len(lines) {
			text = lines[n-1]
		}
		fmt.Fprintf(&sb, "%*d | %s\n", gutterWidth, n, text)
		if n == line {
			caretCol := col
			if caretCol < 1 {
				caretCol = 1
			}
			fmt.Fprintf(&sb, "%*s | %s^\n", gutterWidth, "", strings.Repeat(" ", caretCol-1))
		}
	}
	return sb.String()
}
