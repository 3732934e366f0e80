package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covenant-lang/covenant/scanner"
)

func TestSinkCollectsInReportOrder(t *testing.T) {
	s := NewSink()
	s.Report(E001, Error, scanner.Span{Line: 1, Col: 1}, "first", nil)
	s.Report(W001, Warning, scanner.Span{Line: 2, Col: 1}, "second", nil)
	require := s.All()
	assert.Len(t, require, 2)
	assert.Equal(t, E001, require[0].Code)
	assert.Equal(t, W001, require[1].Code)
}

func TestSinkHasErrors(t *testing.T) {
	s := NewSink()
	assert.False(t, s.HasErrors())
	s.Report(W001, Warning, scanner.Span{}, "warn only", nil)
	assert.False(t, s.HasErrors())
	s.Report(E001, Error, scanner.Span{}, "an error", nil)
	assert.True(t, s.HasErrors())
}

func TestSinkFiltersBySeverity(t *testing.T) {
	s := NewSink()
	s.Report(E001, Error, scanner.Span{}, "e", nil)
	s.Report(W001, Warning, scanner.Span{}, "w", nil)
	s.Report(I001, Info, scanner.Span{}, "i", nil)
	assert.Len(t, s.Errors(), 1)
	assert.Len(t, s.Warnings(), 1)
	assert.Len(t, s.Infos(), 1)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "info", Info.String())
}
