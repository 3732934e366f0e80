package compiler

import (
	"os"
	"strings"
)

// SourceExt is the Covenant source file extension (spec.md §6).
const SourceExt = ".cov"

// IsSourceFile returns true if name has the Covenant source extension.
func IsSourceFile(name string) bool {
	return strings.HasSuffix(name, SourceExt)
}

// TrimSourceExt removes the Covenant source extension from name.
func TrimSourceExt(name string) string {
	return strings.TrimSuffix(name, SourceExt)
}

// FindSourceFile looks for basePath+SourceExt, returning it if present or
// "" otherwise.
func FindSourceFile(basePath string) string {
	path := basePath + SourceExt
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
