package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// sep is the single-byte separator used throughout canonicalization. It
// must never appear in an identifier (Covenant identifiers are
// [A-Za-z_][A-Za-z0-9_]*), so no escaping is needed.
const sep = "\x00"

// Canonical renders fp as a deterministic string: each set is sorted
// lexicographically and joined with sep, and the sets themselves are
// joined with sep in a fixed field order. This is the basis for both the
// intent hash and fingerprint equality checks — never iterate a Go map
// directly into a hash input, since map iteration order is unspecified.
func (fp *Fingerprint) Canonical() string {
	fields := []string{
		strings.Join(sortedKeys(fp.Reads), sep),
		strings.Join(sortedKeys(fp.Mutates), sep),
		strings.Join(sortedKeys(fp.Calls), sep),
		strings.Join(sortedKeys(fp.Emits), sep),
		strings.Join(sortedKeys(fp.OldRefs), sep),
		strings.Join(sortedKeys(fp.CapabilityChecks), sep),
		boolStr(fp.HasBranching),
		boolStr(fp.HasLooping),
		boolStr(fp.HasRecursion),
	}
	return strings.Join(fields, sep)
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// IntentHash returns SHA-256(intent || sep || canonical_fingerprint) as a
// lowercase hex string, per spec.md §3/§4.3.
func (fp *Fingerprint) IntentHash(intent string) string {
	h := sha256.New()
	h.Write([]byte(intent))
	h.Write([]byte(sep))
	h.Write([]byte(fp.Canonical()))
	return hex.EncodeToString(h.Sum(nil))
}
