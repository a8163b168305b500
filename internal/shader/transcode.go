package shader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

const (
	semanticSep  = ": "
	semanticMask = "__"
)

// Mask hides semantics and attributes from the formatter. Substitution is
// literal and happens in table order: semantics first, then attributes.
//
// Text that already contains a placeholder will not survive Unmask intact.
func (m *SemanticMap) Mask(text []byte) []byte {
	out := text
	for _, s := range m.semantics {
		out = bytes.ReplaceAll(out, []byte(semanticSep+s), []byte(semanticMask+s))
	}
	for _, a := range m.attributes {
		out = bytes.ReplaceAll(out, []byte(a.Attribute), []byte(a.Placeholder))
	}
	return out
}

// Unmask is the inverse of Mask.
func (m *SemanticMap) Unmask(text []byte) []byte {
	out := text
	for _, s := range m.semantics {
		out = bytes.ReplaceAll(out, []byte(semanticMask+s), []byte(semanticSep+s))
	}
	for _, a := range m.attributes {
		out = bytes.ReplaceAll(out, []byte(a.Placeholder), []byte(a.Attribute))
	}
	return out
}

// Collides reports whether text already contains a masked form, in which
// case Unmask(Mask(text)) may differ from text.
func (m *SemanticMap) Collides(text []byte) bool {
	for _, s := range m.semantics {
		if bytes.Contains(text, []byte(semanticMask+s)) {
			return true
		}
	}
	for _, a := range m.attributes {
		if bytes.Contains(text, []byte(a.Placeholder)) {
			return true
		}
	}
	return false
}

// Digest is a content fingerprint.
type Digest [sha256.Size]byte

// String returns the hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Fingerprint hashes text for change detection.
func Fingerprint(text []byte) Digest {
	return Digest(sha256.Sum256(text))
}
