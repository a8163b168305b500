package task

import "fmt"

// Kind selects the formatting treatment of a file.
type Kind uint8

const (
	// KindRegular files are formatted in place as-is.
	KindRegular Kind = iota
	// KindShader files are masked before and unmasked after formatting.
	KindShader
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindShader:
		return "shader"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// FileTask is a single discovered file waiting to be formatted.
type FileTask struct {
	Path string
	Kind Kind
}

// NewFileTask derives the kind of path from its extension.
// shaderExt holds extensions without the leading dot.
func NewFileTask(path string, shaderExt map[string]struct{}) FileTask {
	kind := KindRegular
	if _, ok := shaderExt[Ext(path)]; ok {
		kind = KindShader
	}
	return FileTask{Path: path, Kind: kind}
}

// Ext returns the extension of path without the leading dot.
func Ext(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[i+1:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}
