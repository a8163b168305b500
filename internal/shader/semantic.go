package shader

import (
	"errors"
	"fmt"
	"strings"
)

// AttributeMask pairs an HLSL attribute with the placeholder that stands in
// for it while the formatter runs.
type AttributeMask struct {
	Attribute   string
	Placeholder string
}

// SemanticMap is the substitution table applied by Mask and Unmask.
// It is never mutated after construction and is safe to share across workers.
type SemanticMap struct {
	semantics  []string
	attributes []AttributeMask
}

// DefaultSemantics are the HLSL semantics that follow a ": " in declarations.
var DefaultSemantics = []string{
	"TEXCOORD", "SV_POSITION", "SV_Position",
	"SV_TARGET0", "SV_TARGET1", "SV_TARGET2", "SV_TARGET3", "SV_TARGET4", "SV_TARGET5", "SV_TARGET6", "SV_TARGET7",
	"SV_Target0", "SV_Target1", "SV_Target2", "SV_Target3", "SV_Target4", "SV_Target5", "SV_Target6", "SV_Target7",
	"SV_DISPATCHTHREADID", "SV_DispatchThreadID", "SV_GROUPINDEX", "SV_GroupIndex",
	"SV_GROUPID", "SV_GroupID", "SV_GROUPTHREADID", "SV_GroupThreadID",
}

// DefaultAttributes are the bracketed attributes clang-format mangles.
var DefaultAttributes = []AttributeMask{
	{Attribute: `[shader("closesthit")]`, Placeholder: "______shaderclosesthit"},
	{Attribute: `[shader("anyhit")]`, Placeholder: "______shaderanyhit"},
	{Attribute: `[shader("raygeneration")]`, Placeholder: "______shaderraygeneration"},
	{Attribute: `[shader("miss")]`, Placeholder: "______shadermiss"},
	{Attribute: "[raypayload]", Placeholder: "[[raypaylo]]"},
	{Attribute: `[outputtopology("triangle")]`, Placeholder: "______outputtopology_triangle"},
}

var errEmptyToken = errors.New("empty token")

// NewSemanticMap copies the given tables into a SemanticMap.
func NewSemanticMap(semantics []string, attributes []AttributeMask) (*SemanticMap, error) {
	m := &SemanticMap{
		semantics:  append([]string(nil), semantics...),
		attributes: append([]AttributeMask(nil), attributes...),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultSemanticMap returns the built-in HLSL tables.
func DefaultSemanticMap() *SemanticMap {
	m, err := NewSemanticMap(DefaultSemantics, DefaultAttributes)
	if err != nil {
		panic(fmt.Errorf("shader: default tables are invalid: %w", err))
	}
	return m
}

// PairAttributes zips parallel attribute and placeholder lists.
func PairAttributes(attributes, placeholders []string) ([]AttributeMask, error) {
	if len(attributes) != len(placeholders) {
		return nil, fmt.Errorf("shader: %d attributes but %d placeholders", len(attributes), len(placeholders))
	}
	out := make([]AttributeMask, len(attributes))
	for i := range attributes {
		out[i] = AttributeMask{Attribute: attributes[i], Placeholder: placeholders[i]}
	}
	return out, nil
}

// Validate rejects tables that cannot round-trip.
func (m *SemanticMap) Validate() error {
	for i, s := range m.semantics {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("shader: semantic #%d: %w", i, errEmptyToken)
		}
	}
	seen := make(map[string]int, len(m.attributes))
	for i, a := range m.attributes {
		if a.Attribute == "" {
			return fmt.Errorf("shader: attribute #%d: %w", i, errEmptyToken)
		}
		if a.Placeholder == "" {
			return fmt.Errorf("shader: placeholder for %q: %w", a.Attribute, errEmptyToken)
		}
		if a.Placeholder == a.Attribute {
			return fmt.Errorf("shader: placeholder for %q is the attribute itself", a.Attribute)
		}
		if j, dup := seen[a.Placeholder]; dup {
			return fmt.Errorf("shader: placeholder %q used by attributes #%d and #%d", a.Placeholder, j, i)
		}
		seen[a.Placeholder] = i
	}
	return nil
}

// Semantics returns a copy of the semantic table.
func (m *SemanticMap) Semantics() []string {
	return append([]string(nil), m.semantics...)
}

// Attributes returns a copy of the attribute table.
func (m *SemanticMap) Attributes() []AttributeMask {
	return append([]AttributeMask(nil), m.attributes...)
}
