package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"srcfmt/internal/shader"
	"srcfmt/internal/task"
)

// FileName is the optional project configuration file.
const FileName = "srcfmt.toml"

// Config is the immutable run configuration. It is built once at startup and
// shared read-only by discovery, the transcoder and the formatter.
type Config struct {
	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`

	Discover  Discover      `toml:"discover"`
	Style     StyleProfiles `toml:"style"`
	Formatter Executables   `toml:"formatter"`
	Shader    ShaderTables  `toml:"shader"`
}

// Discover lists where to look and what to pick up.
type Discover struct {
	Roots            []string `toml:"roots"`
	Extensions       []string `toml:"extensions"`
	ShaderExtensions []string `toml:"shader_extensions"`
}

// StyleProfiles names the clang-format style file for each kind.
type StyleProfiles struct {
	Regular string `toml:"regular"`
	Shader  string `toml:"shader"`
}

// For returns the profile used for kind.
func (s StyleProfiles) For(kind task.Kind) string {
	if kind == task.KindShader {
		return s.Shader
	}
	return s.Regular
}

// Executables holds the per-OS formatter binaries.
type Executables struct {
	Linux   string `toml:"linux"`
	Windows string `toml:"windows"`
}

// ShaderTables are the raw masking tables as they appear in srcfmt.toml.
type ShaderTables struct {
	Semantics    []string `toml:"semantics"`
	Attributes   []string `toml:"attributes"`
	Placeholders []string `toml:"placeholders"`
}

// Error reports an invalid configuration.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Default returns the compiled-in configuration for an AnKi checkout.
func Default() *Config {
	attrs := shader.DefaultAttributes
	tables := ShaderTables{
		Semantics:    append([]string(nil), shader.DefaultSemantics...),
		Attributes:   make([]string, len(attrs)),
		Placeholders: make([]string, len(attrs)),
	}
	for i, a := range attrs {
		tables.Attributes[i] = a.Attribute
		tables.Placeholders[i] = a.Placeholder
	}
	return &Config{
		Discover: Discover{
			Roots:            []string{"AnKi", "Tests", "Sandbox", "Tools", "Samples"},
			Extensions:       []string{"h", "hpp", "c", "cpp", "glsl", "hlsl", "ankiprog"},
			ShaderExtensions: []string{"hlsl", "ankiprog"},
		},
		Style: StyleProfiles{
			Regular: ".clang-format",
			Shader:  ".clang-format-hlsl",
		},
		Formatter: Executables{
			Linux:   "./ThirdParty/Bin/Linux64/clang-format",
			Windows: "./ThirdParty/Bin/Windows64/clang-format.exe",
		},
		Shader: tables,
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Discover.Roots) == 0 {
		errs = append(errs, errors.New("[discover].roots is empty"))
	}
	if len(c.Discover.Extensions) == 0 {
		errs = append(errs, errors.New("[discover].extensions is empty"))
	}
	for _, ext := range c.Discover.Extensions {
		if strings.TrimSpace(ext) == "" || strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("[discover].extensions: invalid extension %q (no leading dot)", ext))
		}
	}
	known := c.ExtensionSet()
	for _, ext := range c.Discover.ShaderExtensions {
		if _, ok := known[ext]; !ok {
			errs = append(errs, fmt.Errorf("[discover].shader_extensions: %q is not in extensions", ext))
		}
	}
	if strings.TrimSpace(c.Style.Regular) == "" {
		errs = append(errs, errors.New("[style].regular is empty"))
	}
	if strings.TrimSpace(c.Style.Shader) == "" {
		errs = append(errs, errors.New("[style].shader is empty"))
	}
	if _, err := c.SemanticMap(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &Error{Path: c.Path, Err: errors.Join(errs...)}
	}
	return nil
}

// Root returns the directory holding the loaded file, or fallback for the
// compiled-in defaults.
func (c *Config) Root(fallback string) string {
	if c.Path == "" {
		return fallback
	}
	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return filepath.Dir(c.Path)
	}
	return filepath.Dir(abs)
}

// ExtensionSet returns the recognised extensions as a set.
func (c *Config) ExtensionSet() map[string]struct{} {
	return toSet(c.Discover.Extensions)
}

// ShaderExtensionSet returns the shader extensions as a set.
func (c *Config) ShaderExtensionSet() map[string]struct{} {
	return toSet(c.Discover.ShaderExtensions)
}

// SemanticMap builds the transcoder table from the shader section.
func (c *Config) SemanticMap() (*shader.SemanticMap, error) {
	attrs, err := shader.PairAttributes(c.Shader.Attributes, c.Shader.Placeholders)
	if err != nil {
		return nil, err
	}
	return shader.NewSemanticMap(c.Shader.Semantics, attrs)
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
