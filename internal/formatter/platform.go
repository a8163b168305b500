package formatter

import (
	"fmt"
	"runtime"
	"strings"

	"srcfmt/internal/config"
)

// UnsupportedPlatformError is returned for hosts with no known formatter binary.
type UnsupportedPlatformError struct {
	GOOS string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("formatter: unsupported platform %q (known: linux, windows)", e.GOOS)
}

// ExecutableFor picks the formatter binary for goos.
func ExecutableFor(goos string, exes config.Executables) (string, error) {
	var exe string
	switch goos {
	case "linux":
		exe = exes.Linux
	case "windows":
		exe = exes.Windows
	default:
		return "", &UnsupportedPlatformError{GOOS: goos}
	}
	if strings.TrimSpace(exe) == "" {
		return "", fmt.Errorf("formatter: no executable configured for %s", goos)
	}
	return exe, nil
}

// HostExecutable picks the formatter binary for the running host.
func HostExecutable(exes config.Executables) (string, error) {
	return ExecutableFor(runtime.GOOS, exes)
}
