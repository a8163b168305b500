package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"srcfmt/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "srcfmt",
	Short: "Run clang-format over a source tree in parallel",
	Long: `srcfmt discovers C/C++ and shader sources under the configured roots and
formats each with clang-format on a pool of workers, one per CPU. HLSL
semantics and attributes are masked before formatting and restored after.

Running srcfmt without a subcommand is the same as "srcfmt run".`,
	Args:              cobra.NoArgs,
	RunE:              runFormat,
	PersistentPreRunE: applyColorMode,
	SilenceErrors:     true,
}

// errReported marks a failure whose diagnostics were already printed.
var errReported = errors.New("run failed")

func init() {
	rootCmd.Version = version.String()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(maskCmd)
	rootCmd.AddCommand(unmaskCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress per-file output")
	pf.Bool("timings", false, "show timing information")
	pf.StringP("chdir", "C", "", "project root (default: directory of srcfmt.toml, else working directory)")
	pf.String("config", "", "path to srcfmt.toml (default: nearest one above the project root)")

	pf.String("trace", "", "trace output file ('-' for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|run|phase|worker|file)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	addRunFlags(rootCmd)
}

// main runs the root command and exits with status 1 on any failure.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			printError(err)
		}
		os.Exit(1)
	}
}

func printError(err error) {
	prefix := color.New(color.FgRed, color.Bold).Sprint("srcfmt:")
	fmt.Fprintf(os.Stderr, "%s %v\n", prefix, err)
}

func applyColorMode(cmd *cobra.Command, _ []string) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != ""
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
