package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"srcfmt/internal/config"
	"srcfmt/internal/driver"
	"srcfmt/internal/report"
	"srcfmt/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Format every discovered source file",
	Args:  cobra.NoArgs,
	RunE:  runFormat,
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", 0, "number of workers (0 = one per CPU)")
	cmd.Flags().Bool("dry-run", false, "format temporary copies and report what would change")
	cmd.Flags().Bool("check", false, "fail if any file would be reformatted (implies --dry-run)")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().String("format", "text", "output format (text|json)")
	cmd.Flags().String("report", "", "write a report file (.json, or .msgpack/.mp)")
}

type runOptions struct {
	jobs    int
	dryRun  bool
	check   bool
	ui      uiMode
	format  string
	report  string
	quiet   bool
	timings bool
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var opts runOptions
	var err error
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must be >= 0, got %d", opts.jobs)
	}
	if opts.dryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return opts, fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if opts.check, err = cmd.Flags().GetBool("check"); err != nil {
		return opts, fmt.Errorf("failed to get check flag: %w", err)
	}
	if opts.check {
		opts.dryRun = true
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(strings.TrimSpace(format))
	if opts.format != "text" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	if opts.report, err = cmd.Flags().GetString("report"); err != nil {
		return opts, fmt.Errorf("failed to get report flag: %w", err)
	}
	pf := cmd.Root().PersistentFlags()
	if opts.quiet, err = pf.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = pf.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return opts, nil
}

// projectBase returns the --chdir directory, or the working directory.
func projectBase(cmd *cobra.Command) (string, error) {
	base, _, err := chdirFlag(cmd)
	return base, err
}

func chdirFlag(cmd *cobra.Command) (string, bool, error) {
	dir, err := cmd.Root().PersistentFlags().GetString("chdir")
	if err != nil {
		return "", false, fmt.Errorf("failed to get chdir flag: %w", err)
	}
	explicit := dir != ""
	if !explicit {
		if dir, err = os.Getwd(); err != nil {
			return "", false, fmt.Errorf("failed to read working directory: %w", err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return abs, explicit, nil
}

// loadProject resolves srcfmt.toml and the project root its relative paths
// are anchored to.
func loadProject(cmd *cobra.Command) (string, *config.Config, error) {
	dir, chdir, err := chdirFlag(cmd)
	if err != nil {
		return "", nil, err
	}
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	return resolveProject(dir, chdir, explicit)
}

// resolveProject loads the config for dir. Without --chdir the project root
// is the directory holding srcfmt.toml, so runs from a subdirectory see the
// same tree as runs from the top.
func resolveProject(dir string, chdir bool, explicit string) (string, *config.Config, error) {
	cfg, err := config.Resolve(dir, explicit)
	if err != nil {
		return "", nil, err
	}
	if chdir {
		return dir, cfg, nil
	}
	return cfg.Root(dir), cfg, nil
}

func runFormat(cmd *cobra.Command, _ []string) error {
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}
	base, cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}

	sess, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()
	ctx := cmd.Context()

	req := &driver.Request{
		Config:  cfg,
		Base:    base,
		Workers: opts.jobs,
		DryRun:  opts.dryRun,
	}

	var summary driver.Summary
	if shouldUseTUI(opts.ui, opts.format) {
		req.Tasks, err = driver.Discover(ctx, req)
		if err == nil {
			summary, err = runWithUI(ctx, "formatting", req)
		}
	} else {
		summary, err = driver.Run(ctx, req)
	}

	if err != nil {
		sess.dumpRing()
	}
	reportErr := writeReportFile(opts.report, &summary, err)
	if reportErr != nil {
		printError(reportErr)
	}

	if opts.format == "json" {
		err = renderRunJSON(cmd.OutOrStdout(), &summary, err, opts)
	} else {
		err = renderRunText(cmd, &summary, err, opts)
	}
	if err == nil && reportErr != nil {
		return errReported
	}
	return err
}

func writeReportFile(path string, summary *driver.Summary, runErr error) error {
	if path == "" {
		return nil
	}
	r, err := report.Build(version.String(), summary, runErr)
	if err != nil {
		return err
	}
	return report.WriteFile(path, r)
}

func renderRunText(cmd *cobra.Command, summary *driver.Summary, runErr error, opts runOptions) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	failed := false
	for _, res := range summary.Results {
		if res.Err != nil {
			failed = true
			printFileError(errOut, res)
		}
	}
	if runErr != nil && !failed {
		// Nothing per-file to show: setup, discovery or cancellation failed.
		return runErr
	}

	if !opts.quiet {
		verb := "reformatted"
		if opts.dryRun {
			verb = "would reformat"
		}
		for _, res := range sortedResults(summary) {
			if res.Changed && res.Err == nil {
				fmt.Fprintf(out, "%s %s\n", verb, report.DisplayPath(res.Path))
			}
		}
	}
	if opts.timings {
		fmt.Fprint(errOut, summary.Timings.Summary())
	}
	if runErr != nil {
		return errReported
	}

	fmt.Fprintf(out, "Done! Formatted %d files\n", summary.Files)
	if opts.check && summary.Changed > 0 {
		return fmt.Errorf("%d of %d files need formatting", summary.Changed, summary.Files)
	}
	return nil
}

// sortedResults orders results by path; workers finish in any order.
func sortedResults(summary *driver.Summary) []driver.FileResult {
	results := slices.Clone(summary.Results)
	slices.SortStableFunc(results, func(a, b driver.FileResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	return results
}

func printFileError(w io.Writer, res driver.FileResult) {
	prefix := color.New(color.FgRed, color.Bold).Sprint("error:")
	fmt.Fprintf(w, "%s %s: %v\n", prefix, report.DisplayPath(res.Path), res.Err)
}

func renderRunJSON(w io.Writer, summary *driver.Summary, runErr error, opts runOptions) error {
	r, err := report.Build(version.String(), summary, runErr)
	if err != nil {
		return err
	}
	if !opts.timings {
		r.Timings.Phases = nil
	}
	if err := report.WriteJSON(w, r); err != nil {
		return err
	}
	if runErr != nil {
		return errReported
	}
	if opts.check && summary.Changed > 0 {
		return errReported
	}
	return nil
}
