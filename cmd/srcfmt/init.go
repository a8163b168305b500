package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"srcfmt/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a srcfmt.toml with the default settings",
	Long: `init writes srcfmt.toml holding every default setting into dir (the
project root when omitted) so it can be edited. An existing file is never
overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	target, err := projectBase(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 && args[0] != "." {
		if filepath.IsAbs(args[0]) {
			target = args[0]
		} else {
			target = filepath.Join(target, args[0])
		}
	}

	if st, err := os.Stat(target); err != nil {
		return fmt.Errorf("failed to stat %q: %w", target, err)
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	path := filepath.Join(target, config.FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("already initialized: %s exists", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to write %s: %w", path, cerr)
		}
	}()

	if err := config.Encode(f, config.Default()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}
