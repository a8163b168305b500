package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"srcfmt/internal/shader"
)

var maskCmd = &cobra.Command{
	Use:   "mask [file]",
	Short: "Print a shader with its semantics and attributes masked",
	Long: `mask applies the same rewrite a run performs before handing a shader to
clang-format and prints the result. With no file, or "-", it reads stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transcode(cmd, args, true, (*shader.SemanticMap).Mask)
	},
}

var unmaskCmd = &cobra.Command{
	Use:   "unmask [file]",
	Short: "Restore masked semantics and attributes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transcode(cmd, args, false, (*shader.SemanticMap).Unmask)
	},
}

func transcode(cmd *cobra.Command, args []string, masking bool, fn func(*shader.SemanticMap, []byte) []byte) error {
	_, cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	semantics, err := cfg.SemanticMap()
	if err != nil {
		return err
	}

	var input []byte
	if len(args) == 0 || args[0] == "-" {
		input, err = io.ReadAll(cmd.InOrStdin())
	} else {
		input, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if masking && semantics.Collides(input) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: input already contains a placeholder; unmask will not be exact")
	}
	_, err = cmd.OutOrStdout().Write(fn(semantics, input))
	return err
}
