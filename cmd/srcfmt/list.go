package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"srcfmt/internal/driver"
	"srcfmt/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the files a run would format",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

type listEntry struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

func init() {
	listCmd.Flags().String("format", "text", "output format (text|json)")
}

func runList(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	base, cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	tasks, err := driver.Discover(cmd.Context(), &driver.Request{Config: cfg, Base: base})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		entries := make([]listEntry, 0, len(tasks))
		for _, t := range tasks {
			entries = append(entries, listEntry{Path: report.DisplayPath(t.Path), Kind: t.Kind.String()})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "%-7s %s\n", t.Kind, report.DisplayPath(t.Path))
	}
	return nil
}
