package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stackflow/internal/graphfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph>...",
	Short: "Check graph files for structural consistency",
	Args:  cobra.MinimumNArgs(1),
	RunE:  validateExecution,
}

func validateExecution(cmd *cobra.Command, args []string) error {
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	applyColorMode(colorMode)
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	okColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)

	failed := 0
	for _, path := range args {
		g, err := graphfile.Read(path)
		if err != nil {
			failed++
			errColor.Fprintf(os.Stderr, "invalid: %s: %v\n", path, err)
			continue
		}
		if !quiet {
			okColor.Fprintf(os.Stderr, "ok: %s (%d blocks, %d functions)\n", path, len(g.Blocks), len(g.Functions))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d graphs failed validation", failed, len(args))
	}
	return nil
}
