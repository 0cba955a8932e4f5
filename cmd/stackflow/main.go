// Package main implements the stackflow CLI.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stackflow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "stackflow",
	Short: "Control-flow graph interchange tooling",
	Long:  "stackflow exports compiler control-flow graphs to a JSON interchange document and browses the result.",
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// applyColorMode maps the --color value onto the global color toggle.
// "auto" keeps the library's own terminal detection.
func applyColorMode(mode string) {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}
