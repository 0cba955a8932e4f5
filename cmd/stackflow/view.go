package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stackflow/internal/cfgjson"
	"stackflow/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view <document>",
	Short: "Browse an exported document in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  viewExecution,
}

func viewExecution(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("view needs a terminal")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	pairs, err := cfgjson.DecodePairs(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	model := ui.NewViewerModel(filepath.Base(args[0]), pairs)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
