package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stackflow/internal/driver"
	"stackflow/internal/project"
	"stackflow/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export graph files to the JSON interchange format",
	Long:  "Export a graph file, or every graph file under a directory, to JSON documents. Settings come from stackflow.toml and can be overridden by flags.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  exportExecution,
}

func init() {
	exportCmd.Flags().String("out", "", "output directory (default: next to each input)")
	exportCmd.Flags().Bool("pretty", false, "indent exported documents")
	exportCmd.Flags().Int("jobs", 0, "max concurrent exports (default: from config)")
	exportCmd.Flags().String("ui", "auto", "progress display (auto|tui|plain)")
}

type exportOutcome struct {
	results []driver.FileResult
	err     error
}

func exportExecution(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	configDir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		configDir = filepath.Dir(path)
	}
	conf, err := project.Load(configDir)
	if err != nil {
		return err
	}

	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = conf.Out
		if outDir == "." {
			outDir = "" // default config writes next to the input
		}
	}
	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs == 0 {
		jobs = conf.Jobs
	}
	uiMode, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	if colorMode == "auto" {
		colorMode = conf.Color
	}
	applyColorMode(colorMode)

	req := &driver.Request{
		In:     path,
		OutDir: outDir,
		Pretty: pretty || conf.Pretty,
		Jobs:   jobs,
	}

	var results []driver.FileResult
	useTUI := uiMode == "tui" || (uiMode == "auto" && isTerminal(os.Stdout) && !quiet)
	if useTUI {
		files, listErr := driver.ListGraphFiles(path)
		if listErr != nil {
			return listErr
		}
		results, err = runExportWithUI(cmd.Context(), "exporting "+path, files, req)
	} else {
		results, err = driver.Export(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	reportResults(results, quiet)
	if driver.Failed(results) {
		return fmt.Errorf("export failed")
	}
	return nil
}

func runExportWithUI(ctx context.Context, title string, files []string, req *driver.Request) ([]driver.FileResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan exportOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Export(ctx, &reqCopy)
		outcomeCh <- exportOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func reportResults(results []driver.FileResult, quiet bool) {
	okColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)
	for _, r := range results {
		if r.Err != nil {
			errColor.Fprintf(os.Stderr, "error: %s: %v\n", r.Path, r.Err)
			continue
		}
		if !quiet {
			okColor.Fprintf(os.Stderr, "ok: %s -> %s (%d blocks)\n", r.Path, r.OutPath, r.Blocks)
		}
	}
}
