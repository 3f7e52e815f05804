package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrawl-tools/scrawl/internal/adapter/input"
	"github.com/scrawl-tools/scrawl/internal/config"
	"github.com/scrawl-tools/scrawl/internal/tui"
)

var tuiOpts struct {
	source string
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive annotation browser",
	Long: `Launch the interactive TUI for browsing annotation history.

The TUI reads the shared history file and follows changes made by a
running daemon. Use --source to import annotations from elsewhere first.

Key bindings are shown with ?.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiOpts.source, "source", "",
		"Import source before launching (stdin, file:<path>)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	var adapter input.InputAdapter
	if tuiOpts.source != "" {
		var err error
		adapter, err = input.NewAdapter(tuiOpts.source)
		if err != nil {
			return fmt.Errorf("failed to create adapter: %w", err)
		}
	}

	persistPath := globalOpts.historyFile
	if persistPath == "" {
		persistPath = config.HistoryPath()
	}

	return tui.Run(tui.RunOptions{
		Config:      cfg,
		Store:       historyStore,
		Adapter:     adapter,
		PersistPath: persistPath,
	})
}
