package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/scrawl-tools/scrawl/internal/core"
	"github.com/scrawl-tools/scrawl/internal/model"
)

var pruneOpts struct {
	olderThan   string
	keep        int
	keepPending bool
	dryRun      bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old annotations from history",
	Long: `Remove old annotations from the history file.

By default removes annotations older than the configured threshold
(prune.older_than, default 720h). Deleted annotations get tombstones so
a running daemon drops them as well.

Examples:
  # Remove annotations older than 30 days
  scrawl prune --older-than 30d

  # Keep only the 500 most recent annotations
  scrawl prune --keep 500

  # See what would be removed
  scrawl prune --older-than 7d --dry-run

  # Prune resolved annotations but never pending ones
  scrawl prune --older-than 7d --keep-pending`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneOpts.olderThan, "older-than", "",
		"Remove annotations older than this duration (e.g., 30d, 4w)")
	pruneCmd.Flags().IntVar(&pruneOpts.keep, "keep", 0,
		"Keep at most this many recent annotations (0 = unlimited)")
	pruneCmd.Flags().BoolVar(&pruneOpts.keepPending, "keep-pending", false,
		"Never remove unresolved annotations")
	pruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without removing anything")
}

func runPrune(cmd *cobra.Command, args []string) error {
	olderThan := pruneOpts.olderThan
	if olderThan == "" {
		olderThan = cfg.Prune.OlderThan
	}
	keep := pruneOpts.keep
	if keep == 0 {
		keep = cfg.Prune.Keep
	}

	var cutoff time.Time
	if olderThan != "" {
		d, err := core.ParseDuration(olderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than duration: %w", err)
		}
		cutoff = time.Now().Add(-d)
	}

	annotations := historyStore.All()

	// Newest first so --keep retains the most recent entries.
	sort.Slice(annotations, func(i, j int) bool {
		return annotations[i].Timestamp > annotations[j].Timestamp
	})

	var victims []model.Annotation
	for i, a := range annotations {
		if pruneOpts.keepPending && !a.IsResolved() && !a.IsArchived() {
			continue
		}
		if keep > 0 && i >= keep {
			victims = append(victims, a)
			continue
		}
		if !cutoff.IsZero() && time.Unix(a.Timestamp, 0).Before(cutoff) {
			victims = append(victims, a)
		}
	}

	if len(victims) == 0 {
		fmt.Println("Nothing to prune")
		return nil
	}

	if pruneOpts.dryRun {
		fmt.Printf("Would remove %d of %d annotations:\n", len(victims), len(annotations))
		for _, a := range victims {
			fmt.Printf("  %s  %s  %s\n", a.ScrawlID,
				humanize.Time(time.Unix(a.Timestamp, 0)), a.Label)
		}
		return nil
	}

	var removed int
	for _, a := range victims {
		if err := historyStore.DeleteWithTombstone(a.ScrawlID); err != nil {
			logger.Warn("failed to prune annotation", "id", a.ScrawlID, "error", err)
			continue
		}
		removed++
	}

	fmt.Printf("Removed %d annotations (%d remaining)\n", removed, historyStore.Count())
	return nil
}
