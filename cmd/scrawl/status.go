package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scrawl-tools/scrawl/internal/dbus"
	"github.com/scrawl-tools/scrawl/internal/model"
	"github.com/scrawl-tools/scrawl/internal/store"
)

var statusOpts struct {
	format string
}

// WaybarStatus is the JSON structure waybar's custom module expects.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and history status",
	Long: `Show the current scrawld status and annotation counts.

Intended for status bars (waybar, polybar) as well as interactive use.

Examples:
  # Human-readable status
  scrawl status

  # Waybar custom module
  scrawl status --format waybar`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
		"Output format (plain, waybar, json)")
}

// statusCounts aggregates what the status output reports.
type statusCounts struct {
	active   int
	pending  int
	resolved int
	high     int
	paused   bool
	daemon   bool
	version  string
}

func runStatus(cmd *cobra.Command, args []string) error {
	counts := gatherCounts()

	switch strings.ToLower(statusOpts.format) {
	case "waybar", "json":
		return outputWaybar(counts)
	default:
		return outputPlainStatus(counts)
	}
}

// gatherCounts collects status from the daemon when it is running, the
// shared state file, and the history store.
func gatherCounts() statusCounts {
	var counts statusCounts

	// Store-derived counts (always available)
	for _, a := range historyStore.All() {
		if a.IsArchived() {
			continue
		}
		if a.IsResolved() {
			counts.resolved++
		} else {
			counts.pending++
			if a.Priority >= model.PriorityHigh {
				counts.high++
			}
		}
	}

	// Pause state from the shared state file
	if state, err := store.LoadSharedState(); err == nil {
		counts.paused = state.CapturePaused
	}

	// Daemon-reported counts when reachable
	if client, err := dbus.NewClient(logger); err == nil {
		if client.Ping() {
			counts.daemon = true
			if status, err := client.GetStatus(); err == nil {
				if v, ok := status["active_annotations"]; ok {
					if n, ok := v.Value().(uint32); ok {
						counts.active = int(n)
					}
				}
				if v, ok := status["version"]; ok {
					if s, ok := v.Value().(string); ok {
						counts.version = s
					}
				}
			}
		}
		client.Close()
	}

	return counts
}

func outputPlainStatus(c statusCounts) error {
	if c.daemon {
		if c.version != "" {
			fmt.Printf("scrawld: running (%s)\n", c.version)
		} else {
			fmt.Println("scrawld: running")
		}
		fmt.Printf("  markers on screen: %d\n", c.active)
	} else {
		fmt.Println("scrawld: not running")
	}

	if c.paused {
		fmt.Println("  capture: paused")
	} else {
		fmt.Println("  capture: active")
	}

	fmt.Printf("  pending:  %d", c.pending)
	if c.high > 0 {
		fmt.Printf(" (%d high priority)", c.high)
	}
	fmt.Println()
	fmt.Printf("  resolved: %d\n", c.resolved)
	return nil
}

// outputWaybar emits a single JSON object suitable for a waybar custom
// module. Class drives CSS styling in the bar.
func outputWaybar(c statusCounts) error {
	status := WaybarStatus{
		Text: fmt.Sprintf("%d", c.pending),
	}

	switch {
	case !c.daemon:
		status.Class = "stopped"
		status.Alt = "stopped"
		status.Tooltip = "scrawld is not running"
	case c.paused:
		status.Class = "paused"
		status.Alt = "paused"
		status.Tooltip = fmt.Sprintf("Capture paused\n%d pending annotations", c.pending)
	case c.high > 0:
		status.Class = "high"
		status.Alt = "high"
		status.Tooltip = fmt.Sprintf("%d pending (%d high priority)", c.pending, c.high)
	case c.pending > 0:
		status.Class = "pending"
		status.Alt = "pending"
		status.Tooltip = fmt.Sprintf("%d pending annotations", c.pending)
	default:
		status.Class = "idle"
		status.Alt = "idle"
		status.Tooltip = "No pending annotations"
	}

	if total := c.pending + c.resolved; total > 0 {
		status.Percentage = c.resolved * 100 / total
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(status)
}
