package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scrawl-tools/scrawl/internal/adapter/input"
	"github.com/scrawl-tools/scrawl/internal/adapter/output"
	"github.com/scrawl-tools/scrawl/internal/core"
	"github.com/scrawl-tools/scrawl/internal/model"
)

var getOpts struct {
	// Input options
	source string

	// Filter options
	since    string
	src      string
	priority string
	limit    int
	search   string
	filter   string

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format   string
	field    string
	template string

	// Lookup options
	index int
	id    string
}

var getCmd = &cobra.Command{
	Use:   "get [index|id]",
	Short: "Query and output annotation history",
	Long: `Query annotation history and output in various formats.

Without arguments, outputs all annotations in dmenu format (suitable for
fuzzel, walker, rofi, etc.).

With an index (1-based) or ID argument, outputs that specific annotation.

Examples:
  # List all annotations in dmenu format
  scrawl get

  # Filter by source and time
  scrawl get --src dbus --since 1h

  # Filter with an expression
  scrawl get --filter "priority>=normal,resolved=false"

  # Get specific annotation by index
  scrawl get 3

  # Get annotation and output note field
  scrawl get 3 --field note

  # Output as JSON
  scrawl get --format json

  # Use with fuzzel for clipboard workflow
  scrawl get | fuzzel -d | scrawl get --field note | wl-copy`,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	// Input flags
	getCmd.Flags().StringVar(&getOpts.source, "source", "",
		"Import source (stdin, file:<path>; history only if empty)")

	// Filter flags
	getCmd.Flags().StringVar(&getOpts.since, "since", "",
		"Show annotations from the last duration (e.g., 1h, 7d, 1w)")
	getCmd.Flags().StringVar(&getOpts.src, "src", "",
		"Filter by capture source (exact match)")
	getCmd.Flags().StringVar(&getOpts.priority, "priority", "",
		"Filter by priority (low, normal, high)")
	getCmd.Flags().IntVarP(&getOpts.limit, "limit", "n", 0,
		"Maximum number of annotations to show (0=unlimited)")
	getCmd.Flags().StringVarP(&getOpts.search, "search", "s", "",
		"Search in label and note")
	getCmd.Flags().StringVar(&getOpts.filter, "filter", "",
		"Filter expression (e.g., \"source=dbus,priority>=normal\")")

	// Sort flags
	getCmd.Flags().StringVar(&getOpts.sortBy, "sort", "timestamp",
		"Sort by field (timestamp, label, priority)")
	getCmd.Flags().StringVar(&getOpts.sortOrder, "order", "desc",
		"Sort order (asc, desc)")

	// Output flags
	getCmd.Flags().StringVarP(&getOpts.format, "format", "f", "dmenu",
		"Output format (dmenu, json, plain, ids)")
	getCmd.Flags().StringVar(&getOpts.field, "field", "",
		"Output single field from annotation (id, label, note, position, all)")
	getCmd.Flags().StringVar(&getOpts.template, "template", "",
		"Custom Go template for output formatting")

	// Lookup flags
	getCmd.Flags().IntVar(&getOpts.index, "index", 0,
		"Lookup annotation by 1-based index")
	getCmd.Flags().StringVar(&getOpts.id, "id", "",
		"Lookup annotation by scrawl ID")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Check for positional argument (index or ID)
	if len(args) > 0 {
		arg := args[0]
		// Try as index first
		if idx, err := strconv.Atoi(arg); err == nil && idx > 0 {
			getOpts.index = idx
		} else {
			// Treat as ID
			getOpts.id = arg
		}
	}

	// Fetch annotations
	annotations, err := fetchAnnotations(ctx)
	if err != nil {
		return err
	}

	// If looking up specific annotation
	if getOpts.index > 0 || getOpts.id != "" {
		return handleLookup(annotations)
	}

	// Apply filters and sort
	annotations, err = applyFilters(annotations)
	if err != nil {
		return err
	}
	applySort(annotations)

	// Output
	return outputAnnotations(annotations)
}

// fetchAnnotations retrieves annotations from the history store,
// optionally importing from an external source first.
func fetchAnnotations(ctx context.Context) ([]model.Annotation, error) {
	if getOpts.source != "" {
		logger.Debug("importing annotations", "source", getOpts.source)

		adapter, err := input.NewAdapter(getOpts.source)
		if err != nil {
			return nil, fmt.Errorf("failed to create adapter: %w", err)
		}

		annotations, err := adapter.Import(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to import annotations: %w", err)
		}

		logger.Debug("imported annotations", "count", len(annotations))

		// Add to store (persistence is always enabled)
		if len(annotations) > 0 {
			_ = historyStore.AddBatch(annotations)
		}
	}

	return historyStore.All(), nil
}

// applyFilters applies filter options to annotations.
func applyFilters(annotations []model.Annotation) ([]model.Annotation, error) {
	opts := core.FilterOptions{
		SourceFilter: getOpts.src,
		Limit:        getOpts.limit,
	}

	// Parse since duration
	if getOpts.since != "" {
		d, err := core.ParseDuration(getOpts.since)
		if err != nil {
			logger.Warn("invalid since duration", "value", getOpts.since, "error", err)
		} else {
			opts.Since = d
		}
	}

	// Parse priority
	if getOpts.priority != "" {
		p, err := core.ParsePriority(getOpts.priority)
		if err != nil {
			logger.Warn("invalid priority", "value", getOpts.priority, "error", err)
		} else {
			opts.Priority = &p
		}
	}

	// Apply filter
	annotations = core.Filter(annotations, opts)

	// Apply filter expression if specified
	if getOpts.filter != "" {
		expr, err := core.ParseFilter(getOpts.filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		annotations = core.FilterWithExpr(annotations, expr)
	}

	// Apply search if specified
	if getOpts.search != "" {
		annotations = core.Search(annotations, getOpts.search)
	}

	return annotations, nil
}

// applySort sorts annotations based on options.
func applySort(annotations []model.Annotation) {
	field, _ := core.ParseSortField(getOpts.sortBy)
	order, _ := core.ParseSortOrder(getOpts.sortOrder)

	core.Sort(annotations, core.SortOptions{
		Field: field,
		Order: order,
	})
}

// handleLookup handles single annotation lookup and output.
func handleLookup(annotations []model.Annotation) error {
	var a *model.Annotation

	if getOpts.index > 0 {
		// First apply filters and sort to get consistent indexing
		filtered, err := applyFilters(annotations)
		if err != nil {
			return err
		}
		applySort(filtered)
		a = core.LookupByIndex(filtered, getOpts.index)
		if a == nil {
			return fmt.Errorf("annotation at index %d not found", getOpts.index)
		}
	} else if getOpts.id != "" {
		// Parse ID from potential dmenu output (first field before separator)
		id := parseDmenuSelection(getOpts.id)
		a = core.LookupByID(annotations, id)
		if a == nil {
			return fmt.Errorf("annotation with ID %s not found", getOpts.id)
		}
	}

	// Output specific field if requested
	if getOpts.field != "" {
		fmt.Println(output.FormatField(a, getOpts.field))
		return nil
	}

	// Output as JSON by default for single annotation
	if getOpts.format == "dmenu" {
		getOpts.format = "json"
	}

	formatter := createFormatter()
	return formatter.Format(os.Stdout, []model.Annotation{*a})
}

// parseDmenuSelection extracts the annotation ID from dmenu selection.
// Input could be the full line: "1 | 5m | todo | Fix this button"
// or just an ID/index.
func parseDmenuSelection(selection string) string {
	selection = strings.TrimSpace(selection)

	// If it looks like a raw ID (alphanumeric), return as-is
	if !strings.Contains(selection, " ") && !strings.Contains(selection, "|") {
		return selection
	}

	// Try to parse as index from dmenu output
	// Format: "index | time | label | note"
	parts := strings.SplitN(selection, "|", 2)
	if len(parts) > 0 {
		idxStr := strings.TrimSpace(parts[0])
		if idx, err := strconv.Atoi(idxStr); err == nil && idx > 0 {
			// Return as string index for lookup
			return idxStr
		}
	}

	return selection
}

// outputAnnotations outputs the annotation list.
func outputAnnotations(annotations []model.Annotation) error {
	if len(annotations) == 0 {
		logger.Debug("no annotations to output")
		return nil
	}

	formatter := createFormatter()
	return formatter.Format(os.Stdout, annotations)
}

// createFormatter creates the output formatter based on options.
func createFormatter() output.Formatter {
	var format output.FormatType
	switch strings.ToLower(getOpts.format) {
	case "json":
		format = output.FormatJSON
	case "plain":
		format = output.FormatPlain
	case "ids":
		format = output.FormatIDs
	default:
		format = output.FormatDmenu
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = getOpts.template

	// Apply config defaults if available
	if cfg != nil {
		if cfg.Templates.Dmenu != "" && opts.Template == "" {
			opts.Template = cfg.Templates.Dmenu
		}
	}

	return output.NewFormatter(format, opts)
}
