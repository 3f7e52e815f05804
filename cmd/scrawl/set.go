package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scrawl-tools/scrawl/internal/dbus"
)

var setOpts struct {
	resolve   bool
	unresolve bool
	archive   bool
	unarchive bool
	delete    bool
	stdin     bool
	stdinJSON bool
	quiet     bool
}

// ulidPattern matches a Crockford base32 ULID anywhere in a line.
var ulidPattern = regexp.MustCompile(`\b[0-9A-HJ-KM-NP-TV-Z]{26}\b`)

var setCmd = &cobra.Command{
	Use:   "set [id...]",
	Short: "Modify annotation state (resolve, archive, delete)",
	Long: `Modify the state of one or more annotations.

IDs can be passed as arguments, piped via stdin (one per line, ULIDs are
extracted from surrounding text such as dmenu output), or as JSON objects
via --stdin-json (the "scrawl_id" field is used).

Examples:
  # Resolve a specific annotation
  scrawl set --resolve 01HXYZ...

  # Archive everything currently listed
  scrawl get --format ids | scrawl set --stdin --archive

  # Resolve from a fuzzel selection
  scrawl get | fuzzel -d | scrawl set --stdin --resolve

  # Delete with tombstone so the daemon forgets it too
  scrawl set --delete 01HXYZ...`,
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().BoolVar(&setOpts.resolve, "resolve", false,
		"Mark annotations as resolved")
	setCmd.Flags().BoolVar(&setOpts.unresolve, "unresolve", false,
		"Clear the resolved state")
	setCmd.Flags().BoolVar(&setOpts.archive, "archive", false,
		"Archive annotations (hidden from default views)")
	setCmd.Flags().BoolVar(&setOpts.unarchive, "unarchive", false,
		"Restore archived annotations")
	setCmd.Flags().BoolVar(&setOpts.delete, "delete", false,
		"Permanently delete annotations (writes a tombstone)")
	setCmd.Flags().BoolVar(&setOpts.stdin, "stdin", false,
		"Read annotation IDs from stdin (one per line)")
	setCmd.Flags().BoolVar(&setOpts.stdinJSON, "stdin-json", false,
		"Read JSON objects from stdin and extract the scrawl_id field")
	setCmd.Flags().BoolVarP(&setOpts.quiet, "quiet", "q", false,
		"Suppress per-annotation output")
}

func runSet(cmd *cobra.Command, args []string) error {
	action, err := selectedAction()
	if err != nil {
		return err
	}

	ids, err := collectIDs(args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no annotation IDs provided (pass as arguments, or use --stdin)")
	}

	// Best-effort daemon notification for actions it cares about.
	var client *dbus.Client
	if c, err := dbus.NewClient(logger); err == nil && c.Ping() {
		client = c
		defer client.Close()
	}

	var failed int
	for _, id := range ids {
		if err := performAction(id, action, client); err != nil {
			logger.Warn("action failed", "id", id, "action", action, "error", err)
			failed++
			continue
		}
		if !setOpts.quiet {
			fmt.Printf("%s: %s\n", action, id)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d annotations failed", failed, len(ids))
	}
	return nil
}

// selectedAction validates that exactly one action flag is set.
func selectedAction() (string, error) {
	var actions []string
	if setOpts.resolve {
		actions = append(actions, "resolve")
	}
	if setOpts.unresolve {
		actions = append(actions, "unresolve")
	}
	if setOpts.archive {
		actions = append(actions, "archive")
	}
	if setOpts.unarchive {
		actions = append(actions, "unarchive")
	}
	if setOpts.delete {
		actions = append(actions, "delete")
	}

	switch len(actions) {
	case 0:
		return "", fmt.Errorf("no action specified (use --resolve, --unresolve, --archive, --unarchive, or --delete)")
	case 1:
		return actions[0], nil
	default:
		return "", fmt.Errorf("only one action may be specified, got: %s", strings.Join(actions, ", "))
	}
}

// collectIDs gathers annotation IDs from args and/or stdin.
func collectIDs(args []string) ([]string, error) {
	var ids []string

	for _, arg := range args {
		if id := extractULID(arg); id != "" {
			ids = append(ids, id)
		} else {
			logger.Warn("argument contains no annotation ID", "arg", arg)
		}
	}

	if setOpts.stdinJSON {
		stdinIDs, err := readJSONFromStdin()
		if err != nil {
			return nil, err
		}
		ids = append(ids, stdinIDs...)
	} else if setOpts.stdin {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if id := extractULID(line); id != "" {
				ids = append(ids, id)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	return uniqueStrings(ids), nil
}

// extractULID pulls a ULID out of a line of text. Lines from dmenu
// pipelines carry extra fields around the ID.
func extractULID(s string) string {
	return ulidPattern.FindString(strings.ToUpper(s))
}

// readJSONFromStdin reads newline-delimited JSON objects and extracts
// the scrawl_id field from each.
func readJSONFromStdin() ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			logger.Warn("skipping invalid JSON line", "error", err)
			continue
		}
		if id, ok := obj["scrawl_id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return ids, nil
}

// performAction applies the action to a single annotation in the store,
// notifying the daemon when one is running.
func performAction(id, action string, client *dbus.Client) error {
	if action == "delete" {
		if err := historyStore.DeleteWithTombstone(id); err != nil {
			return err
		}
		if client != nil {
			_ = client.RemoveAnnotation(id)
		}
		return nil
	}

	a := historyStore.GetByID(id)
	if a == nil {
		return fmt.Errorf("annotation not found")
	}

	switch action {
	case "resolve":
		a.MarkResolved()
	case "unresolve":
		a.Unresolve()
	case "archive":
		a.MarkArchived()
		if client != nil {
			_ = client.RemoveAnnotation(id)
		}
	case "unarchive":
		a.Unarchive()
	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return historyStore.Update(*a)
}

// uniqueStrings deduplicates while preserving order.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
