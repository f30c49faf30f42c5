package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/shieldops/shieldops/internal/core"
)

var runCmd = &cobra.Command{
	Use:   "run <event-file|dir> [more...]",
	Short: "Run supervisor sessions for events read from files",
	Long: `Run one supervisor session per event file and print a summary of each
finished session.

Event files are JSON or YAML objects with at least a "type" field:

  {"type": "disk_full", "severity": "high", "resource_id": "db-7"}

Directories are expanded to their *.json, *.yaml and *.yml entries.
Multiple events run concurrently, bounded by --concurrency.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var (
	runConcurrency int
	runJSONOutput  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 4,
		"Maximum number of sessions running at once")
	runCmd.Flags().BoolVar(&runJSONOutput, "json", false,
		"Print full session state as JSON instead of summaries")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	paths, err := collectEventFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no event files found under %v", args)
	}

	states := make([]*core.SessionState, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			event, err := readEventFile(path)
			if err != nil {
				return err
			}
			state, err := rt.orchestrator.Run(ctx, event)
			if err != nil {
				return fmt.Errorf("persisting session for %s: %w", path, err)
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return printSessions(cmd, paths, states)
}

func printSessions(cmd *cobra.Command, paths []string, states []*core.SessionState) error {
	if runJSONOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(states)
	}
	for i, state := range states {
		sum := state.Summarize()
		fmt.Fprintf(cmd.OutOrStdout(),
			"%-30s %-12s %-20s tasks=%d chains=%d escalations=%d (%dms)\n",
			filepath.Base(paths[i]), sum.EventType, sum.CurrentStep,
			sum.Tasks, sum.Chains, sum.Escalations, sum.DurationMS)
	}
	return nil
}

// collectEventFiles expands directory arguments into their event files and
// returns a stable ordering.
func collectEventFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".json", ".yaml", ".yml":
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func readEventFile(path string) (core.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var event core.Event
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &event)
	default:
		err = json.Unmarshal(data, &event)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing event file %s: %w", path, err)
	}
	if event.Type() == "" {
		return nil, fmt.Errorf("event file %s has no type field", path)
	}
	return event, nil
}
