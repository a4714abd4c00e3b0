package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Summarize the analysis index per file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

var exportsCmd = &cobra.Command{
	Use:   "exports <file>",
	Short: "List the stored exports of an analyzed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExports,
}

var flagGapKind string

var gapsCmd = &cobra.Command{
	Use:   "gaps [file]",
	Short: "List analysis gaps, for one file or the whole index",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGaps,
}

func init() {
	gapsCmd.Flags().StringVar(&flagGapKind, "kind", "", "filter by gap kind (e.g. dynamic-value, external-package)")
}

var valueCmd = &cobra.Command{
	Use:   "value <file> <name>",
	Short: "Resolve one top-level binding and print its value",
	Long:  "Analyzes the file (and the relative imports it reaches) and prints the resolved value of the named top-level binding or export.",
	Args:  cobra.ExactArgs(2),
	RunE:  runValue,
}

var registrationsCmd = &cobra.Command{
	Use:   "registrations <file>",
	Short: "Discover component registration calls in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistrations,
}

// openStore opens the analysis database next to the queried path.
func openStore(near string) (*store.Store, error) {
	dir, err := filepath.Abs(near)
	if err != nil {
		return nil, err
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		dbPath := flagDB
		if dbPath == "" {
			dbPath = filepath.Join(dir, ".understory", "index.db")
		}
		if _, err := os.Stat(dbPath); err == nil {
			return store.NewStore(dbPath)
		}
		if flagDB != "" {
			return nil, fmt.Errorf("database not found: %s (run 'understory index' first)", flagDB)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("no .understory/index.db found near %s (run 'understory index' first)", near)
		}
		dir = parent
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	near := "."
	if len(args) == 1 {
		near = args[0]
	}
	s, err := openStore(near)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := understory.NewQuery(s).Stats()
	if err != nil {
		return err
	}
	return outputStats(stats)
}

func runExports(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	exports, err := understory.NewQuery(s).ExportsOf(path)
	if err != nil {
		return err
	}
	return outputExports(exports)
}

func runGaps(cmd *cobra.Command, args []string) error {
	near := "."
	if len(args) == 1 {
		near = args[0]
	}
	s, err := openStore(near)
	if err != nil {
		return err
	}
	defer s.Close()

	q := understory.NewQuery(s)
	var gaps []*store.Gap
	switch {
	case len(args) == 1:
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		gaps, err = q.GapsOf(path)
		if err != nil {
			return err
		}
	case flagGapKind != "":
		gaps, err = q.GapsOfKind(understory.GapKind(flagGapKind))
		if err != nil {
			return err
		}
	default:
		gaps, err = q.AllGaps()
		if err != nil {
			return err
		}
	}
	if flagGapKind != "" && len(args) == 1 {
		gaps = filterGaps(gaps, flagGapKind)
	}
	return outputGaps(gaps)
}

func filterGaps(gaps []*store.Gap, kind string) []*store.Gap {
	var out []*store.Gap
	for _, g := range gaps {
		if g.Kind == kind {
			out = append(out, g)
		}
	}
	return out
}

// analyzeOne runs a full analysis of a single file with the project
// resolver, without touching the database.
func analyzeOne(cmd *cobra.Command, file string) (*understory.FileAnalysis, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	e, err := understory.New(understory.WithProjectResolver())
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.AnalyzeFile(cmd.Context(), path)
}

func runValue(cmd *cobra.Command, args []string) error {
	fa, err := analyzeOne(cmd, args[0])
	if err != nil {
		return err
	}
	name := args[1]
	v, ok := fa.Exports[name]
	if !ok {
		v, ok = fa.Binding(name)
	}
	if !ok {
		return fmt.Errorf("no top-level binding or export named %q in %s", name, fa.Path)
	}
	return outputValue(name, v)
}

func runRegistrations(cmd *cobra.Command, args []string) error {
	fa, err := analyzeOne(cmd, args[0])
	if err != nil {
		return err
	}
	return outputRegistrations(fa.Registrations())
}
