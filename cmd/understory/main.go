package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
)

var (
	flagDB     string
	flagFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Static value resolution for JavaScript and TypeScript",
	Long:          "Understory determines what value each expression denotes without executing the program, and reports structured gaps where static analysis had to stop.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .understory/index.db under the indexed directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(registrationsCmd)
	rootCmd.AddCommand(matchCmd)
}

var (
	flagForce   bool
	flagWorkers int
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Analyze a directory and persist exports and gaps",
	Long:  "Parses source files with tree-sitter, resolves top-level values across files, and writes exports and analysis gaps to the SQLite database. Unchanged files are skipped by content hash.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reanalyze from scratch")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel analysis workers (0 = one per CPU, 1 = serial)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir := "."
	if len(args) == 1 {
		targetDir = args[0]
	}
	targetDir, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}

	dbPath := resolveDBPath(targetDir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
	}

	e, err := understory.New(
		understory.WithProjectResolver(),
		understory.WithDB(dbPath),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	var summary *understory.IndexSummary
	if flagWorkers == 1 {
		summary, err = e.IndexDirectory(cmd.Context(), targetDir)
	} else {
		summary, err = e.IndexDirectoryParallel(cmd.Context(), targetDir, flagWorkers)
	}
	if err != nil {
		return err
	}
	return outputIndexSummary(summary, dbPath, time.Since(start))
}

// resolveDBPath picks the database location: --db wins, otherwise
// .understory/index.db under the indexed directory.
func resolveDBPath(targetDir string) string {
	if flagDB != "" {
		return flagDB
	}
	return filepath.Join(targetDir, ".understory", "index.db")
}
