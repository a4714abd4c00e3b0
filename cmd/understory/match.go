package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/understory"
)

var flagMatchName string

var matchCmd = &cobra.Command{
	Use:   "match <script> <file>",
	Short: "Evaluate a risor expression against a file's resolved exports",
	Long: `Evaluates a risor expression against the plain form of each resolved export
(or a single binding with --name). The expression sees the value as the
global "value" and matches when it evaluates truthy:

  understory match 'value["kind"] == "object"' src/config.ts
  understory match --name theme 'value["properties"]["dark"] != nil' src/theme.ts`,
	Args: cobra.ExactArgs(2),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&flagMatchName, "name", "", "match a single binding instead of every export")
}

func runMatch(cmd *cobra.Command, args []string) error {
	script, file := args[0], args[1]
	fa, err := analyzeOne(cmd, file)
	if err != nil {
		return err
	}

	targets := map[string]understory.Value{}
	if flagMatchName != "" {
		v, ok := fa.Exports[flagMatchName]
		if !ok {
			v, ok = fa.Binding(flagMatchName)
		}
		if !ok {
			return fmt.Errorf("no top-level binding or export named %q in %s", flagMatchName, fa.Path)
		}
		targets[flagMatchName] = v
	} else {
		for name, v := range fa.Exports {
			targets[name] = v
		}
	}

	matched, err := evalMatches(cmd, script, targets)
	if err != nil {
		return err
	}
	if err := outputMatches(matched); err != nil {
		return err
	}
	if len(matched) == 0 {
		os.Exit(1)
	}
	return nil
}

// evalMatches runs the script over each target and returns the names that
// matched, sorted.
func evalMatches(cmd *cobra.Command, script string, targets map[string]understory.Value) ([]string, error) {
	var matched []string
	for name, v := range targets {
		ok, err := understory.MatchScript(cmd.Context(), script, v)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched, nil
}
