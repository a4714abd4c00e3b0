package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/store"
)

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	}
	return fmt.Errorf("invalid format %q: must be json or text", format)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputIndexSummary(s *understory.IndexSummary, dbPath string, elapsed time.Duration) error {
	if flagFormat == "json" {
		return outputJSON(map[string]any{
			"files":    s.Files,
			"skipped":  s.Skipped,
			"exports":  s.Exports,
			"gaps":     s.Gaps,
			"failures": s.Failures,
			"db":       dbPath,
			"elapsed":  elapsed.String(),
		})
	}
	fmt.Printf("Analyzed %d files (%d unchanged, %d failed) in %s\n",
		s.Files, s.Skipped, s.Failures, elapsed.Round(time.Millisecond))
	fmt.Printf("  %d exports, %d gaps → %s\n", s.Exports, s.Gaps, dbPath)
	return nil
}

func outputStats(stats []*store.FileStat) error {
	if flagFormat == "json" {
		return outputJSON(stats)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tEXPORTS\tRESOLVED\tGAPS\tANALYZED")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n",
			st.Path, st.Exports, st.Resolved, st.Gaps, st.AnalyzedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func outputExports(exports []*store.Export) error {
	if flagFormat == "json" {
		return outputJSON(exports)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tRESOLVED\tCONFIDENCE\tSUMMARY")
	for _, e := range exports {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\t%s\n", e.Name, e.Kind, e.Resolved, e.Confidence, e.Summary)
	}
	return tw.Flush()
}

func outputGaps(gaps []*store.Gap) error {
	if flagFormat == "json" {
		return outputJSON(gaps)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tKIND\tWHAT\tSUGGESTION")
	for _, g := range gaps {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", g.Path, g.Line, g.Kind, g.What, g.Suggestion)
	}
	return tw.Flush()
}

func outputValue(name string, v understory.Value) error {
	if flagFormat == "json" {
		return outputJSON(map[string]any{
			"name":     name,
			"resolved": understory.IsResolved(v),
			"value":    understory.ToPlain(v),
			"gaps":     gapsJSON(understory.CollectGaps(v)),
		})
	}
	fmt.Printf("%s: ", name)
	pretty, err := json.MarshalIndent(understory.ToPlain(v), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	for _, g := range understory.CollectGaps(v) {
		fmt.Printf("  gap (%s): %s", g.Kind, g.What)
		if g.Suggestion != "" {
			fmt.Printf(" — %s", g.Suggestion)
		}
		fmt.Println()
	}
	return nil
}

func outputRegistrations(d understory.Discovery) error {
	if flagFormat == "json" {
		regs := make([]map[string]any, 0, len(d.Registrations))
		for _, r := range d.Registrations {
			entry := map[string]any{
				"tag":         r.TagName,
				"callee":      r.Callee,
				"conditional": r.Conditional,
				"line":        int(r.Span.StartLine) + 1,
				"gaps":        gapsJSON(r.Gaps),
			}
			if r.Target != nil {
				entry["target"] = understory.ToPlain(r.Target)
			}
			regs = append(regs, entry)
		}
		return outputJSON(regs)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tCALLEE\tLINE\tCONDITIONAL\tGAPS")
	for _, r := range d.Registrations {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%v\t%d\n",
			r.TagName, r.Callee, r.Span.StartLine+1, r.Conditional, len(r.Gaps))
	}
	return tw.Flush()
}

func outputMatches(names []string) error {
	if flagFormat == "json" {
		return outputJSON(map[string]any{"matched": names})
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func gapsJSON(gaps []understory.Gap) []map[string]any {
	out := make([]map[string]any, 0, len(gaps))
	for _, g := range gaps {
		entry := map[string]any{
			"what": g.What,
			"kind": string(g.Kind),
		}
		if g.Suggestion != "" {
			entry["suggestion"] = g.Suggestion
		}
		if g.Span != nil {
			entry["line"] = int(g.Span.StartLine) + 1
		}
		out = append(out, entry)
	}
	return out
}
