package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/codemap-dev/codemap/internal/toolserver"
)

// formatSymbolsText formats toolserver.Symbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []toolserver.Symbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tVISIBILITY\tFILE\tLINE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.Name, s.Kind, s.Visibility, s.FilePath, s.StartLine)
	}
	tw.Flush()
}

// formatEdgesText formats toolserver.Edge results as aligned columns.
func formatEdgesText(w io.Writer, edges []toolserver.Edge) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSOURCE\tTARGET\tFILE\tLINE")
	for _, e := range edges {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\n", e.Kind, e.SourceID, e.TargetID, e.FilePath, e.Line)
	}
	tw.Flush()
}

// formatCountsText formats a name->count map as "name: count" lines, sorted
// by name, used by status and reindex.
func formatCountsText(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %d\n", k, counts[k])
	}
}

// outputResult renders a CLIResult in the requested format to stdout.
func outputResult(result CLIResult, format string) error {
	if format == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result's dynamic type.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []toolserver.Symbol:
		formatSymbolsText(w, v)
	case toolserver.Symbol:
		formatSymbolsText(w, []toolserver.Symbol{v})
	case []toolserver.Edge:
		formatEdgesText(w, v)
	case map[string]int:
		formatCountsText(w, v)
	case nil:
		// No output for nil results (e.g. a query with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

func resultLen(v any) int {
	switch r := v.(type) {
	case []toolserver.Symbol:
		return len(r)
	case []toolserver.Edge:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
