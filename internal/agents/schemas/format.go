package schemas

import (
	"fmt"
	"strings"
)

// FormatSearchResults renders the fanned-in search summaries as one readable
// text block for the downstream analysts. Findings keep original task order.
func FormatSearchResults(results []AnalysisSummary) string {
	var b strings.Builder
	b.WriteString("# Analysis Results\n\n")
	for i, result := range results {
		fmt.Fprintf(&b, "## Finding %d\n%s\n\n", i+1, result.Summary)
	}
	return strings.TrimSpace(b.String())
}
