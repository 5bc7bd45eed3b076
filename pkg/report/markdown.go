// pkg/report/markdown.go
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// Markdown renders a validation report: one bullet per rule outcome,
// grouped by dataset section, in catalog order. The rendering is fully
// determined by the report content.
func Markdown(r *model.ValidationReport) string {
	var b strings.Builder

	b.WriteString("# Data Validation Report\n\n")
	fmt.Fprintf(&b, "Run: %s  \n", r.RunID)
	fmt.Fprintf(&b, "Generated: %s  \n", r.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Overall: **%s**\n\n", overall(r.Passed))

	for _, section := range r.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Dataset)
		fmt.Fprintf(&b, "Rows: %d in, %d out\n\n", section.RowsIn, section.RowsOut)

		for _, o := range section.Outcomes {
			fmt.Fprintf(&b, "- %s: %s", o.Rule, o.Verdict)
			if o.Failed() {
				fmt.Fprintf(&b, " (%d offending)", o.OffendingRows)
			}
			fmt.Fprintf(&b, " — %s\n", o.Explanation)
		}

		if len(section.Remediations) > 0 {
			b.WriteString("\nRemediation:\n\n")
			for _, rem := range section.Remediations {
				fmt.Fprintf(&b, "- %s: %s — %s\n", rem.Rule, rem.Action, rem.Detail)
			}
		}

		b.WriteString("\n")
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	return b.String()
}

func overall(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
