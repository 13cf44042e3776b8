package review

import (
	"fmt"
	"math"
	"strings"

	"github.com/solarch-labs/advisor/internal/domain"
)

const noItemsSummary = "No checklist items were generated for this review, so there is nothing to summarize yet."

// RenderSummary produces the terminal report for a review. Implemented and
// not-applicable items are listed together; needs-attention items carry their
// recommendation. Item order within each partition follows generation order.
func RenderSummary(services []*domain.ServiceProgress) string {
	var b strings.Builder
	b.WriteString("Production Readiness Summary\n")

	total := 0
	implemented := 0
	needsAttention := 0
	pending := 0

	for _, svc := range services {
		fmt.Fprintf(&b, "\n## %s\n", svc.ServiceName)

		var done, attention, open []domain.ChecklistItem
		for _, item := range svc.Items {
			total++
			switch item.Status {
			case domain.ItemImplemented, domain.ItemNotApplicable:
				implemented++
				done = append(done, item)
			case domain.ItemNeedsAttention:
				needsAttention++
				attention = append(attention, item)
			default:
				pending++
				open = append(open, item)
			}
		}

		if len(done) > 0 {
			b.WriteString("\nImplemented:\n")
			for _, item := range done {
				fmt.Fprintf(&b, "  [x] %s\n", item.Title)
			}
		}
		if len(attention) > 0 {
			b.WriteString("\nNeeds Attention:\n")
			for _, item := range attention {
				fmt.Fprintf(&b, "  [ ] %s\n", item.Title)
				if item.Recommendation != "" {
					fmt.Fprintf(&b, "      %s\n", item.Recommendation)
				}
			}
		}
		if len(open) > 0 {
			fmt.Fprintf(&b, "\nNot yet reviewed: %d item(s)\n", len(open))
		}
	}

	b.WriteString("\n## Overall Progress\n")
	if total == 0 {
		b.WriteString(noItemsSummary + "\n")
		return b.String()
	}

	pct := math.Round(float64(implemented)/float64(total)*1000) / 10
	fmt.Fprintf(&b, "Total items: %d\n", total)
	fmt.Fprintf(&b, "Implemented: %d\n", implemented)
	fmt.Fprintf(&b, "Needs attention: %d\n", needsAttention)
	if pending > 0 {
		fmt.Fprintf(&b, "Not yet reviewed: %d\n", pending)
	}
	fmt.Fprintf(&b, "Implemented: %.1f%%\n", pct)
	return b.String()
}
