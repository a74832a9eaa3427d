// Package notify delivers operator alerts for escalated moderation
// decisions.
package notify

import (
	"fmt"
	"strings"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// formatAlert renders the shared human-readable alert text. Only hashes and
// scores appear, never the analyzed text.
func formatAlert(record *core.DecisionRecord, review *core.Review) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Moderation decision %s escalated (level %s, severity %.2f).\n",
		record.ID, record.Level, record.SeverityScore)
	fmt.Fprintf(&b, "Accepted: %t, layers: %s, text sha256: %s\n",
		record.IsAcceptable, joinLayers(record.LayersUsed), record.TextHash)

	if len(record.Issues) > 0 {
		b.WriteString("Issues:\n")
		for _, issue := range record.Issues {
			fmt.Fprintf(&b, "  - %s %.2f (%s)\n", issue.Type, issue.Score, issue.Source)
		}
	}

	if review != nil {
		fmt.Fprintf(&b, "Second opinion (%s): %s\n", review.Provider, review.Summary)
	}

	return b.String()
}

func joinLayers(layers []core.Layer) string {
	if len(layers) == 0 {
		return "none"
	}
	names := make([]string, len(layers))
	for i, layer := range layers {
		names[i] = string(layer)
	}
	return strings.Join(names, ", ")
}
