// ABOUTME: Prompt composition for the narrative generator.
// ABOUTME: Fixed analyst preamble plus the rendered analysis document as substrate.

package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quantrelay/quantrelay/internal/analysis"
)

const promptPreamble = `You are a professional market analyst. Write a clear,
structured narrative in markdown for a retail investor. Start with a short
summary of the outlook, then cover the supporting details: technical picture,
macro context, sentiment, and key risks. Ground every statement in the
analysis data below; do not invent figures.`

// BuildPrompt composes the completion prompt from the analysis document
// and the original asset/timeframe for grounding. The document is
// rendered as indented JSON (keys in stable order) so the substrate is
// deterministic for a given result.
func BuildPrompt(result analysis.Result, asset string, timeframe analysis.Timeframe) string {
	rendered, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		// A Result decoded from JSON always re-encodes; this path only
		// triggers on hand-built documents with unsupported types.
		rendered = []byte(fmt.Sprintf("%v", result))
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nAsset: ")
	b.WriteString(asset)
	b.WriteString("\nTimeframe: ")
	b.WriteString(string(timeframe))
	b.WriteString("\n\nAnalysis data:\n")
	b.Write(rendered)
	b.WriteString("\n")
	return b.String()
}
