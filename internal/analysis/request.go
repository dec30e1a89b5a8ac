// ABOUTME: Validated request and result types for the analysis service.
// ABOUTME: Timeframe is a closed enum; Result is an opaque passthrough document.

package analysis

// Timeframe is the analysis horizon requested alongside an asset symbol.
type Timeframe string

// Recognized analysis horizons.
const (
	TimeframeShort  Timeframe = "short"
	TimeframeMedium Timeframe = "medium"
	TimeframeLong   Timeframe = "long"
)

// ParseTimeframe maps a raw string onto a recognized Timeframe.
// The second return value reports whether the input was valid.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case TimeframeShort, TimeframeMedium, TimeframeLong:
		return Timeframe(s), true
	}
	return "", false
}

// Request is a fully validated analysis request. All fields are non-empty
// by the time a Request exists; construction goes through the relay validator.
type Request struct {
	Query     string    `json:"query"`
	Asset     string    `json:"asset"`
	Timeframe Timeframe `json:"timeframe"`
}

// Result is the analysis document returned by the service. It is treated
// as opaque key/value data and passed through unmodified into the
// narrative prompt.
type Result map[string]any
