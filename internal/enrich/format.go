// Package enrich builds the typed report sections consumed by report
// generation: financial performance, historical trends, macro context,
// social sentiment, coverage, filings, and forward-looking scenarios.
// Grounded on original_source/core/pipeline/enrichment.py.
package enrich

import (
	"fmt"
	"math"
)

func formatCompactNumber(value *float64) string {
	if value == nil {
		return "n/a"
	}
	abs := math.Abs(*value)
	switch {
	case abs >= 1_000_000_000_000:
		return fmt.Sprintf("%.2fT", *value/1_000_000_000_000)
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", *value/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", *value/1_000_000)
	default:
		return fmt.Sprintf("%.2f", *value)
	}
}

func formatRatioPercent(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *value*100)
}
