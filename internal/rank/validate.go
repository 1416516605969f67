package rank

import "marketintel/internal/model"

// ValidateFinancialSnapshot flags implausible or internally inconsistent
// metrics in a resolved financial snapshot before it reaches a report.
// Grounded on original_source/core/pipeline/ranking.py's
// _validate_financial_snapshot.
func ValidateFinancialSnapshot(km model.KeyMetrics) []string {
	var warnings []string

	if km.RevenueGrowth != nil && (*km.RevenueGrowth > 5.0 || *km.RevenueGrowth < -0.9) {
		warnings = append(warnings, "EXTREME_VALUE: revenue_growth is outside a plausible range")
	}
	if km.EarningsGrowth != nil && (*km.EarningsGrowth > 5.0 || *km.EarningsGrowth < -0.9) {
		warnings = append(warnings, "EXTREME_VALUE: earnings_growth is outside a plausible range")
	}
	if km.OperatingMargin != nil && km.GrossMargin != nil && *km.OperatingMargin > *km.GrossMargin {
		warnings = append(warnings, "LOGIC_ERROR: operating_margin exceeds gross_margin")
	}

	return warnings
}
