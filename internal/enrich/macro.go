package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// macroSeriesIDs are the FRED series IDs the macro context builder
// pulls, matching enrichment.py's _MACRO_SERIES_IDS.
var macroSeriesIDs = []string{
	"GDP", "CPIAUCSL", "UNRATE", "FEDFUNDS", "DGS10", "VIXCLS",
	"SP500", "T10Y2Y", "DCOILWTICO", "USSLIND", "INDPRO", "CSUSHPINSA",
}

// MacroContext is the typed equivalent of enrichment.py's
// _build_macro_context return dict.
type MacroContext struct {
	Available  bool
	Summary    string
	Indicators map[string]model.MacroObservation
}

// BuildMacroContext loads the latest value of each tracked FRED series
// and assembles a short human-readable summary of the headline ones.
// Grounded on enrichment.py's _build_macro_context.
func BuildMacroContext(ctx context.Context, repo repository.Repository, log zerolog.Logger) MacroContext {
	observations, err := repo.LatestMacroValues(ctx, macroSeriesIDs)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load macro indicators")
		return MacroContext{Indicators: map[string]model.MacroObservation{}}
	}
	if len(observations) == 0 {
		return MacroContext{Indicators: map[string]model.MacroObservation{}}
	}

	bySeries := make(map[string]model.MacroObservation, len(observations))
	for _, o := range observations {
		bySeries[o.SeriesID] = o
	}

	var parts []string
	if gdp, ok := bySeries["GDP"]; ok {
		v := gdp.Value
		parts = append(parts, "GDP: "+formatCompactNumber(&v))
	}
	if cpi, ok := bySeries["CPIAUCSL"]; ok {
		parts = append(parts, fmt.Sprintf("CPI: %.1f", cpi.Value))
	}
	if unrate, ok := bySeries["UNRATE"]; ok {
		parts = append(parts, fmt.Sprintf("Unemployment: %.1f%%", unrate.Value))
	}
	if fedfunds, ok := bySeries["FEDFUNDS"]; ok {
		parts = append(parts, fmt.Sprintf("Fed Rate: %.2f%%", fedfunds.Value))
	}
	if vix, ok := bySeries["VIXCLS"]; ok {
		parts = append(parts, fmt.Sprintf("VIX: %.1f", vix.Value))
	}

	summary := "Macro data available but no key series populated."
	if len(parts) > 0 {
		summary = strings.Join(parts, " | ")
	}

	return MacroContext{Available: true, Summary: summary, Indicators: bySeries}
}
