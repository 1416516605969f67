package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"marketintel/internal/repository"
)

// FilingSummaryItem is one formatted row of a filings summary.
type FilingSummaryItem struct {
	Type        string
	Date        string
	Description string
	URL         string
}

// FilingsSummary is the typed equivalent of enrichment.py's
// _build_filings_summary return dict.
type FilingsSummary struct {
	Available bool
	Count     int
	Filings   []FilingSummaryItem
}

// BuildFilingsSummary loads the 10 most recent SEC filings for ticker.
// Grounded on enrichment.py's _build_filings_summary.
func BuildFilingsSummary(ctx context.Context, repo repository.Repository, ticker string, log zerolog.Logger) FilingsSummary {
	if ticker == "" {
		return FilingsSummary{}
	}

	filings, err := repo.GetFilings(ctx, ticker, "", 10)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("failed to load filings")
		return FilingsSummary{}
	}
	if len(filings) == 0 {
		return FilingsSummary{}
	}

	items := make([]FilingSummaryItem, 0, len(filings))
	for _, f := range filings {
		items = append(items, FilingSummaryItem{
			Type:        f.FilingType,
			Date:        f.FilingDate.Format("2006-01-02"),
			Description: f.Description,
			URL:         f.FilingURL,
		})
	}

	return FilingsSummary{Available: true, Count: len(items), Filings: items}
}
