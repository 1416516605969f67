// Package provider defines the structured-data provider contract (C3):
// unlike ingestion connectors, which fetch raw text from arbitrary
// URLs, a provider extracts structured data from a named external API
// and stores it directly through the repository's typed write methods.
// Grounded on original_source/connectors/providers/base_provider.py.
package provider

import (
	"context"
	"time"

	"marketintel/internal/ratelimit"
)

// Result reports the outcome of one provider fetch.
type Result struct {
	Provider      string
	DataType      string // e.g. "income_statement", "filings", "macro:<series>", "social", "news_search", "short_interest"
	RecordsStored int
	Success       bool
	Error         string
	FetchedAt     time.Time
}

// Entity is the minimal entity context a provider needs to fetch data.
type Entity struct {
	ID       *int64
	Name     string
	Ticker   string
	CIK      string
	Sector   string
	Industry string
}

// Provider fetches structured financial/market data for one entity and
// persists it through the repository, reporting what it stored.
type Provider interface {
	Name() string
	IsConfigured() bool
	FetchCompanyData(ctx context.Context, entity Entity) []Result
}

// DailyLimit is implemented by providers with a fixed daily call
// budget; the dispatcher checks RateLimitOK before invoking them.
type DailyLimit interface {
	DailyLimit() int
}

// RateLimitOK reports whether p has remaining daily budget, consulting
// budgets only if p declares one via the DailyLimit interface.
func RateLimitOK(p Provider, budgets *ratelimit.Budgets) bool {
	dl, ok := p.(DailyLimit)
	if !ok {
		return true
	}
	return budgets.RateLimitOK(p.Name(), dl.DailyLimit())
}

// Track records one call against p's daily budget, a no-op for
// providers without a DailyLimit.
func Track(p Provider, budgets *ratelimit.Budgets) {
	dl, ok := p.(DailyLimit)
	if !ok {
		return
	}
	budgets.Track(p.Name(), dl.DailyLimit())
}

// Dispatcher fans a company-data fetch out across every configured,
// rate-limit-OK provider, isolating failures so one bad provider never
// blocks the others.
type Dispatcher struct {
	providers []Provider
	budgets   *ratelimit.Budgets
}

// NewDispatcher builds a Dispatcher over the given providers.
func NewDispatcher(budgets *ratelimit.Budgets, providers ...Provider) *Dispatcher {
	return &Dispatcher{providers: providers, budgets: budgets}
}

// FetchAll runs FetchCompanyData on every configured, budget-OK
// provider and concatenates their results. A provider whose goroutine
// panics is not recovered here — providers are expected to convert
// failures into Result.Success=false rather than panicking.
func (d *Dispatcher) FetchAll(ctx context.Context, entity Entity) []Result {
	var all []Result
	for _, p := range d.providers {
		if !p.IsConfigured() {
			continue
		}
		if !RateLimitOK(p, d.budgets) {
			all = append(all, Result{
				Provider:  p.Name(),
				DataType:  "n/a",
				Success:   false,
				Error:     "daily rate limit exhausted",
				FetchedAt: time.Now().UTC(),
			})
			continue
		}
		Track(p, d.budgets)
		all = append(all, p.FetchCompanyData(ctx, entity)...)
	}
	return all
}
