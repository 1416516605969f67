// Package resolver implements entity resolution: turning a free-text
// company query into a canonical Entity record, caching the result in
// the repository. Resolution order follows
// original_source/core/entities.py's resolve_entity: local cache, then
// symbol search, then CIK lookup, then profile enrichment.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// SymbolMatch is one hit from an external symbol-search API.
type SymbolMatch struct {
	Ticker     string
	Name       string
	Exchange   string
	EntityType model.EntityType
}

// SymbolSearcher looks up a free-text query against a live quotes API.
// Implemented by internal/provider/snapshot for the production path;
// tests supply a stub.
type SymbolSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SymbolMatch, error)
}

// CIKResolver maps a ticker to its SEC CIK. Implemented by
// internal/provider/secedgar.
type CIKResolver interface {
	ResolveCIK(ctx context.Context, ticker string) (string, error)
}

// ProfileEnricher fetches sector/industry/name for a ticker.
// Implemented by internal/provider/fmp.
type ProfileEnricher interface {
	Profile(ctx context.Context, ticker string) (sector, industry, name string, err error)
}

// Resolver ties the repository cache to the external enrichment chain.
type Resolver struct {
	repo    repository.Repository
	symbols SymbolSearcher
	cik     CIKResolver
	profile ProfileEnricher
}

// New builds a Resolver. symbols, cik, and profile may be nil, in which
// case the corresponding enrichment step is skipped.
func New(repo repository.Repository, symbols SymbolSearcher, cik CIKResolver, profile ProfileEnricher) *Resolver {
	return &Resolver{repo: repo, symbols: symbols, cik: cik, profile: profile}
}

var tickerInParens = regexp.MustCompile(`\(([A-Za-z0-9.\-]+)\)`)

// Resolve turns queryText into a canonical Entity, upserting it into
// the repository on first resolution. preResolvedTicker, when non-empty,
// short-circuits straight to the cache/upsert path for that ticker.
func (r *Resolver) Resolve(ctx context.Context, queryText, preResolvedTicker string) (*model.Entity, error) {
	if preResolvedTicker != "" {
		if existing, err := r.repo.LookupEntity(ctx, repository.LookupByTicker, preResolvedTicker); err != nil {
			return nil, fmt.Errorf("lookup pre-resolved ticker %s: %w", preResolvedTicker, err)
		} else if existing != nil {
			return existing, nil
		}
	}

	if existing, err := r.lookupAny(ctx, queryText); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	ticker := preResolvedTicker
	var match *SymbolMatch
	if ticker == "" {
		m, err := r.resolveViaSymbolSearch(ctx, queryText)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, nil
		}
		match = m
		ticker = m.Ticker
	}

	if existing, err := r.repo.LookupEntity(ctx, repository.LookupByTicker, ticker); err != nil {
		return nil, fmt.Errorf("lookup resolved ticker %s: %w", ticker, err)
	} else if existing != nil {
		return existing, nil
	}

	cik := ""
	if r.cik != nil {
		c, err := r.cik.ResolveCIK(ctx, ticker)
		if err == nil {
			cik = c
		}
	}

	var sector, industry, profileName string
	if r.profile != nil {
		sec, ind, name, err := r.profile.Profile(ctx, ticker)
		if err == nil {
			sector, industry, profileName = sec, ind, name
		}
	}

	name := queryText
	if match != nil && match.Name != "" {
		name = match.Name
	}
	if profileName != "" {
		name = profileName
	}

	entityType := model.EntityTypeCompany
	exchange := ""
	if match != nil {
		if match.EntityType != "" {
			entityType = match.EntityType
		}
		exchange = match.Exchange
	}

	aliasSeen := map[string]bool{}
	var aliases []string
	addAlias := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || aliasSeen[v] {
			return
		}
		aliasSeen[v] = true
		aliases = append(aliases, v)
	}
	addAlias(queryText)
	if match != nil {
		addAlias(match.Name)
	}
	addAlias(ticker)

	entity, err := r.repo.UpsertEntity(ctx, model.Entity{
		Name:     strings.TrimSpace(name),
		Ticker:   ticker,
		CIK:      cik,
		Sector:   sector,
		Industry: industry,
		Exchange: exchange,
		Type:     entityType,
		Aliases:  aliases,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert resolved entity %s: %w", ticker, err)
	}
	return &entity, nil
}

func (r *Resolver) lookupAny(ctx context.Context, query string) (*model.Entity, error) {
	if e, err := r.repo.LookupEntity(ctx, repository.LookupByTicker, query); err != nil {
		return nil, fmt.Errorf("lookup by ticker %s: %w", query, err)
	} else if e != nil {
		return e, nil
	}
	if e, err := r.repo.LookupEntity(ctx, repository.LookupByName, query); err != nil {
		return nil, fmt.Errorf("lookup by name %s: %w", query, err)
	} else if e != nil {
		return e, nil
	}
	if e, err := r.repo.LookupEntity(ctx, repository.LookupByAlias, query); err != nil {
		return nil, fmt.Errorf("lookup by alias %s: %w", query, err)
	} else if e != nil {
		return e, nil
	}
	return nil, nil
}

// resolveViaSymbolSearch tries an explicit ticker in parentheses first
// ("Tata Motors (TMCV.NS)"), then the full query, then its first token,
// matching original_source's attempt ordering.
func (r *Resolver) resolveViaSymbolSearch(ctx context.Context, queryText string) (*SymbolMatch, error) {
	if r.symbols == nil {
		return nil, nil
	}
	clean := strings.TrimSpace(queryText)
	var attempts []string
	if m := tickerInParens.FindStringSubmatch(clean); m != nil {
		attempts = append(attempts, strings.ToUpper(m[1]))
	}
	attempts = append(attempts, clean)
	if tokens := strings.Fields(clean); len(tokens) > 1 {
		attempts = append(attempts, tokens[0])
	}

	seen := map[string]bool{}
	for _, attempt := range attempts {
		if seen[attempt] {
			continue
		}
		seen[attempt] = true

		matches, err := r.symbols.Search(ctx, attempt, 3)
		if err != nil || len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			if m.EntityType == "company" || m.EntityType == "etf" {
				out := m
				return &out, nil
			}
		}
		out := matches[0]
		return &out, nil
	}
	return nil, nil
}

// Autocomplete merges cached entities (ranked) with live symbol-search
// suggestions for tickers not yet cached, deduped by ticker.
func (r *Resolver) Autocomplete(ctx context.Context, query string, limit int) ([]repository.AutocompleteSuggestion, error) {
	cached, err := r.repo.AutocompleteEntities(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete cached entities: %w", err)
	}
	if len(cached) >= limit || r.symbols == nil {
		return cached, nil
	}

	seen := map[string]bool{}
	for _, c := range cached {
		seen[strings.ToUpper(c.Ticker)] = true
	}

	matches, err := r.symbols.Search(ctx, query, limit)
	if err != nil {
		return cached, nil
	}
	out := append([]repository.AutocompleteSuggestion{}, cached...)
	for _, m := range matches {
		if len(out) >= limit {
			break
		}
		if seen[strings.ToUpper(m.Ticker)] {
			continue
		}
		seen[strings.ToUpper(m.Ticker)] = true
		out = append(out, repository.AutocompleteSuggestion{
			Ticker: m.Ticker, Name: m.Name, Exchange: m.Exchange, Type: m.EntityType,
		})
	}
	return out, nil
}
