// Package orchestrator composes entity resolution, provider dispatch,
// hybrid retrieval, ranking, enrichment, and generation into the two
// pipeline entry points: a batch Run that returns one aggregate Report,
// and a streaming RunStream that yields ordered stage events. Grounded
// on original_source/core/pipeline/{query,retrieval,ranking,
// enrichment}.py and pkg/core/pipeline/orchestrator.go's stage
// sequencing.
package orchestrator

import (
	"context"
	"strings"

	"marketintel/internal/model"
	"marketintel/internal/resolver"
)

var quarterTokens = map[string]struct{}{"quarter": {}, "q1": {}, "q2": {}, "q3": {}, "q4": {}}
var yearTokens = map[string]struct{}{"year": {}, "annual": {}, "yoy": {}}
var recentTokens = map[string]struct{}{"week": {}, "today": {}, "latest": {}, "recent": {}}

var riskTokens = map[string]struct{}{"risk": {}, "threat": {}, "exposure": {}}
var financialTokens = map[string]struct{}{"growth": {}, "revenue": {}, "earnings": {}, "profit": {}, "margin": {}}
var marketTokens = map[string]struct{}{"pricing": {}, "competition": {}, "market": {}, "strategy": {}}

func tokenize(queryText string) []string {
	lowered := strings.ToLower(strings.TrimSpace(queryText))
	lowered = strings.ReplaceAll(lowered, ",", " ")
	return strings.Fields(lowered)
}

func anyTokenIn(tokens []string, set map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func detectTimeframe(tokens []string) model.Timeframe {
	switch {
	case anyTokenIn(tokens, quarterTokens):
		return model.TimeframeQuarter
	case anyTokenIn(tokens, yearTokens):
		return model.TimeframeYear
	case anyTokenIn(tokens, recentTokens):
		return model.TimeframeRecent
	default:
		return model.TimeframeCurrent
	}
}

func detectIntent(tokens []string) model.Intent {
	switch {
	case anyTokenIn(tokens, riskTokens):
		return model.IntentRisk
	case anyTokenIn(tokens, financialTokens):
		return model.IntentFinancial
	case anyTokenIn(tokens, marketTokens):
		return model.IntentMarket
	default:
		return model.IntentGeneral
	}
}

// parseQuery builds a QueryContext from free text, resolving the entity
// through res. Resolution failures degrade to an unresolved entity rather
// than failing the whole parse, mirroring _parse_query's try/except around
// resolve_entity.
func parseQuery(ctx context.Context, res *resolver.Resolver, queryText string) model.QueryContext {
	tokens := tokenize(queryText)

	entityName := queryText
	if fields := strings.Fields(queryText); len(fields) > 0 {
		entityName = fields[0]
	}

	var ticker string
	var record *model.Entity
	if res != nil {
		if resolved, err := res.Resolve(ctx, queryText, ""); err == nil && resolved != nil {
			record = resolved
			entityName = resolved.Name
			ticker = resolved.Ticker
		}
	}

	return model.QueryContext{
		RawQuery:     queryText,
		Entity:       entityName,
		Ticker:       ticker,
		Timeframe:    detectTimeframe(tokens),
		Intent:       detectIntent(tokens),
		Tokens:       tokens,
		EntityRecord: record,
	}
}
