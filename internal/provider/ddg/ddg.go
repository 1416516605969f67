// Package ddg implements web and news discovery via DuckDuckGo's
// unauthenticated HTML endpoints, registering each hit as a Source for
// the ingestion pipeline to fetch, normalize, and evidence-chunk.
// Grounded on original_source/connectors/providers/ddg.py.
package ddg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const (
	defaultWebURL  = "https://html.duckduckgo.com/html/"
	defaultNewsURL = "https://duckduckgo.com/html/"
)

// Provider is the DuckDuckGo web/news discovery provider.
type Provider struct {
	http    *resty.Client
	webURL  string
	newsURL string
	repo    repository.Repository
}

func New(http *resty.Client, repo repository.Repository) *Provider {
	return &Provider{http: http, webURL: defaultWebURL, newsURL: defaultNewsURL, repo: repo}
}

func NewWithBaseURLs(http *resty.Client, webURL, newsURL string, repo repository.Repository) *Provider {
	return &Provider{http: http, webURL: webURL, newsURL: newsURL, repo: repo}
}

func (p *Provider) Name() string { return "ddg" }

// IsConfigured is always true: this is an unauthenticated public endpoint.
func (p *Provider) IsConfigured() bool { return true }

type searchHit struct {
	title string
	url   string
}

func (p *Provider) search(ctx context.Context, endpoint, query string, maxResults int) []searchHit {
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketIntelBot/0.1)").
		SetQueryParam("q", query).
		Get(endpoint)
	if err != nil || !resp.IsSuccess() {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil
	}

	var hits []searchHit
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())
		if ok && href != "" && title != "" {
			hits = append(hits, searchHit{title: title, url: href})
		}
		return len(hits) < maxResults
	})
	return hits
}

func (p *Provider) registerSources(ctx context.Context, hits []searchHit, entity provider.Entity, sourceType string) int {
	registered := 0
	for _, hit := range hits {
		title := hit.title
		if len(title) > 120 {
			title = title[:120]
		}
		name := fmt.Sprintf("[DDG-%s] %s (%s)", sourceType, title, entity.Ticker)
		if _, err := p.repo.AddSource(ctx, name, hit.url, model.ConnectorWeb); err == nil {
			registered++
		}
	}
	return registered
}

// FetchCompanyData runs two DuckDuckGo searches — a financial-outlook
// web query and a news query — and registers each hit as a Source for
// the ingestion worker to pick up.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	name := entity.Name
	if name == "" {
		name = entity.Ticker
	}

	webQuery := fmt.Sprintf(`%q OR %q financial analysis outlook`, entity.Ticker, name)
	webHits := p.search(ctx, p.webURL, webQuery, 15)
	webRegistered := p.registerSources(ctx, webHits, entity, "web")

	newsQuery := fmt.Sprintf(`%q %s news analysis`, name, entity.Ticker)
	newsHits := p.search(ctx, p.newsURL, newsQuery, 15)
	newsRegistered := p.registerSources(ctx, newsHits, entity, "news")

	return []provider.Result{
		{Provider: p.Name(), DataType: "web_search", RecordsStored: webRegistered, Success: webRegistered > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "news_search", RecordsStored: newsRegistered, Success: newsRegistered > 0, FetchedAt: now},
	}
}
