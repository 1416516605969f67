// Package finra scrapes a public short-interest proxy page and stores
// the resulting sentiment as a finra_short_interest SocialSignal.
// FINRA itself does not expose a free per-ticker short-interest API,
// so a public aggregator page is used as a proxy, matching
// original_source/connectors/providers/finra.py.
package finra

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://fintel.io/ss/us"

var shortInterestInline = regexp.MustCompile(`Short Interest\s+([\d.]+)\s*%`)

// Provider is the FINRA short-interest proxy provider.
type Provider struct {
	http    *resty.Client
	baseURL string
	repo    repository.Repository
}

func New(http *resty.Client, repo repository.Repository) *Provider {
	return &Provider{http: http, baseURL: defaultBaseURL, repo: repo}
}

func NewWithBaseURL(http *resty.Client, baseURL string, repo repository.Repository) *Provider {
	return &Provider{http: http, baseURL: baseURL, repo: repo}
}

func (p *Provider) Name() string       { return "finra" }
func (p *Provider) IsConfigured() bool { return true }

func extractShortInterest(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := strings.TrimSpace(td.Text())
		if !strings.Contains(text, "Short Interest % Float") && !strings.Contains(text, "Short Interest Ratio") {
			return true
		}
		sibling := td.Next()
		if sibling.Length() == 0 {
			return true
		}
		val := strings.ReplaceAll(strings.ReplaceAll(sibling.Text(), "%", ""), ",", "")
		val = strings.TrimSpace(val)
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			out = &f
			return false
		}
		return true
	})
	if out != nil {
		return out
	}
	if m := shortInterestInline.FindStringSubmatch(doc.Text()); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &f
		}
	}
	return nil
}

// FetchCompanyData scrapes entity's short-interest percentage and
// stores a derived sentiment score: negative above 20% (squeeze
// potential), positive below 5%, neutral in between.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "short_interest", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	url := fmt.Sprintf("%s/%s", p.baseURL, entity.Ticker)
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketIntelBot/0.1)").
		Get(url)
	if err != nil || !resp.IsSuccess() {
		return []provider.Result{{Provider: p.Name(), DataType: "short_interest", Success: false, Error: "short interest page unavailable", FetchedAt: now}}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return []provider.Result{{Provider: p.Name(), DataType: "short_interest", Success: false, Error: err.Error(), FetchedAt: now}}
	}

	shortInterest := extractShortInterest(doc)
	if shortInterest == nil {
		return []provider.Result{{Provider: p.Name(), DataType: "short_interest", Success: false, Error: "no short interest found", FetchedAt: now}}
	}

	var sentiment float64
	var desc string
	switch {
	case *shortInterest > 20.0:
		sentiment = -0.5
		desc = "high short interest indicates heavy bearish sentiment (potential for squeeze)"
	case *shortInterest < 5.0:
		sentiment = 0.5
		desc = "low short interest indicating mostly bullish/neutral sentiment"
	default:
		desc = "moderate short interest"
	}
	content := fmt.Sprintf("FINRA short interest reported at %.2f%%. %s. (%s)", *shortInterest, desc, url)

	err = p.repo.UpsertSocialSignal(ctx, model.SocialSignal{
		Ticker:       entity.Ticker,
		Platform:     "finra_short_interest",
		SignalDate:   now.Truncate(24 * time.Hour),
		MentionCount: 1,
		AvgSentiment: sentiment,
		TopPosts:     []string{content},
	})
	if err != nil {
		return []provider.Result{{Provider: p.Name(), DataType: "short_interest", Success: false, Error: err.Error(), FetchedAt: now}}
	}
	return []provider.Result{{Provider: p.Name(), DataType: "short_interest", RecordsStored: 1, Success: true, FetchedAt: now}}
}
