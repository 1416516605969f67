// Package cboe scrapes a public options-activity proxy page for the
// put/call ratio and stores the resulting sentiment as a cboe_options
// SocialSignal. Grounded on
// original_source/connectors/providers/cboe.py.
package cboe

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

const defaultBaseURL = "https://marketchameleon.com/Overview"

var putCallRatioPattern = regexp.MustCompile(`Put/Call Ratio[\s:]*([\d.]+)`)

// Provider is the options-sentiment proxy provider.
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

func (p *Provider) Name() string       { return "cboe" }
func (p *Provider) IsConfigured() bool { return true }

func extractPutCallRatio(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "Put/Call Ratio") {
			return true
		}
		if m := putCallRatioPattern.FindStringSubmatch(text); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				out = &f
				return false
			}
		}
		return true
	})
	return out
}

// FetchCompanyData scrapes entity's options put/call ratio and derives
// a sentiment score: bearish above 1.0, bullish below 0.7, neutral
// in between.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "options_sentiment", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	url := fmt.Sprintf("%s/%s/", p.baseURL, entity.Ticker)
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketIntelBot/0.1)").
		Get(url)
	if err != nil || !resp.IsSuccess() {
		return []provider.Result{{Provider: p.Name(), DataType: "options_sentiment", Success: false, Error: "options proxy unavailable", FetchedAt: now}}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return []provider.Result{{Provider: p.Name(), DataType: "options_sentiment", Success: false, Error: err.Error(), FetchedAt: now}}
	}

	ratio := extractPutCallRatio(doc)
	if ratio == nil {
		return []provider.Result{{Provider: p.Name(), DataType: "options_sentiment", Success: false, Error: "no put/call ratio found", FetchedAt: now}}
	}

	var sentiment float64
	var desc string
	switch {
	case *ratio > 1.0:
		sentiment = -0.5
		desc = "bearish options positioning (high put volume)"
	case *ratio < 0.7:
		sentiment = 0.5
		desc = "bullish options positioning (high call volume)"
	default:
		desc = "neutral options positioning"
	}
	content := fmt.Sprintf("options put/call ratio sits at %.2f. %s. (%s)", *ratio, desc, url)

	err = p.repo.UpsertSocialSignal(ctx, model.SocialSignal{
		Ticker:       entity.Ticker,
		Platform:     "cboe_options",
		SignalDate:   now.Truncate(24 * time.Hour),
		MentionCount: 1,
		AvgSentiment: sentiment,
		TopPosts:     []string{content},
	})
	if err != nil {
		return []provider.Result{{Provider: p.Name(), DataType: "options_sentiment", Success: false, Error: err.Error(), FetchedAt: now}}
	}
	return []provider.Result{{Provider: p.Name(), DataType: "options_sentiment", RecordsStored: 1, Success: true, FetchedAt: now}}
}
