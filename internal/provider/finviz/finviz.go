// Package finviz scrapes Finviz's public quote page for analyst price
// targets and rating-change history — no API key, no rate limit
// beyond politeness. Grounded on
// original_source/connectors/providers/finviz.py.
package finviz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://finviz.com/quote.ashx"

// Provider is the Finviz analyst-targets provider.
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

func (p *Provider) Name() string       { return "finviz" }
func (p *Provider) IsConfigured() bool { return true }

func (p *Provider) fetchPage(ctx context.Context, ticker string) (*goquery.Document, string, error) {
	url := fmt.Sprintf("%s?t=%s", p.baseURL, ticker)
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketIntelBot/0.1)").
		Get(url)
	if err != nil {
		return nil, url, err
	}
	if !resp.IsSuccess() {
		return nil, url, fmt.Errorf("finviz returned %d", resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	return doc, url, err
}

func targetPrice(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find("table.snapshot-table2 tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			key := strings.TrimSpace(cells.Eq(i).Text())
			val := strings.TrimSpace(cells.Eq(i + 1).Text())
			if key == "Target Price" && val != "-" {
				clean := strings.ReplaceAll(val, ",", "")
				if f, err := strconv.ParseFloat(clean, 64); err == nil {
					out = &f
					return false
				}
			}
		}
		return true
	})
	return out
}

type ratingEvent struct {
	text    string
	bullish bool
	bearish bool
}

func ratingEvents(doc *goquery.Document) []ratingEvent {
	var events []ratingEvent
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		text := strings.TrimSpace(row.Text())
		if !strings.Contains(text, "Upgrade") && !strings.Contains(text, "Downgrade") &&
			!strings.Contains(text, "Reiterated") && !strings.Contains(text, "Initiated") {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		dateStr := strings.TrimSpace(cells.Eq(0).Text())
		action := strings.TrimSpace(cells.Eq(1).Text())
		analyst := strings.TrimSpace(cells.Eq(2).Text())
		rating := strings.TrimSpace(cells.Eq(3).Text())
		content := fmt.Sprintf("[%s] %s %s to %s.", dateStr, analyst, action, rating)

		bullish := strings.Contains(action, "Upgrade") || strings.Contains(rating, "Buy") ||
			strings.Contains(rating, "Overweight") || strings.Contains(rating, "Outperform")
		bearish := strings.Contains(action, "Downgrade") || strings.Contains(rating, "Sell") ||
			strings.Contains(rating, "Underweight")
		events = append(events, ratingEvent{text: content, bullish: bullish, bearish: bearish})
	})
	return events
}

// FetchCompanyData stores today's analyst target price as a KeyMetrics
// period and recent rating changes as a finviz_analysts SocialSignal.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "analyst_targets", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	doc, url, err := p.fetchPage(ctx, entity.Ticker)
	if err != nil {
		return []provider.Result{{Provider: p.Name(), DataType: "analyst_targets", Success: false, Error: err.Error(), FetchedAt: now}}
	}

	stored := 0
	if target := targetPrice(doc); target != nil {
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      now.Truncate(24 * time.Hour),
			SourceProvider: p.Name(),
			Metrics: model.KeyMetrics{
				Extra: map[string]float64{"analyst_target_price": *target},
			},
		})
		if err == nil {
			stored++
		}
	}

	events := ratingEvents(doc)
	if len(events) > 0 {
		var sentimentSum float64
		posts := make([]string, 0, len(events))
		for _, e := range events {
			if e.bullish {
				sentimentSum += 1
			} else if e.bearish {
				sentimentSum -= 1
			}
			posts = append(posts, e.text+" ("+url+")")
		}
		if len(posts) > 10 {
			posts = posts[:10]
		}
		err := p.repo.UpsertSocialSignal(ctx, model.SocialSignal{
			Ticker:       entity.Ticker,
			Platform:     "finviz_analysts",
			SignalDate:   now.Truncate(24 * time.Hour),
			MentionCount: len(events),
			AvgSentiment: sentimentSum / float64(len(events)),
			TopPosts:     posts,
		})
		if err == nil {
			stored++
		}
	}

	return []provider.Result{{Provider: p.Name(), DataType: "analyst_targets", RecordsStored: stored, Success: stored > 0, FetchedAt: now}}
}
