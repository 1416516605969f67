// Package reddit implements the Reddit social-signals provider over
// Reddit's public, unauthenticated .json search endpoints: no API key
// or client library needed. Grounded on
// original_source/connectors/providers/reddit.py.
package reddit

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://www.reddit.com"

// subreddits are searched for both ticker and company name mentions.
var subreddits = []string{"wallstreetbets", "stocks", "investing", "stockmarket", "options"}

var wordPattern = regexp.MustCompile(`\w+`)

var positiveWords = set(
	"bullish", "bull", "buy", "long", "moon", "rocket", "undervalued",
	"breakout", "calls", "growth", "beat", "strong", "rally", "surge",
	"upgrade", "outperform", "profit", "gain", "green", "up",
)

var negativeWords = set(
	"bearish", "bear", "sell", "short", "crash", "overvalued", "dump",
	"puts", "decline", "miss", "weak", "drop", "downgrade", "underperform",
	"loss", "red", "down", "bubble", "risk", "warning",
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// simpleSentiment computes a -1..1 keyword-count sentiment score.
func simpleSentiment(text string) float64 {
	seen := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		seen[w] = true
	}
	pos, neg := 0, 0
	for w := range seen {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

type redditPost struct {
	title       string
	score       int
	numComments int
	url         string
	sentiment   float64
}

// Provider is the Reddit social signals provider.
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

func (p *Provider) Name() string { return "reddit" }

// IsConfigured is always true: public JSON feeds need no auth.
func (p *Provider) IsConfigured() bool { return true }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Permalink   string  `json:"permalink"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (p *Provider) searchSubreddit(ctx context.Context, subreddit, query string, limit int) []redditPost {
	var listing redditListing
	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "MarketIntelBot/0.1 (market intelligence platform; educational use)").
		SetQueryParams(map[string]string{
			"q":           query,
			"sort":        "relevance",
			"t":           "week",
			"limit":       fmt.Sprintf("%d", limit),
			"restrict_sr": "on",
		}).
		SetResult(&listing).
		Get(fmt.Sprintf("%s/r/%s/search.json", p.baseURL, subreddit))
	if err != nil || !resp.IsSuccess() {
		return nil
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, c := range listing.Data.Children {
		d := c.Data
		if d.Title == "" && d.Selftext == "" {
			continue
		}
		title := d.Title
		if len(title) > 200 {
			title = title[:200]
		}
		posts = append(posts, redditPost{
			title:       title,
			score:       d.Score,
			numComments: d.NumComments,
			url:         "https://reddit.com" + d.Permalink,
			sentiment:   simpleSentiment(d.Title + " " + d.Selftext),
		})
	}
	return posts
}

// FetchCompanyData searches every core finance subreddit for mentions
// of entity's ticker (and name, if distinct), aggregates mention count
// and average sentiment, and stores one SocialSignal row for today.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "social", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	searchTerms := []string{entity.Ticker}
	if entity.Name != "" && !strings.EqualFold(entity.Name, entity.Ticker) {
		searchTerms = append(searchTerms, entity.Name)
	}

	var all []redditPost
	for _, sub := range subreddits {
		for _, term := range searchTerms {
			all = append(all, p.searchSubreddit(ctx, sub, term, 25)...)
		}
	}

	seenURL := map[string]bool{}
	var unique []redditPost
	for _, post := range all {
		if seenURL[post.url] {
			continue
		}
		seenURL[post.url] = true
		unique = append(unique, post)
	}

	if len(unique) == 0 {
		return []provider.Result{{Provider: p.Name(), DataType: "social", Success: false, Error: "no Reddit posts found", FetchedAt: now}}
	}

	var sentimentSum float64
	for _, post := range unique {
		sentimentSum += post.sentiment
	}
	avgSentiment := sentimentSum / float64(len(unique))

	sort.Slice(unique, func(i, j int) bool {
		engageI := unique[i].score * maxInt(unique[i].numComments, 1)
		engageJ := unique[j].score * maxInt(unique[j].numComments, 1)
		return engageI > engageJ
	})
	topN := unique
	if len(topN) > 10 {
		topN = topN[:10]
	}
	topPosts := make([]string, 0, len(topN))
	for _, post := range topN {
		topPosts = append(topPosts, fmt.Sprintf("%s (score=%d, comments=%d) %s", post.title, post.score, post.numComments, post.url))
	}

	err := p.repo.UpsertSocialSignal(ctx, model.SocialSignal{
		Ticker:       entity.Ticker,
		Platform:     "reddit",
		SignalDate:   time.Now().UTC().Truncate(24 * time.Hour),
		MentionCount: len(unique),
		AvgSentiment: avgSentiment,
		TopPosts:     topPosts,
	})
	if err != nil {
		return []provider.Result{{Provider: p.Name(), DataType: "social", Success: false, Error: err.Error(), FetchedAt: now}}
	}
	return []provider.Result{{Provider: p.Name(), DataType: "social", RecordsStored: 1, Success: true, FetchedAt: now}}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
