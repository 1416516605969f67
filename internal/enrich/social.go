package enrich

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"marketintel/internal/repository"
)

// SocialSentiment is the typed equivalent of enrichment.py's
// _build_social_sentiment return dict.
type SocialSentiment struct {
	Available        bool
	TotalMentions7d   int
	AvgSentiment      float64
	SentimentLabel    string
	Summary           string
	DaysData          int
	TopPosts          []string
}

// BuildSocialSentiment aggregates the last 7 days of social signals for
// ticker into a mention count, average sentiment, and a bullish/
// bearish/neutral label. Grounded on enrichment.py's
// _build_social_sentiment.
func BuildSocialSentiment(ctx context.Context, repo repository.Repository, ticker string, log zerolog.Logger) SocialSentiment {
	if ticker == "" {
		return SocialSentiment{}
	}

	signals, err := repo.GetSocialSignals(ctx, ticker, 7)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("failed to load social signals")
		return SocialSentiment{}
	}
	if len(signals) == 0 {
		return SocialSentiment{Summary: "No recent social signals found."}
	}

	totalMentions := 0
	sentimentSum := 0.0
	var topPosts []string
	for _, s := range signals {
		totalMentions += s.MentionCount
		sentimentSum += s.AvgSentiment
		if len(topPosts) < 5 {
			for _, p := range s.TopPosts {
				if len(topPosts) >= 5 {
					break
				}
				topPosts = append(topPosts, p)
			}
		}
	}
	avgSentiment := sentimentSum / float64(len(signals))

	label := "neutral"
	switch {
	case avgSentiment > 0.2:
		label = "bullish"
	case avgSentiment < -0.2:
		label = "bearish"
	}

	return SocialSentiment{
		Available:       true,
		TotalMentions7d: totalMentions,
		AvgSentiment:    round3(avgSentiment),
		SentimentLabel:  label,
		Summary:         fmt.Sprintf("%d mentions over 7 days, sentiment: %s (%.2f)", totalMentions, label, avgSentiment),
		DaysData:        len(signals),
		TopPosts:        topPosts,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
