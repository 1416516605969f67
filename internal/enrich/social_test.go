package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func TestBuildSocialSentimentNoSignals(t *testing.T) {
	sentiment := BuildSocialSentiment(context.Background(), memory.New(), "ACME", zerolog.Nop())
	if sentiment.Available {
		t.Fatal("expected unavailable sentiment with no stored signals")
	}
}

func TestBuildSocialSentimentBullishLabel(t *testing.T) {
	repo := memory.New()
	if err := repo.UpsertSocialSignal(context.Background(), model.SocialSignal{
		Ticker: "ACME", Platform: "reddit", SignalDate: time.Now(),
		MentionCount: 50, AvgSentiment: 0.5, TopPosts: []string{"post one"},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	sentiment := BuildSocialSentiment(context.Background(), repo, "ACME", zerolog.Nop())
	if !sentiment.Available {
		t.Fatal("expected available sentiment")
	}
	if sentiment.SentimentLabel != "bullish" {
		t.Fatalf("expected bullish label, got %q", sentiment.SentimentLabel)
	}
	if sentiment.TotalMentions7d != 50 {
		t.Fatalf("expected 50 mentions, got %d", sentiment.TotalMentions7d)
	}
}
