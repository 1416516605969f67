package rank

import (
	"testing"
	"time"

	"marketintel/internal/model"
)

func TestSourceQualityFactorTiers(t *testing.T) {
	cases := []struct {
		name, ref string
		want      float64
	}{
		{"SEC EDGAR Filing", "", 1.0},
		{"Yahoo Finance", "", 0.98},
		{"FMP", "", 0.95},
		{"Google News: Acme", "https://news.google.com/x", 0.9},
		{"Company RSS Feed", "", 0.85},
		{"Reddit r/stocks", "", 0.7},
		{"DuckDuckGo Search", "", 0.75},
		{"Some Random Blog", "", 0.8},
	}
	for _, c := range cases {
		got := sourceQualityFactor(c.name, c.ref)
		if got != c.want {
			t.Errorf("sourceQualityFactor(%q, %q) = %v, want %v", c.name, c.ref, got, c.want)
		}
	}
}

func TestEntityRelevanceTickerInTitleScoresHighest(t *testing.T) {
	item := model.EvidenceItem{SourceName: "ACME reports strong quarter", Insight: "solid numbers"}
	got := entityRelevance("ACME", "Acme Corp", item)
	if got != 1.0 {
		t.Fatalf("expected ticker-in-title to score 1.0, got %v", got)
	}
}

func TestEntityRelevanceNeutralWhenNoTickerOrName(t *testing.T) {
	item := model.EvidenceItem{SourceName: "Unrelated headline"}
	got := entityRelevance("", "", item)
	if got != 0.5 {
		t.Fatalf("expected neutral score of 0.5, got %v", got)
	}
}

func TestEntityRelevanceShortTickerDoesNotMatchSubstring(t *testing.T) {
	item := model.EvidenceItem{SourceName: "Capital management update", Insight: "routine filing"}
	got := entityRelevance("A", "A Corp", item)
	if got == 1.0 {
		t.Fatalf("expected word-boundary match to avoid false positive, got %v", got)
	}
}

func TestTokenRelevanceFraction(t *testing.T) {
	got := tokenRelevance([]string{"revenue", "growth", "unrelated"}, "revenue growth accelerated", "")
	if got < 0.6 || got > 0.67 {
		t.Fatalf("expected ~0.67 token relevance, got %v", got)
	}
}

func TestScoreRanksAndDedups(t *testing.T) {
	now := time.Now()
	items := []model.EvidenceItem{
		{
			SourceID: 1, SourceName: "SEC EDGAR Filing", Insight: "Acme reported strong revenue growth",
			Confidence: 0.9, CriticStatus: model.CriticApproved, CreatedAt: &now,
		},
		{
			SourceID: 2, SourceName: "SEC EDGAR Filing", Insight: "Acme reported strong revenue growth",
			Confidence: 0.5, CriticStatus: model.CriticApproved, CreatedAt: &now,
		},
		{
			SourceID: 3, SourceName: "Random Forum Post", Insight: "totally unrelated chatter",
			Confidence: 0.3, CriticStatus: model.CriticFlagged, CreatedAt: &now,
		},
	}
	qc := model.QueryContext{Ticker: "ACME", Entity: "Acme Corp", Tokens: []string{"revenue", "growth"}}

	ranked := Score(items, qc)

	for i := 1; i < len(ranked); i++ {
		if ranked[i].RankScore > ranked[i-1].RankScore {
			t.Fatalf("expected descending rank score order, got %v then %v", ranked[i-1].RankScore, ranked[i].RankScore)
		}
	}

	seenSEC := 0
	for _, item := range ranked {
		if item.SourceName == "SEC EDGAR Filing" {
			seenSEC++
		}
	}
	if seenSEC != 1 {
		t.Fatalf("expected duplicate SEC items to be deduped to 1, got %d", seenSEC)
	}
}

func TestScoreKeepsAllItemsWhenFilterLeavesFewerThanThree(t *testing.T) {
	items := []model.EvidenceItem{
		{SourceID: 1, SourceName: "Source A", Insight: "unrelated text one", Confidence: 0.4, CriticStatus: model.CriticApproved},
		{SourceID: 2, SourceName: "Source B", Insight: "unrelated text two", Confidence: 0.4, CriticStatus: model.CriticApproved},
	}
	qc := model.QueryContext{Ticker: "ZZZZ", Entity: "Totally Different Co"}

	ranked := Score(items, qc)
	if len(ranked) != 2 {
		t.Fatalf("expected hard filter to be skipped when it would drop below 3 items, got %d", len(ranked))
	}
}
