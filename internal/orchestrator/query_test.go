package orchestrator

import (
	"context"
	"testing"

	"marketintel/internal/model"
)

func TestDetectTimeframeQuarter(t *testing.T) {
	got := detectTimeframe(tokenize("Apple Q3 earnings"))
	if got != model.TimeframeQuarter {
		t.Fatalf("expected quarter timeframe, got %s", got)
	}
}

func TestDetectTimeframeDefaultsToCurrent(t *testing.T) {
	got := detectTimeframe(tokenize("Apple outlook"))
	if got != model.TimeframeCurrent {
		t.Fatalf("expected current timeframe, got %s", got)
	}
}

func TestDetectIntentFinancial(t *testing.T) {
	got := detectIntent(tokenize("Apple revenue growth this quarter"))
	if got != model.IntentFinancial {
		t.Fatalf("expected financial intent, got %s", got)
	}
}

func TestDetectIntentRisk(t *testing.T) {
	got := detectIntent(tokenize("Apple regulatory risk exposure"))
	if got != model.IntentRisk {
		t.Fatalf("expected risk intent, got %s", got)
	}
}

func TestParseQueryWithoutResolverDegradesToRawFirstToken(t *testing.T) {
	qc := parseQuery(context.Background(), nil, "Apple Q3 earnings")
	if qc.Entity != "Apple" {
		t.Fatalf("expected entity 'Apple', got %q", qc.Entity)
	}
	if qc.Ticker != "" {
		t.Fatalf("expected empty ticker without a resolver, got %q", qc.Ticker)
	}
	if qc.Timeframe != model.TimeframeQuarter {
		t.Fatalf("expected quarter timeframe, got %s", qc.Timeframe)
	}
}
