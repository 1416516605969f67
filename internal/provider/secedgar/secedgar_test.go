package secedgar

import (
	"context"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/repository/memory"
)

func newTestProvider(tickersURL, factsURL, submissionsURL string) *Provider {
	p := New(resty.New(), "TestAgent test@example.com", memory.New())
	p.tickersURL = tickersURL
	p.companyFactsURL = factsURL
	p.submissionsURL = submissionsURL
	return p
}

func TestIsConfiguredRequiresUserAgent(t *testing.T) {
	p := New(resty.New(), "", memory.New())
	if p.IsConfigured() {
		t.Fatal("expected IsConfigured to be false without a user agent")
	}
}

func TestBuildPeriodMapPrefersFirstTagSeen(t *testing.T) {
	facts := xbrlFacts{}
	facts.Facts.USGAAP = map[string]xbrlTag{
		"Revenues": {Units: map[string][]xbrlUnitValue{
			"USD": {{End: "2024-06-30", Val: 1000, Form: "10-Q"}},
		}},
	}
	periods := buildPeriodMap(facts, incomeTags)
	p, ok := periods["quarterly:2024-06-30"]
	if !ok {
		t.Fatal("expected a quarterly period for 2024-06-30")
	}
	if p.values["Revenues"] != 1000 {
		t.Fatalf("expected revenue 1000, got %v", p.values["Revenues"])
	}
}

func TestStoreFilingsSkipsUnknownForms(t *testing.T) {
	p := newTestProvider("", "", "")
	_ = p
	// storeFilings has no HTTP-level test here; this test checks the
	// form allow-list it filters submissions on.
	if !targetFilingForms["10-K"] || targetFilingForms["NT 10-K"] {
		t.Fatal("unexpected target filing form set")
	}
	_ = context.Background()
}
