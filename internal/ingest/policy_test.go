package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestPolicyEngineDomainNotAllowlisted(t *testing.T) {
	p := NewPolicyEngine(resty.New(), "TestBot/0.1", []string{"allowed.example.com"}, false, false)
	decision := p.Validate(context.Background(), "https://not-allowed.example.org/page")
	if decision.Allowed {
		t.Fatal("expected domain not on the allow-list to be blocked")
	}
	if decision.Reason != "domain_not_allowlisted" {
		t.Fatalf("unexpected reason: %s", decision.Reason)
	}
}

func TestPolicyEngineEmptyAllowlistAllowsEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewPolicyEngine(resty.New(), "TestBot/0.1", nil, true, false)
	decision := p.Validate(context.Background(), srv.URL+"/page")
	if !decision.Allowed {
		t.Fatalf("expected missing robots.txt to allow by default, got %+v", decision)
	}
}

func TestPolicyEngineRobotsDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPolicyEngine(resty.New(), "TestBot/0.1", nil, true, false)
	decision := p.Validate(context.Background(), srv.URL+"/private/page")
	if decision.Allowed {
		t.Fatal("expected robots.txt disallow rule to block the path")
	}
}
