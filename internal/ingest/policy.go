// Package ingest implements the content ingestion pipeline: policy
// checks, connector fetch, normalization, chunking, PII redaction,
// rule-based change analysis, and persistence. Grounded on
// original_source/workers/tasks_ingest.py's execute_ingest.
package ingest

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
)

// PolicyDecision reports whether a source URL may be fetched, and why.
type PolicyDecision struct {
	Allowed bool
	Reason  string
}

// PolicyEngine enforces the ingestion allow-list and robots.txt rules,
// translated from original_source/security/policy_engine.py.
type PolicyEngine struct {
	http              *resty.Client
	userAgent         string
	allowedDomains    map[string]struct{}
	requireRobots     bool
	denyOnRobotsError bool
}

// NewPolicyEngine builds a PolicyEngine. An empty allowedDomains means
// every domain is allowed (matching the original's empty-allowlist
// behavior).
func NewPolicyEngine(http *resty.Client, userAgent string, allowedDomains []string, requireRobots, denyOnRobotsError bool) *PolicyEngine {
	set := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &PolicyEngine{
		http:              http,
		userAgent:         userAgent,
		allowedDomains:    set,
		requireRobots:     requireRobots,
		denyOnRobotsError: denyOnRobotsError,
	}
}

func (p *PolicyEngine) domainAllowed(rawURL string) bool {
	if len(p.allowedDomains) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if _, ok := p.allowedDomains[host]; ok {
		return true
	}
	for domain := range p.allowedDomains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (p *PolicyEngine) robotsAllowed(ctx context.Context, rawURL string) PolicyDecision {
	if !p.requireRobots {
		return PolicyDecision{Allowed: true, Reason: "robots_check_disabled"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return PolicyDecision{Allowed: false, Reason: "invalid_url"}
	}
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	resp, err := p.http.R().SetContext(ctx).Get(robotsURL)
	if err != nil {
		if p.denyOnRobotsError {
			return PolicyDecision{Allowed: false, Reason: "robots_check_error_deny"}
		}
		return PolicyDecision{Allowed: true, Reason: "robots_check_error_allow"}
	}
	if resp.StatusCode() != 200 {
		return PolicyDecision{Allowed: true, Reason: "robots_missing_allow"}
	}

	data, err := robotstxt.FromBytes(resp.Body())
	if err != nil {
		if p.denyOnRobotsError {
			return PolicyDecision{Allowed: false, Reason: "robots_check_error_deny"}
		}
		return PolicyDecision{Allowed: true, Reason: "robots_check_error_allow"}
	}
	group := data.FindGroup(p.userAgent)
	if group.Test(u.Path) {
		return PolicyDecision{Allowed: true, Reason: "robots_allowed"}
	}
	return PolicyDecision{Allowed: false, Reason: "robots_disallow"}
}

// Validate runs the full allow-list + robots.txt decision chain for a URL.
func (p *PolicyEngine) Validate(ctx context.Context, rawURL string) PolicyDecision {
	if !p.domainAllowed(rawURL) {
		return PolicyDecision{Allowed: false, Reason: "domain_not_allowlisted"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if decision := p.robotsAllowed(ctx, rawURL); !decision.Allowed {
		return decision
	}
	return PolicyDecision{Allowed: true, Reason: "policy_pass"}
}
