// Package httpclient builds a resty client with a user agent and a
// retry policy, following the pattern penny-vault-pv-data's providers
// use (provider/polygon.go: a resty client plus a golang.org/x/time/rate
// limiter per remote). bootstrap.Build does not call it: the providers
// and the ingestion connector chain share the plain resty client built
// there.
package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// New returns a resty client configured with the given user agent and a
// conservative default timeout, retrying transport-layer failures and
// 5xx responses with capped exponential backoff.
func New(userAgent string) *resty.Client {
	c := resty.New().
		SetHeader("User-Agent", userAgent).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})
	return c
}
