package ingest

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	phonePattern = regexp.MustCompile(`\+?\d{1,4}?[-.\s]?\(?\d{1,3}?\)?[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}[- ]?\d{2}[- ]?\d{4}\b`)
	ccPattern    = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)
)

// redactPII masks email/SSN/phone/credit-card-shaped substrings, in that
// order, adapted from original_source/security/pii.py's redact_pii. SSNs
// are masked before phone numbers because the phone pattern also matches
// SSN-shaped digit runs.
func redactPII(text string) string {
	if text == "" {
		return text
	}
	text = emailPattern.ReplaceAllString(text, "[REDACTED_EMAIL]")
	text = ssnPattern.ReplaceAllString(text, "[REDACTED_SSN]")
	text = phonePattern.ReplaceAllString(text, "[REDACTED_PHONE]")
	text = ccPattern.ReplaceAllString(text, "[REDACTED_CC]")
	return text
}
