package ingest

import "testing"

func TestRedactPII(t *testing.T) {
	in := "Contact jane.doe@example.com or call 415-555-0199. SSN 123-45-6789."
	got := redactPII(in)

	if contains(got, "jane.doe@example.com") {
		t.Fatal("email was not redacted")
	}
	if !contains(got, "[REDACTED_EMAIL]") {
		t.Fatal("expected email redaction marker")
	}
	if !contains(got, "[REDACTED_SSN]") {
		t.Fatal("expected SSN redaction marker")
	}
}

func TestRedactPIIEmptyString(t *testing.T) {
	if redactPII("") != "" {
		t.Fatal("expected empty string to pass through unchanged")
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
