package generation

import "testing"

type parsedScenario struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

func TestParseJSONDirectUnmarshal(t *testing.T) {
	var out parsedScenario
	if err := ParseJSON(`{"name":"bull","probability":0.6}`, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "bull" {
		t.Fatalf("unexpected name: %q", out.Name)
	}
}

func TestParseJSONStripsCodeFence(t *testing.T) {
	var out parsedScenario
	raw := "```json\n{\"name\":\"base\",\"probability\":0.3}\n```"
	if err := ParseJSON(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "base" {
		t.Fatalf("unexpected name: %q", out.Name)
	}
}

func TestParseJSONRepairsTrailingComma(t *testing.T) {
	var out parsedScenario
	raw := `{"name":"bear","probability":0.1,}`
	if err := ParseJSON(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "bear" {
		t.Fatalf("unexpected name: %q", out.Name)
	}
}
