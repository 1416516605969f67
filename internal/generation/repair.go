package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// stripCodeFence removes a leading/trailing markdown code fence, the most
// common thing standing between an LLM's response and valid JSON. Grounded
// on pkg/core/edgar/llm.go's fence-stripping before json.Unmarshal.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseJSON decodes raw LLM output into dst, trying a direct unmarshal
// first and falling back to json-repair for the common malformed-output
// cases (trailing commas, single quotes, unclosed braces). Unlike the
// teacher's three-tier SmartParse, there is no Hjson tier here: this
// module only depends on json-repair.
func ParseJSON(raw string, dst any) error {
	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), dst); err == nil {
		return nil
	}

	repaired, err := jsonrepair.RepairJSON(cleaned)
	if err != nil {
		return fmt.Errorf("generation: json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), dst); err != nil {
		return fmt.Errorf("generation: unmarshal repaired json: %w", err)
	}
	return nil
}
