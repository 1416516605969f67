package ingest

import "marketintel/internal/model"

// changeEvaluation is the tracker's verdict on whether a source's content
// moved since the prior observation.
type changeEvaluation struct {
	ContentHash    string
	HasChanged     bool
	Insight        string
	ThreatLevel    model.ThreatLevel
	Recommendation string
	Excerpt        string
}

// evaluateChange hashes the current content and compares it against the
// previous snapshot's hash, grounded on
// original_source/rules/tracker.py's evaluate_change.
func evaluateChange(currentContent string, previousHash string) changeEvaluation {
	currentHash := hashContent(currentContent)
	hasChanged := previousHash == "" || previousHash != currentHash

	var insight, recommendation string
	threat := model.ThreatLow
	switch {
	case previousHash == "":
		insight = "Initial baseline snapshot created for competitor source."
		recommendation = "Continue monitoring for subsequent deltas."
	case hasChanged:
		insight = "Competitor source content changed since last observation."
		threat = model.ThreatMedium
		recommendation = "Review delta and validate business impact."
	default:
		insight = "No content delta detected in latest observation window."
		recommendation = "No immediate action required."
	}

	return changeEvaluation{
		ContentHash:    currentHash,
		HasChanged:     hasChanged,
		Insight:        insight,
		ThreatLevel:    threat,
		Recommendation: recommendation,
		Excerpt:        buildExcerpt(currentContent, 500),
	}
}
