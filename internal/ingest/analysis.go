package ingest

import "marketintel/internal/model"

// analysis is the rule-based analyst's output for one ingestion cycle.
type analysis struct {
	Insight         string
	ThreatLevel     model.ThreatLevel
	Recommendation  string
	Confidence      float64
	EvidenceRef     string
	EvidenceExcerpt string
}

// buildAnalysis derives a threat level and confidence from whether the
// source changed, grounded on original_source/rules/analyst.py's
// build_analysis.
func buildAnalysis(sourceName, sourceURL string, hasChanged bool, excerpt string) analysis {
	if hasChanged {
		return analysis{
			Insight:         "Change detected for " + sourceName + "; extracted update requires review.",
			ThreatLevel:     model.ThreatMedium,
			Recommendation:  "Compare latest change against prior messaging and assess strategic impact.",
			Confidence:      0.72,
			EvidenceRef:     sourceURL,
			EvidenceExcerpt: excerpt,
		}
	}
	return analysis{
		Insight:         "No meaningful change detected for " + sourceName + " in this cycle.",
		ThreatLevel:     model.ThreatLow,
		Recommendation:  "Continue scheduled monitoring and aggregate with trend signals.",
		Confidence:      0.61,
		EvidenceRef:     sourceURL,
		EvidenceExcerpt: excerpt,
	}
}

// critique is the rule-based critic's verdict on an analysis's evidence
// quality, grounded on original_source/rules/critic.py's review_analysis.
type critique struct {
	Status      model.CriticStatus
	HasEvidence bool
}

func reviewAnalysis(a analysis) critique {
	hasEvidence := a.EvidenceRef != "" && a.EvidenceExcerpt != ""
	status := model.CriticApproved

	switch {
	case a.Confidence < 0.55 || !hasEvidence:
		status = model.CriticFlagged
	case a.ThreatLevel == model.ThreatHigh && a.Confidence < 0.75:
		status = model.CriticFlagged
	}

	return critique{Status: status, HasEvidence: hasEvidence}
}
