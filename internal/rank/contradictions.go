package rank

import (
	"strconv"
	"strings"
	"time"

	"marketintel/internal/model"
)

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var actionWords = []string{"act", "immediate", "respond", "accelerate", "launch"}
var waitWords = []string{"monitor", "continue", "observe", "hold", "wait"}

// topN returns the first n items, or all of them if there are fewer.
func topN(items []model.EvidenceItem, n int) []model.EvidenceItem {
	if len(items) < n {
		return items
	}
	return items[:n]
}

// DetectContradictions flags conflicting signals among the highest-ranked
// evidence: a mix of high and low threat levels, or recommendations that
// simultaneously urge action and urge waiting. Grounded on
// ranking.py's _detect_contradictions.
func DetectContradictions(items []model.EvidenceItem) []model.Contradiction {
	top := topN(items, 8)
	var out []model.Contradiction

	hasHigh, hasLow := false, false
	for _, item := range top {
		switch item.ThreatLevel {
		case model.ThreatHigh:
			hasHigh = true
		case model.ThreatLow:
			hasLow = true
		}
	}
	if hasHigh && hasLow {
		out = append(out, model.Contradiction{
			Type:   "threat_level_conflict",
			Detail: "Evidence contains both high and low threat-level signals.",
		})
	}

	hasAction, hasWait := false, false
	for _, item := range top {
		rec := strings.ToLower(item.Recommendation)
		for _, w := range actionWords {
			if strings.Contains(rec, w) {
				hasAction = true
				break
			}
		}
		for _, w := range waitWords {
			if strings.Contains(rec, w) {
				hasWait = true
				break
			}
		}
	}
	if hasAction && hasWait {
		out = append(out, model.Contradiction{
			Type:   "recommendation_conflict",
			Detail: "Evidence contains both urgent-action and wait-and-see recommendations.",
		})
	}

	return out
}

// BuildSignalShifts formats the top 3 ranked items into short
// human-readable signal lines, deduplicated while preserving order.
// Grounded on ranking.py's _build_signal_shifts.
func BuildSignalShifts(items []model.EvidenceItem) []string {
	top := topN(items, 3)
	seen := make(map[string]struct{}, len(top))
	var lines []string
	for _, item := range top {
		line := item.SourceName + ": " + string(item.ThreatLevel) + " risk signal at confidence " + trimFloat(item.Confidence) + "."
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{"No strong market shift detected from the current evidence set."}
	}
	return lines
}

// NeedsRefresh reports whether the evidence set is too thin or too stale
// to answer confidently. Grounded on ranking.py's _needs_refresh.
func NeedsRefresh(items []model.EvidenceItem, minEvidence, staleAfterHours int) bool {
	if len(items) < minEvidence {
		return true
	}

	var freshest *time.Time
	for _, item := range items {
		if item.CreatedAt == nil {
			continue
		}
		if freshest == nil || item.CreatedAt.After(*freshest) {
			freshest = item.CreatedAt
		}
	}
	if freshest == nil {
		return true
	}
	return time.Since(*freshest).Hours() > float64(staleAfterHours)
}
