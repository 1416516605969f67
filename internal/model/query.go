package model

import "time"

// Timeframe classifies the time horizon implied by a free-text query.
type Timeframe string

const (
	TimeframeCurrent Timeframe = "current"
	TimeframeQuarter Timeframe = "quarter"
	TimeframeYear    Timeframe = "year"
	TimeframeRecent  Timeframe = "recent"
)

// Intent classifies what kind of answer a free-text query is after.
type Intent string

const (
	IntentGeneral   Intent = "general"
	IntentRisk      Intent = "risk"
	IntentFinancial Intent = "financial"
	IntentMarket    Intent = "market"
)

// QueryContext is the parsed representation of a free-text query.
type QueryContext struct {
	RawQuery     string    `json:"raw_query"`
	Entity       string    `json:"entity"` // resolved canonical name, or the raw query if unresolved
	Ticker       string    `json:"ticker"`
	Timeframe    Timeframe `json:"timeframe"`
	Intent       Intent    `json:"intent"`
	Tokens       []string  `json:"tokens"`
	EntityRecord *Entity   `json:"entity_record,omitempty"` // nil when resolution failed
}

// EvidenceItem is a candidate piece of evidence flowing through hybrid
// retrieval and ranking. Fields beyond the raw Insight accumulate
// retrieval/ranking signals as the candidate passes through each stage.
type EvidenceItem struct {
	SourceID       int64       `json:"source_id"`
	SourceName     string      `json:"source_name"`
	SourceURL      string      `json:"source_url"`
	EvidenceRef    string      `json:"evidence_ref"`
	Insight        string      `json:"insight"`
	Recommendation string      `json:"recommendation"`
	ThreatLevel    ThreatLevel `json:"threat_level"`
	Confidence     float64     `json:"confidence"`
	CriticStatus   CriticStatus `json:"critic_status"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`

	// Retrieval signals.
	TextRank        float64 `json:"text_rank"`
	SimilarityScore float64 `json:"similarity_score"`

	// Ranking signals, populated by rank.Score.
	EntityRelevance float64 `json:"entity_relevance"`
	SourceQuality   float64 `json:"source_quality"`
	Recency         float64 `json:"recency"`
	TokenRelevance  float64 `json:"token_relevance"`
	RankScore       float64 `json:"rank_score"`
}

// Contradiction is a flagged conflict among the top-ranked evidence.
type Contradiction struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// Scenario is one of the three forward-looking scenarios in a report.
type Scenario struct {
	Name           string   `json:"name"`
	Probability    float64  `json:"probability"`
	Assumption     string   `json:"assumption"`
	Impact         string   `json:"impact"`
	TriggerSignals []string `json:"trigger_signals"`
}
