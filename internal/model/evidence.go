package model

import "time"

// MacroObservation is unique by (series_id, observation_date).
type MacroObservation struct {
	SeriesID   string
	SeriesName string
	Date       time.Time
	Value      float64
}

// SocialSignal is unique by (ticker, platform, signal_date).
type SocialSignal struct {
	Ticker       string
	Platform     string
	SignalDate   time.Time
	MentionCount int
	AvgSentiment float64 // in [-1, 1]
	TopPosts     []string // up to 10
}

// EntityFiling is unique by accession number.
type EntityFiling struct {
	Ticker          string
	CIK             string
	AccessionNumber string
	FilingType      string
	FilingDate      time.Time
	FilingURL       string
	Description     string
}

// ConnectorType selects the ingestion connector a Source uses.
type ConnectorType string

const (
	ConnectorWeb ConnectorType = "web"
	ConnectorRSS ConnectorType = "rss"
)

// Source is a registered ingestible URL, soft-deleted via DeletedAt.
type Source struct {
	ID            int64
	Name          string
	URL           string
	ConnectorType ConnectorType
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// SourceSnapshot is an append-only observation of a source's content.
type SourceSnapshot struct {
	ID          int64
	SourceID    int64
	ContentHash string
	Excerpt     string
	ObservedAt  time.Time
}

// ThreatLevel is a coarse risk label attached to evidence.
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "low"
	ThreatMedium ThreatLevel = "medium"
	ThreatHigh   ThreatLevel = "high"
)

// CriticStatus records whether the rule-based post-analysis check passed.
type CriticStatus string

const (
	CriticApproved CriticStatus = "approved"
	CriticFlagged  CriticStatus = "flagged"
)

// Insight is an atomic piece of evidence created by ingestion.
type Insight struct {
	ID             int64
	SourceID       int64
	SourceName     string
	SourceURL      string
	Text           string
	Recommendation string
	ThreatLevel    ThreatLevel
	EvidenceRef    string
	ContentHash    string
	Confidence     float64 // in [0, 1]
	CriticStatus   CriticStatus
	CreatedAt      time.Time
}

// MemoryChunk is a text fragment of a source with a fixed-dimensional
// embedding, unique by (source_id, content_hash, chunk_index).
type MemoryChunk struct {
	SourceID    int64
	SourceName  string
	SourceURL   string
	ContentHash string
	ChunkIndex  int
	ChunkText   string
	EvidenceRef string
	Embedding   []float32
	// Similarity is the cosine similarity of this chunk's embedding
	// against the query vector that produced it, in [0, 1]. Only set on
	// chunks returned from a semantic search; zero otherwise.
	Similarity float64
}

// SourceEvidenceRelation is unique by (source_id, evidence_ref).
type SourceEvidenceRelation struct {
	SourceID    int64
	SourceName  string
	SourceURL   string
	EvidenceRef string
	ThreatLevel ThreatLevel
}

// EntityCoverage is one row per ticker, recomputed on enrichment.
type EntityCoverage struct {
	EntityID          *int64
	Ticker            string
	HasFinancials     bool
	FinancialQuarters int
	HasFilings        bool
	FilingCount       int
	HasMacro          bool
	HasSocial         bool
	HasNews           bool
	HasPrice          bool
	Score             float64 // in [0, 1]
	LastUpdated       time.Time
}

// SearchQuery is a persisted record of an executed query.
type SearchQuery struct {
	ID             int64
	Query          string
	Answer         string
	Confidence     float64
	RiskLevel      string
	Recommendation string
	CreatedAt      time.Time
}

// SearchEvidence links a SearchQuery to one cited evidence item.
type SearchEvidence struct {
	SearchQueryID int64
	SourceName    string
	EvidenceRef   string
	RankScore     float64
}

// AuditEvent is appended on every repository write.
type AuditEvent struct {
	EventType  string
	EntityType string
	EntityID   string
	Detail     string
	OccurredAt time.Time
}
