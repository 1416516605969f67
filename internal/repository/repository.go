// Package repository defines the typed read/write interface to the
// persistent store. Implementations live in postgres (the production
// pgx-backed store) and memory (an in-process fake used by tests and
// the stream demo).
package repository

import (
	"context"
	"time"

	"marketintel/internal/model"
)

// EntityLookup selects how LookupEntity matches a query string.
type EntityLookup string

const (
	LookupByTicker EntityLookup = "ticker"
	LookupByName   EntityLookup = "name"
	LookupByAlias  EntityLookup = "alias"
)

// AutocompleteSuggestion is one row of the autocomplete response.
type AutocompleteSuggestion struct {
	Ticker   string            `json:"ticker"`
	Name     string            `json:"name"`
	Exchange string            `json:"exchange"`
	Type     model.EntityType `json:"type"`
}

// Repository is the typed contract every pipeline component reads and
// writes through. Entity, source, insight, financial-period, coverage
// and search-result writes and source deletion also append an audit
// event tagged with event_type, entity_type, entity_id, and a short
// detail; macro, social-signal, filing, snapshot, memory-chunk,
// evidence-relation and ingest-log writes and retention purges do not.
type Repository interface {
	// Entities.
	UpsertEntity(ctx context.Context, e model.Entity) (model.Entity, error)
	LookupEntity(ctx context.Context, how EntityLookup, query string) (*model.Entity, error)
	AutocompleteEntities(ctx context.Context, prefix string, limit int) ([]AutocompleteSuggestion, error)

	// Sources and snapshots.
	AddSource(ctx context.Context, name, url string, connectorType model.ConnectorType) (model.Source, error)
	GetSource(ctx context.Context, id int64) (*model.Source, error)
	ListSources(ctx context.Context, limit, offset int) ([]model.Source, error)
	GetLatestSnapshotHash(ctx context.Context, sourceID int64) (string, error)
	GetLastIngestTime(ctx context.Context, sourceID int64) (*time.Time, error)
	InsertSnapshot(ctx context.Context, s model.SourceSnapshot) (model.SourceSnapshot, error)

	// Insights and hybrid retrieval.
	InsertInsight(ctx context.Context, i model.Insight) (model.Insight, error)
	SearchInsightsByText(ctx context.Context, query string, limit int) ([]model.EvidenceItem, error)
	SemanticSearch(ctx context.Context, queryVec []float32, limit int) ([]model.MemoryChunk, error)
	GraphRelatedSources(ctx context.Context, entityName string, limit int) ([]model.SourceEvidenceRelation, error)
	GraphConnectedEntities(ctx context.Context, entityName string, limit int) ([]ConnectedEntity, error)
	UpsertMemoryChunk(ctx context.Context, c model.MemoryChunk) error
	UpsertEvidenceRelation(ctx context.Context, r model.SourceEvidenceRelation) error
	LatestInsightsBySource(ctx context.Context, sourceID int64, limit int) ([]model.Insight, error)

	// Financials.
	UpsertFinancialPeriod(ctx context.Context, p model.FinancialPeriod) (model.FinancialPeriod, error)
	GetFinancialHistory(ctx context.Context, ticker string, periodType model.PeriodType, limit int) ([]model.FinancialPeriod, error)

	// Macro.
	UpsertMacro(ctx context.Context, m model.MacroObservation) error
	LatestMacroValues(ctx context.Context, seriesIDs []string) ([]model.MacroObservation, error)

	// Social.
	UpsertSocialSignal(ctx context.Context, s model.SocialSignal) error
	GetSocialSignals(ctx context.Context, ticker string, days int) ([]model.SocialSignal, error)

	// Filings.
	UpsertFiling(ctx context.Context, f model.EntityFiling) error
	GetFilings(ctx context.Context, ticker string, filingType string, limit int) ([]model.EntityFiling, error)

	// Coverage.
	UpdateCoverage(ctx context.Context, c model.EntityCoverage) (model.EntityCoverage, error)
	GetCoverage(ctx context.Context, ticker string) (*model.EntityCoverage, error)

	// Search history.
	SaveSearchResult(ctx context.Context, q model.SearchQuery, evidence []model.SearchEvidence) (int64, error)
	GetSearchHistory(ctx context.Context, page, pageSize int) ([]model.SearchQuery, error)

	// Ingestion run log.
	LogIngestRun(ctx context.Context, sourceID int64, status, detail string) error
	LogFailedIngestion(ctx context.Context, sourceID int64, errKind, detail string, retryable bool) error

	// Retention and deletion.
	RunRetentionPurge(ctx context.Context, windows RetentionWindows) (RetentionResult, error)
	DeleteSourceRecords(ctx context.Context, sourceID int64) error

	// Audit log.
	AppendAudit(ctx context.Context, e model.AuditEvent) error
}

// ConnectedEntity is one row of GraphConnectedEntities: another source
// that shares evidence references with the queried entity's sources.
type ConnectedEntity struct {
	RelatedSource       string
	URL                 string
	SharedEvidenceCount int
}

// RetentionWindows carries the per-table retention ages from config.
type RetentionWindows struct {
	InsightsDays  int
	SnapshotsDays int
	ReportsDays   int
	SearchDays    int
	AuditDays     int
}

// RetentionResult reports how many rows were purged from each table.
type RetentionResult struct {
	InsightsDeleted  int
	SnapshotsDeleted int
	ReportsDeleted   int
	SearchDeleted    int
	AuditDeleted     int
}
