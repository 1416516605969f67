// Package memory is an in-process fake Repository, used by tests and
// the local demo server in place of the Postgres-backed store. Its
// shape — a mutex-guarded set of maps with sequential IDs — follows
// the teacher's pkg/core/knowledge.MemoryStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// Store is an in-memory Repository implementation. Zero value is not
// usable; construct with New.
type Store struct {
	mu sync.RWMutex

	entities  map[string]model.Entity // keyed by upper ticker
	nextEntID int64

	sources     map[int64]model.Source
	nextSrcID   int64
	snapshots   map[int64][]model.SourceSnapshot
	nextSnapID  int64

	insights    []model.Insight
	nextInsID   int64
	chunks      []model.MemoryChunk
	relations   []model.SourceEvidenceRelation

	financials map[string][]model.FinancialPeriod // keyed by ticker
	macro      map[string]model.MacroObservation   // keyed by seriesID|date
	social     map[string]model.SocialSignal       // keyed by ticker|platform|date
	filings    map[string]model.EntityFiling        // keyed by accession number
	coverage   map[string]model.EntityCoverage       // keyed by ticker

	searchQueries []model.SearchQuery
	nextSearchID  int64
	searchEvid    map[int64][]model.SearchEvidence

	ingestRuns        []ingestRunRecord
	failedIngestions  []failedIngestionRecord
	auditEvents       []model.AuditEvent
}

type ingestRunRecord struct {
	SourceID int64
	Status   string
	Detail   string
}

type failedIngestionRecord struct {
	SourceID  int64
	ErrKind   string
	Detail    string
	Retryable bool
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		entities:       make(map[string]model.Entity),
		sources:        make(map[int64]model.Source),
		snapshots:      make(map[int64][]model.SourceSnapshot),
		financials:     make(map[string][]model.FinancialPeriod),
		macro:          make(map[string]model.MacroObservation),
		social:         make(map[string]model.SocialSignal),
		filings:        make(map[string]model.EntityFiling),
		coverage:       make(map[string]model.EntityCoverage),
		searchEvid:     make(map[int64][]model.SearchEvidence),
	}
}

func (s *Store) UpsertEntity(ctx context.Context, e model.Entity) (model.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(e.Ticker)
	now := time.Now()
	existing, ok := s.entities[key]
	if !ok {
		s.nextEntID++
		e.ID = s.nextEntID
		e.CreatedAt = now
		e.UpdatedAt = now
		s.entities[key] = e
		s.auditLocked("entity_upserted", "entity", e.Ticker, fmt.Sprintf("name=%s", e.Name))
		return e, nil
	}

	merged := existing
	if e.Name != "" {
		merged.Name = e.Name
	}
	if e.CIK != "" {
		merged.CIK = e.CIK
	}
	if e.Sector != "" {
		merged.Sector = e.Sector
	}
	if e.Industry != "" {
		merged.Industry = e.Industry
	}
	if e.Exchange != "" {
		merged.Exchange = e.Exchange
	}
	merged.Aliases = e.Aliases
	merged.UpdatedAt = now
	s.entities[key] = merged
	s.auditLocked("entity_upserted", "entity", merged.Ticker, fmt.Sprintf("name=%s", merged.Name))
	return merged, nil
}

func (s *Store) LookupEntity(ctx context.Context, how repository.EntityLookup, query string) (*model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch how {
	case repository.LookupByTicker:
		if e, ok := s.entities[strings.ToUpper(query)]; ok {
			out := e
			return &out, nil
		}
	case repository.LookupByName:
		lower := strings.ToLower(query)
		for _, e := range s.entities {
			if strings.ToLower(e.Name) == lower {
				out := e
				return &out, nil
			}
		}
	case repository.LookupByAlias:
		lower := strings.ToLower(query)
		for _, e := range s.entities {
			for _, a := range e.Aliases {
				if strings.ToLower(a) == lower {
					out := e
					return &out, nil
				}
			}
		}
	default:
		return nil, fmt.Errorf("unknown lookup strategy %q", how)
	}
	return nil, nil
}

func (s *Store) AutocompleteEntities(ctx context.Context, prefix string, limit int) ([]repository.AutocompleteSuggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upperPrefix := strings.ToUpper(prefix)
	lowerPrefix := strings.ToLower(prefix)

	type scored struct {
		sug  repository.AutocompleteSuggestion
		rank int
	}
	var candidates []scored
	for _, e := range s.entities {
		rank := -1
		switch {
		case strings.ToUpper(e.Ticker) == upperPrefix:
			rank = 0
		case strings.HasPrefix(strings.ToUpper(e.Ticker), upperPrefix):
			rank = 1
		case strings.Contains(strings.ToLower(e.Name), lowerPrefix):
			rank = 2
		default:
			for _, a := range e.Aliases {
				if strings.Contains(strings.ToLower(a), lowerPrefix) {
					rank = 3
					break
				}
			}
		}
		if rank < 0 {
			continue
		}
		candidates = append(candidates, scored{
			sug: repository.AutocompleteSuggestion{
				Ticker: e.Ticker, Name: e.Name, Exchange: e.Exchange, Type: e.Type,
			},
			rank: rank,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].sug.Ticker < candidates[j].sug.Ticker
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]repository.AutocompleteSuggestion, len(candidates))
	for i, c := range candidates {
		out[i] = c.sug
	}
	return out, nil
}

func (s *Store) AddSource(ctx context.Context, name, url string, connectorType model.ConnectorType) (model.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.sources {
		if src.URL == url {
			return src, nil
		}
	}
	s.nextSrcID++
	src := model.Source{ID: s.nextSrcID, Name: name, URL: url, ConnectorType: connectorType, CreatedAt: time.Now()}
	s.sources[src.ID] = src
	s.auditLocked("source_added", "source", fmt.Sprintf("%d", src.ID), url)
	return src, nil
}

func (s *Store) GetSource(ctx context.Context, id int64) (*model.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, nil
	}
	return &src, nil
}

func (s *Store) ListSources(ctx context.Context, limit, offset int) ([]model.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]model.Source, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.sources[id])
	}
	return out, nil
}

func (s *Store) GetLatestSnapshotHash(ctx context.Context, sourceID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snaps := s.snapshots[sourceID]
	if len(snaps) == 0 {
		return "", nil
	}
	return snaps[len(snaps)-1].ContentHash, nil
}

func (s *Store) GetLastIngestTime(ctx context.Context, sourceID int64) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snaps := s.snapshots[sourceID]
	if len(snaps) == 0 {
		return nil, nil
	}
	t := snaps[len(snaps)-1].ObservedAt
	return &t, nil
}

func (s *Store) InsertSnapshot(ctx context.Context, snap model.SourceSnapshot) (model.SourceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSnapID++
	snap.ID = s.nextSnapID
	snap.ObservedAt = time.Now()
	s.snapshots[snap.SourceID] = append(s.snapshots[snap.SourceID], snap)
	return snap, nil
}

func (s *Store) InsertInsight(ctx context.Context, i model.Insight) (model.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextInsID++
	i.ID = s.nextInsID
	i.CreatedAt = time.Now()
	s.insights = append(s.insights, i)
	s.auditLocked("insight_created", "source", fmt.Sprintf("%d", i.SourceID), i.EvidenceRef)
	return i, nil
}

// SearchInsightsByText does a naive substring match in place of
// Postgres full-text search; TextRank is set to 1.0 for every hit since
// there's no ts_rank equivalent to compute here.
func (s *Store) SearchInsightsByText(ctx context.Context, query string, limit int) ([]model.EvidenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lower := strings.ToLower(query)
	var out []model.EvidenceItem
	for i := len(s.insights) - 1; i >= 0 && len(out) < limit; i-- {
		ins := s.insights[i]
		if !strings.Contains(strings.ToLower(ins.Text), lower) {
			continue
		}
		createdAt := ins.CreatedAt
		out = append(out, model.EvidenceItem{
			SourceID: ins.SourceID, SourceName: ins.SourceName, SourceURL: ins.SourceURL,
			Insight: ins.Text, Recommendation: ins.Recommendation, ThreatLevel: ins.ThreatLevel,
			EvidenceRef: ins.EvidenceRef, Confidence: ins.Confidence, CriticStatus: ins.CriticStatus,
			CreatedAt: &createdAt, TextRank: 1.0,
		})
	}
	return out, nil
}

// SemanticSearch returns chunks ordered by cosine similarity to
// queryVec, computed in-process since there is no pgvector index here.
func (s *Store) SemanticSearch(ctx context.Context, queryVec []float32, limit int) ([]model.MemoryChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk model.MemoryChunk
		score float64
	}
	scoredChunks := make([]scored, 0, len(s.chunks))
	for _, c := range s.chunks {
		scoredChunks = append(scoredChunks, scored{chunk: c, score: cosineSimilarity(queryVec, c.Embedding)})
	}
	sort.Slice(scoredChunks, func(i, j int) bool { return scoredChunks[i].score > scoredChunks[j].score })
	if len(scoredChunks) > limit {
		scoredChunks = scoredChunks[:limit]
	}
	out := make([]model.MemoryChunk, len(scoredChunks))
	for i, sc := range scoredChunks {
		sc.chunk.Similarity = sc.score
		out[i] = sc.chunk
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (sqrt(magA) * sqrt(magB))
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

func (s *Store) UpsertMemoryChunk(ctx context.Context, c model.MemoryChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.chunks {
		if existing.SourceID == c.SourceID && existing.ContentHash == c.ContentHash && existing.ChunkIndex == c.ChunkIndex {
			s.chunks[i] = c
			return nil
		}
	}
	s.chunks = append(s.chunks, c)
	return nil
}

func (s *Store) UpsertEvidenceRelation(ctx context.Context, r model.SourceEvidenceRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.relations {
		if existing.SourceID == r.SourceID && existing.EvidenceRef == r.EvidenceRef {
			s.relations[i] = r
			return nil
		}
	}
	s.relations = append(s.relations, r)
	return nil
}

var threatRank = map[model.ThreatLevel]int{model.ThreatHigh: 3, model.ThreatMedium: 2, model.ThreatLow: 1}

func (s *Store) GraphRelatedSources(ctx context.Context, entityName string, limit int) ([]model.SourceEvidenceRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(entityName)
	var out []model.SourceEvidenceRelation
	for _, r := range s.relations {
		if strings.Contains(strings.ToLower(r.SourceName), lower) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return threatRank[out[i].ThreatLevel] > threatRank[out[j].ThreatLevel] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GraphConnectedEntities(ctx context.Context, entityName string, limit int) ([]repository.ConnectedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(entityName)
	var seedSourceIDs []int64
	for _, r := range s.relations {
		if strings.Contains(strings.ToLower(r.SourceName), lower) {
			seedSourceIDs = append(seedSourceIDs, r.SourceID)
		}
	}
	counts := map[int64]*repository.ConnectedEntity{}
	for _, seed := range seedSourceIDs {
		for _, r1 := range s.relations {
			if r1.SourceID != seed {
				continue
			}
			for _, r2 := range s.relations {
				if r2.EvidenceRef != r1.EvidenceRef || r2.SourceID == seed {
					continue
				}
				entry, ok := counts[r2.SourceID]
				if !ok {
					entry = &repository.ConnectedEntity{RelatedSource: r2.SourceName, URL: r2.SourceURL}
					counts[r2.SourceID] = entry
				}
				entry.SharedEvidenceCount++
			}
		}
	}
	var out []repository.ConnectedEntity
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SharedEvidenceCount > out[j].SharedEvidenceCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) LatestInsightsBySource(ctx context.Context, sourceID int64, limit int) ([]model.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Insight
	for i := len(s.insights) - 1; i >= 0 && len(out) < limit; i-- {
		if s.insights[i].SourceID == sourceID {
			out = append(out, s.insights[i])
		}
	}
	return out, nil
}

func financialKey(ticker string, pt model.PeriodType, periodEnd time.Time, provider string) string {
	return fmt.Sprintf("%s|%s|%s|%s", ticker, pt, periodEnd.Format("2006-01-02"), provider)
}

func (s *Store) UpsertFinancialPeriod(ctx context.Context, p model.FinancialPeriod) (model.FinancialPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := financialKey(p.Ticker, p.PeriodType, p.PeriodEnd, p.SourceProvider)
	periods := s.financials[p.Ticker]
	for i, existing := range periods {
		if financialKey(existing.Ticker, existing.PeriodType, existing.PeriodEnd, existing.SourceProvider) == key {
			merged := existing.DeepMerge(p)
			if p.FiscalYear != 0 {
				merged.FiscalYear = p.FiscalYear
			}
			if p.FiscalQuarter != 0 {
				merged.FiscalQuarter = p.FiscalQuarter
			}
			if p.EntityID != nil {
				merged.EntityID = p.EntityID
			}
			periods[i] = merged
			s.financials[p.Ticker] = periods
			s.auditLocked("financial_period_upserted", "entity", p.Ticker, fmt.Sprintf("period_type=%s provider=%s", p.PeriodType, p.SourceProvider))
			return merged, nil
		}
	}
	s.financials[p.Ticker] = append(periods, p)
	s.auditLocked("financial_period_upserted", "entity", p.Ticker, fmt.Sprintf("period_type=%s provider=%s", p.PeriodType, p.SourceProvider))
	return p, nil
}

func (s *Store) GetFinancialHistory(ctx context.Context, ticker string, periodType model.PeriodType, limit int) ([]model.FinancialPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []model.FinancialPeriod
	for _, p := range s.financials[ticker] {
		if p.PeriodType == periodType {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].PeriodEnd.After(matches[j].PeriodEnd) })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) UpsertMacro(ctx context.Context, m model.MacroObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := m.SeriesID + "|" + m.Date.Format("2006-01-02")
	s.macro[key] = m
	return nil
}

func (s *Store) LatestMacroValues(ctx context.Context, seriesIDs []string) ([]model.MacroObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := map[string]model.MacroObservation{}
	wanted := map[string]bool{}
	for _, id := range seriesIDs {
		wanted[id] = true
	}
	for _, m := range s.macro {
		if !wanted[m.SeriesID] {
			continue
		}
		if cur, ok := latest[m.SeriesID]; !ok || m.Date.After(cur.Date) {
			latest[m.SeriesID] = m
		}
	}
	out := make([]model.MacroObservation, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) UpsertSocialSignal(ctx context.Context, sig model.SocialSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%s", sig.Ticker, sig.Platform, sig.SignalDate.Format("2006-01-02"))
	s.social[key] = sig
	return nil
}

func (s *Store) GetSocialSignals(ctx context.Context, ticker string, days int) ([]model.SocialSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := time.Now().AddDate(0, 0, -days)
	var out []model.SocialSignal
	for _, sig := range s.social {
		if sig.Ticker == ticker && sig.SignalDate.After(cutoff) {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignalDate.After(out[j].SignalDate) })
	return out, nil
}

func (s *Store) UpsertFiling(ctx context.Context, f model.EntityFiling) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filings[f.AccessionNumber] = f
	return nil
}

func (s *Store) GetFilings(ctx context.Context, ticker string, filingType string, limit int) ([]model.EntityFiling, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.EntityFiling
	for _, f := range s.filings {
		if f.Ticker != ticker {
			continue
		}
		if filingType != "" && f.FilingType != filingType {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilingDate.After(out[j].FilingDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateCoverage(ctx context.Context, c model.EntityCoverage) (model.EntityCoverage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.LastUpdated = time.Now()
	s.coverage[c.Ticker] = c
	s.auditLocked("coverage_updated", "entity", c.Ticker, fmt.Sprintf("score=%.4f", c.Score))
	return c, nil
}

func (s *Store) GetCoverage(ctx context.Context, ticker string) (*model.EntityCoverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coverage[ticker]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) SaveSearchResult(ctx context.Context, q model.SearchQuery, evidence []model.SearchEvidence) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSearchID++
	q.ID = s.nextSearchID
	q.CreatedAt = time.Now()
	s.searchQueries = append(s.searchQueries, q)
	s.searchEvid[q.ID] = evidence
	s.auditLocked("search_executed", "search_query", fmt.Sprintf("%d", q.ID), q.Query)
	return q.ID, nil
}

func (s *Store) GetSearchHistory(ctx context.Context, page, pageSize int) ([]model.SearchQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := page * pageSize
	if start >= len(s.searchQueries) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(s.searchQueries) {
		end = len(s.searchQueries)
	}
	out := make([]model.SearchQuery, end-start)
	for i := 0; i < end-start; i++ {
		out[i] = s.searchQueries[len(s.searchQueries)-1-start-i]
	}
	return out, nil
}

func (s *Store) LogIngestRun(ctx context.Context, sourceID int64, status, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestRuns = append(s.ingestRuns, ingestRunRecord{SourceID: sourceID, Status: status, Detail: detail})
	return nil
}

func (s *Store) LogFailedIngestion(ctx context.Context, sourceID int64, errKind, detail string, retryable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedIngestions = append(s.failedIngestions, failedIngestionRecord{
		SourceID: sourceID, ErrKind: errKind, Detail: detail, Retryable: retryable,
	})
	return nil
}

func (s *Store) RunRetentionPurge(ctx context.Context, windows repository.RetentionWindows) (repository.RetentionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result repository.RetentionResult
	now := time.Now()

	cutoff := now.AddDate(0, 0, -windows.InsightsDays)
	kept := s.insights[:0:0]
	for _, ins := range s.insights {
		if ins.CreatedAt.Before(cutoff) {
			result.InsightsDeleted++
			continue
		}
		kept = append(kept, ins)
	}
	s.insights = kept

	cutoff = now.AddDate(0, 0, -windows.SearchDays)
	keptQ := s.searchQueries[:0:0]
	for _, q := range s.searchQueries {
		if q.CreatedAt.Before(cutoff) {
			result.SearchDeleted++
			continue
		}
		keptQ = append(keptQ, q)
	}
	s.searchQueries = keptQ

	cutoff = now.AddDate(0, 0, -windows.AuditDays)
	keptA := s.auditEvents[:0:0]
	for _, e := range s.auditEvents {
		if e.OccurredAt.Before(cutoff) {
			result.AuditDeleted++
			continue
		}
		keptA = append(keptA, e)
	}
	s.auditEvents = keptA

	cutoff = now.AddDate(0, 0, -windows.SnapshotsDays)
	for srcID, snaps := range s.snapshots {
		keptS := snaps[:0:0]
		for _, snap := range snaps {
			if snap.ObservedAt.Before(cutoff) {
				result.SnapshotsDeleted++
				continue
			}
			keptS = append(keptS, snap)
		}
		s.snapshots[srcID] = keptS
	}

	return result, nil
}

func (s *Store) DeleteSourceRecords(ctx context.Context, sourceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keptInsights := s.insights[:0:0]
	for _, ins := range s.insights {
		if ins.SourceID != sourceID {
			keptInsights = append(keptInsights, ins)
		}
	}
	s.insights = keptInsights
	delete(s.snapshots, sourceID)

	keptChunks := s.chunks[:0:0]
	for _, c := range s.chunks {
		if c.SourceID != sourceID {
			keptChunks = append(keptChunks, c)
		}
	}
	s.chunks = keptChunks
	keptRelations := s.relations[:0:0]
	for _, r := range s.relations {
		if r.SourceID != sourceID {
			keptRelations = append(keptRelations, r)
		}
	}
	s.relations = keptRelations

	if src, ok := s.sources[sourceID]; ok {
		now := time.Now()
		src.Name = fmt.Sprintf("[deleted-source-%d]", sourceID)
		src.DeletedAt = &now
		s.sources[sourceID] = src
	}
	s.auditLocked("source_deleted", "source", fmt.Sprintf("%d", sourceID), "cascade delete")
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, e model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLocked(e.EventType, e.EntityType, e.EntityID, e.Detail)
	return nil
}

// auditLocked appends an audit event; caller must already hold s.mu.
func (s *Store) auditLocked(eventType, entityType, entityID, detail string) {
	s.auditEvents = append(s.auditEvents, model.AuditEvent{
		EventType: eventType, EntityType: entityType, EntityID: entityID, Detail: detail, OccurredAt: time.Now(),
	})
}

var _ repository.Repository = (*Store)(nil)
