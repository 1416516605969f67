package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// UpsertEntity inserts or updates the entities row keyed on ticker.
// Non-empty incoming fields win over stored ones; aliases are replaced
// wholesale with whatever the caller passes, so internal/resolver is
// responsible for computing the union before calling this.
func (s *Store) UpsertEntity(ctx context.Context, e model.Entity) (model.Entity, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO entities (name, ticker, cik, sector, industry, exchange, entity_type, aliases, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), entities.name),
			cik = COALESCE(NULLIF(EXCLUDED.cik, ''), entities.cik),
			sector = COALESCE(NULLIF(EXCLUDED.sector, ''), entities.sector),
			industry = COALESCE(NULLIF(EXCLUDED.industry, ''), entities.industry),
			exchange = COALESCE(NULLIF(EXCLUDED.exchange, ''), entities.exchange),
			aliases = EXCLUDED.aliases,
			updated_at = NOW()
		RETURNING id, name, ticker, cik, sector, industry, exchange, entity_type, aliases, created_at, updated_at
	`, e.Name, strings.ToUpper(e.Ticker), e.CIK, e.Sector, e.Industry, e.Exchange, string(e.Type), e.Aliases)

	var out model.Entity
	var entityType string
	if err := row.Scan(&out.ID, &out.Name, &out.Ticker, &out.CIK, &out.Sector, &out.Industry,
		&out.Exchange, &entityType, &out.Aliases, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return model.Entity{}, fmt.Errorf("upsert entity %s: %w", e.Ticker, err)
	}
	out.Type = model.EntityType(entityType)
	s.audit(ctx, "entity_upserted", "entity", out.Ticker, fmt.Sprintf("name=%s", out.Name))
	return out, nil
}

// LookupEntity implements the three cache lookup strategies: exact
// ticker, exact name, alias containment.
func (s *Store) LookupEntity(ctx context.Context, how repository.EntityLookup, query string) (*model.Entity, error) {
	var row pgxRow
	switch how {
	case repository.LookupByTicker:
		row = s.pool.QueryRow(ctx, `
			SELECT id, name, ticker, cik, sector, industry, exchange, entity_type, aliases, created_at, updated_at
			FROM entities WHERE UPPER(ticker) = UPPER($1) LIMIT 1`, query)
	case repository.LookupByName:
		row = s.pool.QueryRow(ctx, `
			SELECT id, name, ticker, cik, sector, industry, exchange, entity_type, aliases, created_at, updated_at
			FROM entities WHERE LOWER(name) = LOWER($1) LIMIT 1`, query)
	case repository.LookupByAlias:
		row = s.pool.QueryRow(ctx, `
			SELECT id, name, ticker, cik, sector, industry, exchange, entity_type, aliases, created_at, updated_at
			FROM entities WHERE $1 = ANY(aliases) LIMIT 1`, strings.ToLower(query))
	default:
		return nil, fmt.Errorf("unknown lookup strategy %q", how)
	}

	var e model.Entity
	var entityType string
	if err := row.Scan(&e.ID, &e.Name, &e.Ticker, &e.CIK, &e.Sector, &e.Industry,
		&e.Exchange, &entityType, &e.Aliases, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup entity %s=%s: %w", how, query, err)
	}
	e.Type = model.EntityType(entityType)
	return &e, nil
}

// AutocompleteEntities returns up to limit rows from the entities cache
// ordered (exact-ticker > ticker-prefix > name-substring > alias). The
// caller (internal/resolver) appends live quote-API suggestions and
// dedups by ticker.
func (s *Store) AutocompleteEntities(ctx context.Context, prefix string, limit int) ([]repository.AutocompleteSuggestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ticker, name, exchange, entity_type,
			CASE
				WHEN UPPER(ticker) = UPPER($1) THEN 0
				WHEN UPPER(ticker) LIKE UPPER($1) || '%' THEN 1
				WHEN LOWER(name) LIKE '%' || LOWER($1) || '%' THEN 2
				ELSE 3
			END AS rank
		FROM entities
		WHERE UPPER(ticker) LIKE UPPER($1) || '%'
			OR LOWER(name) LIKE '%' || LOWER($1) || '%'
			OR $1 = ANY(aliases)
		ORDER BY rank ASC, ticker ASC
		LIMIT $2
	`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete entities: %w", err)
	}
	defer rows.Close()

	var out []repository.AutocompleteSuggestion
	for rows.Next() {
		var sug repository.AutocompleteSuggestion
		var entityType string
		var rank int
		if err := rows.Scan(&sug.Ticker, &sug.Name, &sug.Exchange, &entityType, &rank); err != nil {
			return nil, fmt.Errorf("scan autocomplete row: %w", err)
		}
		sug.Type = model.EntityType(entityType)
		out = append(out, sug)
	}
	return out, rows.Err()
}

// pgxRow is the minimal surface of pgx.Row this package needs, so
// LookupEntity's switch can share one Scan call across branches.
type pgxRow interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
