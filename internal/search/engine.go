// Package search implements the cross-collection query engine: scope
// resolution, candidate fetch, spatial and temporal filtering, stable
// multi-key sorting and truncation. Malformed filter or sort syntax never
// errors; the affected stage is skipped (fail-open).
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/store"
)

// Request is the engine input, assembled per request from either query
// parameters or an equivalent request body. String fields keep their wire
// form; the engine owns all parsing so its fail-open policy applies
// uniformly.
type Request struct {
	// Collections scopes the search; empty means all collections.
	Collections []string
	// BBox is "min_lon,min_lat,max_lon,max_lat".
	BBox string
	// Datetime is an RFC 3339 instant or "start/end" interval.
	Datetime string
	// SortBy is "field[:direction],...".
	SortBy string
	// Limit truncates the final result when positive.
	Limit int
}

type Engine struct {
	collections store.Collections
	items       store.Items
	logger      *slog.Logger
	cache       *resultCache
}

func New(collections store.Collections, items store.Items, logger *slog.Logger) *Engine {
	return &Engine{
		collections: collections,
		items:       items,
		logger:      logger,
		cache:       newResultCache(),
	}
}

// Invalidate drops all cached search results. Called on every catalog
// mutation.
func (e *Engine) Invalidate() {
	e.cache.purge()
}

// Search runs the full pipeline and returns the ordered result list. It
// errors only when the scope itself cannot be resolved; a single
// collection whose fetch fails is skipped and the response bypasses the
// cache.
func (e *Engine) Search(ctx context.Context, links store.Links, req Request) ([]model.Item, error) {
	key := cacheKey(links.BaseURL, req)
	if items, ok := e.cache.get(key); ok {
		return items, nil
	}

	scope, err := e.resolveScope(ctx, req.Collections)
	if err != nil {
		return nil, err
	}

	var candidates []model.Item
	degraded := false
	for _, collectionID := range scope {
		recs, err := e.items.GetByCollection(ctx, collectionID, -1, 0)
		if err != nil {
			// one bad collection must not fail the whole search
			e.logger.WarnContext(ctx, "skipping collection in search",
				"collection", collectionID, "err", err)
			degraded = true
			continue
		}
		for _, rec := range recs {
			candidates = append(candidates, rec.ToItem(links))
		}
	}

	if req.BBox != "" {
		candidates = filterByBBox(candidates, req.BBox)
	}
	if req.Datetime != "" {
		candidates = filterByDatetime(candidates, req.Datetime)
	}
	if req.SortBy != "" {
		if keys, ok := parseSortBy(req.SortBy); ok {
			sortItems(candidates, keys)
		}
	}
	if req.Limit > 0 && req.Limit < len(candidates) {
		candidates = candidates[:req.Limit]
	}

	// partial results must not outlive the failure that produced them
	if !degraded {
		e.cache.add(key, candidates)
	}
	return candidates, nil
}

// resolveScope trims the explicit id list; when nothing usable remains
// the scope widens to every known collection. Unknown ids pass through
// untouched and simply contribute no entries.
func (e *Engine) resolveScope(ctx context.Context, explicit []string) ([]string, error) {
	ids := make([]string, 0, len(explicit))
	for _, id := range explicit {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}

	all, err := e.collections.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve search scope: %w", err)
	}
	ids = make([]string, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
