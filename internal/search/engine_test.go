package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/store"
)

type fakeCollections struct {
	recs    []store.CollectionRecord
	getAll  int
	failAll bool
}

func (f *fakeCollections) GetAll(ctx context.Context) ([]store.CollectionRecord, error) {
	f.getAll++
	if f.failAll {
		return nil, errors.New("backend down")
	}
	return f.recs, nil
}

func (f *fakeCollections) GetByID(ctx context.Context, id string) (store.CollectionRecord, error) {
	for _, r := range f.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return store.CollectionRecord{}, store.ErrNotFound
}

func (f *fakeCollections) Create(ctx context.Context, rec store.CollectionRecord) error { return nil }
func (f *fakeCollections) Update(ctx context.Context, rec store.CollectionRecord) error { return nil }
func (f *fakeCollections) Delete(ctx context.Context, id string) error                  { return nil }

type fakeItems struct {
	byCollection map[string][]store.ItemRecord
	failing      map[string]bool
	fetches      int
}

func (f *fakeItems) GetByCollection(ctx context.Context, collectionID string, limit, offset int) ([]store.ItemRecord, error) {
	f.fetches++
	if f.failing[collectionID] {
		return nil, errors.New("collection unavailable")
	}
	return f.byCollection[collectionID], nil
}

func (f *fakeItems) GetByID(ctx context.Context, collectionID, id string) (store.ItemRecord, error) {
	return store.ItemRecord{}, store.ErrNotFound
}
func (f *fakeItems) Create(ctx context.Context, rec store.ItemRecord) error { return nil }
func (f *fakeItems) Update(ctx context.Context, rec store.ItemRecord) error { return nil }
func (f *fakeItems) Delete(ctx context.Context, collectionID, id string) error {
	return nil
}

func testRecord(collectionID, id, datetime string, bbox []float64) store.ItemRecord {
	rec := store.ItemRecord{
		ID:           id,
		CollectionID: collectionID,
		Type:         "Feature",
		StacVersion:  model.StacVersion,
		BBox:         bbox,
	}
	if datetime != "" {
		rec.Properties.Datetime = &datetime
	}
	return rec
}

func newTestEngine(t *testing.T) (*Engine, *fakeCollections, *fakeItems) {
	t.Helper()
	cols := &fakeCollections{recs: []store.CollectionRecord{
		{ID: "alpha"}, {ID: "beta"},
	}}
	items := &fakeItems{byCollection: map[string][]store.ItemRecord{
		"alpha": {
			testRecord("alpha", "a1", "2021-05-01T00:00:00Z", []float64{-10, -10, 10, 10}),
			testRecord("alpha", "a2", "2022-06-01T00:00:00Z", []float64{20, 20, 30, 30}),
		},
		"beta": {
			testRecord("beta", "b1", "2023-12-01T00:00:00Z", []float64{0, 0, 5, 5}),
		},
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cols, items, log), cols, items
}

var testLinks = store.Links{BaseURL: "http://localhost:3000/v1"}

func TestSearch_EmptyScopeWidensToAllCollections(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got, err := e.Search(context.Background(), testLinks, Request{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "a1", "a2", "b1") {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_ExplicitScopeTrimmed(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got, err := e.Search(context.Background(), testLinks, Request{
		Collections: []string{" beta ", ""},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "b1") {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_UnknownCollectionContributesNothing(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got, err := e.Search(context.Background(), testLinks, Request{
		Collections: []string{"alpha", "ghost"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "a1", "a2") {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_FailingCollectionSkipped(t *testing.T) {
	e, _, items := newTestEngine(t)
	items.failing = map[string]bool{"alpha": true}

	got, err := e.Search(context.Background(), testLinks, Request{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "b1") {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_PartialResultNotCached(t *testing.T) {
	e, _, items := newTestEngine(t)
	items.failing = map[string]bool{"alpha": true}

	got, err := e.Search(context.Background(), testLinks, Request{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "b1") {
		t.Fatalf("got %v", ids(got))
	}

	// once the collection recovers, the next identical search must see it
	// instead of the degraded result for a cache TTL
	items.failing = nil
	got, err = e.Search(context.Background(), testLinks, Request{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "a1", "a2", "b1") {
		t.Fatalf("got %v want full result after recovery", ids(got))
	}
}

func TestSearch_ScopeResolutionErrorPropagates(t *testing.T) {
	e, cols, _ := newTestEngine(t)
	cols.failAll = true

	if _, err := e.Search(context.Background(), testLinks, Request{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_PipelineOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// bbox keeps a1 and b1, sort newest-first, then limit to one
	got, err := e.Search(context.Background(), testLinks, Request{
		BBox:   "-5,-5,5,5",
		SortBy: "datetime:desc",
		Limit:  1,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !sameIDs(got, "b1") {
		t.Fatalf("got %v want [b1]", ids(got))
	}
}

func TestSearch_MalformedFiltersFailOpen(t *testing.T) {
	e, _, _ := newTestEngine(t)

	got, err := e.Search(context.Background(), testLinks, Request{
		BBox:   "1,2,banana",
		SortBy: ":::",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v want all items", ids(got))
	}
}

func TestSearch_CacheHitSkipsFetch(t *testing.T) {
	e, _, items := newTestEngine(t)
	req := Request{Collections: []string{"alpha"}}

	if _, err := e.Search(context.Background(), testLinks, req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	first := items.fetches

	if _, err := e.Search(context.Background(), testLinks, req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if items.fetches != first {
		t.Fatalf("fetches=%d want %d (cached)", items.fetches, first)
	}

	e.Invalidate()
	if _, err := e.Search(context.Background(), testLinks, req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if items.fetches == first {
		t.Fatal("invalidate must force a refetch")
	}
}

func TestSearch_CacheKeyedByBaseURL(t *testing.T) {
	e, _, items := newTestEngine(t)
	req := Request{Collections: []string{"alpha"}}

	if _, err := e.Search(context.Background(), testLinks, req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	first := items.fetches

	other := store.Links{BaseURL: "http://example.org/v1"}
	if _, err := e.Search(context.Background(), other, req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if items.fetches == first {
		t.Fatal("different base URL must not share cache entries")
	}
}
