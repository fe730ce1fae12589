package store

import (
	"testing"

	"github.com/geopod-io/geopod/internal/model"
)

func TestItemRecord_ToItem_GeneratedLinks(t *testing.T) {
	l := Links{BaseURL: "http://localhost:3000/v1"}
	rec := ItemRecord{ID: "i1", CollectionID: "c1", Type: "Feature", StacVersion: model.StacVersion}

	it := rec.ToItem(l)
	if it.Collection != "c1" {
		t.Fatalf("Collection=%q", it.Collection)
	}
	if it.Assets == nil {
		t.Fatal("Assets must never be nil in the public shape")
	}

	hrefs := map[string]string{}
	for _, link := range it.Links {
		hrefs[link.Rel] = link.Href
	}
	if hrefs["self"] != "http://localhost:3000/v1/collections/c1/items/i1" {
		t.Fatalf("self=%q", hrefs["self"])
	}
	if hrefs["root"] != "http://localhost:3000/v1" {
		t.Fatalf("root=%q", hrefs["root"])
	}
	if hrefs["collection"] != hrefs["parent"] || hrefs["collection"] != "http://localhost:3000/v1/collections/c1" {
		t.Fatalf("collection=%q parent=%q", hrefs["collection"], hrefs["parent"])
	}
}

func TestCollectionRecord_ToCollection_GeneratedLinks(t *testing.T) {
	l := Links{BaseURL: "http://localhost:3000/v1/"}
	rec := CollectionRecord{ID: "c1", Type: "Collection", StacVersion: model.StacVersion}

	col := rec.ToCollection(l)
	hrefs := map[string]string{}
	for _, link := range col.Links {
		hrefs[link.Rel] = link.Href
	}
	// trailing slash on the base must not double up
	if hrefs["self"] != "http://localhost:3000/v1/collections/c1" {
		t.Fatalf("self=%q", hrefs["self"])
	}
	if hrefs["items"] != "http://localhost:3000/v1/collections/c1/items" {
		t.Fatalf("items=%q", hrefs["items"])
	}
	if hrefs["parent"] != hrefs["root"] {
		t.Fatalf("parent=%q root=%q", hrefs["parent"], hrefs["root"])
	}
}
