package store

import (
	"strings"

	"github.com/geopod-io/geopod/internal/model"
)

// Links holds the hyperlink base for converting records into their public
// shapes. Hyperlinks are derived per response and never persisted.
type Links struct {
	BaseURL string
}

func (l Links) href(path string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (l Links) Root() string                  { return strings.TrimRight(l.BaseURL, "/") }
func (l Links) CollectionsHref() string       { return l.href("collections") }
func (l Links) SearchHref() string            { return l.href("search") }
func (l Links) ConformanceHref() string       { return l.href("conformance") }
func (l Links) CollectionHref(c string) string {
	return l.href("collections/" + c)
}
func (l Links) ItemsHref(c string) string {
	return l.href("collections/" + c + "/items")
}
func (l Links) ItemHref(c, i string) string {
	return l.href("collections/" + c + "/items/" + i)
}
func (l Links) AssetHref(c, i, key string) string {
	return l.href("collections/" + c + "/items/" + i + "/" + key)
}

// ToItem converts the record to the public item shape with generated
// self/root/parent/collection links.
func (r ItemRecord) ToItem(l Links) model.Item {
	links := []model.Link{
		{Href: l.Root(), Rel: "root", Type: "application/json", Title: "Root Catalog"},
		{Href: l.ItemHref(r.CollectionID, r.ID), Rel: "self", Type: "application/geo+json", Title: "This Item"},
		{Href: l.CollectionHref(r.CollectionID), Rel: "collection", Type: "application/json", Title: "Collection"},
		{Href: l.CollectionHref(r.CollectionID), Rel: "parent", Type: "application/json", Title: "Parent Collection"},
	}
	assets := r.Assets
	if assets == nil {
		assets = map[string]model.Asset{}
	}
	return model.Item{
		Type:           r.Type,
		StacVersion:    r.StacVersion,
		StacExtensions: r.StacExtensions,
		ID:             r.ID,
		Geometry:       r.Geometry,
		BBox:           r.BBox,
		Properties:     r.Properties,
		Links:          links,
		Assets:         assets,
		Collection:     r.CollectionID,
	}
}

// ToCollection converts the record to the public collection shape with
// generated self/items/root/parent links.
func (r CollectionRecord) ToCollection(l Links) model.Collection {
	links := []model.Link{
		{Href: l.CollectionHref(r.ID), Rel: "self", Type: "application/json", Title: "This Collection"},
		{Href: l.ItemsHref(r.ID), Rel: "items", Type: "application/geo+json", Title: "Items in this Collection"},
		{Href: l.Root(), Rel: "root", Type: "application/json", Title: "Root Catalog"},
		{Href: l.Root(), Rel: "parent", Type: "application/json", Title: "Parent Catalog"},
	}
	return model.Collection{
		Type:           r.Type,
		StacVersion:    r.StacVersion,
		StacExtensions: r.StacExtensions,
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Keywords:       r.Keywords,
		License:        r.License,
		Providers:      r.Providers,
		Extent:         r.Extent,
		Summaries:      r.Summaries,
		Assets:         r.Assets,
		Links:          links,
		ConformsTo:     r.ConformsTo,
	}
}
