package api

import (
	"net/http"

	"github.com/geopod-io/geopod/internal/model"
)

type landingPage struct {
	Type           string       `json:"type"`
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	StacVersion    string       `json:"stac_version"`
	StacExtensions []string     `json:"stac_extensions,omitempty"`
	License        string       `json:"license"`
	ConformsTo     []string     `json:"conformsTo"`
	Links          []model.Link `json:"links"`
}

func (h *handler) getLandingPage(w http.ResponseWriter, r *http.Request) {
	l := h.links()
	doc := landingPage{
		Type:           "Catalog",
		ID:             h.Catalog.ID,
		Title:          h.Catalog.Title,
		Description:    h.Catalog.Description,
		StacVersion:    h.Catalog.StacVersion,
		StacExtensions: h.Catalog.Extensions,
		License:        h.Catalog.License,
		ConformsTo:     h.Catalog.ConformsTo,
		Links: []model.Link{
			{Href: l.Root(), Rel: "self", Type: "application/json", Title: "This Catalog"},
			{Href: l.Root(), Rel: "root", Type: "application/json", Title: "Root Catalog"},
			{Href: l.ConformanceHref(), Rel: "conformance", Type: "application/json", Title: "Conformance Classes"},
			{Href: l.CollectionsHref(), Rel: "data", Type: "application/json", Title: "Collections"},
			{Href: l.SearchHref(), Rel: "search", Type: "application/geo+json", Title: "Search"},
		},
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *handler) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getConformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"conformsTo": h.Catalog.ConformsTo})
}

// getSortables serves the same schema at the global, collections and
// per-collection routes: the engine only sorts on id and datetime.
func (h *handler) getSortables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{
				"type":        "string",
				"description": "Item identifier",
			},
			"datetime": map[string]any{
				"type":        "string",
				"format":      "date-time",
				"description": "Acquisition timestamp",
			},
		},
	})
}
