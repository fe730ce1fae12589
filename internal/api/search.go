package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/search"
)

func (h *handler) searchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := search.Request{
		BBox:     q.Get("bbox"),
		Datetime: q.Get("datetime"),
		SortBy:   q.Get("sortby"),
		Limit:    queryInt(r, "limit", 0),
	}
	if raw := strings.TrimSpace(q.Get("collections")); raw != "" {
		req.Collections = strings.Split(raw, ",")
	}
	h.runSearch(w, r, req)
}

// searchBody is the POST variant of the search parameters. The engine
// owns all filter parsing, so structured fields are rendered back to
// their query-string forms before the call.
type searchBody struct {
	Collections []string        `json:"collections"`
	BBox        []float64       `json:"bbox"`
	Datetime    string          `json:"datetime"`
	Limit       int             `json:"limit"`
	SortBy      json.RawMessage `json:"sortby"`
}

func (h *handler) searchPost(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req := search.Request{
		Collections: body.Collections,
		Datetime:    body.Datetime,
		Limit:       body.Limit,
		SortBy:      sortByString(body.SortBy),
	}
	if len(body.BBox) > 0 {
		parts := make([]string, 0, len(body.BBox))
		for _, f := range body.BBox {
			parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
		}
		req.BBox = strings.Join(parts, ",")
	}
	h.runSearch(w, r, req)
}

func (h *handler) runSearch(w http.ResponseWriter, r *http.Request, req search.Request) {
	l := h.links()
	items, err := h.Engine.Search(r.Context(), l, req)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "search", "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "search failed")
		return
	}
	writeGeoJSON(w, http.StatusOK, featureCollection{
		Type:           "FeatureCollection",
		Features:       items,
		NumberReturned: len(items),
		Links: []model.Link{
			{Href: l.SearchHref(), Rel: "self", Type: "application/geo+json", Title: "Search"},
			{Href: l.Root(), Rel: "root", Type: "application/json", Title: "Root Catalog"},
		},
	})
}

// sortByString accepts either the query-string form ("field:dir,...") or
// the structured form ([{"field": ..., "direction": ...}]).
func sortByString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var structured []struct {
		Field     string `json:"field"`
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return ""
	}
	parts := make([]string, 0, len(structured))
	for _, sk := range structured {
		if sk.Field == "" {
			continue
		}
		dir := sk.Direction
		if dir == "" {
			dir = "asc"
		}
		parts = append(parts, sk.Field+":"+dir)
	}
	return strings.Join(parts, ",")
}
