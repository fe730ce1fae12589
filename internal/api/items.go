package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/store"
)

const (
	defaultItemsLimit  = 10
	defaultItemsOffset = 0
)

type featureCollection struct {
	Type           string       `json:"type"`
	Features       []model.Item `json:"features"`
	NumberReturned int          `json:"numberReturned"`
	Links          []model.Link `json:"links,omitempty"`
}

func (h *handler) getItems(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	ctx := r.Context()

	if _, err := h.Store.Collections().GetByID(ctx, collectionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Collection not found: "+collectionID)
			return
		}
		h.Logger.ErrorContext(ctx, "get collection", "collection", collectionID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not list items")
		return
	}

	limit := queryInt(r, "limit", defaultItemsLimit)
	offset := queryInt(r, "offset", defaultItemsOffset)
	recs, err := h.Store.Items().GetByCollection(ctx, collectionID, limit, offset)
	if err != nil {
		h.Logger.ErrorContext(ctx, "list items", "collection", collectionID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not list items")
		return
	}

	l := h.links()
	features := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		features = append(features, rec.ToItem(l))
	}
	writeGeoJSON(w, http.StatusOK, featureCollection{
		Type:           "FeatureCollection",
		Features:       features,
		NumberReturned: len(features),
		Links: []model.Link{
			{Href: l.ItemsHref(collectionID), Rel: "self", Type: "application/geo+json", Title: "Items in this Collection"},
			{Href: l.CollectionHref(collectionID), Rel: "collection", Type: "application/json", Title: "Collection"},
			{Href: l.Root(), Rel: "root", Type: "application/json", Title: "Root Catalog"},
		},
	})
}

func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	itemID := chi.URLParam(r, "itemID")

	rec, err := h.Store.Items().GetByID(r.Context(), collectionID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Item not found: "+itemID)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "get item", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not load item")
		return
	}
	writeGeoJSON(w, http.StatusOK, rec.ToItem(h.links()))
}

func (h *handler) createItem(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	ctx := r.Context()

	var in model.Item
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if in.Collection != "" && in.Collection != collectionID {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"collection id in body does not match path: "+in.Collection+" != "+collectionID)
		return
	}
	if violations := h.validateItem(&in); len(violations) > 0 {
		writeViolations(w, violations)
		return
	}

	if _, err := h.Store.Collections().GetByID(ctx, collectionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Collection not found: "+collectionID)
			return
		}
		h.Logger.ErrorContext(ctx, "get collection", "collection", collectionID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not create item")
		return
	}

	_, err := h.Store.Items().GetByID(ctx, collectionID, in.ID)
	if err == nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Item already exists: "+in.ID)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.Logger.ErrorContext(ctx, "check item existence", "collection", collectionID, "item", in.ID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not create item")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rec := itemRecord(in, collectionID, now, now)
	if err := h.Store.Items().Create(ctx, rec); err != nil {
		h.Logger.ErrorContext(ctx, "create item", "collection", collectionID, "item", in.ID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not create item")
		return
	}
	h.Engine.Invalidate()
	writeGeoJSON(w, http.StatusCreated, rec.ToItem(h.links()))
}

func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	itemID := chi.URLParam(r, "itemID")
	ctx := r.Context()

	var in model.Item
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if in.ID != "" && in.ID != itemID {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"item id in body does not match path: "+in.ID+" != "+itemID)
		return
	}
	in.ID = itemID
	if violations := h.validateItem(&in); len(violations) > 0 {
		writeViolations(w, violations)
		return
	}

	existing, err := h.Store.Items().GetByID(ctx, collectionID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Item not found: "+itemID)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(ctx, "get item", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not update item")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rec := itemRecord(in, collectionID, existing.CreatedAt, now)
	if err := h.Store.Items().Update(ctx, rec); err != nil {
		h.Logger.ErrorContext(ctx, "update item", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not update item")
		return
	}
	h.Engine.Invalidate()
	writeGeoJSON(w, http.StatusOK, rec.ToItem(h.links()))
}

// deleteItem acknowledges as soon as the record is gone; the asset tree
// is removed asynchronously.
func (h *handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	itemID := chi.URLParam(r, "itemID")
	ctx := r.Context()

	if _, err := h.Store.Items().GetByID(ctx, collectionID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Item not found: "+itemID)
			return
		}
		h.Logger.ErrorContext(ctx, "get item", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not delete item")
		return
	}
	if err := h.Store.Items().Delete(ctx, collectionID, itemID); err != nil {
		h.Logger.ErrorContext(ctx, "delete item", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not delete item")
		return
	}

	h.Cleanup.ScheduleItemCleanup(collectionID, itemID)
	h.Engine.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// validateItem collects every violation. The bbox is always derived from
// the geometry, replacing whatever the client sent; a client-supplied box
// only survives when derivation is impossible and it is well formed.
func (h *handler) validateItem(in *model.Item) []string {
	var violations []string
	if in.ID == "" {
		violations = append(violations, "missing required field: id")
	}
	if in.Geometry == nil {
		violations = append(violations, "missing required field: geometry")
	}
	if in.Assets == nil {
		violations = append(violations, "missing required field: assets")
	}
	if !in.Properties.Valid() {
		violations = append(violations,
			"properties must include datetime or both start_datetime and end_datetime")
	}
	if in.Geometry != nil {
		if bbox, ok := model.DeriveBBox(in.Geometry); ok {
			in.BBox = bbox
		}
		if !in.HasValidBBox() {
			violations = append(violations, "bbox could not be derived from geometry")
		}
	}
	return violations
}

func itemRecord(in model.Item, collectionID, createdAt, updatedAt string) store.ItemRecord {
	stacVersion := in.StacVersion
	if stacVersion == "" {
		stacVersion = model.StacVersion
	}
	return store.ItemRecord{
		ID:             in.ID,
		CollectionID:   collectionID,
		Type:           "Feature",
		StacVersion:    stacVersion,
		StacExtensions: in.StacExtensions,
		Geometry:       in.Geometry,
		BBox:           in.BBox,
		Properties:     in.Properties,
		Assets:         in.Assets,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
