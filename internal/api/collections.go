package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/store"
)

type collectionsResponse struct {
	Collections []model.Collection `json:"collections"`
	Links       []model.Link       `json:"links"`
}

func (h *handler) getCollections(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.Collections().GetAll(r.Context())
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "list collections", "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not list collections")
		return
	}

	l := h.links()
	out := make([]model.Collection, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ToCollection(l))
	}
	writeJSON(w, http.StatusOK, collectionsResponse{
		Collections: out,
		Links: []model.Link{
			{Href: l.CollectionsHref(), Rel: "self", Type: "application/json", Title: "Collections"},
			{Href: l.Root(), Rel: "root", Type: "application/json", Title: "Root Catalog"},
		},
	})
}

func (h *handler) getCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	rec, err := h.Store.Collections().GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Collection not found: "+id)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "get collection", "collection", id, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not load collection")
		return
	}
	writeJSON(w, http.StatusOK, rec.ToCollection(h.links()))
}

func (h *handler) createCollection(w http.ResponseWriter, r *http.Request) {
	var in model.Collection
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if violations := validateCollection(in); len(violations) > 0 {
		writeViolations(w, violations)
		return
	}

	ctx := r.Context()
	_, err := h.Store.Collections().GetByID(ctx, in.ID)
	if err == nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Collection already exists: "+in.ID)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.Logger.ErrorContext(ctx, "check collection existence", "collection", in.ID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not create collection")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rec := collectionRecord(in, now, now)
	if err := h.Store.Collections().Create(ctx, rec); err != nil {
		h.Logger.ErrorContext(ctx, "create collection", "collection", in.ID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not create collection")
		return
	}
	h.Engine.Invalidate()
	writeJSON(w, http.StatusCreated, rec.ToCollection(h.links()))
}

func (h *handler) updateCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")

	var in model.Collection
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if in.ID != "" && in.ID != id {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"collection id in body does not match path: "+in.ID+" != "+id)
		return
	}
	in.ID = id
	if violations := validateCollection(in); len(violations) > 0 {
		writeViolations(w, violations)
		return
	}

	ctx := r.Context()
	existing, err := h.Store.Collections().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Collection not found: "+id)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(ctx, "get collection", "collection", id, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not update collection")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rec := collectionRecord(in, existing.CreatedAt, now)
	if err := h.Store.Collections().Update(ctx, rec); err != nil {
		h.Logger.ErrorContext(ctx, "update collection", "collection", id, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not update collection")
		return
	}
	h.Engine.Invalidate()
	writeJSON(w, http.StatusOK, rec.ToCollection(h.links()))
}

// deleteCollection acknowledges as soon as the record cascade commits;
// asset removal happens asynchronously with its own retry budget.
func (h *handler) deleteCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionID")
	ctx := r.Context()

	if _, err := h.Store.Collections().GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Collection not found: "+id)
			return
		}
		h.Logger.ErrorContext(ctx, "get collection", "collection", id, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not delete collection")
		return
	}
	if err := h.Store.Collections().Delete(ctx, id); err != nil {
		h.Logger.ErrorContext(ctx, "delete collection", "collection", id, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not delete collection")
		return
	}

	h.Cleanup.ScheduleCollectionCleanup(id)
	h.Engine.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func validateCollection(in model.Collection) []string {
	var violations []string
	if in.ID == "" {
		violations = append(violations, "missing required field: id")
	}
	if in.Description == "" {
		violations = append(violations, "missing required field: description")
	}
	if in.License == "" {
		violations = append(violations, "missing required field: license")
	}
	return violations
}

func collectionRecord(in model.Collection, createdAt, updatedAt string) store.CollectionRecord {
	extent := in.Extent
	if len(extent.Spatial.BBox) == 0 && len(extent.Temporal.Interval) == 0 {
		extent = model.WorldExtent()
	}
	stacVersion := in.StacVersion
	if stacVersion == "" {
		stacVersion = model.StacVersion
	}
	return store.CollectionRecord{
		ID:             in.ID,
		Type:           "Collection",
		StacVersion:    stacVersion,
		StacExtensions: in.StacExtensions,
		Title:          in.Title,
		Description:    in.Description,
		Keywords:       in.Keywords,
		License:        in.License,
		Providers:      in.Providers,
		Extent:         extent,
		Summaries:      in.Summaries,
		Assets:         in.Assets,
		ConformsTo:     in.ConformsTo,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}
