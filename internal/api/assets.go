package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/store"
)

const maxUploadBytes = 32 << 20

var mediaTypeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".pdf":  "application/pdf",
	".json": "application/json",
	".xml":  "application/xml",
	".txt":  "text/plain",
	".csv":  "text/csv",
}

func mediaTypeForKey(key string) string {
	if t, ok := mediaTypeByExt[strings.ToLower(filepath.Ext(key))]; ok {
		return t
	}
	return "application/octet-stream"
}

// roleForAsset: the "thumbnail" key wins, any other image is an overview,
// everything else is plain data.
func roleForAsset(key, mediaType string) string {
	if key == "thumbnail" {
		return "thumbnail"
	}
	if strings.HasPrefix(mediaType, "image/") {
		return "overview"
	}
	return "data"
}

func validAssetKey(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.ContainsAny(key, `/\`)
}

// uploadAsset stores the multipart "file" part under
// root/{collection}/{item}/{key} and patches the item's asset map.
func (h *handler) uploadAsset(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	itemID := chi.URLParam(r, "itemID")
	assetKey := chi.URLParam(r, "assetKey")
	ctx := r.Context()

	if !validAssetKey(assetKey) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid asset key: "+assetKey)
		return
	}

	rec, err := h.Store.Items().GetByID(ctx, collectionID, itemID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Item not found: "+itemID)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(ctx, "get item", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not upload asset")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, `missing multipart field "file"`)
		return
	}
	defer file.Close()

	dir := filepath.Join(h.Cleanup.Root(), collectionID, itemID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.Logger.ErrorContext(ctx, "create asset directory", "dir", dir, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not store asset")
		return
	}
	dst := filepath.Join(dir, assetKey)
	out, err := os.Create(dst)
	if err != nil {
		h.Logger.ErrorContext(ctx, "create asset file", "path", dst, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not store asset")
		return
	}
	_, copyErr := io.Copy(out, file)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		h.Logger.ErrorContext(ctx, "write asset file", "path", dst, "err", errors.Join(copyErr, closeErr))
		writeError(w, http.StatusInternalServerError, codeInternal, "could not store asset")
		return
	}

	mediaType := mediaTypeForKey(assetKey)
	asset := model.Asset{
		Href:  h.links().AssetHref(collectionID, itemID, assetKey),
		Title: assetKey,
		Type:  mediaType,
		Roles: []string{roleForAsset(assetKey, mediaType)},
	}
	if rec.Assets == nil {
		rec.Assets = map[string]model.Asset{}
	}
	rec.Assets[assetKey] = asset
	rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := h.Store.Items().Update(ctx, rec); err != nil {
		h.Logger.ErrorContext(ctx, "patch item assets", "collection", collectionID, "item", itemID, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "could not update item assets")
		return
	}
	h.Engine.Invalidate()

	writeJSON(w, http.StatusCreated, map[string]any{
		"key":   assetKey,
		"asset": asset,
	})
}

// getAsset streams the stored file; the record store is not consulted, the
// filesystem is the source of truth for asset bytes.
func (h *handler) getAsset(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionID")
	itemID := chi.URLParam(r, "itemID")
	assetKey := chi.URLParam(r, "assetKey")

	if !validAssetKey(assetKey) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid asset key: "+assetKey)
		return
	}

	path := filepath.Join(h.Cleanup.Root(), collectionID, itemID, assetKey)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, codeNotFound, "Asset not found: "+assetKey)
		return
	}
	w.Header().Set("Content-Type", mediaTypeForKey(assetKey))
	http.ServeFile(w, r, path)
}
