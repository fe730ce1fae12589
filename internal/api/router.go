// Package api is the request layer: routing, validation and the JSON
// error taxonomy. Handlers translate HTTP to store, search and cleanup
// calls; they hold no catalog state of their own.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geopod-io/geopod/internal/assetgc"
	"github.com/geopod-io/geopod/internal/config"
	"github.com/geopod-io/geopod/internal/search"
	"github.com/geopod-io/geopod/internal/store"
)

// Deps are the collaborators handlers run against. BaseURL is consulted
// per request so links follow reconfiguration without a handler rebuild.
type Deps struct {
	Logger  *slog.Logger
	Store   store.Store
	Engine  *search.Engine
	Cleanup *assetgc.Manager
	Catalog config.CatalogConfig
	APIPath string
	BaseURL func() string
}

type handler struct {
	Deps
}

func (h *handler) links() store.Links {
	return store.Links{BaseURL: h.BaseURL()}
}

// NewRouter builds the public API router. Every route lives under the
// version path.
func NewRouter(d Deps) http.Handler {
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(Recover(d.Logger))
	r.Use(Logging(d.Logger))
	r.Use(CORS())
	r.Use(Metrics())

	r.Route(d.APIPath, func(r chi.Router) {
		r.Get("/", h.getLandingPage)
		r.Get("/health", h.getHealth)
		r.Get("/conformance", h.getConformance)
		r.Get("/sortables", h.getSortables)

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", h.getCollections)
			r.Post("/", h.createCollection)
			r.Get("/sortables", h.getSortables)

			r.Route("/{collectionID}", func(r chi.Router) {
				r.Get("/", h.getCollection)
				r.Put("/", h.updateCollection)
				r.Delete("/", h.deleteCollection)
				r.Get("/sortables", h.getSortables)

				r.Route("/items", func(r chi.Router) {
					r.Get("/", h.getItems)
					r.Post("/", h.createItem)
					r.Get("/{itemID}", h.getItem)
					r.Put("/{itemID}", h.updateItem)
					r.Delete("/{itemID}", h.deleteItem)
					r.Get("/{itemID}/{assetKey}", h.getAsset)
				})
			})
		})

		r.Get("/search", h.searchGet)
		r.Post("/search", h.searchPost)

		r.Post("/upload/{collectionID}/{itemID}/{assetKey}", h.uploadAsset)
	})

	return r
}
