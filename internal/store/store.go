// Package store defines the record store abstraction the rest of the
// server runs against: typed catalog records and small fallible
// interfaces for each record kind.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/geopod-io/geopod/internal/model"
)

// ErrNotFound is returned by keyed lookups for unknown ids.
var ErrNotFound = errors.New("record not found")

// CollectionRecord is the persisted form of a collection.
type CollectionRecord struct {
	ID             string                     `json:"id"`
	Type           string                     `json:"type"`
	StacVersion    string                     `json:"stac_version"`
	StacExtensions []string                   `json:"stac_extensions,omitempty"`
	Title          string                     `json:"title,omitempty"`
	Description    string                     `json:"description"`
	Keywords       []string                   `json:"keywords,omitempty"`
	License        string                     `json:"license"`
	Providers      []model.Provider           `json:"providers,omitempty"`
	Extent         model.Extent               `json:"extent"`
	Summaries      map[string]json.RawMessage `json:"summaries,omitempty"`
	Assets         map[string]model.Asset     `json:"assets,omitempty"`
	ConformsTo     []string                   `json:"conforms_to,omitempty"`
	CreatedAt      string                     `json:"created_at"`
	UpdatedAt      string                     `json:"updated_at"`
}

// ItemRecord is the persisted form of an item.
type ItemRecord struct {
	ID             string                 `json:"id"`
	CollectionID   string                 `json:"collection_id"`
	Type           string                 `json:"type"`
	StacVersion    string                 `json:"stac_version"`
	StacExtensions []string               `json:"stac_extensions,omitempty"`
	Geometry       *model.Geometry        `json:"geometry"`
	BBox           []float64              `json:"bbox,omitempty"`
	Properties     model.Properties       `json:"properties"`
	Assets         map[string]model.Asset `json:"assets,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// Collections is keyed by globally unique collection id.
type Collections interface {
	GetAll(ctx context.Context) ([]CollectionRecord, error)
	GetByID(ctx context.Context, id string) (CollectionRecord, error)
	Create(ctx context.Context, rec CollectionRecord) error
	Update(ctx context.Context, rec CollectionRecord) error
	// Delete removes the collection and cascades to its items.
	Delete(ctx context.Context, id string) error
}

// Items is keyed by (collection id, item id).
type Items interface {
	// GetByCollection returns items ordered by id. A negative limit means
	// no limit.
	GetByCollection(ctx context.Context, collectionID string, limit, offset int) ([]ItemRecord, error)
	GetByID(ctx context.Context, collectionID, id string) (ItemRecord, error)
	Create(ctx context.Context, rec ItemRecord) error
	Update(ctx context.Context, rec ItemRecord) error
	Delete(ctx context.Context, collectionID, id string) error
}

// Settings is durable key/value storage for application settings, used by
// the listener controller to persist reconfigured addresses.
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store bundles the three record interfaces behind one backend.
type Store interface {
	Collections() Collections
	Items() Items
	Settings() Settings
}

// Setting keys used by the listener controller.
const (
	SettingInternalAddress = "server_internal_address"
	SettingExternalAddress = "server_external_address"
	SettingPort            = "server_port"
)
