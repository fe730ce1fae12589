package model

import "encoding/json"

// Collection is a named grouping of items sharing schema, licensing and
// extent metadata. A collection owns its items; deleting it cascades at
// the store level.
type Collection struct {
	Type           string                     `json:"type"`
	StacVersion    string                     `json:"stac_version"`
	StacExtensions []string                   `json:"stac_extensions,omitempty"`
	ID             string                     `json:"id"`
	Title          string                     `json:"title,omitempty"`
	Description    string                     `json:"description"`
	Keywords       []string                   `json:"keywords,omitempty"`
	License        string                     `json:"license"`
	Providers      []Provider                 `json:"providers,omitempty"`
	Extent         Extent                     `json:"extent"`
	Summaries      map[string]json.RawMessage `json:"summaries,omitempty"`
	Assets         map[string]Asset           `json:"assets,omitempty"`
	Links          []Link                     `json:"links"`
	ConformsTo     []string                   `json:"conformsTo,omitempty"`
}

type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent lists bounding boxes; the first is the canonical overall
// extent.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent lists intervals as [start, end] pairs; a null marks an
// open end.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// WorldExtent is the default extent for collections created without one:
// the whole globe, open-ended in time.
func WorldExtent() Extent {
	return Extent{
		Spatial:  SpatialExtent{BBox: [][]float64{{-180, -90, 180, 90}}},
		Temporal: TemporalExtent{Interval: [][]*string{{nil, nil}}},
	}
}
