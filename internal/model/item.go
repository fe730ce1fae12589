// Package model defines the public catalog entity shapes: items
// (entries), collections (groupings) and their nested objects.
package model

import "encoding/json"

const StacVersion = "1.0.0"

// Item is a single spatiotemporal record, serialized as a GeoJSON Feature.
type Item struct {
	Type           string           `json:"type"`
	StacVersion    string           `json:"stac_version"`
	StacExtensions []string         `json:"stac_extensions,omitempty"`
	ID             string           `json:"id"`
	Geometry       *Geometry        `json:"geometry"`
	BBox           []float64        `json:"bbox,omitempty"`
	Properties     Properties       `json:"properties"`
	Links          []Link           `json:"links"`
	Assets         map[string]Asset `json:"assets"`
	Collection     string           `json:"collection,omitempty"`
}

// HasValidBBox reports whether the bbox invariant holds: a bounding box
// must be present whenever geometry is present.
func (it *Item) HasValidBBox() bool {
	if it.Geometry == nil {
		return true
	}
	return len(it.BBox) >= 4
}

// Link is a generated hyperlink; links are derived per response and never
// persisted.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Asset is a file attached to an item under a string key.
type Asset struct {
	Href        string   `json:"href"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// Properties is the item property bag. Datetime is the searchable
// timestamp; when it is null both StartDatetime and EndDatetime must be
// set. Any other keys round-trip through Extra.
type Properties struct {
	Datetime      *string
	StartDatetime *string
	EndDatetime   *string
	Extra         map[string]json.RawMessage
}

// Valid reports whether the temporal invariant holds.
func (p Properties) Valid() bool {
	if p.Datetime != nil {
		return true
	}
	return p.StartDatetime != nil && p.EndDatetime != nil
}

func (p Properties) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	// datetime is always emitted, null included
	out["datetime"] = p.Datetime
	if p.StartDatetime != nil {
		out["start_datetime"] = p.StartDatetime
	}
	if p.EndDatetime != nil {
		out["end_datetime"] = p.EndDatetime
	}
	return json.Marshal(out)
}

func (p *Properties) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Properties{}
	if v, ok := raw["datetime"]; ok {
		if err := json.Unmarshal(v, &p.Datetime); err != nil {
			return err
		}
		delete(raw, "datetime")
	}
	if v, ok := raw["start_datetime"]; ok {
		if err := json.Unmarshal(v, &p.StartDatetime); err != nil {
			return err
		}
		delete(raw, "start_datetime")
	}
	if v, ok := raw["end_datetime"]; ok {
		if err := json.Unmarshal(v, &p.EndDatetime); err != nil {
			return err
		}
		delete(raw, "end_datetime")
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	return nil
}
