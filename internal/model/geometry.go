package model

import "encoding/json"

// Geometry is a GeoJSON geometry object (RFC 7946). Coordinates are kept
// raw and decoded per variant, since their nesting depth depends on Type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

const (
	GeometryPoint           = "Point"
	GeometryLineString      = "LineString"
	GeometryPolygon         = "Polygon"
	GeometryMultiPoint      = "MultiPoint"
	GeometryMultiLineString = "MultiLineString"
	GeometryMultiPolygon    = "MultiPolygon"
	GeometryCollection      = "GeometryCollection"
)

// DeriveBBox computes the 2D bounding box [min_lon, min_lat, max_lon,
// max_lat] covering the geometry. It returns false when the geometry type
// is unknown or its coordinates cannot be decoded.
func DeriveBBox(g *Geometry) ([]float64, bool) {
	if g == nil {
		return nil, false
	}
	switch g.Type {
	case GeometryPoint:
		var c []float64
		if json.Unmarshal(g.Coordinates, &c) != nil || len(c) < 2 {
			return nil, false
		}
		return []float64{c[0], c[1], c[0], c[1]}, true

	case GeometryLineString, GeometryMultiPoint:
		var c [][]float64
		if json.Unmarshal(g.Coordinates, &c) != nil {
			return nil, false
		}
		return bboxOfPositions(c)

	case GeometryPolygon, GeometryMultiLineString:
		var c [][][]float64
		if json.Unmarshal(g.Coordinates, &c) != nil {
			return nil, false
		}
		var flat [][]float64
		for _, ring := range c {
			flat = append(flat, ring...)
		}
		return bboxOfPositions(flat)

	case GeometryMultiPolygon:
		var c [][][][]float64
		if json.Unmarshal(g.Coordinates, &c) != nil {
			return nil, false
		}
		var flat [][]float64
		for _, poly := range c {
			for _, ring := range poly {
				flat = append(flat, ring...)
			}
		}
		return bboxOfPositions(flat)

	case GeometryCollection:
		have := false
		var out []float64
		for i := range g.Geometries {
			bb, ok := DeriveBBox(&g.Geometries[i])
			if !ok {
				continue
			}
			if !have {
				out = append([]float64(nil), bb...)
				have = true
				continue
			}
			out[0] = min(out[0], bb[0])
			out[1] = min(out[1], bb[1])
			out[2] = max(out[2], bb[2])
			out[3] = max(out[3], bb[3])
		}
		return out, have
	}
	return nil, false
}

func bboxOfPositions(positions [][]float64) ([]float64, bool) {
	have := false
	var minLon, minLat, maxLon, maxLat float64
	for _, p := range positions {
		if len(p) < 2 {
			continue
		}
		if !have {
			minLon, maxLon = p[0], p[0]
			minLat, maxLat = p[1], p[1]
			have = true
			continue
		}
		minLon = min(minLon, p[0])
		maxLon = max(maxLon, p[0])
		minLat = min(minLat, p[1])
		maxLat = max(maxLat, p[1])
	}
	if !have {
		return nil, false
	}
	return []float64{minLon, minLat, maxLon, maxLat}, true
}
