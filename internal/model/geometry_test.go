package model

import (
	"encoding/json"
	"testing"
)

func geom(t *testing.T, typ, coords string) *Geometry {
	t.Helper()
	return &Geometry{Type: typ, Coordinates: json.RawMessage(coords)}
}

func bboxEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDeriveBBox(t *testing.T) {
	cases := []struct {
		name string
		g    *Geometry
		want []float64
		ok   bool
	}{
		{
			name: "point",
			g:    geom(t, GeometryPoint, `[10.0, 20.0]`),
			want: []float64{10, 20, 10, 20},
			ok:   true,
		},
		{
			name: "linestring",
			g:    geom(t, GeometryLineString, `[[0,0],[5,-3],[2,7]]`),
			want: []float64{0, -3, 5, 7},
			ok:   true,
		},
		{
			name: "polygon",
			g:    geom(t, GeometryPolygon, `[[[0,0],[4,0],[4,4],[0,4],[0,0]]]`),
			want: []float64{0, 0, 4, 4},
			ok:   true,
		},
		{
			name: "multipoint",
			g:    geom(t, GeometryMultiPoint, `[[-1,-1],[3,2]]`),
			want: []float64{-1, -1, 3, 2},
			ok:   true,
		},
		{
			name: "multilinestring",
			g:    geom(t, GeometryMultiLineString, `[[[0,0],[1,1]],[[5,5],[6,2]]]`),
			want: []float64{0, 0, 6, 5},
			ok:   true,
		},
		{
			name: "multipolygon",
			g:    geom(t, GeometryMultiPolygon, `[[[[0,0],[2,0],[2,2],[0,2],[0,0]]],[[[10,10],[12,10],[12,12],[10,12],[10,10]]]]`),
			want: []float64{0, 0, 12, 12},
			ok:   true,
		},
		{
			name: "unknown type",
			g:    geom(t, "Circle", `[0,0]`),
			ok:   false,
		},
		{
			name: "garbage coordinates",
			g:    geom(t, GeometryPoint, `"not coordinates"`),
			ok:   false,
		},
		{
			name: "nil geometry",
			g:    nil,
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DeriveBBox(tc.g)
			if ok != tc.ok {
				t.Fatalf("ok=%v want %v", ok, tc.ok)
			}
			if ok && !bboxEqual(got, tc.want) {
				t.Fatalf("bbox=%v want %v", got, tc.want)
			}
		})
	}
}

func TestDeriveBBox_GeometryCollection(t *testing.T) {
	g := &Geometry{
		Type: GeometryCollection,
		Geometries: []Geometry{
			*geom(t, GeometryPoint, `[0,0]`),
			*geom(t, GeometryPoint, `[10,5]`),
		},
	}
	got, ok := DeriveBBox(g)
	if !ok {
		t.Fatal("expected ok")
	}
	if !bboxEqual(got, []float64{0, 0, 10, 5}) {
		t.Fatalf("bbox=%v", got)
	}
}
