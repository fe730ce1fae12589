package search

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/geopod-io/geopod/internal/model"
)

// filterByBBox retains items whose bounding box intersects the query
// rectangle. Malformed bbox strings disable the filter entirely: anything
// that does not yield exactly four numeric tokens passes all items
// through. Items without a bbox are dropped while the filter is active.
func filterByBBox(items []model.Item, bboxStr string) []model.Item {
	var nums []float64
	for _, tok := range strings.Split(bboxStr, ",") {
		if f, err := strconv.ParseFloat(strings.TrimSpace(tok), 64); err == nil {
			nums = append(nums, f)
		}
	}
	if len(nums) != 4 {
		return items
	}
	minLon, minLat, maxLon, maxLat := nums[0], nums[1], nums[2], nums[3]

	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if len(it.BBox) < 4 {
			continue
		}
		if it.BBox[0] <= maxLon && it.BBox[2] >= minLon &&
			it.BBox[1] <= maxLat && it.BBox[3] >= minLat {
			out = append(out, it)
		}
	}
	return out
}

// filterByDatetime applies the interval expression: "start/end" with ".."
// marking an open side, or a single instant meaning start == end. Query
// tokens that fail RFC 3339 parsing leave that bound open. Items whose own
// timestamp is missing match only when both bounds are open; items whose
// timestamp does not parse never match.
func filterByDatetime(items []model.Item, expr string) []model.Item {
	parts := strings.Split(expr, "/")

	var startT, endT *time.Time
	if parts[0] != ".." {
		if t, err := time.Parse(time.RFC3339, parts[0]); err == nil {
			startT = &t
		}
	}
	switch {
	case len(parts) > 1 && parts[1] == "..":
		// open end
	case len(parts) > 1:
		if t, err := time.Parse(time.RFC3339, parts[1]); err == nil {
			endT = &t
		}
	default:
		// single instant: exact match
		endT = startT
	}

	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.Properties.Datetime == nil {
			if startT == nil && endT == nil {
				out = append(out, it)
			}
			continue
		}
		t, err := time.Parse(time.RFC3339, *it.Properties.Datetime)
		if err != nil {
			continue
		}
		if startT != nil && t.Before(*startT) {
			continue
		}
		if endT != nil && t.After(*endT) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// SortKey is one field+direction pair of a sort specification.
type SortKey struct {
	Field string
	Desc  bool
}

// parseSortBy parses "field[:direction],..." tokens, defaulting to
// ascending. It reports false when no valid token remains, which keeps
// the candidate order untouched.
func parseSortBy(s string) ([]SortKey, bool) {
	var keys []SortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field := part
		direction := "asc"
		if i := strings.Index(part, ":"); i >= 0 {
			field = strings.TrimSpace(part[:i])
			direction = strings.TrimSpace(part[i+1:])
		}
		if field == "" {
			continue
		}
		keys = append(keys, SortKey{Field: field, Desc: direction == "desc"})
	}
	return keys, len(keys) > 0
}

// sortItems applies one stable pass per key in reverse list order, so the
// first listed key dominates the final ordering. Supported fields are
// "datetime" (lexicographic on the raw stored representation) and "id";
// any other field compares equal, making its pass a stable no-op.
func sortItems(items []model.Item, keys []SortKey) {
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		sort.SliceStable(items, func(a, b int) bool {
			var less bool
			switch key.Field {
			case "datetime":
				less = rawDatetime(items[a]) < rawDatetime(items[b])
				if key.Desc {
					less = rawDatetime(items[b]) < rawDatetime(items[a])
				}
			case "id":
				less = items[a].ID < items[b].ID
				if key.Desc {
					less = items[b].ID < items[a].ID
				}
			default:
				less = false
			}
			return less
		})
	}
}

func rawDatetime(it model.Item) string {
	if it.Properties.Datetime == nil {
		return ""
	}
	return *it.Properties.Datetime
}
