package search

import (
	"testing"

	"github.com/geopod-io/geopod/internal/model"
)

func item(id string, bbox []float64, datetime string) model.Item {
	it := model.Item{Type: "Feature", ID: id, BBox: bbox}
	if datetime != "" {
		it.Properties.Datetime = &datetime
	}
	return it
}

func ids(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func sameIDs(got []model.Item, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestFilterByBBox_Intersection(t *testing.T) {
	in := []model.Item{
		item("a", []float64{-10, -10, 10, 10}, ""),
		item("b", []float64{20, 20, 30, 30}, ""),
	}
	got := filterByBBox(in, "-5,-5,5,5")
	if !sameIDs(got, "a") {
		t.Fatalf("got %v want [a]", ids(got))
	}
}

func TestFilterByBBox_EdgeTouchCounts(t *testing.T) {
	in := []model.Item{item("a", []float64{5, 5, 10, 10}, "")}
	got := filterByBBox(in, "0,0,5,5")
	if !sameIDs(got, "a") {
		t.Fatalf("touching boxes must intersect, got %v", ids(got))
	}
}

func TestFilterByBBox_MalformedPassesAllThrough(t *testing.T) {
	in := []model.Item{
		item("a", []float64{0, 0, 1, 1}, ""),
		item("b", nil, ""),
	}
	for _, bad := range []string{"not,numbers,at,all", "1,2,3", "1,2,3,4,5", ""} {
		got := filterByBBox(in, bad)
		if len(got) != 2 {
			t.Fatalf("bbox=%q: got %v want all items", bad, ids(got))
		}
	}
}

func TestFilterByBBox_DropsItemsWithoutBBox(t *testing.T) {
	in := []model.Item{
		item("a", []float64{0, 0, 1, 1}, ""),
		item("b", nil, ""),
	}
	got := filterByBBox(in, "0,0,10,10")
	if !sameIDs(got, "a") {
		t.Fatalf("got %v want [a]", ids(got))
	}
}

func TestFilterByDatetime_OpenEndedInterval(t *testing.T) {
	in := []model.Item{
		item("old", nil, "2021-05-01T00:00:00Z"),
		item("mid", nil, "2022-06-01T00:00:00Z"),
		item("new", nil, "2023-12-01T00:00:00Z"),
	}
	got := filterByDatetime(in, "2022-01-01T00:00:00Z/..")
	if !sameIDs(got, "mid", "new") {
		t.Fatalf("got %v want [mid new]", ids(got))
	}

	got = filterByDatetime(in, "../2022-01-01T00:00:00Z")
	if !sameIDs(got, "old") {
		t.Fatalf("got %v want [old]", ids(got))
	}
}

func TestFilterByDatetime_SingleInstant(t *testing.T) {
	in := []model.Item{
		item("hit", nil, "2022-06-01T00:00:00Z"),
		item("miss", nil, "2022-06-02T00:00:00Z"),
	}
	got := filterByDatetime(in, "2022-06-01T00:00:00Z")
	if !sameIDs(got, "hit") {
		t.Fatalf("got %v want [hit]", ids(got))
	}
}

func TestFilterByDatetime_UnparsableBoundIsOpen(t *testing.T) {
	in := []model.Item{
		item("a", nil, "2021-05-01T00:00:00Z"),
		item("b", nil, "2023-12-01T00:00:00Z"),
	}
	// garbage start, valid end: only the end bound applies
	got := filterByDatetime(in, "garbage/2022-01-01T00:00:00Z")
	if !sameIDs(got, "a") {
		t.Fatalf("got %v want [a]", ids(got))
	}
}

func TestFilterByDatetime_MissingItemTimestamp(t *testing.T) {
	in := []model.Item{
		item("dated", nil, "2022-06-01T00:00:00Z"),
		item("undated", nil, ""),
	}
	// bounded interval: undated items never match
	got := filterByDatetime(in, "2022-01-01T00:00:00Z/2023-01-01T00:00:00Z")
	if !sameIDs(got, "dated") {
		t.Fatalf("got %v want [dated]", ids(got))
	}
	// both bounds open: undated items match
	got = filterByDatetime(in, "../..")
	if !sameIDs(got, "dated", "undated") {
		t.Fatalf("got %v want [dated undated]", ids(got))
	}
}

func TestFilterByDatetime_UnparsableItemTimestampExcluded(t *testing.T) {
	in := []model.Item{item("bad", nil, "not-a-date")}
	got := filterByDatetime(in, "../..")
	if len(got) != 0 {
		t.Fatalf("got %v want none", ids(got))
	}
}

func TestParseSortBy(t *testing.T) {
	keys, ok := parseSortBy("datetime:desc, id")
	if !ok {
		t.Fatal("expected ok")
	}
	if len(keys) != 2 || keys[0] != (SortKey{Field: "datetime", Desc: true}) || keys[1] != (SortKey{Field: "id"}) {
		t.Fatalf("keys=%+v", keys)
	}

	if _, ok := parseSortBy(" , ,"); ok {
		t.Fatal("all-empty spec must report not ok")
	}
}

func TestSortItems_FirstKeyDominates(t *testing.T) {
	in := []model.Item{
		item("b", nil, "2022-01-01T00:00:00Z"),
		item("a", nil, "2023-01-01T00:00:00Z"),
		item("c", nil, "2022-01-01T00:00:00Z"),
	}
	keys, _ := parseSortBy("datetime:desc,id:asc")
	sortItems(in, keys)
	if !sameIDs(in, "a", "b", "c") {
		t.Fatalf("got %v want [a b c]", ids(in))
	}
}

func TestSortItems_UnknownFieldIsStableNoOp(t *testing.T) {
	in := []model.Item{
		item("z", nil, ""),
		item("a", nil, ""),
		item("m", nil, ""),
	}
	keys, _ := parseSortBy("nonsense:desc")
	sortItems(in, keys)
	if !sameIDs(in, "z", "a", "m") {
		t.Fatalf("unknown field must not reorder, got %v", ids(in))
	}
}

func TestSortItems_IDAscending(t *testing.T) {
	in := []model.Item{
		item("c", nil, ""),
		item("a", nil, ""),
		item("b", nil, ""),
	}
	keys, _ := parseSortBy("id")
	sortItems(in, keys)
	if !sameIDs(in, "a", "b", "c") {
		t.Fatalf("got %v", ids(in))
	}
}
