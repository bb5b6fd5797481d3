package app_test

import (
	"encoding/json"
	"testing"

	"resort_concierge/internal/app"
	"resort_concierge/internal/domain"
)

func TestBuildFilters_AllowListAndTypes(t *testing.T) {
	args := map[string]any{
		"resort_city":         "  Orlando ",
		"resort_id":           json.Number("42"),
		"min_guests":          "4",
		"min_nights":          2.5,
		"unit_type_name":      "",
		"listing_id":          1.5, // not integral: dropped
		"password":            "x", // not a filter
		"check_in":            "2026-11-01",
		"price_sort":          "cheapest",
		"cancellation_policy": 7,
	}
	got := app.BuildFilters(args)

	want := map[domain.Field]domain.Predicate{
		domain.FieldCancellationPolicy: {Field: domain.FieldCancellationPolicy, Op: domain.OpEq, Value: "7"},
		domain.FieldSleeps:             {Field: domain.FieldSleeps, Op: domain.OpGTE, Value: int64(4)},
		domain.FieldNights:             {Field: domain.FieldNights, Op: domain.OpGTE, Value: int64(3)},
		domain.FieldResortCity:         {Field: domain.FieldResortCity, Op: domain.OpContains, Value: "Orlando"},
		domain.FieldResortID:           {Field: domain.FieldResortID, Op: domain.OpEq, Value: int64(42)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d predicates: %+v", len(got), got)
	}
	for _, p := range got {
		w, ok := want[p.Field]
		if !ok || w != p {
			t.Fatalf("unexpected predicate %+v", p)
		}
	}
}

func TestBuildFilters_DeterministicOrder(t *testing.T) {
	args := map[string]any{"resort_state": "FL", "resort_city": "Orlando", "resort_country": "US"}
	first := app.BuildFilters(args)
	for i := 0; i < 20; i++ {
		again := app.BuildFilters(args)
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("order changed on run %d", i)
			}
		}
	}
	if first[0].Field != domain.FieldResortCity {
		t.Fatalf("expected key order, got %+v", first)
	}
}

func TestBuildFilters_BadFloorDropped(t *testing.T) {
	got := app.BuildFilters(map[string]any{"min_guests": "a few"})
	if len(got) != 0 {
		t.Fatalf("non-numeric floor should be dropped, got %+v", got)
	}
}

func TestParseSearchRequest(t *testing.T) {
	req := app.ParseSearchRequest(map[string]any{
		"resort_name": "Bonnet Creek",
		"month":       "Dec",
		"year":        float64(2026),
		"day":         "3",
		"price_sort":  " Cheapest",
		"limit":       json.Number("10"),
	})
	if len(req.Filters) != 1 || req.Filters[0].Field != domain.FieldResortName {
		t.Fatalf("filters: %+v", req.Filters)
	}
	if req.Dates.Month != "Dec" || deref(req.Dates.Year) != 2026 || deref(req.Dates.Day) != 3 {
		t.Fatalf("dates: %+v", req.Dates)
	}
	if req.PriceSort != "cheapest" || req.Limit != 10 {
		t.Fatalf("sort/limit: %q %d", req.PriceSort, req.Limit)
	}
}
