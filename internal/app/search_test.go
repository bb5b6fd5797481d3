package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"resort_concierge/internal/app"
	"resort_concierge/internal/domain"
	"resort_concierge/internal/storage/memory"
)

func fixedNow(s string) func() time.Time {
	return func() time.Time { return day(s).Add(10 * time.Hour) }
}

func listing(id, resortID int64, resort, price, ci, co string) domain.ListingRow {
	in, out := day(ci), day(co)
	return domain.ListingRow{
		ID:                 id,
		ResortID:           resortID,
		ResortName:         resort,
		ResortCity:         ptr("Orlando"),
		UnitTypeID:         id * 10,
		UnitTypeName:       ptr("Two Bedroom"),
		Sleeps:             ptr(6),
		Price:              ptr(price),
		CheckIn:            &in,
		CheckOut:           &out,
		CancellationPolicy: ptr("moderate"),
		CancellationDate:   ptr("0000-00-00"),
		Status:             "active",
	}
}

func newSearch(store domain.ListingStore, today string) *app.SearchService {
	asm := app.NewAssembler(app.DefaultPolicies(), base)
	return app.NewSearchService(store, app.DefaultPriceTiers(), asm, fixedNow(today))
}

func TestSearchListings_BonnetCreekDecember(t *testing.T) {
	st := memory.New()
	// 100 December listings plus noise outside the month
	for i := int64(1); i <= 100; i++ {
		d := fmt.Sprintf("2025-12-%02d", (i%28)+1)
		st.AddListing(listing(i, 7, "Club Wyndham Bonnet Creek", fmt.Sprintf("%d.00", 900-i), d, d))
	}
	st.AddListing(listing(500, 7, "Club Wyndham Bonnet Creek", "10.00", "2025-11-30", "2025-12-03"))
	st.AddListing(listing(501, 8, "Other Resort", "5.00", "2025-12-05", "2025-12-09"))

	resp := newSearch(st, "2025-01-15").SearchListings(context.Background(), map[string]any{
		"resort_name": "Bonnet Creek",
		"month":       "Dec",
		"price_sort":  "asc",
	})
	if resp.Error != "" {
		t.Fatalf("error: %s", resp.Error)
	}
	if len(resp.Results) != 80 {
		t.Fatalf("expected 80 results, got %d", len(resp.Results))
	}
	prev := -1.0
	for _, r := range resp.Results {
		if r.ResortName != "Club Wyndham Bonnet Creek" || r.ID == 500 {
			t.Fatalf("row outside filter: %+v", r)
		}
		var p float64
		fmt.Sscanf(r.Price, "from $%f per night", &p)
		if p < prev {
			t.Fatalf("not ascending: %v after %v", p, prev)
		}
		prev = p
	}
	if resp.DateWindow == nil || resp.DateWindow.From != "2025-12-01" || resp.DateWindow.To != "2025-12-31" {
		t.Fatalf("window: %+v", resp.DateWindow)
	}
	if resp.Fallback != "" {
		t.Fatalf("no fallback expected, got %q", resp.Fallback)
	}
	// the static filters alone match the November listing too
	if resp.TotalListingsForResort != 101 {
		t.Fatalf("total = %d; want 101", resp.TotalListingsForResort)
	}
	if st.OpenReads() != 0 {
		t.Fatalf("read session leaked")
	}
}

func TestSearchListings_PriceTiersRespectBounds(t *testing.T) {
	st := memory.New()
	prices := []string{"100", "-333", "334", "500", "666.5", "667", "-1200", "abc"}
	for i, p := range prices {
		st.AddListing(listing(int64(i+1), 1, "Ocean Breeze", p, "2026-11-01", "2026-11-05"))
	}
	svc := newSearch(st, "2026-10-18")

	check := func(sort string, ok func(float64) bool) {
		t.Helper()
		resp := svc.SearchListings(context.Background(), map[string]any{"price_sort": sort})
		if len(resp.Results) == 0 {
			t.Fatalf("%s: no results", sort)
		}
		for _, r := range resp.Results {
			var p float64
			if _, err := fmt.Sscanf(r.Price, "from $%f per night", &p); err != nil {
				t.Fatalf("%s: unpriced row %+v", sort, r)
			}
			if !ok(p) {
				t.Fatalf("%s: price %v out of tier", sort, p)
			}
		}
	}
	check("cheapest", func(p float64) bool { return p <= 333 })
	check("average", func(p float64) bool { return p >= 334 && p <= 666 })
	check("highest", func(p float64) bool { return p >= 667 })
}

func TestSearchListings_WidensWhenNextQuarterIsEmpty(t *testing.T) {
	st := memory.New()
	st.AddListing(listing(1, 1, "Ocean Breeze", "300", "2027-05-01", "2027-05-08")) // ~195 days out
	st.AddListing(listing(2, 1, "Ocean Breeze", "300", "2027-12-01", "2027-12-08")) // beyond 280 days

	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{})
	if resp.Fallback != "widened" {
		t.Fatalf("fallback = %q; want widened", resp.Fallback)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 1 {
		t.Fatalf("results: %+v", resp.Results)
	}
	if st.Probes() != 1 {
		t.Fatalf("expected one probe, got %d", st.Probes())
	}
}

func TestSearchListings_WidenedMayStillBeEmpty(t *testing.T) {
	st := memory.New()
	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{"resort_city": "Atlantis"})
	if resp.Error != "" || resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("expected empty results without error: %+v", resp)
	}
	if resp.Fallback != "widened" || st.Probes() != 1 {
		t.Fatalf("fallback=%q probes=%d", resp.Fallback, st.Probes())
	}
}

func TestSearchListings_NarrowsExplicitDates(t *testing.T) {
	st := memory.New()
	st.AddListing(listing(1, 1, "Ocean Breeze", "300", "2026-11-01", "2026-11-08"))

	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{"month": "July"})
	if resp.Fallback != "narrowed" || len(resp.Results) != 1 {
		t.Fatalf("expected narrowed result, got %+v", resp)
	}
	if resp.DateWindow.From != "2026-10-18" || resp.DateWindow.To != "2027-01-16" {
		t.Fatalf("window: %+v", resp.DateWindow)
	}
}

func TestSearchListings_ListingPairIsShifted(t *testing.T) {
	st := memory.New()
	st.AddListing(listing(1, 1, "Ocean Breeze", "300", "2025-06-01", "2025-06-05"))
	st.AddListing(listing(2, 1, "Ocean Breeze", "300", "2025-06-02", "2025-06-04"))

	resp := newSearch(st, "2025-03-01").SearchListings(context.Background(), map[string]any{
		"listing_check_in":  "2024-06-01",
		"listing_check_out": "2024-06-05",
	})
	if resp.Fallback != "" || len(resp.Results) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.DateWindow.From != "2025-06-01" || resp.DateWindow.To != "2025-06-05" {
		t.Fatalf("window: %+v", resp.DateWindow)
	}
}

func TestSearchListings_BadDate(t *testing.T) {
	st := memory.New()
	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{"month": "Smarch"})
	if resp.Error != app.DateUserMessage || resp.Results == nil || len(resp.Results) != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if st.Probes() != 0 {
		t.Fatalf("no query should run for a bad date")
	}
}

func TestSearchListings_SkipsStartedListings(t *testing.T) {
	st := memory.New().WithToday(fixedNow("2025-12-20"))
	st.AddListing(listing(1, 1, "Ocean Breeze", "300", "2025-12-05", "2025-12-09"))
	st.AddListing(listing(2, 1, "Ocean Breeze", "300", "2025-12-27", "2025-12-30"))
	svc := newSearch(st, "2025-12-20")

	resp := svc.SearchListings(context.Background(), map[string]any{"month": "Dec"})
	if resp.Fallback != "" || len(resp.Results) != 1 || resp.Results[0].ID != 2 {
		t.Fatalf("current month: %+v", resp)
	}
	if resp.DateWindow.From != "2025-12-20" || resp.DateWindow.To != "2025-12-31" {
		t.Fatalf("window: %+v", resp.DateWindow)
	}
	for _, r := range resp.Results {
		ok, err := st.IsListingBookable(context.Background(), r.ID)
		if err != nil || !ok {
			t.Fatalf("listing %d offered but not bookable", r.ID)
		}
	}
}

func TestSearchListings_PastDatesFallBackToUpcoming(t *testing.T) {
	st := memory.New()
	st.AddListing(listing(1, 1, "Ocean Breeze", "300", "2024-03-05", "2024-03-09"))
	st.AddListing(listing(2, 1, "Ocean Breeze", "300", "2026-01-10", "2026-01-14"))
	svc := newSearch(st, "2025-12-20")

	for _, args := range []map[string]any{
		{"year": 2024},
		{"check_in": "2024-03-01", "check_out": "2024-03-31"},
	} {
		resp := svc.SearchListings(context.Background(), args)
		if resp.Fallback != "narrowed" || len(resp.Results) != 1 || resp.Results[0].ID != 2 {
			t.Fatalf("%v: %+v", args, resp)
		}
	}
}

func TestSearchListings_FormattedPricesFilterAndSortLikeTheyDisplay(t *testing.T) {
	st := memory.New()
	st.AddListing(listing(1, 1, "Ocean Breeze", "$1,200.00", "2026-11-01", "2026-11-05"))
	st.AddListing(listing(2, 1, "Ocean Breeze", "700.00", "2026-11-02", "2026-11-06"))
	st.AddListing(listing(3, 1, "Ocean Breeze", "50.00", "2026-11-03", "2026-11-07"))
	st.AddListing(listing(4, 1, "Ocean Breeze", "call us", "2026-11-04", "2026-11-08"))
	svc := newSearch(st, "2026-10-18")

	resp := svc.SearchListings(context.Background(), map[string]any{"price_sort": "highest"})
	if len(resp.Results) != 2 || resp.Results[0].ID != 1 || resp.Results[1].ID != 2 {
		t.Fatalf("highest: %+v", resp.Results)
	}
	if resp.Results[0].Price != "from $1200.00 per night" {
		t.Fatalf("price: %q", resp.Results[0].Price)
	}

	resp = svc.SearchListings(context.Background(), map[string]any{"price_sort": "asc"})
	var ids []int64
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[3 2 1 4]" {
		t.Fatalf("asc order = %v; want unpriced last", ids)
	}
	if resp.Results[3].Price != "Price not available" {
		t.Fatalf("unpriced display: %q", resp.Results[3].Price)
	}
}

func TestSearchListings_UnitTypeFilterDrivesFallback(t *testing.T) {
	st := memory.New()
	soon := listing(1, 1, "Ocean Breeze", "300", "2026-11-01", "2026-11-05") // Two Bedroom, in the next quarter
	later := listing(2, 1, "Ocean Breeze", "300", "2027-05-01", "2027-05-05")
	later.UnitTypeName = ptr("Studio")
	st.AddListing(soon)
	st.AddListing(later)

	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{"unit_type_name": "studio"})
	if resp.Fallback != "widened" {
		t.Fatalf("fallback = %q; want widened", resp.Fallback)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 2 {
		t.Fatalf("results: %+v", resp.Results)
	}
}

func TestSearchListings_MinGuestsUsesSleepsMagnitude(t *testing.T) {
	st := memory.New()
	big := listing(1, 1, "Ocean Breeze", "300", "2026-11-01", "2026-11-05")
	big.Sleeps = ptr(-8)
	small := listing(2, 1, "Ocean Breeze", "300", "2026-11-02", "2026-11-06")
	small.Sleeps = ptr(2)
	st.AddListing(big)
	st.AddListing(small)

	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{"min_guests": 6})
	if len(resp.Results) != 1 || resp.Results[0].ID != 1 {
		t.Fatalf("results: %+v", resp.Results)
	}
	if resp.Results[0].Sleeps == nil || *resp.Results[0].Sleeps != 8 {
		t.Fatalf("sleeps: %+v", resp.Results[0].Sleeps)
	}
}

func TestSearchListings_ExcludesDeletedAndPending(t *testing.T) {
	st := memory.New()
	deleted := listing(1, 1, "Ocean Breeze", "100", "2026-11-01", "2026-11-05")
	deleted.Deleted = true
	pending := listing(2, 1, "Ocean Breeze", "100", "2026-11-01", "2026-11-05")
	pending.Status = "pending"
	st.AddListing(deleted)
	st.AddListing(pending)
	st.AddListing(listing(3, 1, "Ocean Breeze", "500", "2026-11-02", "2026-11-06"))

	resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), map[string]any{"price_sort": "asc"})
	if resp.Fallback != "" || len(resp.Results) != 1 || resp.Results[0].ID != 3 {
		t.Fatalf("results: %+v", resp)
	}
	if resp.TotalListingsForResort != 1 {
		t.Fatalf("total = %d; want 1", resp.TotalListingsForResort)
	}
}

// ---- failing store ----

type brokenStore struct {
	released bool
	failAt   string
}

func (s *brokenStore) ReadSession(ctx context.Context, fn func(domain.ListingReader) error) error {
	defer func() { s.released = true }()
	return fn(s)
}

func (s *brokenStore) AnyListing(ctx context.Context, where []domain.Predicate) (bool, error) {
	if s.failAt == "probe" {
		return false, errors.New("connection reset")
	}
	return true, nil
}

func (s *brokenStore) FindListings(ctx context.Context, q domain.ListingQuery) ([]domain.ListingRow, error) {
	if s.failAt == "find" {
		return nil, errors.New("lock wait timeout")
	}
	return []domain.ListingRow{listing(1, 1, "Ocean Breeze", "10", "2026-11-01", "2026-11-02")}, nil
}

func (s *brokenStore) CountListingsByResort(ctx context.Context, where []domain.Predicate) (map[int64]int, error) {
	return nil, errors.New("count failed")
}

func TestSearchListings_StoreErrorsAreInBand(t *testing.T) {
	for _, at := range []string{"probe", "find", "count"} {
		st := &brokenStore{failAt: at}
		resp := newSearch(st, "2026-10-18").SearchListings(context.Background(), nil)
		if resp.Error == "" || resp.Results == nil || len(resp.Results) != 0 {
			t.Fatalf("%s: expected in-band error, got %+v", at, resp)
		}
		if !st.released {
			t.Fatalf("%s: session not released", at)
		}
	}
}
