package app_test

import (
	"net/url"
	"testing"

	"resort_concierge/internal/app"
	"resort_concierge/internal/domain"
)

const base = "https://book.test/resorts/"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Disney's Saratoga Springs & Spa":   "disneys-saratoga-springs-and-spa",
		"Marriott’s Grande Vista":           "marriotts-grande-vista",
		"Club Wyndham Bonnet Creek":         "club-wyndham-bonnet-creek",
		"Hilton Vacation Club: The Cove!":   "hilton-vacation-club-the-cove",
		"Sea Pines (Hilton Head)/Beach Ctr": "sea-pines-hilton-head-beach-ctr",
		"  R&R   Retreat  ":                 "r-and-r-retreat",
	}
	for in, want := range cases {
		if got := app.Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q; want %q", in, got, want)
		}
	}
	if got := app.ResortSlug(ptr(" stored-slug "), "Ignored Name"); got != "stored-slug" {
		t.Fatalf("stored slug should win, got %q", got)
	}
	if got := app.ResortSlug(ptr(""), "Pine Lodge"); got != "pine-lodge" {
		t.Fatalf("blank stored slug should derive, got %q", got)
	}
}

func TestBookingURL_RoundTrip(t *testing.T) {
	a := app.NewAssembler(app.DefaultPolicies(), base)
	ci, co := day("2026-12-20"), day("2026-12-27")

	u1 := a.BookingURL("ocean-breeze", 100, &ci, &co)
	u2 := a.BookingURL("ocean-breeze", 100, &ci, &co)
	if u1 == nil || u2 == nil || *u1 != *u2 {
		t.Fatalf("booking URL not stable: %v %v", u1, u2)
	}
	want := base + "ocean-breeze?check_in=2026-12-20&check_out=2026-12-27&listing_id=100"
	if *u1 != want {
		t.Fatalf("got %s; want %s", *u1, want)
	}
	parsed, err := url.Parse(*u1)
	if err != nil || parsed.Query().Get("listing_id") != "100" {
		t.Fatalf("URL does not parse back: %v", err)
	}

	for name, got := range map[string]*string{
		"no slug":      a.BookingURL("", 100, &ci, &co),
		"no id":        a.BookingURL("ocean-breeze", 0, &ci, &co),
		"no check-in":  a.BookingURL("ocean-breeze", 100, nil, &co),
		"no check-out": a.BookingURL("ocean-breeze", 100, &ci, nil),
	} {
		if got != nil {
			t.Fatalf("%s: expected nil URL, got %s", name, *got)
		}
	}
}

func TestAssembler_Result(t *testing.T) {
	a := app.NewAssembler(app.DefaultPolicies(), base)
	ci, co := day("2026-12-20"), day("2026-12-27")

	r := a.Result(domain.ListingRow{
		ID:                 100,
		ResortID:           1,
		ResortName:         "Ocean Breeze",
		UnitTypeName:       ptr("Two Bedroom Villa"),
		Sleeps:             ptr(6),
		Price:              ptr("-450"),
		CheckIn:            &ci,
		CheckOut:           &co,
		CancellationPolicy: ptr("FIRM"),
		CancellationDate:   ptr("2026-11-20"),
	})
	if r.Price != "from $450.00 per night" {
		t.Fatalf("price: %q", r.Price)
	}
	if deref(r.CheckIn) != "2026-12-20" || deref(r.CheckOut) != "2026-12-27" {
		t.Fatalf("dates: %v %v", r.CheckIn, r.CheckOut)
	}
	if r.ListingCancelationDate != "2026-11-20" {
		t.Fatalf("deadline: %q", r.ListingCancelationDate)
	}
	wantInfo := r.CancellationPolicyDescription + " Cancel by November 20, 2026 for a refund."
	if r.CancellationInfo != wantInfo {
		t.Fatalf("info: %q", r.CancellationInfo)
	}
	if r.ResortURL != base+"ocean-breeze?check_in=&check_out=" {
		t.Fatalf("resort url: %q", r.ResortURL)
	}
	if r.URL == nil {
		t.Fatalf("booking url missing")
	}
}

func TestAssembler_Sentinels(t *testing.T) {
	a := app.NewAssembler(app.DefaultPolicies(), base)

	r := a.Result(domain.ListingRow{
		ID:                 7,
		ResortName:         "Pine Lodge",
		CancellationPolicy: ptr("whenever"),
		CancellationDate:   ptr("0000-00-00"),
	})
	if r.Price != "Price not available" {
		t.Fatalf("price: %q", r.Price)
	}
	if r.CancellationPolicyDescription != "Policy not specified" || r.CancellationInfo != "Policy not specified" {
		t.Fatalf("policy: %q / %q", r.CancellationPolicyDescription, r.CancellationInfo)
	}
	if r.ListingCancelationDate != "Date not specified" {
		t.Fatalf("deadline: %q", r.ListingCancelationDate)
	}
	if r.URL != nil || r.CheckIn != nil {
		t.Fatalf("missing dates must give nil url and dates: %+v", r)
	}
	if r.ResortURL != base+"pine-lodge?check_in=&check_out=" {
		t.Fatalf("resort url derived from name: %q", r.ResortURL)
	}
}

func TestPolicyTable_IsCopied(t *testing.T) {
	src := map[string]string{"flexible": "Any time."}
	p := app.NewPolicyTable(src)
	src["flexible"] = "changed"
	if got := p.Describe(ptr("Flexible")); got != "Any time." {
		t.Fatalf("table must not alias its input, got %q", got)
	}
	if got := p.Describe(nil); got != "Policy not specified" {
		t.Fatalf("nil code: %q", got)
	}
}
