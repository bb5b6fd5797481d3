package tools

import (
	"context"

	"resort_concierge/internal/adapters/observability"
	"resort_concierge/internal/app"
)

type SearchListings struct{ svc *app.SearchService }

func NewSearchListings(svc *app.SearchService) SearchListings { return SearchListings{svc: svc} }

func (SearchListings) Name() string { return "search_listings" }

func (SearchListings) Description() string {
	return "Find bookable future resort listings. Combine any resort, unit or policy filters with " +
		"optional dates (exact check_in/check_out, or month/year/day fragments). Without dates the next " +
		"90 days are searched. If nothing matches, the closest available window is returned and the " +
		"'fallback' field says so. price_sort picks a price tier."
}

func (SearchListings) Parameters() map[string]any {
	return object(map[string]any{
		"listing_id":           integer("Exact listing id."),
		"resort_id":            integer("Exact resort id."),
		"unit_type_id":         integer("Exact unit type id."),
		"resort_name":          str("Part of the resort name."),
		"resort_slug":          str("Part of the resort slug."),
		"resort_city":          str("City, partial match."),
		"resort_state":         str("State or region, partial match."),
		"resort_country":       str("Country, partial match."),
		"resort_location_type": str("Location type such as beach, mountain or golf."),
		"unit_type_name":       str("Unit type, e.g. 'two bedroom'."),
		"cancellation_policy":  str("Policy code: flexible, relaxed, moderate, firm or strict."),
		"min_guests":           integer("Minimum number of people the unit must sleep."),
		"min_nights":           integer("Minimum stay length in nights."),
		"listing_check_in":     str("Check-in date (YYYY-MM-DD) of a listing the user saw; moved to the next future year if past."),
		"listing_check_out":    str("Check-out date (YYYY-MM-DD) paired with listing_check_in."),
		"check_in":             str("Earliest check-in date, YYYY-MM-DD."),
		"check_out":            str("Latest check-out date, YYYY-MM-DD."),
		"month":                str("Month name, abbreviation or number."),
		"year":                 integer("Four-digit year."),
		"day":                  integer("Day of month."),
		"price_sort":           enum("Price tier or order.", "asc", "desc", "cheapest", "average", "highest"),
		"limit":                integer("Maximum results; defaults depend on price_sort."),
	})
}

func (t SearchListings) Call(ctx context.Context, args map[string]any) (any, error) {
	resp := t.svc.SearchListings(ctx, args)
	if resp.Error == "" {
		path := resp.Fallback
		if path == "" {
			path = "resolved"
		}
		observability.ObserveFallback(path)
	}
	return resp, nil
}
