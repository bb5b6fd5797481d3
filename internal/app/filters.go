package app

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"resort_concierge/internal/domain"
)

// SearchRequest is the typed form of the loosely-typed tool arguments.
type SearchRequest struct {
	Filters   []domain.Predicate // static filters, used by the probe and the final query
	Dates     DateParams
	PriceSort string
	Limit     int
}

// predicateBuilder turns one argument value into a predicate. ok=false means
// the value is unusable and the filter is dropped.
type predicateBuilder func(v any) (domain.Predicate, bool)

// listingFilters is the complete set of column filters a caller may use.
var listingFilters = map[string]predicateBuilder{
	"listing_id":           idFilter(domain.FieldListingID),
	"resort_id":            idFilter(domain.FieldResortID),
	"unit_type_id":         idFilter(domain.FieldUnitTypeID),
	"resort_name":          textFilter(domain.FieldResortName),
	"resort_slug":          textFilter(domain.FieldResortSlug),
	"resort_city":          textFilter(domain.FieldResortCity),
	"resort_state":         textFilter(domain.FieldResortState),
	"resort_country":       textFilter(domain.FieldResortCountry),
	"resort_location_type": textFilter(domain.FieldResortLocationType),
	"unit_type_name":       textFilter(domain.FieldUnitTypeName),
	"cancellation_policy":  textFilter(domain.FieldCancellationPolicy),
	"min_guests":           floorFilter(domain.FieldSleeps),
	"min_nights":           floorFilter(domain.FieldNights),
}

// reservedKeys are consumed by date resolution, sorting or paging and never
// become column filters.
var reservedKeys = map[string]struct{}{
	"listing_check_in": {}, "listing_check_out": {},
	"check_in": {}, "check_out": {},
	"month": {}, "year": {}, "day": {},
	"price_sort": {}, "limit": {},
}

// ParseSearchRequest splits tool arguments into static filters, date
// fragments and sort/limit directives. Unknown keys are ignored.
func ParseSearchRequest(args map[string]any) SearchRequest {
	req := SearchRequest{
		Filters: BuildFilters(args),
		Dates: DateParams{
			ListingCheckIn:  ArgString(args["listing_check_in"]),
			ListingCheckOut: ArgString(args["listing_check_out"]),
			CheckIn:         ArgString(args["check_in"]),
			CheckOut:        ArgString(args["check_out"]),
			Month:           ArgString(args["month"]),
			Year:            argIntPtr(args["year"]),
			Day:             argIntPtr(args["day"]),
		},
		PriceSort: strings.ToLower(ArgString(args["price_sort"])),
	}
	if n, ok := AsInt(args["limit"]); ok && n > 0 {
		req.Limit = int(n)
	}
	return req
}

// BuildFilters returns the AND-combined static predicates for args, in key
// order so the result is deterministic.
func BuildFilters(args map[string]any) []domain.Predicate {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []domain.Predicate
	for _, k := range keys {
		if _, ok := reservedKeys[k]; ok {
			continue
		}
		build, ok := listingFilters[k]
		if !ok {
			log.Debug().Str("key", k).Msg("ignoring unknown search filter")
			continue
		}
		v := args[k]
		if v == nil {
			continue
		}
		if p, ok := build(v); ok {
			out = append(out, p)
		}
	}
	return out
}

func idFilter(f domain.Field) predicateBuilder {
	return func(v any) (domain.Predicate, bool) {
		n, ok := AsInt(v)
		if !ok {
			return domain.Predicate{}, false
		}
		return domain.Predicate{Field: f, Op: domain.OpEq, Value: n}, true
	}
}

// textFilter matches strings by substring and anything else by equality on
// its textual form.
func textFilter(f domain.Field) predicateBuilder {
	return func(v any) (domain.Predicate, bool) {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				return domain.Predicate{}, false
			}
			return domain.Predicate{Field: f, Op: domain.OpContains, Value: s}, true
		}
		s := ArgString(v)
		if s == "" {
			return domain.Predicate{}, false
		}
		return domain.Predicate{Field: f, Op: domain.OpEq, Value: s}, true
	}
}

// floorFilter is a numeric lower bound. Non-numeric input is dropped
// silently rather than reported.
func floorFilter(f domain.Field) predicateBuilder {
	return func(v any) (domain.Predicate, bool) {
		n, ok := asNumber(v)
		if !ok {
			return domain.Predicate{}, false
		}
		return domain.Predicate{Field: f, Op: domain.OpGTE, Value: int64(math.Ceil(n))}, true
	}
}

/********** argument coercion **********/

func asNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsInt accepts only integral numbers.
func AsInt(v any) (int64, bool) {
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func argIntPtr(v any) *int {
	n, ok := AsInt(v)
	if !ok {
		return nil
	}
	x := int(n)
	return &x
}

func ArgString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
