package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"resort_concierge/internal/domain"
)

/********** alias registry (single source of truth) **********/

var poiAliases = map[string][]string{
	"external_id": {"id", "poi_id", "place_id", "externalId"},
	"name":        {"name", "title", "display_name", "displayName"},
	"category":    {"category", "type", "kind", "categories.0"},
	"description": {"description", "summary", "details", "about"},
	"state":       {"state", "address.state", "region", "address.region"},
	"country":     {"country", "address.country", "country_code", "countryCode"},
	"address": {
		"address", "address.line", "formatted_address", "full_address",
		"location.address", "street_address",
	},
	"rating": {"rating", "score", "rating.value", "average_rating"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps (and numeric indexes
// into slices).
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		switch obj := cur.(type) {
		case map[string]any:
			v, ok := obj[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(obj) {
				return nil
			}
			cur = obj[i]
		default:
			return nil
		}
	}
	return cur
}

// lookupStr returns the string (or integral number) at path, or "".
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

/********** POI mapper **********/

// mapPOIs converts platform payloads for one city. Entries without a name
// are skipped; entries without an id get a stable hash of name and address.
func mapPOIs(city string, in []map[string]any) []domain.PointOfInterest {
	out := make([]domain.PointOfInterest, 0, len(in))
	for _, p := range in {
		name := deref(firstNonEmptyAlias(p, poiAliases, "name"))
		if name == "" {
			continue
		}
		poi := domain.PointOfInterest{
			City:        city,
			Name:        name,
			State:       firstNonEmptyAlias(p, poiAliases, "state"),
			Country:     firstNonEmptyAlias(p, poiAliases, "country"),
			Category:    firstNonEmptyAlias(p, poiAliases, "category"),
			Description: firstNonEmptyAlias(p, poiAliases, "description"),
			Address:     firstNonEmptyAlias(p, poiAliases, "address"),
			Rating:      getFloatFlexible(p, poiAliases["rating"]...),
		}
		if s := firstNonEmptyAlias(p, poiAliases, "external_id"); s != nil {
			poi.ExternalID = *s
		} else {
			sum := sha1.Sum([]byte(strings.ToLower(city + "|" + name + "|" + deref(poi.Address))))
			poi.ExternalID = hex.EncodeToString(sum[:])
		}
		if raw, err := json.Marshal(p); err == nil {
			poi.RawJSON = raw
		} else {
			log.Error().Err(err).Str("context", "mapPOIs").Msg("marshal poi failed")
		}
		out = append(out, poi)
	}
	return out
}

/********** views returned by the lookup tools **********/

type ResortView struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	City          *string  `json:"city"`
	State         *string  `json:"state"`
	Country       *string  `json:"country"`
	LocationTypes []string `json:"location_types"`
	Description   *string  `json:"description,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	ListingCount  int      `json:"active_listings"`
	URL           string   `json:"resort_url"`
}

type UserView struct {
	ID          int64   `json:"id"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	MemberSince *string `json:"member_since,omitempty"`
}

type BookingView struct {
	ID         int64   `json:"id"`
	Reference  string  `json:"reference"`
	ListingID  int64   `json:"listing_id"`
	Guests     int     `json:"guests"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	ResortName *string `json:"resort_name,omitempty"`
	UnitType   *string `json:"unit_type,omitempty"`
	CheckIn    *string `json:"check_in,omitempty"`
	CheckOut   *string `json:"check_out,omitempty"`
}

type POIView struct {
	Name        string   `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description,omitempty"`
	Address     *string  `json:"address,omitempty"`
	City        string   `json:"city"`
	State       *string  `json:"state,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

func (a *Assembler) resortView(r domain.Resort) ResortView {
	return ResortView{
		ID:            r.ID,
		Name:          r.Name,
		City:          r.City,
		State:         r.State,
		Country:       r.Country,
		LocationTypes: r.LocationTypes,
		Description:   r.Description,
		Amenities:     r.Amenities,
		ListingCount:  r.ListingCount,
		URL:           a.ResortURL(ResortSlug(r.Slug, r.Name)),
	}
}

func userView(u domain.User) UserView {
	return UserView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		MemberSince: isoDate(u.MemberSince),
	}
}

func bookingView(b domain.Booking) BookingView {
	return BookingView{
		ID:         b.ID,
		Reference:  b.Reference,
		ListingID:  b.ListingID,
		Guests:     b.Guests,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
		ResortName: b.ResortName,
		UnitType:   b.UnitType,
		CheckIn:    isoDate(b.CheckIn),
		CheckOut:   isoDate(b.CheckOut),
	}
}

func poiView(p domain.PointOfInterest) POIView {
	return POIView{
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		Rating:      p.Rating,
	}
}
