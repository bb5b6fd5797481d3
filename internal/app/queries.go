package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resort_concierge/internal/domain"
)

const (
	defaultLookupLimit = 20
	maxLookupLimit     = 100
	// POIs are cached per city as one list and filtered in memory.
	poiCityCap = 200
)

// QueryService serves the single-table lookup tools. Reads go through a
// cache-aside layer; the availability search never does.
type QueryService struct {
	repo      domain.CatalogRepository
	cache     domain.Cache
	cacheTTL  time.Duration
	assembler *Assembler
}

func NewQueryService(r domain.CatalogRepository, c domain.Cache, ttl time.Duration, asm *Assembler) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, assembler: asm}
}

func resortKey(id int64) string { return fmt.Sprintf("resort:%d", id) }
func poiKey(city string) string { return "poi:" + strings.ToLower(strings.TrimSpace(city)) }
func userKey(id int64) string   { return fmt.Sprintf("user:%d", id) }

func clampLimit(n int) int {
	if n <= 0 {
		return defaultLookupLimit
	}
	if n > maxLookupLimit {
		return maxLookupLimit
	}
	return n
}

// GetResortDetails looks a resort up by id, or by name when id is zero.
func (s *QueryService) GetResortDetails(ctx context.Context, id int64, name string) (ResortView, error) {
	if id <= 0 {
		name = strings.TrimSpace(name)
		if name == "" {
			return ResortView{}, errors.New("resort_id or resort_name is required")
		}
		r, err := s.repo.FindResortByName(ctx, name)
		if err != nil {
			return ResortView{}, err
		}
		id = r.ID
	}

	key := resortKey(id)
	var rv ResortView
	if ok, _ := s.cache.Get(ctx, key, &rv); ok {
		return rv, nil
	}
	r, err := s.repo.GetResort(ctx, id)
	if err != nil {
		return ResortView{}, err
	}
	rv = s.assembler.resortView(r)
	_ = s.cache.Set(ctx, key, rv, int(s.cacheTTL.Seconds()))
	return rv, nil
}

func (s *QueryService) ListResorts(ctx context.Context, q domain.ResortsQuery) ([]ResortView, error) {
	q.Limit = clampLimit(q.Limit)
	rs, err := s.repo.ListResorts(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]ResortView, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.assembler.resortView(r))
	}
	return out, nil
}

func (s *QueryService) ResortsByAmenity(ctx context.Context, amenity string, limit int) ([]ResortView, error) {
	amenity = strings.TrimSpace(amenity)
	if amenity == "" {
		return nil, errors.New("amenity is required")
	}
	rs, err := s.repo.ResortsByAmenity(ctx, amenity, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]ResortView, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.assembler.resortView(r))
	}
	return out, nil
}

func (s *QueryService) GetUserProfile(ctx context.Context, id int64) (UserView, error) {
	key := userKey(id)
	var uv UserView
	if ok, _ := s.cache.Get(ctx, key, &uv); ok {
		return uv, nil
	}
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	uv = userView(u)
	_ = s.cache.Set(ctx, key, uv, int(s.cacheTTL.Seconds()))
	return uv, nil
}

// GetUserBookings is never cached; a booking made a moment ago must show up.
func (s *QueryService) GetUserBookings(ctx context.Context, userID int64, limit int) ([]BookingView, error) {
	bs, err := s.repo.ListUserBookings(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]BookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookingView(b))
	}
	return out, nil
}

func (s *QueryService) PointsOfInterest(ctx context.Context, q domain.POIQuery) ([]POIView, error) {
	city := strings.TrimSpace(q.City)
	if city == "" {
		return nil, errors.New("city is required")
	}
	key := poiKey(city)
	var all []POIView
	if ok, _ := s.cache.Get(ctx, key, &all); !ok {
		ps, err := s.repo.ListPOIs(ctx, domain.POIQuery{City: city, Limit: poiCityCap})
		if err != nil {
			return nil, err
		}
		all = make([]POIView, 0, len(ps))
		for _, p := range ps {
			all = append(all, poiView(p))
		}
		_ = s.cache.Set(ctx, key, all, int(s.cacheTTL.Seconds()))
	}

	limit := clampLimit(q.Limit)
	out := make([]POIView, 0, limit)
	for _, p := range all {
		if q.State != nil && !strings.EqualFold(deref(p.State), strings.TrimSpace(*q.State)) {
			continue
		}
		if q.Category != nil && !strings.Contains(strings.ToLower(deref(p.Category)), strings.ToLower(strings.TrimSpace(*q.Category))) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
