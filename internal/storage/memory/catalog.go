package memory

import (
	"context"
	"sort"
	"strings"

	"resort_concierge/internal/domain"
)

func containsFold(s *string, sub string) bool {
	if s == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*s), strings.ToLower(strings.TrimSpace(sub)))
}

// withCount fills ListingCount from the searchable listings. Caller holds mu.
func (s *Store) withCount(r domain.Resort) domain.Resort {
	n := 0
	for _, l := range s.listings {
		if l.ResortID == r.ID && searchable(l) {
			n++
		}
	}
	r.ListingCount = n
	return r
}

func (s *Store) sortedResorts(keep func(domain.Resort) bool, limit int) []domain.Resort {
	var out []domain.Resort
	for _, r := range s.resorts {
		if keep(r) {
			out = append(out, s.withCount(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ListingCount != out[j].ListingCount {
			return out[i].ListingCount > out[j].ListingCount
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) GetResort(ctx context.Context, id int64) (domain.Resort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resorts[id]
	if !ok {
		return domain.Resort{}, domain.ErrNotFound
	}
	return s.withCount(r), nil
}

func (s *Store) FindResortByName(ctx context.Context, name string) (domain.Resort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name = strings.TrimSpace(name)
	var best *domain.Resort
	for _, r := range s.resorts {
		r := r
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
		if !strings.Contains(strings.ToLower(r.Name), strings.ToLower(name)) {
			continue
		}
		if best == nil || len(r.Name) < len(best.Name) || (len(r.Name) == len(best.Name) && r.ID < best.ID) {
			best = &r
		}
	}
	if best == nil {
		return domain.Resort{}, domain.ErrNotFound
	}
	return *best, nil
}

func (s *Store) ListResorts(ctx context.Context, q domain.ResortsQuery) ([]domain.Resort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := func(r domain.Resort) bool {
		if q.City != nil && !containsFold(r.City, *q.City) {
			return false
		}
		if q.State != nil && !containsFold(r.State, *q.State) {
			return false
		}
		if q.Country != nil && !containsFold(r.Country, *q.Country) {
			return false
		}
		if q.LocationType != nil {
			joined := strings.Join(r.LocationTypes, ",")
			if !containsFold(&joined, *q.LocationType) {
				return false
			}
		}
		return true
	}
	return s.sortedResorts(keep, q.Limit), nil
}

func (s *Store) ResortsByAmenity(ctx context.Context, amenity string, limit int) ([]domain.Resort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := func(r domain.Resort) bool {
		for _, a := range r.Amenities {
			a := a
			if containsFold(&a, amenity) {
				return true
			}
		}
		return false
	}
	return s.sortedResorts(keep, limit), nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUserBookings(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		if b.UserID != userID {
			continue
		}
		for _, l := range s.listings {
			if l.ID == b.ListingID {
				name := l.ResortName
				b.ResortName = &name
				b.UnitType = l.UnitTypeName
				b.CheckIn = l.CheckIn
				b.CheckOut = l.CheckOut
				break
			}
		}
		out = append(out, b)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) IsListingBookable(ctx context.Context, listingID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := domain.DateOnly(s.today())
	for _, l := range s.listings {
		if l.ID != listingID {
			continue
		}
		return searchable(l) && l.CheckIn != nil && !domain.DateOnly(*l.CheckIn).Before(today), nil
	}
	return false, nil
}

func (s *Store) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID
	s.nextID++
	s.bookings = append(s.bookings, b)
	return b, nil
}

func poiKey(city, ext string) string { return strings.ToLower(city) + "|" + ext }

func (s *Store) UpsertPOIs(ctx context.Context, ps []domain.PointOfInterest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		k := poiKey(p.City, p.ExternalID)
		if old, ok := s.pois[k]; ok {
			p.ID = old.ID
		} else {
			p.ID = s.nextID
			s.nextID++
		}
		s.pois[k] = p
	}
	return nil
}

func (s *Store) ListPOIs(ctx context.Context, q domain.POIQuery) ([]domain.PointOfInterest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PointOfInterest
	for _, p := range s.pois {
		if !strings.EqualFold(p.City, strings.TrimSpace(q.City)) {
			continue
		}
		if q.State != nil && (p.State == nil || !strings.EqualFold(*p.State, strings.TrimSpace(*q.State))) {
			continue
		}
		if q.Category != nil && !containsFold(p.Category, *q.Category) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Rating, out[j].Rating
		if (ri == nil) != (rj == nil) {
			return ri != nil
		}
		if ri != nil && *ri != *rj {
			return *ri > *rj
		}
		return out[i].Name < out[j].Name
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

var _ domain.CatalogRepository = (*Store)(nil)
