package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"resort_concierge/internal/domain"
)

// Store keeps the catalog and listings in memory. It evaluates the same
// predicates as the MySQL adapter and backs tests and local runs.
type Store struct {
	mu sync.RWMutex

	resorts   map[int64]domain.Resort
	listings  []domain.ListingRow
	users     map[int64]domain.User
	bookings  []domain.Booking
	pois      map[string]domain.PointOfInterest // city|external_id
	nextID    int64
	today     func() time.Time
	openReads int
	probes    int
}

func New() *Store {
	return &Store{
		resorts: make(map[int64]domain.Resort),
		users:   make(map[int64]domain.User),
		pois:    make(map[string]domain.PointOfInterest),
		nextID:  1,
		today:   time.Now,
	}
}

// WithToday pins the date used by IsListingBookable.
func (s *Store) WithToday(f func() time.Time) *Store {
	s.today = f
	return s
}

func (s *Store) AddResort(r domain.Resort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resorts[r.ID] = r
}

func (s *Store) AddListing(l domain.ListingRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.Status == "" {
		l.Status = "active"
	}
	s.listings = append(s.listings, l)
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// OpenReads reports read sessions that were opened and not yet released.
func (s *Store) OpenReads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openReads
}

// Probes reports how many existence probes have run.
func (s *Store) Probes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.probes
}

/********** ListingStore **********/

func (s *Store) ReadSession(ctx context.Context, fn func(domain.ListingReader) error) error {
	s.mu.Lock()
	s.openReads++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.openReads--
		s.mu.Unlock()
	}()
	return fn(s)
}

func (s *Store) AnyListing(ctx context.Context, where []domain.Predicate) (bool, error) {
	s.mu.Lock()
	s.probes++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listings {
		ok, err := matchAll(l, where)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) FindListings(ctx context.Context, q domain.ListingQuery) ([]domain.ListingRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ListingRow
	for _, l := range s.listings {
		ok, err := matchAll(l, q.Where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, iok := priceOf(out[i])
		pj, jok := priceOf(out[j])
		if iok != jok {
			return iok
		}
		if pi != pj {
			if q.Order == domain.PriceDesc {
				return pi > pj
			}
			return pi < pj
		}
		ci, cj := timeOf(out[i].CheckIn), timeOf(out[j].CheckIn)
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) CountListingsByResort(ctx context.Context, where []domain.Predicate) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[int64]int{}
	for _, l := range s.listings {
		ok, err := matchAll(l, where)
		if err != nil {
			return nil, err
		}
		if ok {
			out[l.ResortID]++
		}
	}
	return out, nil
}

/********** predicate evaluation **********/

func searchable(l domain.ListingRow) bool {
	return strings.EqualFold(l.Status, "active") && !l.Deleted
}

func matchAll(l domain.ListingRow, where []domain.Predicate) (bool, error) {
	if !searchable(l) {
		return false, nil
	}
	for _, p := range where {
		ok, err := match(l, p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(l domain.ListingRow, p domain.Predicate) (bool, error) {
	v, present, err := fieldValue(l, p.Field)
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil // NULL never matches
	}

	switch want := p.Value.(type) {
	case string:
		got := strings.ToLower(fmt.Sprint(v))
		w := strings.ToLower(want)
		switch p.Op {
		case domain.OpEq:
			return got == w, nil
		case domain.OpContains:
			return strings.Contains(got, w), nil
		}
	case time.Time:
		got, ok := v.(time.Time)
		if !ok {
			return false, fmt.Errorf("memory: field %q is not a date", p.Field)
		}
		w := domain.DateOnly(want)
		switch p.Op {
		case domain.OpEq:
			return got.Equal(w), nil
		case domain.OpGTE:
			return !got.Before(w), nil
		case domain.OpLTE:
			return !got.After(w), nil
		}
	case int64, float64, int:
		got, ok := toFloat(v)
		if !ok {
			return false, nil
		}
		w, _ := toFloat(want)
		switch p.Op {
		case domain.OpEq:
			return got == w, nil
		case domain.OpGTE:
			return got >= w, nil
		case domain.OpLTE:
			return got <= w, nil
		case domain.OpContains:
			return strings.Contains(fmt.Sprint(v), fmt.Sprint(want)), nil
		}
	}
	return false, fmt.Errorf("memory: unsupported %s on %q with %T", p.Op, p.Field, p.Value)
}

// fieldValue returns the comparable value of f, and false for NULLs.
func fieldValue(l domain.ListingRow, f domain.Field) (any, bool, error) {
	str := func(p *string) (any, bool, error) {
		if p == nil {
			return nil, false, nil
		}
		return *p, true, nil
	}
	day := func(t *time.Time) (any, bool, error) {
		if t == nil {
			return nil, false, nil
		}
		return domain.DateOnly(*t), true, nil
	}

	switch f {
	case domain.FieldListingID:
		return l.ID, true, nil
	case domain.FieldResortID:
		return l.ResortID, true, nil
	case domain.FieldUnitTypeID:
		return l.UnitTypeID, true, nil
	case domain.FieldResortName:
		return l.ResortName, true, nil
	case domain.FieldResortSlug:
		return str(l.ResortSlug)
	case domain.FieldResortCity:
		return str(l.ResortCity)
	case domain.FieldResortState:
		return str(l.ResortState)
	case domain.FieldResortCountry:
		return str(l.ResortCountry)
	case domain.FieldResortLocationType:
		return str(l.LocationTypes)
	case domain.FieldUnitTypeName:
		return str(l.UnitTypeName)
	case domain.FieldCancellationPolicy:
		return str(l.CancellationPolicy)
	case domain.FieldSleeps:
		if l.Sleeps == nil {
			return nil, false, nil
		}
		n := *l.Sleeps
		if n < 0 {
			n = -n
		}
		return int64(n), true, nil
	case domain.FieldNights:
		if l.CheckIn == nil || l.CheckOut == nil {
			return nil, false, nil
		}
		d := domain.DateOnly(*l.CheckOut).Sub(domain.DateOnly(*l.CheckIn))
		return int64(d.Hours() / 24), true, nil
	case domain.FieldPrice:
		if l.Price == nil {
			return nil, false, nil
		}
		p, ok := domain.PriceMagnitude(*l.Price)
		if !ok {
			return nil, false, nil
		}
		return p, true, nil
	case domain.FieldCheckInDate:
		return day(l.CheckIn)
	case domain.FieldCheckOutDate:
		return day(l.CheckOut)
	case domain.FieldCheckInYear, domain.FieldCheckInMonth, domain.FieldCheckInDay:
		if l.CheckIn == nil {
			return nil, false, nil
		}
		y, m, d := l.CheckIn.Date()
		switch f {
		case domain.FieldCheckInYear:
			return int64(y), true, nil
		case domain.FieldCheckInMonth:
			return int64(m), true, nil
		}
		return int64(d), true, nil
	}
	return nil, false, fmt.Errorf("memory: unsupported field %q", f)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// priceOf reports ok=false for unpriced listings, which sort last.
func priceOf(l domain.ListingRow) (float64, bool) {
	v, ok, _ := fieldValue(l, domain.FieldPrice)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

var (
	_ domain.ListingStore  = (*Store)(nil)
	_ domain.ListingReader = (*Store)(nil)
)
