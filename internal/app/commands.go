package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resort_concierge/internal/domain"
)

// CatalogSync copies points of interest from the booking platform into the
// local read store.
type CatalogSync struct {
	platform domain.PlatformClient
	repo     domain.CatalogRepository
	cache    domain.Cache
}

func NewCatalogSync(p domain.PlatformClient, r domain.CatalogRepository, cache domain.Cache) *CatalogSync {
	return &CatalogSync{platform: p, repo: r, cache: cache}
}

// SyncCity fetches, maps and upserts the POIs of one city and evicts its
// cache entry. A city the platform does not know is not an error. It returns
// the number of POIs written.
func (s *CatalogSync) SyncCity(ctx context.Context, city string) (int, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return 0, errors.New("city is required")
	}

	raw, err := s.platform.GetPointsOfInterest(ctx, city)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.invalidateCity(ctx, city)
			return 0, nil
		}
		return 0, fmt.Errorf("fetch pois for %s: %w", city, err)
	}

	pois := mapPOIs(city, raw)
	if len(pois) > 0 {
		if err := s.repo.UpsertPOIs(ctx, pois); err != nil {
			return 0, fmt.Errorf("upsert pois for %s: %w", city, err)
		}
	}
	// even if nothing came back, drop any stale list
	s.invalidateCity(ctx, city)
	return len(pois), nil
}

func (s *CatalogSync) invalidateCity(ctx context.Context, city string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, poiKey(city))
	}
}

// BookingService is the one write path of the assistant: a single insert,
// no holds and no payment.
type BookingService struct {
	repo domain.CatalogRepository
	now  func() time.Time
}

func NewBookingService(r domain.CatalogRepository, now func() time.Time) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{repo: r, now: now}
}

func (s *BookingService) CreateBooking(ctx context.Context, userID, listingID int64, guests int) (BookingView, error) {
	if userID <= 0 || listingID <= 0 {
		return BookingView{}, errors.New("user_id and listing_id are required")
	}
	if guests <= 0 {
		guests = 1
	}
	ok, err := s.repo.IsListingBookable(ctx, listingID)
	if err != nil {
		return BookingView{}, err
	}
	if !ok {
		return BookingView{}, fmt.Errorf("listing %d: %w", listingID, domain.ErrNotBookable)
	}
	b, err := s.repo.CreateBooking(ctx, domain.Booking{
		Reference: uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		Guests:    guests,
		Status:    "pending",
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return BookingView{}, fmt.Errorf("create booking: %w", err)
	}
	return bookingView(b), nil
}
