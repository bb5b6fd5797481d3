package domain

import "context"

// ListingStore opens one read session per search. The session is released on
// every exit path before ReadSession returns.
type ListingStore interface {
	ReadSession(ctx context.Context, fn func(r ListingReader) error) error
}

type ListingReader interface {
	// AnyListing is the cheap existence probe: at most one row is fetched.
	AnyListing(ctx context.Context, where []Predicate) (bool, error)
	FindListings(ctx context.Context, q ListingQuery) ([]ListingRow, error)
	// CountListingsByResort returns searchable listing counts grouped by resort.
	CountListingsByResort(ctx context.Context, where []Predicate) (map[int64]int, error)
}

type CatalogRepository interface {
	// Write paths
	UpsertPOIs(ctx context.Context, pois []PointOfInterest) error
	CreateBooking(ctx context.Context, b Booking) (Booking, error)

	// Read paths
	GetResort(ctx context.Context, id int64) (Resort, error)
	FindResortByName(ctx context.Context, name string) (Resort, error)
	ListResorts(ctx context.Context, q ResortsQuery) ([]Resort, error)
	ResortsByAmenity(ctx context.Context, amenity string, limit int) ([]Resort, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListUserBookings(ctx context.Context, userID int64, limit int) ([]Booking, error)
	ListPOIs(ctx context.Context, q POIQuery) ([]PointOfInterest, error)
	IsListingBookable(ctx context.Context, listingID int64) (bool, error)
}

type PlatformClient interface {
	GetPointsOfInterest(ctx context.Context, city string) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read queries

type ResortsQuery struct {
	City, State, Country *string
	LocationType         *string
	Limit                int
}

type POIQuery struct {
	City     string
	State    *string
	Category *string
	Limit    int
}
