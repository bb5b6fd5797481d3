package domain

import "time"

type Resort struct {
	ID            int64
	Name          string
	Slug          *string
	City          *string
	State         *string
	Country       *string
	LocationTypes []string // stored comma-joined
	Description   *string
	Amenities     []string
	ListingCount  int // active, not deleted
}

type UnitType struct {
	ID       int64
	ResortID int64
	Name     string
	Sleeps   *int // magnitude of the stored value; nil when not numeric
}

// ListingRow is a listing joined with its resort and unit type, as the
// search reads it.
type ListingRow struct {
	ID                 int64
	ResortID           int64
	ResortName         string
	ResortSlug         *string
	ResortCity         *string
	ResortState        *string
	ResortCountry      *string
	LocationTypes      *string // comma-joined, as stored
	UnitTypeID         int64
	UnitTypeName       *string
	Sleeps             *int
	Price              *string // decimal-as-text, exactly as stored
	CheckIn            *time.Time
	CheckOut           *time.Time
	CancellationPolicy *string
	CancellationDate   *string // YYYY-MM-DD; may be the 0000-00-00 sentinel
	Status             string
	Deleted            bool
}

type User struct {
	ID          int64
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	MemberSince *time.Time
}

type Booking struct {
	ID         int64
	Reference  string
	UserID     int64
	ListingID  int64
	Guests     int
	Status     string
	CreatedAt  time.Time
	ResortName *string
	UnitType   *string
	CheckIn    *time.Time
	CheckOut   *time.Time
}

type PointOfInterest struct {
	ID          int64
	ExternalID  string
	City        string
	State       *string
	Country     *string
	Name        string
	Category    *string
	Description *string
	Address     *string
	Rating      *float64
	RawJSON     []byte // full platform payload
}
