package domain

import "time"

// Field is a listing attribute a predicate may address. Only the fields
// declared here can be filtered on; storage adapters map each one to a
// concrete expression.
type Field string

const (
	FieldListingID          Field = "listing_id"
	FieldResortID           Field = "resort_id"
	FieldUnitTypeID         Field = "unit_type_id"
	FieldResortName         Field = "resort_name"
	FieldResortSlug         Field = "resort_slug"
	FieldResortCity         Field = "resort_city"
	FieldResortState        Field = "resort_state"
	FieldResortCountry      Field = "resort_country"
	FieldResortLocationType Field = "resort_location_type"
	FieldUnitTypeName       Field = "unit_type_name"
	FieldCancellationPolicy Field = "cancellation_policy"

	FieldSleeps Field = "sleeps" // magnitude of unit_types.sleeps
	FieldNights Field = "nights" // whole days between check-in and check-out
	FieldPrice  Field = "price"  // magnitude of listings.price

	FieldCheckInDate  Field = "check_in_date"
	FieldCheckOutDate Field = "check_out_date"
	FieldCheckInYear  Field = "check_in_year"
	FieldCheckInMonth Field = "check_in_month"
	FieldCheckInDay   Field = "check_in_day"
)

type Op int

const (
	OpEq       Op = iota // equality; strings compare case-insensitively
	OpContains           // case-insensitive substring
	OpGTE
	OpLTE
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpContains:
		return "contains"
	case OpGTE:
		return "gte"
	case OpLTE:
		return "lte"
	}
	return "unknown"
}

// Predicate is one AND-ed condition on a listing. Value is an int64 for
// identity, count and date-part fields, a float64 for FieldPrice, a string for
// text fields and a time.Time (date only) for FieldCheckInDate and
// FieldCheckOutDate.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

type SortOrder int

const (
	PriceAsc SortOrder = iota
	PriceDesc
)

// ListingQuery is the final search query. Listings outside the searchable set
// (inactive or soft-deleted) are always excluded by the store.
type ListingQuery struct {
	Where []Predicate
	Order SortOrder
	Limit int
}

// Date helpers shared by the resolver and stores.

func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
