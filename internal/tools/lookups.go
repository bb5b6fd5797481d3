package tools

import (
	"context"

	"resort_concierge/internal/app"
	"resort_concierge/internal/domain"
)

/********** get_resort_details **********/

type ResortDetails struct{ q *app.QueryService }

func NewResortDetails(q *app.QueryService) ResortDetails { return ResortDetails{q: q} }

func (ResortDetails) Name() string { return "get_resort_details" }
func (ResortDetails) Description() string {
	return "Details of one resort: location, description, amenities, number of open listings and its page URL. Pass resort_id or resort_name."
}
func (ResortDetails) Parameters() map[string]any {
	return object(map[string]any{
		"resort_id":   integer("Resort id."),
		"resort_name": str("Resort name, used when resort_id is unknown."),
	})
}
func (t ResortDetails) Call(ctx context.Context, args map[string]any) (any, error) {
	id, _ := intArg(args, "resort_id")
	name := strArg(args, "resort_name")
	if id <= 0 && name == "" {
		return nil, &ArgError{Arg: "resort_id", Reason: "resort_id or resort_name is required"}
	}
	return t.q.GetResortDetails(ctx, id, name)
}

/********** list_resorts **********/

type ListResorts struct{ q *app.QueryService }

func NewListResorts(q *app.QueryService) ListResorts { return ListResorts{q: q} }

func (ListResorts) Name() string { return "list_resorts" }
func (ListResorts) Description() string {
	return "List resorts by location, busiest first. All filters are optional partial matches."
}
func (ListResorts) Parameters() map[string]any {
	return object(map[string]any{
		"city":          str("City."),
		"state":         str("State or region."),
		"country":       str("Country."),
		"location_type": str("Location type such as beach or mountain."),
		"limit":         integer("Maximum resorts, up to 100."),
	})
}
func (t ListResorts) Call(ctx context.Context, args map[string]any) (any, error) {
	rs, err := t.q.ListResorts(ctx, domain.ResortsQuery{
		City:         optStr(args, "city"),
		State:        optStr(args, "state"),
		Country:      optStr(args, "country"),
		LocationType: optStr(args, "location_type"),
		Limit:        limitArg(args),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"resorts": rs}, nil
}

/********** search_resorts_by_amenity **********/

type ResortsByAmenity struct{ q *app.QueryService }

func NewResortsByAmenity(q *app.QueryService) ResortsByAmenity { return ResortsByAmenity{q: q} }

func (ResortsByAmenity) Name() string { return "search_resorts_by_amenity" }
func (ResortsByAmenity) Description() string {
	return "Resorts offering an amenity, e.g. 'pool', 'spa' or 'golf'."
}
func (ResortsByAmenity) Parameters() map[string]any {
	return object(map[string]any{
		"amenity": str("Amenity, partial match."),
		"limit":   integer("Maximum resorts, up to 100."),
	}, "amenity")
}
func (t ResortsByAmenity) Call(ctx context.Context, args map[string]any) (any, error) {
	a := strArg(args, "amenity")
	if a == "" {
		return nil, missing("amenity")
	}
	rs, err := t.q.ResortsByAmenity(ctx, a, limitArg(args))
	if err != nil {
		return nil, err
	}
	return map[string]any{"resorts": rs}, nil
}

/********** get_user_profile **********/

type UserProfile struct{ q *app.QueryService }

func NewUserProfile(q *app.QueryService) UserProfile { return UserProfile{q: q} }

func (UserProfile) Name() string        { return "get_user_profile" }
func (UserProfile) Description() string { return "Profile of the signed-in member." }
func (UserProfile) Parameters() map[string]any {
	return object(map[string]any{"user_id": integer("Member id.")}, "user_id")
}
func (t UserProfile) Call(ctx context.Context, args map[string]any) (any, error) {
	id, err := requiredID(args, "user_id")
	if err != nil {
		return nil, err
	}
	return t.q.GetUserProfile(ctx, id)
}

/********** get_user_bookings **********/

type UserBookings struct{ q *app.QueryService }

func NewUserBookings(q *app.QueryService) UserBookings { return UserBookings{q: q} }

func (UserBookings) Name() string        { return "get_user_bookings" }
func (UserBookings) Description() string { return "The member's bookings, newest first." }
func (UserBookings) Parameters() map[string]any {
	return object(map[string]any{
		"user_id": integer("Member id."),
		"limit":   integer("Maximum bookings, up to 100."),
	}, "user_id")
}
func (t UserBookings) Call(ctx context.Context, args map[string]any) (any, error) {
	id, err := requiredID(args, "user_id")
	if err != nil {
		return nil, err
	}
	bs, err := t.q.GetUserBookings(ctx, id, limitArg(args))
	if err != nil {
		return nil, err
	}
	return map[string]any{"bookings": bs}, nil
}

/********** get_points_of_interest **********/

type PointsOfInterest struct{ q *app.QueryService }

func NewPointsOfInterest(q *app.QueryService) PointsOfInterest { return PointsOfInterest{q: q} }

func (PointsOfInterest) Name() string { return "get_points_of_interest" }
func (PointsOfInterest) Description() string {
	return "Things to see and do near a resort's city, best rated first."
}
func (PointsOfInterest) Parameters() map[string]any {
	return object(map[string]any{
		"city":     str("City."),
		"state":    str("State or region, exact."),
		"category": str("Category, partial match, e.g. 'museum'."),
		"limit":    integer("Maximum places, up to 100."),
	}, "city")
}
func (t PointsOfInterest) Call(ctx context.Context, args map[string]any) (any, error) {
	city := strArg(args, "city")
	if city == "" {
		return nil, missing("city")
	}
	ps, err := t.q.PointsOfInterest(ctx, domain.POIQuery{
		City:     city,
		State:    optStr(args, "state"),
		Category: optStr(args, "category"),
		Limit:    limitArg(args),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"points_of_interest": ps}, nil
}

/********** create_booking **********/

type CreateBooking struct{ b *app.BookingService }

func NewCreateBooking(b *app.BookingService) CreateBooking { return CreateBooking{b: b} }

func (CreateBooking) Name() string { return "create_booking" }
func (CreateBooking) Description() string {
	return "Book a listing for the member. Only confirm after the user has agreed to the listing, dates and price."
}
func (CreateBooking) Parameters() map[string]any {
	return object(map[string]any{
		"user_id":    integer("Member id."),
		"listing_id": integer("Listing id from search_listings."),
		"guests":     integer("Number of guests; defaults to 1."),
	}, "user_id", "listing_id")
}
func (t CreateBooking) Call(ctx context.Context, args map[string]any) (any, error) {
	uid, err := requiredID(args, "user_id")
	if err != nil {
		return nil, err
	}
	lid, err := requiredID(args, "listing_id")
	if err != nil {
		return nil, err
	}
	guests, _ := intArg(args, "guests")
	return t.b.CreateBooking(ctx, uid, lid, int(guests))
}

// All returns every tool over the given services.
func All(search *app.SearchService, q *app.QueryService, b *app.BookingService) []Tool {
	return []Tool{
		NewSearchListings(search),
		NewResortDetails(q),
		NewListResorts(q),
		NewResortsByAmenity(q),
		NewUserProfile(q),
		NewUserBookings(q),
		NewPointsOfInterest(q),
		NewCreateBooking(b),
	}
}
