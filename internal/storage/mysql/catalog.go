package mysql

import (
	"context"
	"database/sql"
	"strings"

	"resort_concierge/internal/domain"
)

func splitList(ns sql.NullString) []string {
	if !ns.Valid {
		return nil
	}
	var out []string
	for _, p := range strings.Split(ns.String, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func likeArg(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResort(sc rowScanner) (domain.Resort, error) {
	var rs domain.Resort
	var slug, city, state, country, locTypes, desc sql.NullString
	if err := sc.Scan(&rs.ID, &rs.Name, &slug, &city, &state, &country, &locTypes, &desc, &rs.ListingCount); err != nil {
		return domain.Resort{}, err
	}
	rs.Slug = strPtr(slug)
	rs.City = strPtr(city)
	rs.State = strPtr(state)
	rs.Country = strPtr(country)
	rs.LocationTypes = splitList(locTypes)
	rs.Description = strPtr(desc)
	return rs, nil
}

func (r *Repo) queryResorts(ctx context.Context, query string, args ...any) ([]domain.Resort, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Resort
	for rows.Next() {
		rs, err := scanResort(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (r *Repo) GetResort(ctx context.Context, id int64) (domain.Resort, error) {
	rs, err := scanResort(r.db.QueryRowContext(ctx, getResortSQL, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Resort{}, domain.ErrNotFound
		}
		return domain.Resort{}, err
	}

	rows, err := r.db.QueryContext(ctx, resortAmenitiesSQL, id)
	if err != nil {
		return domain.Resort{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return domain.Resort{}, err
		}
		rs.Amenities = append(rs.Amenities, a)
	}
	return rs, rows.Err()
}

func (r *Repo) FindResortByName(ctx context.Context, name string) (domain.Resort, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, findResortByNameSQL, likeArg(name), strings.TrimSpace(name)).Scan(&id)
	if err == sql.ErrNoRows {
		return domain.Resort{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Resort{}, err
	}
	return domain.Resort{ID: id}, nil
}

func (r *Repo) ListResorts(ctx context.Context, q domain.ResortsQuery) ([]domain.Resort, error) {
	var b strings.Builder
	var args []any
	b.WriteString(resortColumnsSQL)
	b.WriteString("\nWHERE 1=1")
	add := func(col string, v *string) {
		if v == nil || strings.TrimSpace(*v) == "" {
			return
		}
		b.WriteString(" AND LOWER(" + col + ") LIKE ?")
		args = append(args, likeArg(*v))
	}
	add("r.city", q.City)
	add("r.state", q.State)
	add("r.country", q.Country)
	add("r.location_types", q.LocationType)
	b.WriteString("\nORDER BY active_listings DESC, r.name ASC\nLIMIT ?")
	args = append(args, q.Limit)
	return r.queryResorts(ctx, b.String(), args...)
}

func (r *Repo) ResortsByAmenity(ctx context.Context, amenity string, limit int) ([]domain.Resort, error) {
	return r.queryResorts(ctx, resortsByAmenitySQL, likeArg(amenity), limit)
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	var first, last, email, phone sql.NullString
	var created sql.NullTime
	err := r.db.QueryRowContext(ctx, getUserSQL, id).Scan(&u.ID, &first, &last, &email, &phone, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.FirstName = strPtr(first)
	u.LastName = strPtr(last)
	u.Email = strPtr(email)
	u.Phone = strPtr(phone)
	u.MemberSince = timePtr(created)
	return u, nil
}

func (r *Repo) ListUserBookings(ctx context.Context, userID int64, limit int) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listUserBookingsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var resort, unit sql.NullString
		var ci, co sql.NullTime
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.UserID, &b.ListingID, &b.Guests, &b.Status, &b.CreatedAt,
			&resort, &unit, &ci, &co,
		); err != nil {
			return nil, err
		}
		b.ResortName = strPtr(resort)
		b.UnitType = strPtr(unit)
		b.CheckIn = timePtr(ci)
		b.CheckOut = timePtr(co)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListPOIs(ctx context.Context, q domain.POIQuery) ([]domain.PointOfInterest, error) {
	query := listPOIsSQL
	args := []any{strings.TrimSpace(q.City)}
	if q.State != nil {
		query += " AND LOWER(state) = LOWER(?)"
		args = append(args, strings.TrimSpace(*q.State))
	}
	if q.Category != nil {
		query += " AND LOWER(category) LIKE ?"
		args = append(args, likeArg(*q.Category))
	}
	query += " ORDER BY rating IS NULL, rating DESC, name ASC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PointOfInterest
	for rows.Next() {
		var p domain.PointOfInterest
		var state, country, category, desc, addr sql.NullString
		var rating sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.City, &state, &country, &p.Name, &category, &desc, &addr, &rating); err != nil {
			return nil, err
		}
		p.State = strPtr(state)
		p.Country = strPtr(country)
		p.Category = strPtr(category)
		p.Description = strPtr(desc)
		p.Address = strPtr(addr)
		if rating.Valid {
			f := rating.Float64
			p.Rating = &f
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) IsListingBookable(ctx context.Context, listingID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, bookableListingSQL, listingID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.Reference, b.UserID, b.ListingID, b.Guests, b.Status, b.CreatedAt)
	if err != nil {
		return domain.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = id
	return b, nil
}

func (r *Repo) UpsertPOIs(ctx context.Context, ps []domain.PointOfInterest) error {
	if len(ps) == 0 {
		return nil
	}
	values := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps)*10) // 10 params per row
	for _, p := range ps {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			p.ExternalID,
			p.City,
			valStr(p.State),
			valStr(p.Country),
			p.Name,
			valStr(p.Category),
			valStr(p.Description),
			valStr(p.Address),
			valF64(p.Rating),
			valJSON(p.RawJSON),
		)
	}
	_, err := r.db.ExecContext(ctx, insertPOIsPrefix+strings.Join(values, ",")+insertPOIsOnDup, args...)
	return err
}
