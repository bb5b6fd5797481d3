package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"resort_concierge/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// sleepsMagnitude reads the text-stored occupancy the way the sleeps filter
// casts it: signs are dropped and any fraction is truncated, so "4.0" is 4.
func sleepsMagnitude(ns sql.NullString) *int {
	if !ns.Valid {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(ns.String), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Abs(f))
	return &n
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements domain.ListingStore and domain.CatalogRepository on MySQL.
// The DSN must set parseTime=true.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ReadSession runs fn inside one read-only transaction. The transaction is
// rolled back on every path, including a panic in fn.
func (r *Repo) ReadSession(ctx context.Context, fn func(domain.ListingReader) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&reader{q: tx})
}

type reader struct{ q querier }

func (rd *reader) AnyListing(ctx context.Context, where []domain.Predicate) (bool, error) {
	cond, args, err := whereSQL(where)
	if err != nil {
		return false, err
	}
	var id int64
	err = rd.q.QueryRowContext(ctx, probeSelectSQL+listingFromSQL+cond+" LIMIT 1", args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (rd *reader) FindListings(ctx context.Context, q domain.ListingQuery) ([]domain.ListingRow, error) {
	cond, args, err := whereSQL(q.Where)
	if err != nil {
		return nil, err
	}
	query := listingColumnsSQL + listingFromSQL + cond + orderSQL(q.Order)
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := rd.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ListingRow
	for rows.Next() {
		var lr domain.ListingRow
		var (
			slug, city, state, country, locTypes sql.NullString
			utName, sleeps, price                sql.NullString
			policy, cancelDate                   sql.NullString
			checkIn, checkOut                    sql.NullTime
			utID                                 sql.NullInt64
		)
		if err := rows.Scan(
			&lr.ID,
			&lr.ResortID,
			&lr.ResortName,
			&slug, &city, &state, &country, &locTypes,
			&utID,
			&utName,
			&sleeps,
			&price,
			&checkIn, &checkOut,
			&policy,
			&cancelDate,
			&lr.Status,
			&lr.Deleted,
		); err != nil {
			return nil, err
		}
		lr.ResortSlug = strPtr(slug)
		lr.ResortCity = strPtr(city)
		lr.ResortState = strPtr(state)
		lr.ResortCountry = strPtr(country)
		lr.LocationTypes = strPtr(locTypes)
		lr.UnitTypeID = utID.Int64
		lr.UnitTypeName = strPtr(utName)
		lr.Sleeps = sleepsMagnitude(sleeps)
		lr.Price = strPtr(price)
		lr.CheckIn = timePtr(checkIn)
		lr.CheckOut = timePtr(checkOut)
		lr.CancellationPolicy = strPtr(policy)
		lr.CancellationDate = strPtr(cancelDate)
		out = append(out, lr)
	}
	return out, rows.Err()
}

func (rd *reader) CountListingsByResort(ctx context.Context, where []domain.Predicate) (map[int64]int, error) {
	cond, args, err := whereSQL(where)
	if err != nil {
		return nil, err
	}
	rows, err := rd.q.QueryContext(ctx, countByResortSQL+listingFromSQL+cond+" GROUP BY l.resort_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]int{}
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
