package mysql

// -----------------------------------------------------------------------------
// LISTING SEARCH
// -----------------------------------------------------------------------------

// Price magnitude, read with the same grammar as domain.PriceMagnitude:
// dollar signs and thousands separators are dropped, and anything else that
// is not a plain decimal is NULL so it never satisfies a tier bound.
const (
	priceText = "TRIM(REPLACE(REPLACE(l.price, '$', ''), ',', ''))"
	priceExpr = "(CASE WHEN " + priceText + " REGEXP '^-?[0-9]+([.][0-9]+)?$' THEN ABS(CAST(" + priceText + " AS DECIMAL(12,2))) END)"
)

// Searchable listings joined with their resort and unit type. Callers append
// "AND ..." predicates, then ORDER BY / LIMIT.
const listingFromSQL = `
FROM listings l
JOIN resorts r ON r.id = l.resort_id
LEFT JOIN unit_types u ON u.id = l.unit_type_id
WHERE l.status IN ('active') AND l.is_deleted = 0`

const listingColumnsSQL = `
SELECT
  l.id,
  l.resort_id,
  r.name,
  r.slug,
  r.city,
  r.state,
  r.country,
  r.location_types,
  l.unit_type_id,
  u.name,
  u.sleeps,               -- text; magnitude taken in Go
  l.price,                -- text
  l.check_in,
  l.check_out,
  l.cancellation_policy,
  l.cancellation_date,    -- text; may be 0000-00-00
  l.status,
  l.is_deleted`

const probeSelectSQL = `SELECT l.id`

const countByResortSQL = `SELECT l.resort_id, COUNT(*)`

// -----------------------------------------------------------------------------
// CATALOG READS
// -----------------------------------------------------------------------------

const activeListingCountSQL = `(SELECT COUNT(*) FROM listings al
   WHERE al.resort_id = r.id AND al.status IN ('active') AND al.is_deleted = 0)`

const resortColumnsSQL = `
SELECT
  r.id,
  r.name,
  r.slug,
  r.city,
  r.state,
  r.country,
  r.location_types,
  r.description,
  ` + activeListingCountSQL + ` AS active_listings
FROM resorts r`

const getResortSQL = resortColumnsSQL + `
WHERE r.id = ?`

// Exact (case-insensitive) matches first, then the shortest containing name.
const findResortByNameSQL = `
SELECT r.id
FROM resorts r
WHERE LOWER(r.name) LIKE ?
ORDER BY (LOWER(r.name) = LOWER(?)) DESC, CHAR_LENGTH(r.name) ASC, r.id ASC
LIMIT 1`

const resortAmenitiesSQL = `
SELECT amenity FROM resort_amenities WHERE resort_id = ? ORDER BY amenity`

const resortsByAmenitySQL = resortColumnsSQL + `
JOIN resort_amenities a ON a.resort_id = r.id
WHERE LOWER(a.amenity) LIKE ?
GROUP BY r.id
ORDER BY active_listings DESC, r.name ASC
LIMIT ?`

const getUserSQL = `
SELECT id, first_name, last_name, email, phone, created_at
FROM users
WHERE id = ?`

const listUserBookingsSQL = `
SELECT
  b.id, b.reference, b.user_id, b.listing_id, b.guests, b.status, b.created_at,
  r.name, u.name, l.check_in, l.check_out
FROM bookings b
LEFT JOIN listings l ON l.id = b.listing_id
LEFT JOIN resorts r ON r.id = l.resort_id
LEFT JOIN unit_types u ON u.id = l.unit_type_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC, b.id DESC
LIMIT ?`

const listPOIsSQL = `
SELECT id, external_id, city, state, country, name, category, description, address, rating
FROM points_of_interest
WHERE LOWER(city) = LOWER(?)`

const bookableListingSQL = `
SELECT 1
FROM listings l
WHERE l.id = ? AND l.status IN ('active') AND l.is_deleted = 0 AND l.check_in >= CURRENT_DATE
LIMIT 1`

// -----------------------------------------------------------------------------
// WRITES
// -----------------------------------------------------------------------------

const insertBookingSQL = `
INSERT INTO bookings (reference, user_id, listing_id, guests, status, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

const insertPOIsPrefix = "INSERT INTO points_of_interest\n  (external_id, city, state, country, name, category, description, address, rating, raw)\nVALUES "

// Use VALUES(col) for broad compatibility; COALESCE keeps old value if new is NULL.
const insertPOIsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  name        = VALUES(name),\n" +
	"  state       = COALESCE(VALUES(state), points_of_interest.state),\n" +
	"  country     = COALESCE(VALUES(country), points_of_interest.country),\n" +
	"  category    = COALESCE(VALUES(category), points_of_interest.category),\n" +
	"  description = COALESCE(VALUES(description), points_of_interest.description),\n" +
	"  address     = COALESCE(VALUES(address), points_of_interest.address),\n" +
	"  rating      = COALESCE(VALUES(rating), points_of_interest.rating),\n" +
	"  raw         = VALUES(raw),\n" +
	"  updated_at  = CURRENT_TIMESTAMP\n"
