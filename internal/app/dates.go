package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"resort_concierge/internal/domain"
)

// DateUserMessage is what the assistant relays when a date cannot be read.
const DateUserMessage = "I couldn't understand that date."

type DateResolutionError struct {
	Input  string
	Reason string
}

func (e *DateResolutionError) Error() string {
	return fmt.Sprintf("date resolution: %s: %q", e.Reason, e.Input)
}

// DateParams are the temporal fragments an LLM may extract from a request.
// Empty strings and nil pointers mean "not supplied".
type DateParams struct {
	ListingCheckIn  string // future-normalized pair
	ListingCheckOut string
	CheckIn         string // verbatim pair
	CheckOut        string
	Month           string // name, abbreviation or 1-12
	Year            *int
	Day             *int
}

func (p DateParams) hasFragments() bool {
	return strings.TrimSpace(p.Month) != "" || p.Year != nil || p.Day != nil
}

type DateMode int

const (
	DateUnset DateMode = iota
	// DateStay keeps listings whose whole stay fits in [From, To].
	DateStay
	// DateCheckIn keeps listings whose check-in falls in [From, To].
	DateCheckIn
	// DateParts matches year/day of the stored check-in independently.
	DateParts
)

type DateResolution struct {
	Mode     DateMode
	From, To time.Time
	Year     *int
	Day      *int
	Shifted  bool // moved forward by whole years to land in the future
}

// Supplied reports whether the caller asked for any date at all.
func (r DateResolution) Supplied() bool { return r.Mode != DateUnset }

func (r DateResolution) Predicates() []domain.Predicate {
	switch r.Mode {
	case DateStay:
		return []domain.Predicate{
			{Field: domain.FieldCheckInDate, Op: domain.OpGTE, Value: r.From},
			{Field: domain.FieldCheckOutDate, Op: domain.OpLTE, Value: r.To},
		}
	case DateCheckIn:
		return CheckInWindow(r.From, r.To)
	case DateParts:
		var out []domain.Predicate
		if r.Year != nil {
			out = append(out, domain.Predicate{Field: domain.FieldCheckInYear, Op: domain.OpEq, Value: int64(*r.Year)})
		}
		if r.Day != nil {
			out = append(out, domain.Predicate{Field: domain.FieldCheckInDay, Op: domain.OpEq, Value: int64(*r.Day)})
		}
		return out
	}
	return nil
}

// CheckInWindow is the predicate pair "check-in date within [from, to]".
func CheckInWindow(from, to time.Time) []domain.Predicate {
	return []domain.Predicate{
		{Field: domain.FieldCheckInDate, Op: domain.OpGTE, Value: domain.DateOnly(from)},
		{Field: domain.FieldCheckInDate, Op: domain.OpLTE, Value: domain.DateOnly(to)},
	}
}

// ResolveDates turns DateParams into a concrete date constraint relative to
// today. Explicit pairs win over month/year/day fragments. A malformed pair
// falls back to the fragments when there are any.
func ResolveDates(p DateParams, today time.Time) (DateResolution, error) {
	today = domain.DateOnly(today)

	if in, out := strings.TrimSpace(p.ListingCheckIn), strings.TrimSpace(p.ListingCheckOut); in != "" || out != "" {
		r, err := resolvePair(in, out, today, true)
		if err == nil && r.Supplied() {
			return r, nil
		}
		if err != nil && !p.hasFragments() {
			return DateResolution{}, err
		}
	} else if in, out := strings.TrimSpace(p.CheckIn), strings.TrimSpace(p.CheckOut); in != "" || out != "" {
		r, err := resolvePair(in, out, today, false)
		if err == nil && r.Supplied() {
			return r, nil
		}
		if err != nil && !p.hasFragments() {
			return DateResolution{}, err
		}
	}

	if strings.TrimSpace(p.Month) != "" {
		return resolveMonth(p, today)
	}
	if p.Year != nil || p.Day != nil {
		return DateResolution{Mode: DateParts, Year: p.Year, Day: p.Day}, nil
	}
	return DateResolution{}, nil
}

// resolvePair handles an explicit check-in/check-out. A lone check-in becomes
// a single-day check-in window; a lone check-out is ignored.
func resolvePair(in, out string, today time.Time, normalize bool) (DateResolution, error) {
	if in == "" {
		if _, err := ParseDate(out); err != nil {
			return DateResolution{}, err
		}
		return DateResolution{}, nil
	}
	ci, err := ParseDate(in)
	if err != nil {
		return DateResolution{}, err
	}
	if out == "" {
		r := DateResolution{Mode: DateCheckIn, From: ci, To: ci}
		if normalize {
			r.From, r.To, r.Shifted = ShiftToFuture(ci, ci, today)
		}
		return r, nil
	}
	co, err := ParseDate(out)
	if err != nil {
		return DateResolution{}, err
	}
	if co.Before(ci) {
		return DateResolution{}, &DateResolutionError{Input: in + " / " + out, Reason: "check-out before check-in"}
	}
	r := DateResolution{Mode: DateStay, From: ci, To: co}
	if normalize {
		r.From, r.To, r.Shifted = ShiftToFuture(ci, co, today)
	}
	return r, nil
}

func resolveMonth(p DateParams, today time.Time) (DateResolution, error) {
	m, err := ParseMonth(p.Month)
	if err != nil {
		return DateResolution{}, err
	}
	year := today.Year()
	if p.Year != nil {
		year = *p.Year
	} else if today.Month() > m {
		year++
	}
	first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, m, DaysIn(m, year), 0, 0, 0, 0, time.UTC)
	if p.Day != nil && *p.Day >= 1 && *p.Day <= DaysIn(m, year) {
		first = time.Date(year, m, *p.Day, 0, 0, 0, 0, time.UTC)
		last = first
	}
	from, to, shifted := ShiftToFuture(first, last, today)
	return DateResolution{Mode: DateCheckIn, From: from, To: to, Shifted: shifted}, nil
}

// ShiftToFuture moves both dates forward by whole years until checkOut is on
// or after today. Feb 29 moved into a non-leap year lands on Mar 1, so a
// range crossing a leap day can gain or lose a night.
func ShiftToFuture(checkIn, checkOut, today time.Time) (time.Time, time.Time, bool) {
	if !checkOut.Before(today) {
		return checkIn, checkOut, false
	}
	years := today.Year() - checkOut.Year()
	if years < 1 {
		years = 1
	}
	ci, co := checkIn.AddDate(years, 0, 0), checkOut.AddDate(years, 0, 0)
	for co.Before(today) {
		ci, co = ci.AddDate(1, 0, 0), co.AddDate(1, 0, 0)
	}
	return ci, co, true
}

// DaysIn returns the length of month m in year y.
func DaysIn(m time.Month, y int) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseMonth accepts a month name, any prefix of it of at least three
// letters ("sep", "sept") or 1-12.
func ParseMonth(s string) (time.Month, error) {
	v := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if len(v) >= 3 {
		for m := time.January; m <= time.December; m++ {
			if strings.HasPrefix(strings.ToLower(m.String()), v) {
				return m, nil
			}
		}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
		return time.Month(n), nil
	}
	return 0, &DateResolutionError{Input: s, Reason: "unknown month"}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate reads a calendar date and drops any time of day.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return domain.DateOnly(t), nil
		}
	}
	return time.Time{}, &DateResolutionError{Input: s, Reason: "malformed date"}
}
