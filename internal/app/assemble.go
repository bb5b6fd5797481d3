package app

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"resort_concierge/internal/domain"
)

const (
	policyNotSpecified = "Policy not specified"
	dateNotSpecified   = "Date not specified"
	priceNotAvailable  = "Price not available"
)

// ListingResult is one row of the search_listings payload.
type ListingResult struct {
	ID                            int64   `json:"id"`
	ResortID                      int64   `json:"resort_id"`
	ResortName                    string  `json:"resort_name"`
	UnitType                      *string `json:"unit_type"`
	Sleeps                        *int    `json:"sleeps"`
	CheckIn                       *string `json:"check_in"`
	CheckOut                      *string `json:"check_out"`
	Price                         string  `json:"price"`
	CancellationPolicyDescription string  `json:"cancellation_policy_description"`
	ListingCancelationDate        string  `json:"listing_cancelation_date"`
	CancellationInfo              string  `json:"cancellation_info"`
	ResortURL                     string  `json:"resort_url"`
	URL                           *string `json:"url"`
}

// PolicyTable maps cancellation policy codes to their refund wording.
type PolicyTable struct{ m map[string]string }

func NewPolicyTable(m map[string]string) PolicyTable {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[strings.ToLower(k)] = v
	}
	return PolicyTable{m: cp}
}

func DefaultPolicies() PolicyTable {
	return NewPolicyTable(map[string]string{
		"flexible": "Full refund if cancelled at least 24 hours before check-in.",
		"relaxed":  "Full refund if cancelled at least 7 days before check-in.",
		"moderate": "Full refund if cancelled at least 14 days before check-in.",
		"firm":     "Full refund if cancelled at least 30 days before check-in; 50% refund up to 14 days before.",
		"strict":   "Full refund if cancelled at least 60 days before check-in; no refund afterwards.",
	})
}

func (p PolicyTable) Describe(code *string) string {
	if code == nil {
		return policyNotSpecified
	}
	if d, ok := p.m[strings.ToLower(strings.TrimSpace(*code))]; ok {
		return d
	}
	return policyNotSpecified
}

type Assembler struct {
	policies PolicyTable
	baseURL  string
}

func NewAssembler(policies PolicyTable, listingBaseURL string) *Assembler {
	return &Assembler{policies: policies, baseURL: listingBaseURL}
}

func (a *Assembler) Assemble(rows []domain.ListingRow) []ListingResult {
	out := make([]ListingResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, a.Result(r))
	}
	return out
}

func (a *Assembler) Result(r domain.ListingRow) ListingResult {
	slug := ResortSlug(r.ResortSlug, r.ResortName)
	deadline, deadlineOK := parseDeadline(r.CancellationDate)
	desc := a.policies.Describe(r.CancellationPolicy)

	res := ListingResult{
		ID:                            r.ID,
		ResortID:                      r.ResortID,
		ResortName:                    r.ResortName,
		UnitType:                      r.UnitTypeName,
		Sleeps:                        r.Sleeps,
		CheckIn:                       isoDate(r.CheckIn),
		CheckOut:                      isoDate(r.CheckOut),
		Price:                         DisplayPrice(r.Price),
		CancellationPolicyDescription: desc,
		ListingCancelationDate:        dateNotSpecified,
		CancellationInfo:              desc,
		ResortURL:                     a.ResortURL(slug),
		URL:                           a.BookingURL(slug, r.ID, r.CheckIn, r.CheckOut),
	}
	if deadlineOK {
		res.ListingCancelationDate = deadline.Format("2006-01-02")
		if desc != policyNotSpecified {
			res.CancellationInfo = desc + " Cancel by " + deadline.Format("January 2, 2006") + " for a refund."
		}
	}
	return res
}

// ResortURL is the resort landing page with empty date parameters.
func (a *Assembler) ResortURL(slug string) string {
	if slug == "" {
		return ""
	}
	return a.baseURL + slug + "?check_in=&check_out="
}

// BookingURL links a concrete listing stay. It is nil unless slug, id and
// both dates are known.
func (a *Assembler) BookingURL(slug string, id int64, checkIn, checkOut *time.Time) *string {
	if slug == "" || id <= 0 || checkIn == nil || checkOut == nil {
		return nil
	}
	q := url.Values{}
	q.Set("check_in", checkIn.Format("2006-01-02"))
	q.Set("check_out", checkOut.Format("2006-01-02"))
	q.Set("listing_id", strconv.FormatInt(id, 10))
	u := a.baseURL + slug + "?" + q.Encode()
	return &u
}

// DisplayPrice renders a stored price for the narrator.
func DisplayPrice(p *string) string {
	if p == nil {
		return priceNotAvailable
	}
	v, ok := PriceMagnitude(*p)
	if !ok {
		return priceNotAvailable
	}
	return "from $" + strconv.FormatFloat(v, 'f', 2, 64) + " per night"
}

/********** slugs **********/

var slugReplacer = strings.NewReplacer(
	"'", "", "’", "", "`", "",
	"&", "and",
	".", "", ",", "", "!", "", "?", "", "(", "", ")", "", ":", "", ";", "", "\"", "",
	"/", "-", "_", "-",
	" ", "-", "\t", "-",
)

// ResortSlug prefers the stored slug and derives one from the name otherwise.
func ResortSlug(stored *string, name string) string {
	if stored != nil {
		if s := strings.TrimSpace(*stored); s != "" {
			return s
		}
	}
	return Slugify(name)
}

// Slugify lowercases a resort name and applies the fixed transliteration
// table: "Disney's Saratoga Springs & Spa" -> "disneys-saratoga-springs-and-spa".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", " & ")
	s = slugReplacer.Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

/********** dates **********/

func isoDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// parseDeadline treats empty values and zero-dates as unknown.
func parseDeadline(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.HasPrefix(v, "0000-00-00") {
		return time.Time{}, false
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
