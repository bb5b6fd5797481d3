package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"resort_concierge/internal/domain"
)

// SearchResponse is the search_listings payload. Errors are reported in-band
// so the assistant can relay them.
type SearchResponse struct {
	Results                []ListingResult `json:"results"`
	TotalListingsForResort int             `json:"total_listings_for_resort"`
	Error                  string          `json:"error,omitempty"`
	DateWindow             *DateWindow     `json:"date_window,omitempty"`
	// Fallback is "widened" or "narrowed" when the requested window was
	// replaced; the assistant should tell the user these are the closest
	// available listings.
	Fallback string `json:"fallback,omitempty"`
}

type DateWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type SearchService struct {
	store     domain.ListingStore
	tiers     PriceTiers
	assembler *Assembler
	now       func() time.Time
}

func NewSearchService(store domain.ListingStore, tiers PriceTiers, asm *Assembler, now func() time.Time) *SearchService {
	if now == nil {
		now = time.Now
	}
	return &SearchService{store: store, tiers: tiers, assembler: asm, now: now}
}

// SearchListings is search_available_future_listings_merged: resolve dates,
// pick a window with at most one fallback, then run the priced query.
func (s *SearchService) SearchListings(ctx context.Context, args map[string]any) SearchResponse {
	req := ParseSearchRequest(args)
	today := domain.DateOnly(s.now())

	res, err := ResolveDates(req.Dates, today)
	if err != nil {
		var de *DateResolutionError
		if errors.As(err, &de) {
			log.Info().Err(err).Msg("search: unresolvable date")
			return SearchResponse{Results: []ListingResult{}, Error: DateUserMessage}
		}
		return SearchResponse{Results: []ListingResult{}, Error: err.Error()}
	}

	tier := s.tiers.Lookup(req.PriceSort)
	// Listings that already started cannot be booked, whatever window the
	// dates resolved to.
	upcoming := []domain.Predicate{{Field: domain.FieldCheckInDate, Op: domain.OpGTE, Value: today}}
	var (
		outcome WindowOutcome
		rows    []domain.ListingRow
		total   int
	)
	err = s.store.ReadSession(ctx, func(r domain.ListingReader) error {
		var err error
		outcome, err = ResolveWindow(ctx, res, today, func(ctx context.Context, dates []domain.Predicate) (bool, error) {
			return r.AnyListing(ctx, concat(req.Filters, upcoming, dates))
		})
		if err != nil {
			return err
		}

		rows, err = r.FindListings(ctx, domain.ListingQuery{
			Where: concat(req.Filters, upcoming, outcome.Dates, tier.Predicates()),
			Order: tier.Order,
			Limit: tier.Limit(req.Limit),
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		counts, err := r.CountListingsByResort(ctx, req.Filters)
		if err != nil {
			return err
		}
		total = counts[rows[0].ResortID]
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("search: store failure")
		return SearchResponse{Results: []ListingResult{}, Error: "search failed: " + err.Error()}
	}

	out := SearchResponse{
		Results:                s.assembler.Assemble(rows),
		TotalListingsForResort: total,
	}
	if !outcome.From.IsZero() {
		if outcome.From.Before(today) {
			outcome.From = today
		}
		out.DateWindow = &DateWindow{From: outcome.From.Format("2006-01-02"), To: outcome.To.Format("2006-01-02")}
	}
	switch outcome.Path {
	case StateWidened:
		out.Fallback = "widened"
	case StateNarrowed:
		out.Fallback = "narrowed"
	}

	log.Debug().
		Str("tier", tier.Name).
		Str("path", outcome.Path.String()).
		Int("probes", outcome.Probes).
		Int("rows", len(rows)).
		Int("filters", len(req.Filters)).
		Msg("search: done")
	return out
}

func concat(parts ...[]domain.Predicate) []domain.Predicate {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]domain.Predicate, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// ErrorMessage exposes the in-band error to the tool layer.
func (r SearchResponse) ErrorMessage() string { return r.Error }
