package app

import (
	"strings"

	"resort_concierge/internal/domain"
)

// PriceTier is one price_sort directive: an ordering, an optional magnitude
// range and the default result cap.
type PriceTier struct {
	Name         string
	Order        domain.SortOrder
	Min, Max     *float64 // inclusive bounds on the price magnitude
	DefaultLimit int
}

// PriceTiers is an immutable directive table. Lookups of unknown directives
// fall back to the "asc" tier.
type PriceTiers struct {
	byName   map[string]PriceTier
	fallback PriceTier
}

// DefaultPriceTiers returns the fixed tier table: cheapest ≤ 333, average
// 334–666, highest ≥ 667.
func DefaultPriceTiers() PriceTiers {
	f := func(v float64) *float64 { return &v }
	asc := PriceTier{Name: "asc", Order: domain.PriceAsc, DefaultLimit: 80}
	return NewPriceTiers(asc,
		PriceTier{Name: "desc", Order: domain.PriceDesc, DefaultLimit: 85},
		PriceTier{Name: "cheapest", Order: domain.PriceAsc, Max: f(333), DefaultLimit: 80},
		PriceTier{Name: "average", Order: domain.PriceAsc, Min: f(334), Max: f(666), DefaultLimit: 80},
		PriceTier{Name: "highest", Order: domain.PriceDesc, Min: f(667), DefaultLimit: 85},
	)
}

func NewPriceTiers(fallback PriceTier, tiers ...PriceTier) PriceTiers {
	m := make(map[string]PriceTier, len(tiers)+1)
	m[fallback.Name] = fallback
	for _, t := range tiers {
		m[t.Name] = t
	}
	return PriceTiers{byName: m, fallback: fallback}
}

func (p PriceTiers) Lookup(directive string) PriceTier {
	if t, ok := p.byName[strings.ToLower(strings.TrimSpace(directive))]; ok {
		return t
	}
	return p.fallback
}

// Predicates returns the price range conditions of the tier, if any.
func (t PriceTier) Predicates() []domain.Predicate {
	var out []domain.Predicate
	if t.Min != nil {
		out = append(out, domain.Predicate{Field: domain.FieldPrice, Op: domain.OpGTE, Value: *t.Min})
	}
	if t.Max != nil {
		out = append(out, domain.Predicate{Field: domain.FieldPrice, Op: domain.OpLTE, Value: *t.Max})
	}
	return out
}

// Limit applies a caller override when positive.
func (t PriceTier) Limit(override int) int {
	if override > 0 {
		return override
	}
	return t.DefaultLimit
}

// PriceMagnitude parses a stored textual price into its absolute value.
// Malformed text reports ok=false.
func PriceMagnitude(s string) (float64, bool) { return domain.PriceMagnitude(s) }
