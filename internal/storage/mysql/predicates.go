package mysql

import (
	"fmt"
	"strings"
	"time"

	"resort_concierge/internal/domain"
)

// fieldExpr maps every filterable field to its SQL expression over the
// listings (l) / resorts (r) / unit_types (u) join. Text-stored numbers are
// compared by magnitude.
var fieldExpr = map[domain.Field]string{
	domain.FieldListingID:          "l.id",
	domain.FieldResortID:           "l.resort_id",
	domain.FieldUnitTypeID:         "l.unit_type_id",
	domain.FieldResortName:         "r.name",
	domain.FieldResortSlug:         "r.slug",
	domain.FieldResortCity:         "r.city",
	domain.FieldResortState:        "r.state",
	domain.FieldResortCountry:      "r.country",
	domain.FieldResortLocationType: "r.location_types",
	domain.FieldUnitTypeName:       "u.name",
	domain.FieldCancellationPolicy: "l.cancellation_policy",
	domain.FieldSleeps:             "ABS(CAST(u.sleeps AS SIGNED))",
	domain.FieldNights:             "DATEDIFF(l.check_out, l.check_in)",
	domain.FieldPrice:              priceExpr,
	domain.FieldCheckInDate:        "DATE(l.check_in)",
	domain.FieldCheckOutDate:       "DATE(l.check_out)",
	domain.FieldCheckInYear:        "YEAR(l.check_in)",
	domain.FieldCheckInMonth:       "MONTH(l.check_in)",
	domain.FieldCheckInDay:         "DAY(l.check_in)",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereSQL renders predicates as "AND ..." fragments appended to the
// searchable-listing base condition.
func whereSQL(preds []domain.Predicate) (string, []any, error) {
	var b strings.Builder
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		expr, ok := fieldExpr[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("mysql: unsupported field %q", p.Field)
		}
		v := p.Value
		if t, ok := v.(time.Time); ok {
			v = t.Format("2006-01-02")
		}
		_, isText := p.Value.(string)

		switch p.Op {
		case domain.OpContains:
			b.WriteString(" AND LOWER(" + expr + ") LIKE ?")
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(fmt.Sprint(v)))+"%")
		case domain.OpEq:
			if isText {
				b.WriteString(" AND LOWER(" + expr + ") = LOWER(?)")
			} else {
				b.WriteString(" AND " + expr + " = ?")
			}
			args = append(args, v)
		case domain.OpGTE:
			b.WriteString(" AND " + expr + " >= ?")
			args = append(args, v)
		case domain.OpLTE:
			b.WriteString(" AND " + expr + " <= ?")
			args = append(args, v)
		default:
			return "", nil, fmt.Errorf("mysql: unsupported op %s", p.Op)
		}
	}
	return b.String(), args, nil
}

func orderSQL(o domain.SortOrder) string {
	if o == domain.PriceDesc {
		return " ORDER BY " + priceExpr + " IS NULL, " + priceExpr + " DESC, l.check_in ASC, l.id ASC"
	}
	return " ORDER BY " + priceExpr + " IS NULL, " + priceExpr + " ASC, l.check_in ASC, l.id ASC"
}
