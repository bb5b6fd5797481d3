package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var plainDecimal = regexp.MustCompile(`^-?[0-9]+([.][0-9]+)?$`)

// PriceMagnitude reads a stored textual price as its absolute value. Dollar
// signs and thousands separators are ignored; anything else that is not a
// plain decimal reports ok=false. The MySQL adapter mirrors this grammar in
// SQL, so filters, ordering and display agree on which listings are priced.
func PriceMagnitude(s string) (float64, bool) {
	v := strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", "")
	v = strings.Trim(v, " ")
	if !plainDecimal.MatchString(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		f = -f
	}
	return f, true
}
