package ranking

import (
	"regexp"
	"strings"
)

// fixed display order for divisions; unknown divisions sort last
var divisionOrder = []string{
	"Ski Men",
	"Ski Women",
	"Snowboard Men",
	"Snowboard Women",
}

var ageSuffixRe = regexp.MustCompile(` U-\d+$`)

// BaseDivision strips a trailing age category qualifier, so that
// "Ski Men U-18" groups under "Ski Men".
func BaseDivision(division string) string {
	return ageSuffixRe.ReplaceAllString(division, "")
}

// DivisionRank returns the position of the division in the fixed display
// order. Unknown divisions rank after all known ones.
func DivisionRank(division string) int {
	base := BaseDivision(division)
	for i, d := range divisionOrder {
		if strings.EqualFold(base, d) {
			return i
		}
	}
	return len(divisionOrder)
}

// DivisionOrder returns the fixed display order.
func DivisionOrder() []string {
	ret := make([]string, len(divisionOrder))
	copy(ret, divisionOrder)
	return ret
}
