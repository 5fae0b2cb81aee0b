package ranking

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Category is the series/event tier.
type Category string

const (
	CategoryPro        Category = "pro"
	CategoryChallenger Category = "challenger"
	CategoryQualifier  Category = "qualifier"
	CategoryJunior     Category = "junior"
	// CategoryAny matches every category in filter selections
	CategoryAny Category = ""
)

// classRule is one row of the canonical classification table. Matching is
// case-insensitive substring; the first matching rule wins, an exclude
// keyword suppresses the match.
type classRule struct {
	category Category
	keywords []string
	excludes []string
}

// The single classification table. The upstream naming is messy
// ("Challenger", "Challenger Qualifying", "National Qualifier",
// "IFSA Qualifier 2*"); all series and event names resolve through this
// one priority order:
//  1. junior
//  2. challenger, unless the name is a challenger qualifying series
//  3. qualifier (includes national and IFSA prefixed qualifiers)
//  4. pro (default for everything else, e.g. "Freeride World Tour 2024")
var classTable = []classRule{
	{category: CategoryJunior, keywords: []string{"junior"}},
	{
		category: CategoryChallenger,
		keywords: []string{"challenger"},
		excludes: []string{"challenger qualifying"},
	},
	{category: CategoryQualifier, keywords: []string{"qualifier", "qualifying"}},
}

// Classify resolves a series or event name to its category.
func Classify(name string) Category {
	lowered := strings.ToLower(name)
	for _, rule := range classTable {
		if matchesRule(lowered, rule) {
			return rule.category
		}
	}
	return CategoryPro
}

func matchesRule(lowered string, rule classRule) bool {
	for _, ex := range rule.excludes {
		if strings.Contains(lowered, ex) {
			return false
		}
	}
	for _, kw := range rule.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ExtractYear resolves the season year of a series or event name.
// Resolution order: embedded 4 digit year token, then the event date,
// then the current year.
func ExtractYear(name string, eventDate, now time.Time) int {
	if token := yearRe.FindString(name); token != "" {
		if year, err := strconv.Atoi(token); err == nil {
			return year
		}
	}
	if !eventDate.IsZero() {
		return eventDate.Year()
	}
	return now.Year()
}

// NormalizeEventName produces the key used to compare results of the same
// event across seasons: lowercased, year tokens removed, whitespace
// collapsed.
func NormalizeEventName(name string) string {
	lowered := strings.ToLower(yearRe.ReplaceAllString(name, " "))
	return strings.Join(strings.Fields(lowered), " ")
}
