package ranking

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
)

type SortMode string

const (
	SortByBib      SortMode = "bib"
	SortByName     SortMode = "name"
	SortByDivision SortMode = "division"
	SortByRanking  SortMode = "ranking"
)

type ResultsScope string

const (
	ScopeSeries ResultsScope = "series"
	ScopeEvents ResultsScope = "events"
)

// missing data sorts last, uniformly
const (
	missingBib   = 999
	missingPlace = 5000
)

// Selection captures the dashboard's filter and sort choices.
type Selection struct {
	Query       string       `json:"query,omitempty"`
	Division    string       `json:"division,omitempty"`
	EventSource string       `json:"eventSource,omitempty"`
	Scope       ResultsScope `json:"scope,omitempty"`
	Category    Category     `json:"category,omitempty"`
	// WindowYears restricts placements to the last N seasons (0 = any)
	WindowYears int `json:"windowYears,omitempty"`
	// TopN keeps athletes whose best place is at or below the threshold
	// (typically 1/3/5/10, 0 = any)
	TopN int      `json:"topN,omitempty"`
	Sort SortMode `json:"sort,omitempty"`
}

// DivisionGroup is one headered bucket of the grouped display list.
type DivisionGroup struct {
	Division string          `json:"division"`
	Athletes []model.Athlete `json:"athletes"`
}

// DisplayList runs the full filter/sort pipeline and returns the ordered
// athlete list. The input slice is not modified.
func DisplayList(athletes []model.Athlete, ix *FilterIndex, sel Selection,
) []model.Athlete {
	ret := visibleAthletes(athletes)

	if q := strings.TrimSpace(sel.Query); q != "" {
		ret = lo.Filter(ret, func(a model.Athlete, _ int) bool {
			return matchesQuery(&a, q)
		})
	}
	if sel.Division != "" {
		ret = lo.Filter(ret, func(a model.Athlete, _ int) bool {
			return strings.EqualFold(BaseDivision(a.Division), sel.Division)
		})
	}
	if sel.EventSource != "" {
		ret = lo.Filter(ret, func(a model.Athlete, _ int) bool {
			return a.EventSource == sel.EventSource
		})
	}
	if sel.TopN > 0 && ix != nil {
		ret = lo.Filter(ret, func(a model.Athlete, _ int) bool {
			place, ok := bestPlaceFor(ix, &a, sel)
			return ok && place <= sel.TopN
		})
	}

	sortAthletes(ret, ix, sel)
	return ret
}

// DisplayGroups runs the pipeline and partitions the result into per
// division buckets. Callers that already hold the display list should use
// GroupedDisplay instead of paying for a second pipeline run.
func DisplayGroups(athletes []model.Athlete, ix *FilterIndex, sel Selection,
) []DivisionGroup {
	return GroupedDisplay(DisplayList(athletes, ix, sel), sel)
}

// GroupedDisplay partitions an already filtered and sorted display list
// into per division buckets in the fixed division order. Only applies for
// division or ranking sort without an explicit division filter; otherwise
// a single unnamed group is returned.
func GroupedDisplay(list []model.Athlete, sel Selection) []DivisionGroup {
	grouped := (sel.Sort == SortByDivision || sel.Sort == SortByRanking) &&
		sel.Division == ""
	if !grouped {
		return []DivisionGroup{{Athletes: list}}
	}

	ret := make([]DivisionGroup, 0, len(divisionOrder)+1)
	for _, division := range divisionOrder {
		members := lo.Filter(list, func(a model.Athlete, _ int) bool {
			return strings.EqualFold(BaseDivision(a.Division), division)
		})
		if len(members) > 0 {
			ret = append(ret, DivisionGroup{Division: division, Athletes: members})
		}
	}
	unknown := lo.Filter(list, func(a model.Athlete, _ int) bool {
		return DivisionRank(a.Division) == len(divisionOrder)
	})
	if len(unknown) > 0 {
		ret = append(ret, DivisionGroup{Division: "Other", Athletes: unknown})
	}
	return ret
}

// visibleAthletes applies the live event rule: once any athlete carries a
// bib, waitlisted athletes are no longer relevant.
func visibleAthletes(athletes []model.Athlete) []model.Athlete {
	hasBibs := lo.SomeBy(athletes, func(a model.Athlete) bool {
		return a.Bib != ""
	})
	if !hasBibs {
		return append([]model.Athlete{}, athletes...)
	}
	return lo.Filter(athletes, func(a model.Athlete, _ int) bool {
		return a.Status != model.StatusWaitlisted
	})
}

func matchesQuery(a *model.Athlete, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(a.Name), q) {
		return true
	}
	if a.Bib != "" && strings.Contains(strings.ToLower(a.Bib), q) {
		return true
	}
	return matchesNationality(a.Nationality, q)
}

func matchesNationality(nationality, q string) bool {
	lowered := strings.ToLower(nationality)
	if strings.Contains(lowered, q) {
		return true
	}
	for _, alias := range countryAliases[strings.ToUpper(nationality)] {
		if strings.Contains(strings.ToLower(alias), q) {
			return true
		}
	}
	return false
}

// bestPlaceFor resolves the athlete's best place for the current
// selection (scope, category, time window).
func bestPlaceFor(ix *FilterIndex, a *model.Athlete, sel Selection) (int, bool) {
	base := BaseDivision(a.Division)
	years := windowYears(ix.now.Year(), sel.WindowYears)

	lookup := func(year int) (int, bool) {
		if sel.Scope == ScopeEvents {
			return ix.BestEventPlace(a.ID, base, year, sel.Category)
		}
		return ix.BestSeriesPlace(a.ID, base, year, sel.Category)
	}

	if years == nil {
		return lookup(0)
	}
	best := 0
	found := false
	for _, year := range years {
		if place, ok := lookup(year); ok && (!found || place < best) {
			best = place
			found = true
		}
	}
	return best, found
}

// windowYears expands "last N seasons" into explicit years; nil = any.
func windowYears(currentYear, n int) []int {
	if n <= 0 {
		return nil
	}
	ret := make([]int, 0, n)
	for y := currentYear; y > currentYear-n; y-- {
		ret = append(ret, y)
	}
	return ret
}

func sortAthletes(athletes []model.Athlete, ix *FilterIndex, sel Selection) {
	switch sel.Sort {
	case SortByName:
		sort.SliceStable(athletes, func(i, j int) bool {
			return strings.ToLower(athletes[i].Name) < strings.ToLower(athletes[j].Name)
		})
	case SortByDivision:
		sort.SliceStable(athletes, func(i, j int) bool {
			di, dj := DivisionRank(athletes[i].Division), DivisionRank(athletes[j].Division)
			if di != dj {
				return di < dj
			}
			return bibValue(&athletes[i]) < bibValue(&athletes[j])
		})
	case SortByRanking:
		sort.SliceStable(athletes, func(i, j int) bool {
			di, dj := DivisionRank(athletes[i].Division), DivisionRank(athletes[j].Division)
			if di != dj {
				return di < dj
			}
			return rankValue(ix, &athletes[i], sel) < rankValue(ix, &athletes[j], sel)
		})
	case SortByBib:
		fallthrough
	default:
		sort.SliceStable(athletes, func(i, j int) bool {
			return bibValue(&athletes[i]) < bibValue(&athletes[j])
		})
	}
}

func bibValue(a *model.Athlete) int {
	if a.Bib == "" {
		return missingBib
	}
	if v, err := strconv.Atoi(a.Bib); err == nil {
		return v
	}
	return missingBib
}

func rankValue(ix *FilterIndex, a *model.Athlete, sel Selection) int {
	if ix == nil {
		return missingPlace
	}
	if place, ok := bestPlaceFor(ix, a, sel); ok {
		return place
	}
	return missingPlace
}

// countryAliases maps IOC style codes to display name aliases so that
// searching "France" finds athletes listed as "FRA" and vice versa.
var countryAliases = map[string][]string{
	"AUT": {"Austria"},
	"AND": {"Andorra"},
	"AUS": {"Australia"},
	"BEL": {"Belgium"},
	"CAN": {"Canada"},
	"CHE": {"Switzerland"},
	"SUI": {"Switzerland"},
	"DEU": {"Germany"},
	"GER": {"Germany"},
	"ESP": {"Spain"},
	"FRA": {"France"},
	"GBR": {"United Kingdom", "Great Britain"},
	"ITA": {"Italy"},
	"JPN": {"Japan"},
	"NOR": {"Norway"},
	"NZL": {"New Zealand"},
	"SWE": {"Sweden"},
	"USA": {"United States", "America"},
}
