package ranking

import (
	"strings"
	"time"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
)

// AnyDivision is the index bucket holding an athlete's best placements
// regardless of division.
const AnyDivision = "*"

type (
	// year -> category -> best (minimum) place
	placesByYearCategory map[int]map[Category]int
	// year -> normalized event name -> best place
	placesByYearKey map[int]map[string]int

	indexEntry struct {
		seriesByYearCategory placesByYearCategory
		eventByYearCategory  placesByYearCategory
		eventByYearKey       placesByYearKey
	}
)

// FilterIndex holds each athlete's best placements, precomputed per
// (base division, year, category) and per (year, event). Rebuilt whenever
// the series data or the region selection changes; ties keep the first
// seen minimum.
type FilterIndex struct {
	entries map[string]map[string]*indexEntry
	now     time.Time
}

type IndexOption func(*indexConfig)

type indexConfig struct {
	region string
	now    time.Time
}

// WithRegion restricts the index to series whose name contains the given
// region (case-insensitive). Empty means all series contribute.
func WithRegion(region string) IndexOption {
	return func(c *indexConfig) { c.region = region }
}

// WithNow pins the reference time (year fallback, time window math).
func WithNow(now time.Time) IndexOption {
	return func(c *indexConfig) { c.now = now }
}

// BuildFilterIndex computes the lookup structure from raw series data.
func BuildFilterIndex(series []model.SeriesData, opts ...IndexOption) *FilterIndex {
	cfg := &indexConfig{now: time.Now()}
	for _, opt := range opts {
		opt(cfg)
	}
	ix := &FilterIndex{
		entries: make(map[string]map[string]*indexEntry),
		now:     cfg.now,
	}
	for i := range series {
		s := &series[i]
		if cfg.region != "" &&
			!strings.Contains(strings.ToLower(s.SeriesName), strings.ToLower(cfg.region)) {
			continue
		}
		ix.addSeries(s, cfg.now)
	}
	return ix
}

func (ix *FilterIndex) addSeries(s *model.SeriesData, now time.Time) {
	category := Classify(s.SeriesName)
	year := ExtractYear(s.SeriesName, time.Time{}, now)
	for divisionName, rankings := range s.Divisions {
		base := BaseDivision(divisionName)
		for i := range rankings {
			r := &rankings[i]
			for _, bucket := range []string{base, AnyDivision} {
				entry := ix.entry(r.Athlete.ID, bucket)
				if r.Place != nil {
					updateMin(entry.seriesByYearCategory, year, category, *r.Place)
				}
				ix.addResults(entry, r.Results, now)
			}
		}
	}
}

func (ix *FilterIndex) addResults(entry *indexEntry,
	results []model.EventResult, now time.Time,
) {
	for i := range results {
		res := &results[i]
		if res.Place == nil {
			continue
		}
		resDate := time.Time{}
		if res.Date != "" {
			info := model.EventInfo{Date: res.Date}
			resDate = info.StartTime()
		}
		year := ExtractYear(res.EventName, resDate, now)
		updateMin(entry.eventByYearCategory, year, Classify(res.EventName), *res.Place)
		key := NormalizeEventName(res.EventName)
		if _, ok := entry.eventByYearKey[year]; !ok {
			entry.eventByYearKey[year] = make(map[string]int)
		}
		if cur, ok := entry.eventByYearKey[year][key]; !ok || *res.Place < cur {
			entry.eventByYearKey[year][key] = *res.Place
		}
	}
}

func (ix *FilterIndex) entry(athleteID, bucket string) *indexEntry {
	byDivision, ok := ix.entries[athleteID]
	if !ok {
		byDivision = make(map[string]*indexEntry)
		ix.entries[athleteID] = byDivision
	}
	entry, ok := byDivision[bucket]
	if !ok {
		entry = &indexEntry{
			seriesByYearCategory: make(placesByYearCategory),
			eventByYearCategory:  make(placesByYearCategory),
			eventByYearKey:       make(placesByYearKey),
		}
		byDivision[bucket] = entry
	}
	return entry
}

func updateMin(m placesByYearCategory, year int, cat Category, place int) {
	if _, ok := m[year]; !ok {
		m[year] = make(map[Category]int)
	}
	// a strict less-than keeps the first seen minimum on ties
	if cur, ok := m[year][cat]; !ok || place < cur {
		m[year][cat] = place
	}
}

func (ix *FilterIndex) lookup(athleteID, baseDivision string) *indexEntry {
	byDivision, ok := ix.entries[athleteID]
	if !ok {
		return nil
	}
	if baseDivision == "" {
		baseDivision = AnyDivision
	}
	return byDivision[baseDivision]
}

// BestSeriesPlace returns the athlete's best series place for the given
// (year, category). Zero year or CategoryAny widen the lookup.
//
//nolint:whitespace // can't make both editor and linter happy
func (ix *FilterIndex) BestSeriesPlace(athleteID, baseDivision string,
	year int, category Category,
) (int, bool) {
	entry := ix.lookup(athleteID, baseDivision)
	if entry == nil {
		return 0, false
	}
	return bestIn(entry.seriesByYearCategory, year, category)
}

// BestEventPlace is the event-results counterpart of BestSeriesPlace.
//
//nolint:whitespace // can't make both editor and linter happy
func (ix *FilterIndex) BestEventPlace(athleteID, baseDivision string,
	year int, category Category,
) (int, bool) {
	entry := ix.lookup(athleteID, baseDivision)
	if entry == nil {
		return 0, false
	}
	return bestIn(entry.eventByYearCategory, year, category)
}

// BestEventPlaceByName returns the best place for one specific event
// (normalized name) in a year.
//
//nolint:whitespace // can't make both editor and linter happy
func (ix *FilterIndex) BestEventPlaceByName(athleteID, baseDivision string,
	year int, eventName string,
) (int, bool) {
	entry := ix.lookup(athleteID, baseDivision)
	if entry == nil {
		return 0, false
	}
	byKey, ok := entry.eventByYearKey[year]
	if !ok {
		return 0, false
	}
	place, ok := byKey[NormalizeEventName(eventName)]
	return place, ok
}

func bestIn(m placesByYearCategory, year int, category Category) (int, bool) {
	best := 0
	found := false
	consider := func(byCat map[Category]int) {
		for cat, place := range byCat {
			if category != CategoryAny && cat != category {
				continue
			}
			if !found || place < best {
				best = place
				found = true
			}
		}
	}
	if year != 0 {
		if byCat, ok := m[year]; ok {
			consider(byCat)
		}
		return best, found
	}
	for _, byCat := range m {
		consider(byCat)
	}
	return best, found
}
