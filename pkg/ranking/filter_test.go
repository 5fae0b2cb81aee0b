//nolint:funlen // table driven tests
package ranking

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
)

func rosterIDs(athletes []model.Athlete) []string {
	ret := make([]string, 0, len(athletes))
	for i := range athletes {
		ret = append(ret, athletes[i].ID)
	}
	return ret
}

func TestVisibleAthletes(t *testing.T) {
	tests := []struct {
		name     string
		athletes []model.Athlete
		want     []string
	}{
		{
			name: "no bibs keeps waitlisted",
			athletes: []model.Athlete{
				{ID: "a1", Status: model.StatusConfirmed},
				{ID: "a2", Status: model.StatusWaitlisted},
			},
			want: []string{"a1", "a2"},
		},
		{
			name: "bibs drop waitlisted",
			athletes: []model.Athlete{
				{ID: "a1", Bib: "1", Status: model.StatusConfirmed},
				{ID: "a2", Status: model.StatusWaitlisted},
				{ID: "a3", Status: model.StatusConfirmed},
			},
			want: []string{"a1", "a3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rosterIDs(visibleAthletes(tt.athletes))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("visibleAthletes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisplayListQuery(t *testing.T) {
	athletes := []model.Athlete{
		{ID: "a1", Name: "Maude Besse", Bib: "15", Nationality: "SUI"},
		{ID: "a2", Name: "Leo Martin", Bib: "115", Nationality: "FRA"},
		{ID: "a3", Name: "Marion Haerty", Bib: "2", Nationality: "FRA"},
		{ID: "a4", Name: "Camille Armand", Bib: "7", Nationality: "France"},
	}
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "name substring", query: "mar", want: []string{"a3", "a2"}},
		// "15" matches bib 15 and bib 115
		{name: "bib substring", query: "15", want: []string{"a1", "a2"}},
		{name: "country code", query: "fra", want: []string{"a3", "a4", "a2"}},
		{name: "country alias", query: "france", want: []string{"a3", "a4", "a2"}},
		{name: "alias reverse", query: "switzerland", want: []string{"a1"}},
		{name: "no match", query: "zz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rosterIDs(DisplayList(athletes, nil,
				Selection{Query: tt.query, Sort: SortByBib}))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DisplayList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisplayListSorts(t *testing.T) {
	athletes := []model.Athlete{
		{ID: "a1", Name: "Zoe", Bib: "3", Division: "Snowboard Men"},
		{ID: "a2", Name: "anna", Bib: "", Division: "Ski Women"},
		{ID: "a3", Name: "Ben", Bib: "12", Division: "Ski Men"},
		{ID: "a4", Name: "Carla", Bib: "1", Division: "Telemark Women"},
	}
	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		// missing bib sorts last
		{name: "by bib", sel: Selection{Sort: SortByBib}, want: []string{"a4", "a1", "a3", "a2"}},
		// case-insensitive
		{name: "by name", sel: Selection{Sort: SortByName}, want: []string{"a2", "a3", "a4", "a1"}},
		// fixed division order, unknown last
		{
			name: "by division",
			sel:  Selection{Sort: SortByDivision},
			want: []string{"a3", "a2", "a1", "a4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rosterIDs(DisplayList(athletes, nil, tt.sel))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DisplayList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisplayListRankingSort(t *testing.T) {
	athletes := []model.Athlete{
		{ID: "a1", Name: "First", Division: "Ski Men"},
		{ID: "a2", Name: "Second", Division: "Ski Men"},
		{ID: "a3", Name: "Unranked", Division: "Ski Men"},
	}
	ix := BuildFilterIndex(sampleSeries(), WithNow(indexNow))

	got := rosterIDs(DisplayList(athletes, ix,
		Selection{Sort: SortByRanking, Category: CategoryPro}))
	// a2 (place 1) before a1 (place 4); a3 has no place and sorts last
	want := []string{"a2", "a1", "a3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DisplayList() mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplayListTopN(t *testing.T) {
	athletes := []model.Athlete{
		{ID: "a1", Name: "First", Division: "Ski Men"},
		{ID: "a2", Name: "Second", Division: "Ski Men"},
		{ID: "a3", Name: "Unranked", Division: "Ski Men"},
	}
	ix := BuildFilterIndex(sampleSeries(), WithNow(indexNow))
	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{
			name: "top 3 pro",
			sel:  Selection{TopN: 3, Category: CategoryPro, Sort: SortByName},
			want: []string{"a2"},
		},
		{
			name: "top 5 pro",
			sel:  Selection{TopN: 5, Category: CategoryPro, Sort: SortByName},
			want: []string{"a1", "a2"},
		},
		{
			// a1 has event places 2 and 7
			name: "top 3 events scope",
			sel: Selection{
				TopN: 3, Scope: ScopeEvents, Category: CategoryPro, Sort: SortByName,
			},
			want: []string{"a1"},
		},
		{
			name: "window covering current season",
			sel: Selection{
				TopN: 5, Category: CategoryPro, WindowYears: 20, Sort: SortByName,
			},
			want: []string{"a1", "a2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rosterIDs(DisplayList(athletes, ix, tt.sel))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DisplayList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDisplayGroups(t *testing.T) {
	athletes := []model.Athlete{
		{ID: "a1", Name: "Zoe", Division: "Snowboard Men"},
		{ID: "a2", Name: "Anna", Division: "Ski Women"},
		{ID: "a3", Name: "Ben", Division: "Ski Men U-18"},
		{ID: "a4", Name: "Carla", Division: "Telemark Women"},
	}

	groups := DisplayGroups(athletes, nil, Selection{Sort: SortByDivision})
	wantOrder := []string{"Ski Men", "Ski Women", "Snowboard Men", "Other"}
	gotOrder := make([]string, 0, len(groups))
	for _, g := range groups {
		gotOrder = append(gotOrder, g.Division)
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("DisplayGroups() order mismatch (-want +got):\n%s", diff)
	}

	// a division filter collapses to a single unnamed group
	groups = DisplayGroups(athletes, nil,
		Selection{Sort: SortByDivision, Division: "Ski Men"})
	if len(groups) != 1 || groups[0].Division != "" {
		t.Errorf("DisplayGroups() with division filter = %+v, want one unnamed group",
			groups)
	}
}

func TestGroupedDisplayPartitionsGivenList(t *testing.T) {
	// GroupedDisplay only buckets; the list is taken as is, so an entry
	// the pipeline would have filtered out stays in its group
	list := []model.Athlete{
		{ID: "a1", Name: "Ben", Bib: "1", Division: "Ski Men",
			Status: model.StatusConfirmed},
		{ID: "a2", Name: "Anna", Division: "Ski Women",
			Status: model.StatusWaitlisted},
	}

	groups := GroupedDisplay(list, Selection{Sort: SortByDivision})
	got := make([]string, 0, len(list))
	for _, g := range groups {
		got = append(got, rosterIDs(g.Athletes)...)
	}
	if diff := cmp.Diff([]string{"a1", "a2"}, got); diff != "" {
		t.Errorf("GroupedDisplay() roster mismatch (-want +got):\n%s", diff)
	}
}
