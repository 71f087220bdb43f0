package engine

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestQualifiedID(t *testing.T) {
	if got := QualifiedID("greenhouse", "4567"); got != "greenhouse/4567" {
		t.Errorf("got %q", got)
	}
}

func TestSearchFiltersMatches(t *testing.T) {
	now := time.Now().UTC()
	job := JobListing{
		ExperienceLevel: LevelSenior,
		LocationType:    LocationRemote,
		PostedAt:        now,
		MatchScore:      0.6,
	}

	cases := []struct {
		name string
		f    SearchFilters
		want bool
	}{
		{"zero filters match everything", SearchFilters{}, true},
		{"level match", SearchFilters{ExperienceLevel: LevelSenior}, true},
		{"level mismatch", SearchFilters{ExperienceLevel: LevelEntry}, false},
		{"location match", SearchFilters{LocationType: LocationRemote}, true},
		{"location mismatch", SearchFilters{LocationType: LocationOnsite}, false},
		{"posted after ok", SearchFilters{PostedAfter: now.Add(-time.Hour)}, true},
		{"posted too old", SearchFilters{PostedAfter: now.Add(time.Hour)}, false},
		{"score above threshold", SearchFilters{MinMatchScore: 0.5}, true},
		{"score below threshold", SearchFilters{MinMatchScore: 0.9}, false},
		{"all set, all pass", SearchFilters{
			ExperienceLevel: LevelSenior, LocationType: LocationRemote,
			PostedAfter: now.Add(-time.Hour), MinMatchScore: 0.5,
		}, true},
		{"all set, one fails", SearchFilters{
			ExperienceLevel: LevelSenior, LocationType: LocationRemote,
			PostedAfter: now.Add(-time.Hour), MinMatchScore: 0.9,
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(job); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSearchFiltersMatchesUndatedListing(t *testing.T) {
	f := SearchFilters{PostedAfter: time.Now().Add(-time.Hour)}
	if f.Matches(JobListing{}) {
		t.Error("listing without a date passed a posted_after filter")
	}
}

func TestSearchFiltersKeyStable(t *testing.T) {
	after := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := SearchFilters{ExperienceLevel: LevelMid, PostedAfter: after, MinMatchScore: 0.25}
	b := SearchFilters{ExperienceLevel: LevelMid, PostedAfter: after, MinMatchScore: 0.25}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == (SearchFilters{}).Key() {
		t.Error("non-zero filters keyed same as zero filters")
	}
}

func TestJobListingHidesNativeID(t *testing.T) {
	data, err := json.Marshal(JobListing{ID: "lever/abc", NativeID: "abc", Title: "QA Engineer"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"abc"`) && !strings.Contains(string(data), "lever/abc") {
		t.Fatalf("unexpected payload: %s", data)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for k := range m {
		if strings.Contains(strings.ToLower(k), "native") {
			t.Errorf("native id leaked as %q", k)
		}
	}
}
