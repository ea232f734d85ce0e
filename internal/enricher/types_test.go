package enricher

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFieldsKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	f := NewFields()
	f.Set("FirstName", "Tadej")
	f.Set("LastName", "Pogačar")
	f.Set("Price", 7000000)
	f.Set("FirstName", "T.")
	f.Delete("Price")
	f.Delete("Missing")

	require.Equal(t, []string{"FirstName", "LastName"}, f.Names())
	v, ok := f.Get("FirstName")
	require.True(t, ok)
	require.Equal(t, "T.", v)

	clone := f.Clone()
	clone.Set("Team", "UAE")
	require.Equal(t, 2, f.Len())
	require.Equal(t, 3, clone.Len())
}

func TestFlagsCovers(t *testing.T) {
	t.Parallel()

	all := Flags{Participations: true, Specialties: true, Results: true}
	require.True(t, all.Covers(Flags{Results: true}))
	require.True(t, Flags{}.Covers(Flags{}))
	require.False(t, Flags{Specialties: true}.Covers(Flags{Specialties: true, Results: true}))
	require.Equal(t, all, Flags{Participations: true}.Union(Flags{Specialties: true, Results: true}))
	require.False(t, Flags{}.Any())
}

func TestPayloadMergeKeepsPreviouslyFetchedCategories(t *testing.T) {
	t.Parallel()

	prev := Payload{
		Participations: []string{"Paris-Roubaix"},
		Specialties:    map[string]float64{"Sprint": 900},
		Fetched:        Flags{Participations: true, Specialties: true},
	}
	fresh := Payload{
		Specialties: map[string]float64{"Sprint": 950},
		Results:     ResultCounters{RaceTop20: 4, RaceTop5: 1},
		Fetched:     Flags{Specialties: true, Results: true},
	}

	got := fresh.Merge(prev)
	want := Payload{
		Participations: []string{"Paris-Roubaix"},
		Specialties:    map[string]float64{"Sprint": 950},
		Results:        ResultCounters{RaceTop20: 4, RaceTop5: 1},
		Fetched:        Flags{Participations: true, Specialties: true, Results: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Merge() mismatch (-want +got):\n%s", diff)
	}
}
