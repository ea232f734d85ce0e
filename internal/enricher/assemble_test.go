package enricher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyAddsRequestedCategories(t *testing.T) {
	t.Parallel()

	rider := Rider{FirstName: "Wout", LastName: "van Aert", Fields: NewFields()}
	rider.Fields.Set("FirstName", "Wout")
	rider.Fields.Set("Price", 6500000)

	payload := Payload{
		Participations: []string{"Paris-Roubaix", "Amstel Gold Race"},
		Specialties:    map[string]float64{"Sprint": 1800, "Climber": 700},
		Results:        ResultCounters{ITTTop20: 3, ITTTop5: 2, RaceTop20: 40, RaceTop5: 12},
	}
	opts := Options{
		Flags: Flags{Participations: true, Specialties: true, Results: true},
		Races: []string{"Paris-Roubaix", "Milano-Sanremo"},
	}

	Apply(&rider, payload, opts)

	require.Equal(t, []string{
		"FirstName", "Price",
		RacesColumn, "Paris-Roubaix", "Milano-Sanremo",
		"PCS Climber", "PCS Sprint",
		ITTTop20Column, ITTTop5Column, RaceTop20Column, RaceTop5Column,
	}, rider.Fields.Names())

	get := func(name string) any {
		v, _ := rider.Fields.Get(name)
		return v
	}
	require.Equal(t, 1, get(RacesColumn), "Amstel Gold Race is outside the race list")
	require.Equal(t, true, get("Paris-Roubaix"))
	require.Equal(t, false, get("Milano-Sanremo"))
	require.Equal(t, 1800.0, get("PCS Sprint"))
	require.Equal(t, 3, get(ITTTop20Column))
	require.Equal(t, 12, get(RaceTop5Column))
	require.Equal(t, 6500000, get("Price"), "caller fields are never removed")
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	rider := Rider{FirstName: "Mads", LastName: "Pedersen"}
	payload := Payload{
		Participations: []string{"Gent-Wevelgem in Flanders Fields"},
		Specialties:    map[string]float64{"One day races": 2100},
		Results:        ResultCounters{RaceTop20: 5},
	}
	opts := Options{
		Flags: Flags{Participations: true, Specialties: true, Results: true},
		Races: []string{"Gent-Wevelgem in Flanders Fields"},
	}

	Apply(&rider, payload, opts)
	first := rider.Fields.Clone()
	Apply(&rider, payload, opts)

	require.Equal(t, first.Names(), rider.Fields.Names())
	for _, name := range first.Names() {
		want, _ := first.Get(name)
		got, _ := rider.Fields.Get(name)
		require.Equal(t, want, got, name)
	}
}

func TestApplySkipsDisabledCategories(t *testing.T) {
	t.Parallel()

	rider := Rider{Fields: NewFields()}
	Apply(&rider, Payload{Specialties: map[string]float64{"GC": 10}}, Options{Flags: Flags{Results: true}})

	_, ok := rider.Fields.Get("PCS GC")
	require.False(t, ok)
	_, ok = rider.Fields.Get(RacesColumn)
	require.False(t, ok)
	v, ok := rider.Fields.Get(ITTTop20Column)
	require.True(t, ok)
	require.Equal(t, 0, v)
}
