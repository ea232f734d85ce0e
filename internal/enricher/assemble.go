package enricher

import (
	"slices"
	"sort"
)

// Column names written by Apply.
const (
	RacesColumn     = "Races"
	ITTTop20Column  = "ITT Top 20"
	ITTTop5Column   = "ITT Top 5"
	RaceTop20Column = "Race Top 20"
	RaceTop5Column  = "Race Top 5"

	specialtyPrefix = "PCS "
)

// SpecialtyColumn names the column holding the score for a specialty label.
func SpecialtyColumn(label string) string {
	return specialtyPrefix + label
}

// Apply merges the enabled categories of payload into rider. Participations
// are counted only for races in opts.Races. Applying the same payload twice
// leaves the rider unchanged.
func Apply(rider *Rider, payload Payload, opts Options) {
	if rider.Fields == nil {
		rider.Fields = NewFields()
	}
	if opts.Flags.Participations {
		count := 0
		for _, race := range opts.Races {
			if slices.Contains(payload.Participations, race) {
				count++
			}
		}
		rider.Fields.Set(RacesColumn, count)
		for _, race := range opts.Races {
			rider.Fields.Set(race, slices.Contains(payload.Participations, race))
		}
	}
	if opts.Flags.Specialties {
		labels := make([]string, 0, len(payload.Specialties))
		for label := range payload.Specialties {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			rider.Fields.Set(SpecialtyColumn(label), payload.Specialties[label])
		}
	}
	if opts.Flags.Results {
		rider.Fields.Set(ITTTop20Column, payload.Results.ITTTop20)
		rider.Fields.Set(ITTTop5Column, payload.Results.ITTTop5)
		rider.Fields.Set(RaceTop20Column, payload.Results.RaceTop20)
		rider.Fields.Set(RaceTop5Column, payload.Results.RaceTop5)
	}
}
