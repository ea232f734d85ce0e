package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
	"github.com/JakeFAU/rider-enricher/internal/scorito"
)

// newGrandTourCmd enriches the grand tour game riders with specialty scores
// and result counters.
func newGrandTourCmd() *cobra.Command {
	var flags competitionFlags
	cmd := &cobra.Command{
		Use:   "grand-tour",
		Short: "Enrich grand tour game riders with specialties and results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			comp := flags.apply(cmd, appInstance.Config().Competitions.GrandTour)
			client := newScoritoClient(appInstance)

			records, err := client.EventRiders(cmd.Context(), comp.RaceID)
			if err != nil {
				return fmt.Errorf("fetch event riders: %w", err)
			}
			teams, err := client.Teams(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch teams: %w", err)
			}
			riders := scorito.Riders(scorito.FormatGrandTour(records, teams))
			opts := enricher.Options{
				Flags: enricher.Flags{Specialties: true, Results: true},
				Races: comp.Races,
			}
			return enrichAndWrite(cmd.Context(), appInstance, riders, opts, comp.Output)
		},
	}
	flags.register(cmd)
	return cmd
}
