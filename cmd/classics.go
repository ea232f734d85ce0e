package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
	"github.com/JakeFAU/rider-enricher/internal/scorito"
)

// newClassicsCmd enriches the classics game market with participations in
// the configured spring classics.
func newClassicsCmd() *cobra.Command {
	var flags competitionFlags
	cmd := &cobra.Command{
		Use:   "classics",
		Short: "Enrich the classics game market with upcoming participations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			comp := flags.apply(cmd, appInstance.Config().Competitions.Classics)

			records, err := newScoritoClient(appInstance).MarketRiders(cmd.Context(), comp.RaceID)
			if err != nil {
				return fmt.Errorf("fetch market riders: %w", err)
			}
			opts := enricher.Options{
				Flags: enricher.Flags{Participations: true},
				Races: comp.Races,
			}
			return enrichAndWrite(cmd.Context(), appInstance, scorito.Riders(records), opts, comp.Output)
		},
	}
	flags.register(cmd)
	return cmd
}
