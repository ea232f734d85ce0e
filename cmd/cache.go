package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/rider-enricher/internal/slug"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the rider cache",
	}
	cmd.AddCommand(newCacheGetCmd(), newCachePurgeCmd())
	return cmd
}

func newCacheGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <first-name> <last-name>",
		Short: "Print the cached payload for a rider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			key := slug.New(appInstance.Config().PCS.SlugOverrides).Normalize(args[0], args[1])
			entry, found, err := appInstance.Cache().Get(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "%s: miss\n", key)
				return nil
			}
			data, err := json.MarshalIndent(entry, "", "  ")
			if err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
			fmt.Fprintf(out, "%s\n%s\n", key, data)
			return nil
		},
	}
}

func newCachePurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.Cache().Purge(cmd.Context()); err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s cache\n", appInstance.Config().Cache.Backend)
			return nil
		},
	}
}
