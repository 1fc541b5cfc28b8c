package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"urbanlex/internal/app"
	"urbanlex/internal/zoning"
)

func newZonesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Zoning table operations",
	}

	load := &cobra.Command{
		Use:   "load <file.yaml>",
		Short: "Load zone parameters and risk areas from YAML",
		Long: `Load zone parameters and risk areas from YAML. Zone rows are upserted by
neighborhood and zone code; risk areas replace the stored set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			ds, err := zoning.ParseDataset(data)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Zones.Upsert(ctx, ds.Zones); err != nil {
					return err
				}
				if err := a.Zones.ReplaceRiskAreas(ctx, ds.RiskAreas); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s loaded %d zone rows and %d risk areas\n",
					boldGreen("✓"), len(ds.Zones), len(ds.RiskAreas))
				return nil
			})
		},
	}

	cmd.AddCommand(load)
	return cmd
}
