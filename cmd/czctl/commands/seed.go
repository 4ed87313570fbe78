package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
)

var seedBitmasksCmd = &cobra.Command{
	Use:   "seed-bitmasks",
	Short: "Write the per-level interval tree masks to the store",
	Args:  cobra.NoArgs,
	RunE:  runSeedBitmasks,
}

func init() {
	rootCmd.AddCommand(seedBitmasksCmd)
}

func runSeedBitmasks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Logger.Sync() //nolint:errcheck

	index := entities.BuildBitmaskIndex()
	if err := container.Store.Bitmasks().SaveAll(ctx, index); err != nil {
		return fmt.Errorf("save bitmask index: %w", err)
	}

	container.Logger.Info("Seeded bitmask index", zap.Int("levels", len(index)))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bitmask levels\n", len(index))
	return nil
}
