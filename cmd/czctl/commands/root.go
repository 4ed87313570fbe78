// Package commands implements the czctl maintenance tool.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/config"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/di"
)

var (
	// Store selection, overriding STORE_BACKEND
	storeBackend string

	rootCmd = &cobra.Command{
		Use:   "czctl",
		Short: "ChronoZoom timeline store maintenance",
		Long: `czctl inspects and maintains a ChronoZoom timeline store.

Examples:
  czctl forknode -- -13700000000 2024     # Fork node of an interval
  czctl seed-bitmasks                     # Write the interval tree masks
  czctl delete-timeline <timeline-id>     # Delete a timeline and its subtree`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "",
		"Store backend (dynamodb, memory); defaults to STORE_BACKEND")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newContainer wires the application the same way the API does
func newContainer(ctx context.Context) (*di.Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if storeBackend != "" {
		cfg.StoreBackend = storeBackend
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return di.InitializeContainer(ctx, cfg)
}
