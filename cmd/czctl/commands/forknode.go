package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
)

var forkNodeCmd = &cobra.Command{
	Use:   "forknode <from> <to>",
	Short: "Print the interval tree fork node of a year range",
	Args:  cobra.ExactArgs(2),
	RunE:  runForkNode,
}

func init() {
	rootCmd.AddCommand(forkNodeCmd)
}

func runForkNode(cmd *cobra.Command, args []string) error {
	from, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid from year %q: %w", args[0], err)
	}
	to, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid to year %q: %w", args[1], err)
	}

	lower, upper := valueobjects.BiasedRange(valueobjects.FloorYear(from), valueobjects.FloorYear(to))
	fmt.Fprintf(cmd.OutOrStdout(), "fork node: %d\nbiased range: [%d, %d]\n",
		valueobjects.IntervalForkNode(from, to), lower, upper)
	return nil
}
