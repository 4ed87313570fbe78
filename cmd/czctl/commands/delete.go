package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/commands"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
)

var deleteTimelineCmd = &cobra.Command{
	Use:   "delete-timeline <timeline-id>",
	Short: "Delete a timeline with its subtree, exhibits and content items",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteTimeline,
}

func init() {
	rootCmd.AddCommand(deleteTimelineCmd)
}

func runDeleteTimeline(cmd *cobra.Command, args []string) error {
	id, err := valueobjects.ParseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Logger.Sync() //nolint:errcheck

	if err := container.CommandBus.Send(ctx, commands.DeleteTimelineCommand{TimelineID: id.String()}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted timeline %s\n", id)
	return nil
}
