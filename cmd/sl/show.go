package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
)

var showCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show one event in full; opening an unread event marks it read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keepUnread, _ := cmd.Flags().GetBool("keep-unread")

		ctx := context.Background()
		event, err := feedClient.GetEvent(ctx, args[0])
		if err != nil {
			return err
		}

		if !event.Read && !keepUnread {
			// Best-effort, same as opening a detail view.
			_ = feedClient.UpdateState(ctx, []string{event.ID}, client.OpMarkRead)
			event.Read = true
		}

		if jsonOutput {
			printJSON(event)
			return nil
		}
		printEventDetail(event)
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("keep-unread", false, "do not mark the event read")
}
