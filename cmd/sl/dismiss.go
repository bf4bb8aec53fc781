package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
)

var dismissCmd = &cobra.Command{
	Use:   "dismiss <event-id>...",
	Short: "Dismiss events from the feed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := feedClient.UpdateState(context.Background(), args, client.OpDismiss); err != nil {
			return fmt.Errorf("dismissing: %w", err)
		}
		fmt.Printf("%d event(s) dismissed\n", len(args))
		return nil
	},
}
