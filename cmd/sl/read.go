package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
)

var readCmd = &cobra.Command{
	Use:   "read <event-id>...",
	Short: "Mark events as read",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := feedClient.UpdateState(context.Background(), args, client.OpMarkRead); err != nil {
			return fmt.Errorf("marking read: %w", err)
		}
		fmt.Printf("%d event(s) marked read\n", len(args))
		return nil
	},
}
