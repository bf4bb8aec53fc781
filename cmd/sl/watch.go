package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/events"
	"github.com/sightlinehq/sightline/internal/feed"
	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail the feed, folding realtime events in as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow, _ := cmd.Flags().GetString("workflow")
		severity, _ := cmd.Flags().GetString("severity")
		unreadOnly, _ := cmd.Flags().GetBool("unread")
		natsURL, _ := cmd.Flags().GetString("nats")
		interval, _ := cmd.Flags().GetDuration("interval")

		if natsURL == "" {
			natsURL = os.Getenv("SIGHTLINE_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL configured; set --nats, SIGHTLINE_NATS_URL, or the active remote's nats_url")
		}

		sub, err := events.NewNATSSubscriber(natsURL)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ctrl := feed.NewController(feedClient, sub, brandID)
		defer ctrl.Close()
		ctrl.SetNotifier(func(msg string) {
			fmt.Fprintf(os.Stderr, "! %s\n", msg)
		})
		if err := ctrl.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		filter := model.Filter{
			BrandID:    brandID,
			Workflow:   model.Workflow(workflow),
			Severity:   model.Severity(severity),
			UnreadOnly: unreadOnly,
		}
		if err := ctrl.SetFilter(ctx, filter); err != nil {
			return err
		}

		snap := ctrl.Snapshot()
		printGroups(feed.GroupByDay(snap.Main, time.Now()))
		fmt.Printf("\nwatching (%d unread), ctrl-c to exit\n", snap.UnreadTotal)

		// Each tick folds whatever the push channel buffered into the list
		// and prints only the newly merged events.
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				snap := ctrl.Snapshot()
				if len(snap.Buffer) == 0 {
					continue
				}
				fmt.Printf("\n%s\n", ui.RenderAccent(fmt.Sprintf("%d new update(s)", len(snap.Buffer))))
				printGroups(feed.GroupByDay(snap.Buffer, time.Now()))
				ctrl.Merge()
			}
		}
	},
}

func init() {
	watchCmd.Flags().String("workflow", "", "filter by workflow")
	watchCmd.Flags().String("severity", "", "filter by severity")
	watchCmd.Flags().Bool("unread", false, "only unread events")
	watchCmd.Flags().String("nats", "", "NATS URL for the push channel")
	watchCmd.Flags().Duration("interval", 2*time.Second, "how often buffered events are folded in")
}
