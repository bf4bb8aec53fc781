package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/feed"
	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/ui"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List the activity feed, grouped by day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow, _ := cmd.Flags().GetString("workflow")
		severity, _ := cmd.Flags().GetString("severity")
		unreadOnly, _ := cmd.Flags().GetBool("unread")
		cursor, _ := cmd.Flags().GetString("cursor")
		limit, _ := cmd.Flags().GetInt("limit")
		all, _ := cmd.Flags().GetBool("all")

		req := &client.PageRequest{
			BrandID:    brandID,
			Workflow:   model.Workflow(workflow),
			Severity:   model.Severity(severity),
			UnreadOnly: unreadOnly,
			Cursor:     cursor,
			Limit:      limit,
		}

		ctx := context.Background()
		var items []*model.FeedEvent
		var unreadCount int
		nextCursor := ""
		for {
			resp, err := feedClient.FetchPage(ctx, req)
			if err != nil {
				return fmt.Errorf("fetching feed: %w", err)
			}
			items = append(items, resp.Items...)
			unreadCount = resp.UnreadCount
			nextCursor = resp.NextCursor
			if !all || !resp.HasMore {
				break
			}
			req.Cursor = resp.NextCursor
		}

		if jsonOutput {
			printJSON(map[string]any{
				"items":        items,
				"next_cursor":  nextCursor,
				"unread_count": unreadCount,
			})
			return nil
		}

		if len(items) == 0 {
			fmt.Println("no events")
			return nil
		}

		printGroups(feed.GroupByDay(items, time.Now()))
		fmt.Printf("\n%d events, %d unread\n", len(items), unreadCount)
		if nextCursor != "" {
			fmt.Println(ui.RenderMuted("more: sl feed --cursor " + nextCursor))
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().String("workflow", "", "filter by workflow")
	feedCmd.Flags().String("severity", "", "filter by severity")
	feedCmd.Flags().Bool("unread", false, "only unread events")
	feedCmd.Flags().String("cursor", "", "resume from a pagination cursor")
	feedCmd.Flags().Int("limit", 25, "page size")
	feedCmd.Flags().Bool("all", false, "fetch every page")
}
