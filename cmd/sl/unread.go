package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/ui"
)

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show unread counts per workflow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := feedClient.UnreadCounts(context.Background(), brandID)
		if err != nil {
			return fmt.Errorf("fetching unread counts: %w", err)
		}

		if jsonOutput {
			printJSON(counts)
			return nil
		}

		total := 0
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, wf := range model.Workflows() {
			n := counts[wf]
			total += n
			fmt.Fprintf(w, "%s\t%d\n", ui.RenderWorkflow(wf), n)
		}
		w.Flush()
		fmt.Printf("\n%d unread\n", total)
		return nil
	},
}
