package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/model"
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Ingest a new feed event (producer side)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow, _ := cmd.Flags().GetString("workflow")
		severity, _ := cmd.Flags().GetString("severity")
		eventType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")
		dataJSON, _ := cmd.Flags().GetString("data")
		actions, _ := cmd.Flags().GetStringSlice("action")
		cost, _ := cmd.Flags().GetInt("cost")
		memoID, _ := cmd.Flags().GetString("memo")
		queryID, _ := cmd.Flags().GetString("query")
		competitorID, _ := cmd.Flags().GetString("competitor")

		if brandID == "" {
			return fmt.Errorf("--brand is required for create")
		}

		req := &client.CreateEventRequest{
			BrandID:             brandID,
			Workflow:            model.Workflow(workflow),
			Severity:            model.Severity(severity),
			EventType:           eventType,
			Title:               args[0],
			Description:         description,
			RelatedMemoID:       memoID,
			RelatedQueryID:      queryID,
			RelatedCompetitorID: competitorID,
			ActionCostCredits:   cost,
		}
		for _, a := range actions {
			req.ActionAvailable = append(req.ActionAvailable, model.Action(a))
		}
		if dataJSON != "" {
			var payload model.Payload
			if err := json.Unmarshal([]byte(dataJSON), &payload); err != nil {
				return fmt.Errorf("parsing --data: %w", err)
			}
			req.Data = &payload
		}

		event, err := feedClient.CreateEvent(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}

		if jsonOutput {
			printJSON(event)
			return nil
		}
		fmt.Printf("created %s\n", event.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().String("workflow", "system", "workflow that produced the event")
	createCmd.Flags().String("severity", "info", "event severity")
	createCmd.Flags().String("type", "", "event type discriminator")
	createCmd.Flags().String("description", "", "longer description")
	createCmd.Flags().String("data", "", "payload as JSON, e.g. '{\"kind\":\"citation_gap\",\"citation_gap\":{...}}'")
	createCmd.Flags().StringSlice("action", nil, "available action (repeatable)")
	createCmd.Flags().Int("cost", 0, "credit cost of the primary action")
	createCmd.Flags().String("memo", "", "related memo id")
	createCmd.Flags().String("query", "", "related query id")
	createCmd.Flags().String("competitor", "", "related competitor id")
}
