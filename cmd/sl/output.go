package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sightlinehq/sightline/internal/feed"
	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// printGroups renders the grouped feed as date-bucketed tables.
func printGroups(groups []feed.Group) {
	for _, g := range groups {
		fmt.Printf("\n%s\n", ui.RenderAccent(g.Label))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, e := range g.Events {
			fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\n",
				ui.RenderUnread(!e.Read),
				e.ID,
				e.CreatedAt.Local().Format("15:04"),
				ui.RenderWorkflow(e.Workflow),
				ui.RenderSeverity(e.Severity),
				truncate(e.Title, 60),
			)
		}
		w.Flush()
	}
}

func printEventDetail(e *model.FeedEvent) {
	fmt.Printf("ID:          %s\n", e.ID)
	fmt.Printf("Brand:       %s\n", e.BrandID)
	fmt.Printf("Workflow:    %s\n", ui.RenderWorkflow(e.Workflow))
	fmt.Printf("Severity:    %s\n", ui.RenderSeverity(e.Severity))
	if e.EventType != "" {
		fmt.Printf("Type:        %s\n", e.EventType)
	}
	fmt.Printf("Title:       %s\n", e.Title)
	if e.Description != "" {
		fmt.Printf("Description: %s\n", e.Description)
	}
	fmt.Printf("Read:        %t\n", e.Read)
	if actions := e.Actions(); len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = a.String()
		}
		fmt.Printf("Actions:     %s\n", strings.Join(names, ", "))
		if e.ActionCostCredits > 0 {
			fmt.Printf("Cost:        %d credits\n", e.ActionCostCredits)
		}
	}
	if e.Resolved() {
		fmt.Printf("Resolved:    %s at %s\n", e.ActionTaken, e.ActionTakenAt.Local().Format("2006-01-02 15:04:05"))
	}
	if e.RelatedMemoID != "" {
		fmt.Printf("Memo:        %s\n", e.RelatedMemoID)
	}
	if e.RelatedQueryID != "" {
		fmt.Printf("Query:       %s\n", e.RelatedQueryID)
	}
	if e.RelatedCompetitorID != "" {
		fmt.Printf("Competitor:  %s\n", e.RelatedCompetitorID)
	}
	fmt.Printf("Created At:  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if e.Data != nil {
		data, err := json.MarshalIndent(e.Data, "", "  ")
		if err == nil {
			fmt.Printf("Data:\n%s\n", string(data))
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
