package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/model"
)

var actCmd = &cobra.Command{
	Use:   "act <event-id> <action>",
	Short: "Perform an action on an event (waits for server confirmation)",
	Long: `Perform an action on an event, e.g.:

  sl act ev-abc123 generate_memo

Actions may cost credits and only succeed once per event; the command waits
for the server to confirm or reject before reporting anything.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, action := args[0], model.Action(args[1])

		result, err := feedClient.PerformAction(context.Background(), id, action)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				switch apiErr.StatusCode {
				case http.StatusConflict:
					return fmt.Errorf("an action was already taken on %s", id)
				case http.StatusUnprocessableEntity:
					return fmt.Errorf("%s", apiErr.Message)
				}
			}
			return fmt.Errorf("action failed: %w", err)
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}

		fmt.Printf("%s: %s confirmed\n", id, action)
		if result.MemoID != "" {
			fmt.Printf("memo: %s\n", result.MemoID)
		}
		return nil
	},
}
