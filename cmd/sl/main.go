package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/ui"
)

var (
	serverURL  string
	authToken  string
	brandID    string
	jsonOutput bool

	feedClient client.FeedClient
)

func defaultServer() string {
	if s := os.Getenv("SIGHTLINE_SERVER"); s != "" {
		return s
	}
	if s := activeRemoteURL(); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("SIGHTLINE_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

func defaultBrand() string {
	if b := os.Getenv("SIGHTLINE_BRAND"); b != "" {
		return b
	}
	return activeRemoteBrandID()
}

var rootCmd = &cobra.Command{
	Use:   "sl",
	Short: "CLI client for the sightline activity feed",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		feedClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if feedClient != nil {
			feedClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "feed server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().StringVar(&brandID, "brand", defaultBrand(), "brand scope (empty = all brands)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(actCmd)
	rootCmd.AddCommand(unreadCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
