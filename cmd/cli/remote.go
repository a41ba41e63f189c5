package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-stars-analyzer/internal/config"
	"github.com/kurihiro0119/github-stars-analyzer/pkg/client"
)

var endpoint string

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Query a running API server",
	Long:  `Run the dashboard operations against a github-stars API server instead of in-process.`,
}

var remoteFetchCmd = &cobra.Command{
	Use:   "fetch [user]",
	Short: "Load a user's starred repositories on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteFetch,
}

var remoteSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the summary of the loaded collection",
	Args:  cobra.NoArgs,
	RunE:  runRemoteSummary,
}

var remoteReposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Show ranked repositories of the loaded collection",
	Args:  cobra.NoArgs,
	RunE:  runRemoteRepos,
}

var remoteTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Run a trend batch on the server",
	Args:  cobra.NoArgs,
	RunE:  runRemoteTrends,
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API endpoint (default API_ENDPOINT)")

	addQueryFlags(remoteReposCmd)
	remoteTrendsCmd.Flags().IntVar(&trendCount, "top", 0, "number of most-starred repositories (default server TREND_TOP_N)")

	remoteCmd.AddCommand(remoteFetchCmd)
	remoteCmd.AddCommand(remoteSummaryCmd)
	remoteCmd.AddCommand(remoteReposCmd)
	remoteCmd.AddCommand(remoteTrendsCmd)
}

func remoteClient() (*client.Client, error) {
	if endpoint != "" {
		return client.NewClient(endpoint), nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return client.NewClient(cfg.APIEndpoint), nil
}

func runRemoteFetch(cmd *cobra.Command, args []string) error {
	c, err := remoteClient()
	if err != nil {
		return err
	}

	summary, err := c.Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(summary)
	}
	renderSummary(os.Stdout, args[0], summary)
	return nil
}

func runRemoteSummary(cmd *cobra.Command, args []string) error {
	c, err := remoteClient()
	if err != nil {
		return err
	}

	summary, err := c.GetSummary(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(summary)
	}
	renderSummary(os.Stdout, "the loaded user", summary)
	return nil
}

func runRemoteRepos(cmd *cobra.Command, args []string) error {
	state, err := queryState()
	if err != nil {
		return err
	}
	c, err := remoteClient()
	if err != nil {
		return err
	}

	rows, err := c.ListRepos(cmd.Context(), state)
	if err != nil {
		return err
	}
	rows = head(rows, limit)
	if outputJSON {
		return printJSON(rows)
	}
	renderRanked(os.Stdout, rows)
	return nil
}

func runRemoteTrends(cmd *cobra.Command, args []string) error {
	c, err := remoteClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	batch, err := c.RunTrends(ctx, trendCount)
	if err != nil {
		return err
	}
	notices, err := c.GetNotices(ctx)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(map[string]interface{}{"batch": batch, "notices": notices})
	}
	renderBatch(os.Stdout, batch)
	renderNotices(os.Stderr, notices)
	return nil
}
