package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-stars-analyzer/internal/collector"
	"github.com/kurihiro0119/github-stars-analyzer/internal/config"
	"github.com/kurihiro0119/github-stars-analyzer/internal/dashboard"
	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	"github.com/kurihiro0119/github-stars-analyzer/internal/export"
	"github.com/kurihiro0119/github-stars-analyzer/internal/query"
	"github.com/kurihiro0119/github-stars-analyzer/pkg/logger"
)

var (
	outputJSON bool
	verbose    bool

	viewMode   string
	language   string
	topicKeys  []string
	sortKey    string
	sortOrder  string
	limit      int
	trendCount int

	exportFormat string
	exportOut    string
)

var rootCmd = &cobra.Command{
	Use:   "github-stars",
	Short: "GitHub starred repositories analyzer",
	Long: `A CLI tool for analyzing the repositories a GitHub user has starred.

It summarizes languages and canonical topics, ranks repositories by the
selected view, estimates star growth and exports the collection.`,
	SilenceUsage: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [user]",
	Short: "Summarize and rank a user's starred repositories",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var trendsCmd = &cobra.Command{
	Use:   "trends [user]",
	Short: "Estimate star growth for the most-starred repositories",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrends,
}

var exportCmd = &cobra.Command{
	Use:   "export [user]",
	Short: "Export a user's starred repositories as JSON or CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&viewMode, "view", "all", "view mode (all, top-starred, top-forked, top-watchers, recent)")
	cmd.Flags().StringVar(&language, "language", "", "only show repositories in this language")
	cmd.Flags().StringSliceVar(&topicKeys, "topic", nil, "only show repositories with these canonical topics ('others' for the rest)")
	cmd.Flags().StringVar(&sortKey, "sort", "stars", "sort key for the 'all' view (stars, forks, watchers, updated, name, issues, growth30, growth90, momentum)")
	cmd.Flags().StringVar(&sortOrder, "order", "desc", "sort direction (asc, desc)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to print (0 for all)")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	addQueryFlags(analyzeCmd)
	analyzeCmd.Flags().IntVar(&trendCount, "trends", 0, "compute trends for the N most-starred repositories first")

	trendsCmd.Flags().IntVar(&trendCount, "top", 0, "number of most-starred repositories (default TREND_TOP_N)")

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format (json, csv)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default <user>-starred-repos.<format>)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fetch loads the configuration, wires a dashboard and fetches username
func fetch(ctx context.Context, username string) (*dashboard.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.NewCLI(verbose)
	var opts []collector.Option
	if !outputJSON {
		opts = append(opts, collector.WithProgress(func(page, fetched int) {
			fmt.Fprintf(os.Stderr, "\rFetched %d repositories (page %d)", fetched, page)
		}))
	}

	svc, store, err := dashboard.NewFromConfig(cfg, log, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	cleanup := func() {
		_ = store.Close()
		_ = log.Sync()
	}

	if _, err := svc.Fetch(ctx, username); err != nil {
		cleanup()
		return nil, nil, err
	}
	if !outputJSON {
		fmt.Fprintln(os.Stderr)
	}
	log.Debug("fetch complete", zap.String("user", username))
	return svc, cleanup, nil
}

func queryState() (domain.QueryState, error) {
	return query.ParseState(viewMode, language, topicKeys, sortKey, sortOrder)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	state, err := queryState()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, cleanup, err := fetch(ctx, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	if trendCount > 0 {
		if _, err := svc.RunTrends(ctx, trendCount); err != nil {
			return err
		}
	}

	summary, err := svc.Summary()
	if err != nil {
		return err
	}
	rows, err := svc.Query(ctx, state)
	if err != nil {
		return err
	}
	rows = head(rows, limit)

	if outputJSON {
		return printJSON(map[string]interface{}{
			"summary":      summary,
			"query":        state,
			"repositories": rows,
			"notices":      svc.Notices(),
		})
	}

	renderSummary(os.Stdout, args[0], summary)
	renderRanked(os.Stdout, rows)
	renderNotices(os.Stderr, svc.Notices())
	return nil
}

func runTrends(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, cleanup, err := fetch(ctx, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	batch, err := svc.RunTrends(ctx, trendCount)
	if err != nil {
		return err
	}

	state := domain.DefaultQueryState()
	state.SortKey = domain.SortGrowth30
	rows, err := svc.Query(ctx, state)
	if err != nil {
		return err
	}
	rows = withTrend(rows)

	if outputJSON {
		return printJSON(map[string]interface{}{
			"batch":        batch,
			"repositories": rows,
			"notices":      svc.Notices(),
		})
	}

	renderBatch(os.Stdout, batch)
	renderTrends(os.Stdout, rows)
	renderNotices(os.Stderr, svc.Notices())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format, ok := export.ParseFormat(exportFormat)
	if !ok {
		return fmt.Errorf("unknown export format %q", exportFormat)
	}

	ctx := cmd.Context()
	svc, cleanup, err := fetch(ctx, args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	out := exportOut
	if out == "" {
		out = export.Filename(svc.Username(), format)
	}
	f, err := os.Create(filepath.Clean(out))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	if err := svc.Export(ctx, f, format); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func head[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func withTrend(rows []domain.RankedRepository) []domain.RankedRepository {
	out := make([]domain.RankedRepository, 0, len(rows))
	for _, row := range rows {
		if row.Trend != nil {
			out = append(out, row)
		}
	}
	return out
}
