package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenwise-ai/tokenwise/pkg/audit"
	"github.com/tokenwise-ai/tokenwise/pkg/models"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query the budget/cache event log",
	}

	cmd.AddCommand(
		newEventsListCmd(),
		newEventsStatsCmd(),
		newEventsCleanupCmd(),
	)
	return cmd
}

func openEventLogger(configPath string) (*audit.Logger, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return audit.New(cfg.Events)
}

func newEventsListCmd() *cobra.Command {
	var (
		configPath string
		kind       string
		model      string
		since      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openEventLogger(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			opts := models.EventQueryOpts{
				Kind:  models.EventKind(kind),
				Model: model,
				Limit: limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			events, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tKIND\tMODEL\tOPERATION\tTOKENS\tALLOWED")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\n",
					e.CreatedAt.Format("2006-01-02T15:04:05"), e.Kind, e.Model, e.Operation, e.Tokens, e.Allowed)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by event kind (usage, cache_hit, cache_miss, cache_store)")
	cmd.Flags().StringVar(&model, "model", "", "filter by model")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events to return")
	return cmd
}

func newEventsStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate event counts by kind and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openEventLogger(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tKIND\tCOUNT\tTOKENS")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.Day, s.Kind, s.Count, s.Tokens)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func newEventsCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete events older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openEventLogger(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			removed, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d events.\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}
