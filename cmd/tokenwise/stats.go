package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tokenwise-ai/tokenwise/pkg/budget"
)

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show token usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			b := budget.New(cfg.LedgerPath, cfg.Budget.Limits, nil)
			stats := b.Stats()

			fmt.Printf("Total tokens:  %d%s\n", stats.TotalTokens, vsBudget(stats.TotalTokens, stats.TotalBudget))
			fmt.Printf("Daily tokens:  %d%s\n", stats.DailyTokens, vsBudget(stats.DailyTokens, stats.DailyBudget))
			fmt.Printf("Hourly tokens: %d%s\n", stats.HourlyTokens, vsBudget(stats.HourlyTokens, stats.HourlyBudget))

			if len(stats.ModelUsage) == 0 {
				return nil
			}

			modelNames := make([]string, 0, len(stats.ModelUsage))
			for m := range stats.ModelUsage {
				modelNames = append(modelNames, m)
			}
			sort.Strings(modelNames)

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tTOKENS")
			for _, m := range modelNames {
				fmt.Fprintf(w, "%s\t%d\n", m, stats.ModelUsage[m])
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func vsBudget(used, ceiling int) string {
	if ceiling <= 0 {
		return ""
	}
	return fmt.Sprintf(" / %d", ceiling)
}
