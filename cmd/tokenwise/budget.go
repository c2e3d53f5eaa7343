package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tokenwise-ai/tokenwise/pkg/budget"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage token budgets",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show window usage vs configured ceilings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cfg.Budget.Enabled {
				fmt.Println("Budget tracking is disabled.")
				return nil
			}

			b := budget.New(cfg.LedgerPath, cfg.Budget.Limits, nil)
			stats := b.Stats()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WINDOW\tUSED\tCEILING\tREMAINING")
			printWindow(w, "hourly", stats.HourlyTokens, stats.HourlyBudget)
			printWindow(w, "daily", stats.DailyTokens, stats.DailyBudget)
			printWindow(w, "total", stats.TotalTokens, stats.TotalBudget)
			return w.Flush()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.AddCommand(statusCmd)
	return cmd
}

func printWindow(w *tabwriter.Writer, name string, used, ceiling int) {
	if ceiling <= 0 {
		fmt.Fprintf(w, "%s\t%d\t-\t-\n", name, used)
		return
	}
	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, used, ceiling, remaining)
}
