package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokenwise-ai/tokenwise/pkg/config"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "tokenwise",
		Short:   "Token budget and response cache bookkeeping for LLM agents",
		Version: version,
	}

	root.AddCommand(
		newStatsCmd(),
		newBudgetCmd(),
		newCacheCmd(),
		newEventsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the config file when a path is given, otherwise the
// built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
