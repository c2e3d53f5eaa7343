package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cachepkg "github.com/tokenwise-ai/tokenwise/pkg/cache"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := cachepkg.New(cfg.CacheDir, cfg.Cache.TTL, cfg.Cache.MaxSize, nil)
			if err != nil {
				return err
			}

			stats := c.Stats()
			fmt.Printf("Disk entries: %d\n", stats.DiskEntries)
			return nil
		},
	}

	var age time.Duration
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := cachepkg.New(cfg.CacheDir, cfg.Cache.TTL, cfg.Cache.MaxSize, nil)
			if err != nil {
				return err
			}

			removed := c.Clear(age)
			if age > 0 {
				fmt.Printf("Removed %d entries older than %s.\n", removed, age)
			} else {
				fmt.Printf("Removed %d entries.\n", removed)
			}
			return nil
		},
	}
	clearCmd.Flags().DurationVar(&age, "age", 0, "only clear entries older than this (e.g. 24h)")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
