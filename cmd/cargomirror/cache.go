package main

import (
	"fmt"
	"strconv"

	"github.com/quantmind-br/cargomirror-go/internal/cache"
	"github.com/quantmind-br/cargomirror-go/internal/config"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entries and disk usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		s := c.Stats()
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Cache", "Value"}, [][]string{
			{"Directory", dir},
			{"Entries", strconv.FormatInt(s.Entries, 10)},
			{"LSM bytes", strconv.FormatInt(s.LSMBytes, 10)},
			{"Value log bytes", strconv.FormatInt(s.VlogBytes, 10)},
		}))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", dir)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCache opens the configured cache directory whether or not caching
// is enabled for runs.
func openCache() (*cache.BadgerCache, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	dir := cfg.Cache.Directory
	if dir == "" {
		dir = config.CacheDir()
	}
	dir = utils.ExpandPath(dir)

	c, err := cache.NewBadgerCache(cache.Options{Directory: dir, GCInterval: -1})
	if err != nil {
		return nil, "", err
	}
	return c, dir, nil
}
