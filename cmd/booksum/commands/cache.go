package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/booksum/internal/bootstrap"
	"github.com/yanqian/booksum/internal/infra/cachestore"
	"github.com/yanqian/booksum/internal/infra/config"
)

// cacheCmd groups cache maintenance commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the summary cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cached results",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached result",
	Long: `Delete every cached result. The next run pays for every model call
again.`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache() (*config.Config, cachestore.Store, func(), error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	store, cleanup, err := bootstrap.ProvideCacheStore(cfg, newLogger())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, cleanup, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, store, cleanup, err := openCache()
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := store.Len(ctx)
	if err != nil {
		return fmt.Errorf("count cache entries: %w", err)
	}

	if outputFormat == "json" {
		return outputJSON(map[string]any{
			"backend": cfg.Cache.Backend,
			"entries": n,
		})
	}
	fmt.Printf("%s cache: %d entries\n", cfg.Cache.Backend, n)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, store, cleanup, err := openCache()
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := store.Len(ctx)
	if err != nil {
		return fmt.Errorf("count cache entries: %w", err)
	}
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	if outputFormat == "json" {
		return outputJSON(map[string]any{
			"backend": cfg.Cache.Backend,
			"removed": n,
		})
	}
	fmt.Printf("Removed %d entries from the %s cache.\n", n, cfg.Cache.Backend)
	return nil
}
