package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"howhite/internal/config"
	"howhite/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the howhite config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config (file, environment and flags)",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the offline article cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and contents",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune [max-age]",
	Short: "Drop cached rows older than max-age (default: cache.max_age)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePrune,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	logger.Info("Wrote default config", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", resolvedConfigPath(), data)
	return nil
}

// withCache opens the configured cache for a maintenance command.
func withCache(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, c *store.Cache) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		return fmt.Errorf("cache disabled (cache.enabled: false)")
	}
	c, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, cfg, c)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	return withCache(cmd, func(ctx context.Context, cfg *config.Config, c *store.Cache) error {
		st, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "path:       %s\n", st.Path)
		fmt.Fprintf(out, "articles:   %d\n", st.Articles)
		fmt.Fprintf(out, "tags:       %d\n", st.Tags)
		fmt.Fprintf(out, "size:       %d bytes\n", st.SizeBytes)
		if st.LastFetch.IsZero() {
			fmt.Fprintln(out, "last fetch: never")
		} else {
			fmt.Fprintf(out, "last fetch: %s\n", st.LastFetch.Local().Format(time.RFC3339))
		}
		return nil
	})
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	return withCache(cmd, func(ctx context.Context, cfg *config.Config, c *store.Cache) error {
		maxAge := cfg.GetCacheMaxAge()
		if len(args) == 1 {
			d, err := time.ParseDuration(args[0])
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid max age %q", args[0])
			}
			maxAge = d
		}
		if maxAge == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Pruning disabled (cache.max_age)")
			return nil
		}
		n, err := c.Prune(ctx, maxAge)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d articles older than %s\n", n, maxAge)
		return nil
	})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	return withCache(cmd, func(ctx context.Context, cfg *config.Config, c *store.Cache) error {
		if err := c.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	})
}
