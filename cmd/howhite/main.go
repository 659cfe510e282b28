package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"howhite/internal/api"
	"howhite/internal/config"
	"howhite/internal/feed"
	"howhite/internal/logging"
	"howhite/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiURL     string
	timeout    time.Duration
	offline    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "howhite",
	Short: "howhite - terminal reader for the Howhite blog",
	Long: `howhite reads the Howhite blog in the terminal.

The article list is a virtual scroll: only the rows in view (plus a few
overscan rows) are rendered, however long the list grows. Tag pages reveal
their articles a few at a time as you scroll towards the end.

Articles are cached in SQLite so the reader keeps working offline.

Run without arguments to start the interactive reader.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .howhite/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Blog API base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "API timeout (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Skip the API and read from the cache or sample data")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if timeout > 0 {
		cfg.API.Timeout = timeout.String()
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if err := logging.Initialize(cwd, cfg.Logging.Options()); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	return cfg, nil
}

// openCache opens the article cache and prunes rows older than the
// configured max age. A nil cache means caching is off or unavailable.
func openCache(ctx context.Context, cfg *config.Config) *store.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	cache, err := store.Open(cfg.Cache.Path)
	if err != nil {
		logger.Warn("Article cache unavailable", zap.String("path", cfg.Cache.Path), zap.Error(err))
		return nil
	}
	if maxAge := cfg.GetCacheMaxAge(); maxAge > 0 {
		n, err := cache.Prune(ctx, maxAge)
		switch {
		case err != nil:
			logger.Warn("Cache prune failed", zap.Error(err))
		case n > 0:
			logger.Debug("Pruned cached articles", zap.Int64("count", n), zap.Duration("max_age", maxAge))
		}
	}
	return cache
}

// openSource wires the API client, cache and sample fallback together. The
// returned cleanup closes the cache.
func openSource(ctx context.Context, cfg *config.Config) (*feed.Source, func()) {
	opts := []feed.Option{feed.WithPageSize(cfg.API.PageSize)}
	cleanup := func() {}
	if cache := openCache(ctx, cfg); cache != nil {
		opts = append(opts, feed.WithCache(cache))
		cleanup = func() {
			if err := cache.Close(); err != nil {
				logger.Warn("Closing cache", zap.Error(err))
			}
		}
	}

	var backend feed.Backend
	if !offline {
		client := api.New(cfg.API.BaseURL, cfg.GetAPITimeout())
		client.SetToken(cfg.API.Token)
		backend = client
	}
	logger.Debug("Feed source ready",
		zap.Bool("online", backend != nil),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("cache", cfg.Cache.Enabled))
	return feed.NewSource(backend, opts...), cleanup
}

// setup is the common prologue of the data commands.
func setup(cmd *cobra.Command) (*config.Config, *feed.Source, context.Context, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.GetAPITimeout()*3)
	src, closeSource := openSource(ctx, cfg)
	return cfg, src, ctx, func() {
		closeSource()
		cancel()
	}, nil
}
