// Package cli holds the financehistory command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"financehistory/internal/cache"
	"financehistory/internal/config"
	"financehistory/internal/coordinator"
	"financehistory/internal/fetcher"
	"financehistory/internal/logger"
	"financehistory/internal/ratelimit"
	"financehistory/internal/resolver"
	"financehistory/internal/seligson"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "financehistory",
		Short: "Historical key stats from archived instrument pages",
		Long: `financehistory answers "what was the value of this instrument on these days"
from pywb replays of Morningstar pages and from the Seligson fund feeds.

Examples:
  financehistory serve --port 5000
  financehistory query --interval 2015-03-01/2015-03-15 --url http://www.morningstar.fi/fi/funds/snapshot/snapshot.aspx?id=F0GBR04O2R`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "json or console, overrides LOG_FORMAT")

	cmd.AddCommand(newServeCmd(opts), newQueryCmd(opts))
	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads configuration and builds the logger. Logs go to logOut.
func (o *rootOptions) setup(logOut io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogFormat, logOut), nil
}

// service is the query pipeline wired from configuration
type service struct {
	coord *coordinator.Coordinator
	cache *cache.Store
}

func newService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*service, error) {
	limiter := ratelimit.New(map[ratelimit.Source]float64{
		ratelimit.SourceArchive: cfg.ArchiveRateLimit,
		ratelimit.SourceFeed:    cfg.FeedRateLimit,
	})

	httpClient := fetcher.NewHTTPClient(fetcher.ClientOptions{
		Timeout:  cfg.RequestTimeout,
		MaxConns: cfg.ConnPoolSize(),
	}, log)

	store, err := cache.New(ctx, cache.Config{
		Enabled:  cfg.RedisEnabled,
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PointTTL: cfg.CacheExpireAfter,
		ListTTL:  cfg.ListCacheExpireAfter,
	})
	if err != nil {
		return nil, err
	}

	selector := resolver.NewSelector(resolver.Deps{
		ReplayBaseURL: cfg.ReplayBaseURL,
		Archive:       fetcher.NewBatcher(httpClient, limiter, ratelimit.SourceArchive, cfg.PoolSize, log),
		Feeds:         seligson.NewClient(httpClient, limiter, log),
		Cache:         store,
		Log:           log,
	}, seligson.Feeds)

	log.Debug().
		Str("replay_base_url", cfg.ReplayBaseURL).
		Int("pool_size", cfg.PoolSize).
		Int("conn_pool_size", cfg.ConnPoolSize()).
		Int("instrument_parallelism", cfg.InstrumentParallelism).
		Bool("redis_enabled", store.Enabled()).
		Msg("query pipeline ready")

	return &service{
		coord: coordinator.New(selector, cfg.InstrumentParallelism, log),
		cache: store,
	}, nil
}

func (s *service) Close() error {
	return s.cache.Close()
}
