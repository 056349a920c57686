package commands

import (
	"context"
	"fmt"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/internal/external/yahoo"
	"github.com/wonny/etfrating/internal/metrics"
	"github.com/wonny/etfrating/internal/pipeline"
	"github.com/wonny/etfrating/internal/pricedata"
	"github.com/wonny/etfrating/internal/rating"
	"github.com/wonny/etfrating/internal/report"
	"github.com/wonny/etfrating/internal/strategyconfig"
	"github.com/wonny/etfrating/internal/universe"
	"github.com/wonny/etfrating/pkg/config"
	"github.com/wonny/etfrating/pkg/database"
	"github.com/wonny/etfrating/pkg/httputil"
	"github.com/wonny/etfrating/pkg/logger"
	"github.com/wonny/etfrating/pkg/redis"
)

// keyPrefix namespaces every Redis key of this tool
const keyPrefix = "etfrating"

// app holds the dependencies shared by commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	universe *contracts.Universe

	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Registry
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnvFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}
	if universeFile != "" {
		cfg.UniverseFile = universeFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// setup loads config, logger, strategy and universe
func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	strategy, err := strategyconfig.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	u, err := universe.Load(cfg.UniverseFile)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		strategy: strategy,
		universe: u,
	}, nil
}

// Close releases connections opened by the app
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// database connects to Postgres once
func (a *app) database(ctx context.Context) (*database.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	a.log.Info("Connected to database")
	return db, nil
}

// redisClient connects to Redis once. A disabled client is returned when REDIS_ENABLED=false.
func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}

	client, err := redis.New(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	if client.Enabled() {
		a.log.Info("Connected to redis")
	}
	return client, nil
}

// yahooClient builds the remote price provider (rate limited, circuit broken)
func (a *app) yahooClient(ctx context.Context) (*yahoo.Client, error) {
	rps := a.cfg.Provider.RateLimit
	httpClient := httputil.New(a.cfg, a.log).WithLocalLimit(float64(rps), 1)

	rc, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if rc.Enabled() {
		// 여러 프로세스가 같은 한도를 공유
		httpClient.WithRateLimiter(redis.NewRateLimiter(rc, keyPrefix), redis.YahooRateLimitPerSecond(rps))
	}

	return yahoo.NewClient(httpClient, a.cfg.Provider.BaseURL, a.log), nil
}

// provider returns the configured price source, cached in Redis when enabled
func (a *app) provider(ctx context.Context) (contracts.PriceProvider, error) {
	var p contracts.PriceProvider

	switch a.cfg.Provider.Source {
	case "db":
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		p = pricedata.NewRepository(db.Pool)
	default:
		yc, err := a.yahooClient(ctx)
		if err != nil {
			return nil, err
		}
		p = yc
	}

	rc, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if rc.Enabled() {
		p = pricedata.NewCachedProvider(p, redis.NewCache(rc, keyPrefix), a.cfg.Provider.CacheTTL, a.log)
	}

	a.log.WithFields(map[string]interface{}{
		"source": a.cfg.Provider.Source,
		"cached": rc.Enabled(),
	}).Debug("Price provider ready")

	return p, nil
}

// engine builds the rating engine, reporting to Prometheus when enabled
func (a *app) engine(p contracts.PriceProvider) *rating.Engine {
	e := rating.NewEngine(p, a.strategy, rating.Config{
		Concurrency:       a.cfg.Rating.Concurrency,
		InstrumentTimeout: a.cfg.Rating.InstrumentTimeout,
	}, a.log)

	if a.cfg.MetricsEnabled {
		if a.metrics == nil {
			a.metrics = metrics.NewRegistry()
		}
		e.SetObserver(a.metrics)
	}
	return e
}

// pipelineOptions select the outputs of a run
type pipelineOptions struct {
	exportCSV bool
	persist   bool
}

// pipeline wires provider → engine → CSV / Postgres
func (a *app) pipeline(ctx context.Context, opts pipelineOptions) (*pipeline.Pipeline, error) {
	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}

	pl := pipeline.New(a.engine(p), a.universe, a.log)

	if opts.exportCSV {
		pl.WithExporter(report.NewExporter(a.cfg.OutputDir))
	}

	if opts.persist {
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		pl.WithStore(pipeline.NewPostgresStore(db.Pool))
	}

	return pl, nil
}
