package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/patrickmn/go-cache"

	"github.com/Proton-105/coinpulse-bot/internal/bot"
	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/chart"
	"github.com/Proton-105/coinpulse-bot/internal/delivery"
	apperrors "github.com/Proton-105/coinpulse-bot/internal/errors"
	"github.com/Proton-105/coinpulse-bot/internal/health"
	"github.com/Proton-105/coinpulse-bot/internal/httpserver"
	"github.com/Proton-105/coinpulse-bot/internal/i18n"
	"github.com/Proton-105/coinpulse-bot/internal/idempotency"
	"github.com/Proton-105/coinpulse-bot/internal/jobs"
	"github.com/Proton-105/coinpulse-bot/internal/lifecycle"
	"github.com/Proton-105/coinpulse-bot/internal/market"
	"github.com/Proton-105/coinpulse-bot/internal/middleware"
	"github.com/Proton-105/coinpulse-bot/internal/ratelimit"
	"github.com/Proton-105/coinpulse-bot/internal/state"
	"github.com/Proton-105/coinpulse-bot/pkg/config"
	"github.com/Proton-105/coinpulse-bot/pkg/graceful"
	"github.com/Proton-105/coinpulse-bot/pkg/logger"
	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
	appredis "github.com/Proton-105/coinpulse-bot/pkg/redis"
)

const (
	workerConcurrency = 8
	workerQueueSize   = 512
	cleanupInterval   = time.Minute
	collectInterval   = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("coinpulse bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return err
		}
	}

	level := new(slog.LevelVar)
	level.Set(logger.ParseLevel(cfg.Log.Level))
	log := logger.New(logger.Options{
		Level:         level,
		File:          cfg.Log.File,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxBackups:    cfg.Log.MaxBackups,
		MaxAgeDays:    cfg.Log.MaxAgeDays,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)
	config.WatchLogLevel(v, level, logger.ParseLevel, log)

	log.Info("starting coinpulse bot",
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.Server.Port),
		slog.Bool("webhook", cfg.Bot.UsesWebhook()),
		slog.String("log_level", cfg.Log.Level),
	)

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Warn("unknown schedule timezone, using UTC", slog.String("timezone", cfg.Schedule.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log, 3*time.Second)

	var redisClient *appredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = appredis.New(ctx, appredis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			PoolTimeout:  cfg.Redis.PoolTimeout,
			IdleTimeout:  cfg.Redis.IdleTimeout,
			MaxRetries:   cfg.Redis.MaxRetries,
		})
		if err != nil {
			// rate limiting and idempotency fall back to memory
			log.Error("redis unavailable, continuing without it", slog.Any("error", err))
			redisClient = nil
		} else {
			checker.AddCheck("redis", health.NewRedisChecker(redisClient))
			shutdown.Register(lifecycle.StageFlush, "redis", func(context.Context) error {
				return redisClient.Close()
			})
		}
	}

	marketClient := market.NewClient(market.ClientConfig{
		BaseURL:           cfg.Market.BaseURL,
		APIKey:            cfg.Market.APIKey,
		Currency:          cfg.Market.Currency,
		RequestsPerMinute: cfg.Market.RequestsPerMinute,
		Timeout:           cfg.Market.Timeout,
	}, log)
	coins := market.NewCache(marketClient, market.CacheConfig{
		TopLimit: cfg.Market.TopLimit,
		TopTTL:   cfg.Market.TopTTL,
		AllTTL:   cfg.Market.AllTTL,
	}, log)
	checker.AddCheck("market", health.NewPingChecker(marketClient))

	catalogs, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		return err
	}
	translator := catalogs.Translator(cfg.Bot.Language)

	store := state.NewStore()
	state.RegisterTransitionRecorder(metrics.RecordScheduleTransition)

	tb, err := bot.NewTelebot(cfg.Bot, log)
	if err != nil {
		return err
	}

	dispatcher := delivery.NewDispatcher(store, marketClient, bot.NewChatSender(tb), translator, log)

	worker := jobs.NewWorker(func(ctx context.Context, chatID int64, source jobs.Source) error {
		return dispatcher.DeliverNow(ctx, chatID, string(source))
	}, workerConcurrency, workerQueueSize, log)
	scheduler := jobs.NewScheduler(worker.Submit, loc, log)

	h := handlers.New(handlers.Deps{
		State:       store,
		Triggers:    scheduler,
		Coins:       coins,
		History:     marketClient,
		Charts:      chart.NewRenderer(cfg.Chart.Width, cfg.Chart.Height, cfg.Chart.MaxTicks, loc),
		Delivery:    dispatcher,
		Editor:      tb,
		Keyboards:   keyboard.NewBuilder(translator, log),
		T:           translator,
		Views:       cache.New(handlers.ViewTTL, 10*time.Minute),
		PageSize:    cfg.Market.PageSize,
		SearchLimit: cfg.Market.SearchLimit,
		Location:    loc,
		Log:         log,
	})

	memoryLimiter := ratelimit.NewMemoryLimiter(log)
	var primaryLimiter ratelimit.Limiter
	var idempotencyStore idempotency.Store
	if redisClient != nil {
		primaryLimiter = ratelimit.NewRedisLimiter(redisClient.Client, log)
		idempotencyStore = idempotency.NewRedisStore(redisClient.Client, log)
	} else {
		idempotencyStore = idempotency.NewMemoryStore(cleanupInterval)
	}
	limiter := ratelimit.NewAdaptiveLimiter(primaryLimiter, memoryLimiter, log)
	go ratelimit.NewCleaner(memoryLimiter, log, cleanupInterval, 10*time.Minute).Run(ctx)

	b, err := bot.New(tb, bot.Options{
		Log:          log,
		FSM:          store,
		Handlers:     h,
		Translations: catalogs,
		ErrHandler:   apperrors.NewHandler(log, cfg.Sentry.Enabled),
		Idempotency:  idempotency.NewManager(idempotencyStore, log),
		RateLimit:    middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log),
	})
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewPingChecker(b))

	probes := lifecycle.NewProbes(log, checker)
	router := httpserver.NewRouter(httpserver.Options{
		Probes:      probes,
		Webhook:     b.WebhookHandler(),
		WebhookPath: httpserver.WebhookPath(cfg.Bot.PublicWebhookURL()),
		Log:         log,
	})
	server := graceful.NewServer(log, httpserver.NewServer(cfg.Server.Addr(), router), cfg.Server.ShutdownTimeout)

	worker.Run(ctx)
	scheduler.Start()
	go metrics.NewStateCollector(store, collectInterval).Run(ctx)
	go b.Start()

	shutdown.Register(lifecycle.StageIngress, "telegram", func(context.Context) error {
		probes.MarkDraining()
		b.Stop()
		return nil
	})
	shutdown.Register(lifecycle.StageIngress, "scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})
	shutdown.Register(lifecycle.StageDrain, "worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})
	shutdown.Register(lifecycle.StageDrain, "http", server.Shutdown)
	if cfg.Sentry.Enabled {
		shutdown.Register(lifecycle.StageFlush, "sentry", func(context.Context) error {
			if !sentry.Flush(2 * time.Second) {
				return errors.New("sentry flush timed out")
			}
			return nil
		})
	}

	// the http hook shuts the server down, so it is not bound to ctx
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe(context.Background()) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		return err
	}

	log.Info("coinpulse bot stopped")
	return nil
}
