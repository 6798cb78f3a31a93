package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/orgball2608/media-parser-telegram-bot/internal/batch"
	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/internal/command"
	"github.com/orgball2608/media-parser-telegram-bot/internal/command/commandimpl"
	"github.com/orgball2608/media-parser-telegram-bot/internal/delivery"
	"github.com/orgball2608/media-parser-telegram-bot/internal/delivery/deliveryimpl"
	"github.com/orgball2608/media-parser-telegram-bot/internal/fetcher"
	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/internal/pipeline"
	"github.com/orgball2608/media-parser-telegram-bot/internal/pipeline/pipelineimpl"
	"github.com/orgball2608/media-parser-telegram-bot/internal/platform"
	"github.com/orgball2608/media-parser-telegram-bot/internal/platform/direct"
	"github.com/orgball2608/media-parser-telegram-bot/internal/probe"
	"github.com/orgball2608/media-parser-telegram-bot/internal/ratelimit"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/config"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		lifecycle.New,
		cache.NewNamer,
		newProber,
		newFetcher,
		newExecutor,
		newJanitor,
		newRegistry,
		newLimiter,
	),
	fx.Provide(
		fx.Annotate(
			pipelineimpl.New,
			fx.As(new(pipeline.Client)),
		), fx.Annotate(
			deliveryimpl.New,
			fx.As(new(delivery.Client)),
		), fx.Annotate(
			commandimpl.New,
			fx.As(new(command.Client)),
		),
	),
	fx.Invoke(run),
)

func newProber(lm *lifecycle.Manager, log logger.Logger, cfg *config.Config) *probe.Prober {
	return probe.New(lm, log, cfg.Downloader.ProbeTimeout)
}

func newFetcher(lm *lifecycle.Manager, log logger.Logger, cfg *config.Config) *fetcher.Fetcher {
	return fetcher.New(lm, log, fetcher.Options{
		Timeout:    cfg.Downloader.FetchTimeout,
		FfmpegBin:  cfg.Downloader.FfmpegBin,
		FfprobeBin: cfg.Downloader.FfprobeBin,
	})
}

func newExecutor(cfg *config.Config) *batch.Executor {
	return batch.NewExecutor(cfg.Downloader.MaxConcurrent)
}

func newJanitor(cfg *config.Config, log logger.Logger) *cache.Janitor {
	return cache.NewJanitor(cfg.Downloader.CacheDir, cfg.Downloader.CacheTTL, log)
}

func newRegistry() *platform.Registry {
	return platform.NewRegistry(direct.New())
}

func newLimiter(cfg *config.Config) ratelimit.Limiter {
	rl := cfg.RateLimit
	return ratelimit.NewInMemoryLimiter(rl.Requests, rl.Per, rl.Burst)
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config,
	lm *lifecycle.Manager, janitor *cache.Janitor, cmdClient command.Client) {
	appCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go startHttpServer(log, cfg)

			if err := janitor.Start(appCtx); err != nil {
				log.Error("Failed to start cache janitor", "error", err)
			}

			go func() {
				for {
					if err := cmdClient.HandleCommand(appCtx); err != nil {
						if appCtx.Err() != nil {
							return
						}
						log.Error("Command handler stopped, restarting", "error", err)
						time.Sleep(time.Second)
					}
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return lm.Shutdown(ctx)
		},
	})
}

func startHttpServer(log logger.Logger, cfg *config.Config) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheckHandler(w, r, log)
	})

	log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), nil); err != nil {
		log.Error("Server failed to start: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request, logger logger.Logger) {
	logger.Info("Health check request received", "Method", r.Method, "URL", r.URL.String())
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Error("Failed to write response", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
