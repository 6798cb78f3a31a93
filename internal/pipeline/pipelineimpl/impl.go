package pipelineimpl

import (
	"github.com/orgball2608/media-parser-telegram-bot/internal/batch"
	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/internal/fetcher"
	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/internal/pipeline"
	"github.com/orgball2608/media-parser-telegram-bot/internal/probe"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/config"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Lifecycle *lifecycle.Manager
	Prober    *probe.Prober
	Fetcher   *fetcher.Fetcher
	Executor  *batch.Executor
	Namer     *cache.Namer
	Logger    logger.Logger
	Config    *config.Config
}

type PipelineImpl struct {
	Lifecycle *lifecycle.Manager
	Prober    *probe.Prober
	Fetcher   *fetcher.Fetcher
	Executor  *batch.Executor
	Namer     *cache.Namer
	Logger    logger.Logger
	Config    *config.Config

	cacheAvailable bool
	preFetchAll    bool
}

func New(opts Opts) *PipelineImpl {
	cacheAvailable := cache.Available(opts.Config.Downloader.CacheDir)
	if opts.Config.Downloader.PreFetchAll && !cacheAvailable {
		opts.Logger.Warn("Pre-fetch mode requested but cache directory is unavailable, falling back to direct links",
			"cache_dir", opts.Config.Downloader.CacheDir,
			"error", errors.ErrCacheUnavailable)
	}

	return &PipelineImpl{
		Lifecycle:      opts.Lifecycle,
		Prober:         opts.Prober,
		Fetcher:        opts.Fetcher,
		Executor:       opts.Executor,
		Namer:          opts.Namer,
		Logger:         opts.Logger,
		Config:         opts.Config,
		cacheAvailable: cacheAvailable,
		preFetchAll:    opts.Config.Downloader.PreFetchAll && cacheAvailable,
	}
}

var _ pipeline.Client = (*PipelineImpl)(nil)
