package commandimpl

import (
	"github.com/orgball2608/media-parser-telegram-bot/internal/command"
	"github.com/orgball2608/media-parser-telegram-bot/internal/delivery"
	"github.com/orgball2608/media-parser-telegram-bot/internal/pipeline"
	"github.com/orgball2608/media-parser-telegram-bot/internal/platform"
	"github.com/orgball2608/media-parser-telegram-bot/internal/ratelimit"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/config"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Delivery delivery.Client
	Pipeline pipeline.Client
	Registry *platform.Registry
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
	Config   *config.Config
}

type CommandImpl struct {
	Delivery delivery.Client
	Pipeline pipeline.Client
	Registry *platform.Registry
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
	Config   *config.Config
}

func New(opts Opts) *CommandImpl {
	return &CommandImpl{
		Delivery: opts.Delivery,
		Pipeline: opts.Pipeline,
		Registry: opts.Registry,
		Limiter:  opts.Limiter,
		Logger:   opts.Logger,
		Config:   opts.Config,
	}
}

var _ command.Client = (*CommandImpl)(nil)
