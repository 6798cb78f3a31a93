package deliveryimpl

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/media-parser-telegram-bot/internal/delivery"
	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/config"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config    *config.Config
	Logger    logger.Logger
	Lifecycle *lifecycle.Manager
}

type DeliveryImpl struct {
	TgBot     *tgbotapi.BotAPI
	Logger    logger.Logger
	Config    *config.Config
	Lifecycle *lifecycle.Manager
}

func New(opts Opts) (*DeliveryImpl, error) {
	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		opts.Logger.Error("Error creating bot", "error", err)
		return nil, err
	}

	return &DeliveryImpl{
		TgBot:     tgBot,
		Logger:    opts.Logger,
		Config:    opts.Config,
		Lifecycle: opts.Lifecycle,
	}, nil
}

var _ delivery.Client = (*DeliveryImpl)(nil)

func (d *DeliveryImpl) GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return d.TgBot.GetUpdatesChan(u)
}

func (d *DeliveryImpl) StopReceivingUpdates() {
	d.TgBot.StopReceivingUpdates()
}
