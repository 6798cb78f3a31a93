package delivery

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
)

// Client packages acquired media into outbound Telegram messages.
type Client interface {
	GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()

	SendMessage(chatID int64, text string) (int, error)
	EditMessageText(chatID int64, messageID int, newText string) error

	// DeliverPost sends the post's surviving media to the chat, direct links
	// or local files per the acquisition decision, and cleans up cache files
	// afterwards.
	DeliverPost(ctx context.Context, chatID int64, post *domain.MediaPost) error
}
