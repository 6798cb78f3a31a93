package commandimpl

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpMessage = `👋 *Welcome to the Media Parser Bot!*

Send me a link to a video, image, or stream and I will fetch it for you.

Commands:
/dl <url> - Download media from a URL.
/help - Show this guide.

You can also just paste one or more links into a message.`

func (c *CommandImpl) HandleCommand(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.Delivery.GetUpdatesChan(u)
	c.Logger.Info("Command handler started, listening for updates.")

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Command handler shutting down.")
			c.Delivery.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				c.Logger.Warn("Telegram updates channel closed unexpectedly. Restarting handler...")
				return errors.New("telegram updates channel closed")
			}

			go func(u tgbotapi.Update) {
				defer func() {
					if r := recover(); r != nil {
						c.Logger.Error("Panic recovered while processing an update", "panic", r, "stack", string(debug.Stack()))
					}
				}()

				if u.Message == nil {
					return
				}

				c.Logger.Info("Message received", "from", u.Message.From.UserName, "text", u.Message.Text)

				if !c.Limiter.Allow(u.Message.From.ID) {
					if _, err := c.Delivery.SendMessage(u.Message.Chat.ID,
						"You are sending requests too quickly. Please wait a moment."); err != nil {
						c.Logger.Error("Error sending rate limit notice", "error", err)
					}
					return
				}

				if u.Message.IsCommand() {
					if err := c.processCommand(ctx, u); err != nil {
						c.Logger.Error("Error processing command",
							"command", u.Message.Command(),
							"error", err)
					}
					return
				}

				if err := c.handleLinks(ctx, u.Message.Chat.ID, u.Message.Text); err != nil {
					c.Logger.Error("Error processing message links", "error", err)
				}
			}(update)
		}
	}
}

func (c *CommandImpl) processCommand(ctx context.Context, update tgbotapi.Update) error {
	command := update.Message.Command()
	args := strings.TrimSpace(update.Message.CommandArguments())
	chatID := update.Message.Chat.ID

	switch command {
	case "start", "help":
		_, err := c.Delivery.SendMessage(chatID, helpMessage)
		return err
	case "dl", "download":
		if args == "" {
			_, err := c.Delivery.SendMessage(chatID, "Please provide a URL: /dl <media_url>")
			return err
		}
		return c.handleLinks(ctx, chatID, args)
	default:
		_, err := c.Delivery.SendMessage(chatID, "Unknown command. Type /help to see the list of available commands.")
		return err
	}
}
