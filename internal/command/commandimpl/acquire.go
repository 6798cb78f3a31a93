package commandimpl

import (
	"context"
	"fmt"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/formatter"
)

// handleLinks runs the acquisition pipeline for every supported link found in
// the text. Links no registered parser claims are silently ignored so the bot
// stays quiet in group chats full of unrelated URLs.
func (c *CommandImpl) handleLinks(ctx context.Context, chatID int64, text string) error {
	links := c.Registry.ExtractLinks(text)
	if len(links) == 0 {
		return nil
	}

	for _, link := range links {
		if err := c.acquireAndDeliver(ctx, chatID, link); err != nil {
			c.Logger.Error("Failed to process link",
				"url", link,
				"code", errors.GetCode(err),
				"error", err)
		}
	}
	return nil
}

func (c *CommandImpl) acquireAndDeliver(ctx context.Context, chatID int64, link string) error {
	parser, ok := c.Registry.Match(link)
	if !ok {
		return errors.ErrNotFound
	}

	initialMessage := fmt.Sprintf("Fetching media from %s... ⏳", formatter.EscapeMarkdownV2(link))
	sentMsgID, err := c.Delivery.SendMessage(chatID, initialMessage)
	if err != nil {
		return fmt.Errorf("failed to send initial message: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.Config.Downloader.FetchTimeout)
	defer cancel()

	post, err := parser.Parse(ctxWithTimeout, link)
	if err != nil {
		c.editQuietly(chatID, sentMsgID, "❌ Could not read media information from this link.")
		return errors.WrapWithCode(err, "PARSE_FAILED", "failed to parse link")
	}

	acq, err := c.Pipeline.Process(ctxWithTimeout, post)
	if err != nil {
		if errors.IsShuttingDown(err) {
			c.editQuietly(chatID, sentMsgID, "The bot is shutting down, please try again later.")
			return err
		}
		c.editQuietly(chatID, sentMsgID, "❌ Error while acquiring media from this link.")
		return errors.WrapWithCode(err, "ACQUIRE_FAILED", "failed to acquire media")
	}

	switch acq.Decision {
	case domain.DecisionRejectedTooLarge:
		c.editQuietly(chatID, sentMsgID, fmt.Sprintf(
			"❌ Video is too large: %s (limit is %.0fMB).",
			formatter.FormatSizeMB(acq.MaxVideoSizeMB), c.Config.Downloader.MaxVideoSizeMB))
		return nil
	case domain.DecisionNone:
		msg := "❌ Could not retrieve any valid media from this link."
		if acq.AccessDenied {
			msg = "❌ The source denied access to this media (HTTP 403)."
		}
		c.editQuietly(chatID, sentMsgID, msg)
		return nil
	}

	if err := c.Delivery.DeliverPost(ctxWithTimeout, chatID, post); err != nil {
		msg := "❌ Failed to send the media."
		switch {
		case errors.IsInvalidMedia(err):
			msg = "❌ Telegram rejected the media from this link."
		case errors.IsSizeExceeded(err):
			msg = "❌ The media is too large for Telegram to accept."
		}
		c.editQuietly(chatID, sentMsgID, msg)
		return errors.WrapWithCode(err, "DELIVER_FAILED", "failed to deliver post")
	}

	c.editQuietly(chatID, sentMsgID, c.resultMessage(post, acq))
	return nil
}

func (c *CommandImpl) resultMessage(post *domain.MediaPost, acq *domain.Acquisition) string {
	failed := acq.FailedVideoCount + acq.FailedImageCount
	sent := deliveredCount(post, acq)
	if acq.Decision == domain.DecisionPartial {
		msg := fmt.Sprintf("⚠️ Sent %d media item(s); %d could not be retrieved.", sent, failed)
		if acq.AccessDenied {
			msg += " Some items were blocked by the source."
		}
		return msg
	}
	return fmt.Sprintf("✅ Sent %d media item(s).", sent)
}

// deliveredCount counts the slots delivery actually sends. The failure counts
// alone are not enough: a forced-local post that lost all its videos keeps
// those failures in the count while the slots themselves are gone, so
// SlotCount minus failures would go negative.
func deliveredCount(post *domain.MediaPost, acq *domain.Acquisition) int {
	if len(acq.FailedSlots) > 0 {
		n := 0
		for _, failed := range acq.FailedSlots {
			if !failed {
				n++
			}
		}
		return n
	}
	n := post.SlotCount() - acq.FailedVideoCount - acq.FailedImageCount
	if n < 0 {
		n = 0
	}
	return n
}

func (c *CommandImpl) editQuietly(chatID int64, messageID int, text string) {
	if err := c.Delivery.EditMessageText(chatID, messageID, text); err != nil {
		c.Logger.Error("Error editing status message", "chatID", chatID, "error", err)
	}
}
