package deliveryimpl

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/retry"
)

// SendMessage sends a text message to a specific chat ID
func (d *DeliveryImpl) SendMessage(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sentMsg, err := d.TgBot.Send(msg)
	if err != nil {
		d.Logger.Error("Error sending message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return sentMsg.MessageID, nil
}

// EditMessageText edits a previously sent message
func (d *DeliveryImpl) EditMessageText(chatID int64, messageID int, newText string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, newText)
	if _, err := d.TgBot.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DeliverPost sends the surviving media of an acquired post. Slots the
// pipeline marked failed are skipped; a post with no acquisition or no valid
// media is never delivered.
func (d *DeliveryImpl) DeliverPost(ctx context.Context, chatID int64, post *domain.MediaPost) error {
	acq := post.Acquisition
	if acq == nil || !acq.Decision.Accepted() || !acq.HasValidMedia {
		return errors.ErrInvalidMedia
	}

	mediaGroup := d.buildMediaGroup(post)
	if len(mediaGroup) == 0 {
		return errors.ErrInvalidMedia
	}

	// Cache entries are transient: once the post went out (or delivery gave
	// up), the local files are gone.
	defer func() {
		if acq.UseLocalFiles {
			d.Lifecycle.CleanupFiles(acq.FilePaths)
		}
	}()

	// Telegram caps an album at 10 entries.
	for start := 0; start < len(mediaGroup); start += 10 {
		end := start + 10
		if end > len(mediaGroup) {
			end = len(mediaGroup)
		}
		chunk := mediaGroup[start:end]

		err := retry.Do(ctx, d.Logger, "send media group", func() error {
			if len(chunk) == 1 {
				return d.sendSingle(chatID, chunk[0])
			}
			group := tgbotapi.MediaGroupConfig{ChatID: chatID, Media: chunk}
			_, sendErr := d.TgBot.SendMediaGroup(group)
			return sendErr
		}, retry.DefaultConfig())
		if err != nil {
			d.Logger.Error("Failed to send media group, falling back to individual sending",
				"chatID", chatID, "error", err)
			if err := d.sendIndividually(chatID, chunk); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildMediaGroup assembles input media for every surviving slot, videos
// first, then images, matching the acquisition's positional alignment.
func (d *DeliveryImpl) buildMediaGroup(post *domain.MediaPost) []interface{} {
	acq := post.Acquisition
	caption := d.caption(post)

	media := make([]interface{}, 0, post.SlotCount())

	for i, slot := range post.VideoSlots {
		if acq.SlotFailed(i) {
			continue
		}
		file := slotFile(acq.VideoPath(i), slot)
		if file == nil {
			continue
		}
		video := tgbotapi.NewInputMediaVideo(file)
		if len(media) == 0 && caption != "" {
			video.Caption = caption
		}
		media = append(media, video)
	}

	videoCount := len(post.VideoSlots)
	for i, slot := range post.ImageSlots {
		if acq.SlotFailed(videoCount + i) {
			continue
		}
		file := slotFile(acq.ImagePath(videoCount, i), slot)
		if file == nil {
			continue
		}
		photo := tgbotapi.NewInputMediaPhoto(file)
		if len(media) == 0 && caption != "" {
			photo.Caption = caption
		}
		media = append(media, photo)
	}

	return media
}

func (d *DeliveryImpl) caption(post *domain.MediaPost) string {
	if post.Caption == "" {
		return ""
	}
	if post.Author != "" {
		return fmt.Sprintf("From @%s:\n\n%s", post.Author, post.Caption)
	}
	return post.Caption
}

// slotFile picks the local file when the pipeline fetched one, the first
// candidate URL otherwise.
func slotFile(localPath string, slot domain.MediaSlot) tgbotapi.RequestFileData {
	if localPath != "" {
		return tgbotapi.FilePath(localPath)
	}
	if url := slot.FirstURL(); url != "" {
		return tgbotapi.FileURL(url)
	}
	return nil
}

func (d *DeliveryImpl) sendSingle(chatID int64, item interface{}) error {
	var err error
	switch m := item.(type) {
	case tgbotapi.InputMediaVideo:
		video := tgbotapi.NewVideo(chatID, m.Media)
		video.Caption = m.Caption
		_, err = d.TgBot.Send(video)
	case tgbotapi.InputMediaPhoto:
		photo := tgbotapi.NewPhoto(chatID, m.Media)
		photo.Caption = m.Caption
		_, err = d.TgBot.Send(photo)
	default:
		err = fmt.Errorf("unsupported media item %T", item)
	}
	return classifySendError(err)
}

// sendIndividually is the fallback after a group send failed. It reports an
// error only when not a single item went through.
func (d *DeliveryImpl) sendIndividually(chatID int64, items []interface{}) error {
	var lastErr error
	sent := 0
	for _, item := range items {
		if err := d.sendSingle(chatID, item); err != nil {
			d.Logger.Error("Failed to send media item", "chatID", chatID, "error", err)
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 {
		return lastErr
	}
	return nil
}

// classifySendError maps Telegram's file-size rejections onto the sentinel so
// callers can tell the user the media was too big rather than show a generic
// failure.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "too large") || strings.Contains(msg, "too big") {
		return fmt.Errorf("%w: %v", errors.ErrSizeExceeded, err)
	}
	return err
}
