package pipeline

import (
	"context"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
)

// Client is the acquisition policy engine. Process decides, per post,
// whether media is rejected for size, delivered via direct links, or fetched
// to the local cache, and annotates the post with the outcome.
type Client interface {
	Process(ctx context.Context, post *domain.MediaPost) (*domain.Acquisition, error)
}
