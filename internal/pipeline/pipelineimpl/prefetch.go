package pipelineimpl

import (
	"context"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
	"github.com/samber/lo"
)

// processPreFetch downloads every slot to the local cache and decides from
// the fetch outcomes. probed carries the step-2 size probes when the size
// gate ran, index-aligned with the video slots; it may be nil.
func (p *PipelineImpl) processPreFetch(ctx context.Context, post *domain.MediaPost, acq *domain.Acquisition, probed []domain.ProbeResult) {
	videoCount := len(post.VideoSlots)
	imageCount := len(post.ImageSlots)

	mediaID := p.Namer.MediaID(post)
	slots := make([]domain.MediaSlot, 0, videoCount+imageCount)
	slots = append(slots, post.VideoSlots...)
	slots = append(slots, post.ImageSlots...)

	results := p.fetchSlots(ctx, post, slots, mediaID)
	videoResults := results[:videoCount]
	imageResults := results[videoCount:]

	failedVideo := countFailed(videoResults)
	failedImage := countFailed(imageResults)

	// A forced-local post whose videos all failed is not blocked outright:
	// the video slots are dropped and validity recomputed from the images.
	droppedVideos := false
	if post.ForceLocalVideo && videoCount > 0 && failedVideo == videoCount {
		p.Logger.Warn("All forced-local videos failed, dropping video slots",
			"url", post.SourceURL, "videos", videoCount)
		post.VideoSlots = nil
		videoResults = nil
		droppedVideos = true
	}

	if !droppedVideos && videoCount > 0 {
		// Prefer directly-measured sizes, fall back to the probe.
		finalSizes := make([]*float64, videoCount)
		for i, r := range videoResults {
			switch {
			case r.Success && r.SizeMB != nil:
				finalSizes[i] = r.SizeMB
			case i < len(probed):
				finalSizes[i] = probed[i].SizeMB
			}
		}

		exceeds, maxSz, total := p.sizeLimitExceeded(finalSizes)
		acq.VideoSizes = finalSizes
		acq.MaxVideoSizeMB = maxSz
		acq.TotalVideoSizeMB = total

		if exceeds {
			p.Logger.Warn("Fetched video size exceeds limit, rejecting post",
				"url", post.SourceURL,
				"max_size_mb", lo.FromPtr(maxSz),
				"error", errors.ErrSizeExceeded)
			p.Lifecycle.CleanupFiles(filePaths(results))
			acq.Decision = domain.DecisionRejectedTooLarge
			acq.ExceedsMaxSize = true
			acq.FailedVideoCount = videoCount
			acq.FailedImageCount = imageCount
			return
		}
	}

	acq.FilePaths = append(filePaths(videoResults), filePaths(imageResults)...)
	acq.FailedSlots = append(failedSlots(videoResults), failedSlots(imageResults)...)
	acq.FailedVideoCount = failedVideo
	acq.FailedImageCount = failedImage

	hasValid := hasSuccess(videoResults) || hasSuccess(imageResults)
	acq.HasValidMedia = hasValid
	acq.UseLocalFiles = hasValid

	switch {
	case !hasValid:
		acq.Decision = domain.DecisionNone
	case droppedVideos || failedVideo+failedImage > 0:
		acq.Decision = domain.DecisionPartial
	default:
		acq.Decision = domain.DecisionLocalFiles
	}
}

func countFailed(results []domain.FetchResult) int {
	return lo.CountBy(results, func(r domain.FetchResult) bool {
		return !r.Success
	})
}

func hasSuccess(results []domain.FetchResult) bool {
	return lo.SomeBy(results, func(r domain.FetchResult) bool {
		return r.Success && r.FilePath != ""
	})
}

func filePaths(results []domain.FetchResult) []string {
	return lo.Map(results, func(r domain.FetchResult, _ int) string {
		if !r.Success {
			return ""
		}
		return r.FilePath
	})
}

func failedSlots(results []domain.FetchResult) []bool {
	return lo.Map(results, func(r domain.FetchResult, _ int) bool {
		return !r.Success
	})
}
