package pipelineimpl

import (
	"context"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/samber/lo"
)

// processDirect handles the no-pre-fetch path: videos stay on direct links
// unless they are large or the platform forces local delivery, in which case
// just the offending slots escalate to a cache fetch. Images are only probed.
func (p *PipelineImpl) processDirect(ctx context.Context, post *domain.MediaPost, acq *domain.Acquisition, probed []domain.ProbeResult) {
	videoCount := len(post.VideoSlots)
	imageCount := len(post.ImageSlots)
	threshold := p.Config.Downloader.LargeVideoThresholdMB

	if videoCount > 0 && probed == nil {
		probed = p.probeVideoSizes(ctx, post)
		acq.AccessDenied = acq.AccessDenied || hasForbidden(probed)
	}

	videoSizes := probeSizes(probed)
	videoPaths := make([]string, videoCount)
	videoFailed := make([]bool, videoCount)

	// Pick the slots that must not be streamed directly: forced-local posts
	// escalate every video, otherwise only those measured above the large
	// threshold (0 = every video is large). Unknown sizes stay on direct
	// links.
	var escalate []int
	for i := range post.VideoSlots {
		large := threshold == 0 || (videoSizes[i] != nil && *videoSizes[i] > threshold)
		if post.ForceLocalVideo || large {
			escalate = append(escalate, i)
		}
	}

	usedLocal := false
	if len(escalate) > 0 {
		if p.cacheAvailable {
			mediaID := p.Namer.MediaID(post)
			slots := lo.Map(escalate, func(i int, _ int) domain.MediaSlot {
				return post.VideoSlots[i]
			})
			results := p.fetchSlots(ctx, post, slots, mediaID)
			for j, r := range results {
				i := escalate[j]
				if r.Success {
					videoPaths[i] = r.FilePath
					if r.SizeMB != nil {
						videoSizes[i] = r.SizeMB
					}
					usedLocal = true
				} else {
					videoFailed[i] = true
				}
			}
		} else {
			// Large or forced media must not be streamed directly, and with
			// no usable cache those slots cannot be delivered at all.
			p.Logger.Warn("Cache unavailable, skipping videos that require local delivery",
				"url", post.SourceURL, "videos", len(escalate))
			for _, i := range escalate {
				videoFailed[i] = true
			}
		}
	}

	// Direct-link videos count as failed when the probe said the URL does
	// not serve media. An unknown size alone never fails a slot.
	escalated := lo.SliceToMap(escalate, func(i int) (int, struct{}) { return i, struct{}{} })
	for i := range post.VideoSlots {
		if _, ok := escalated[i]; ok {
			continue
		}
		if i < len(probed) && !probed[i].Valid {
			videoFailed[i] = true
		}
	}

	imageFailedSlots := make([]bool, imageCount)
	if imageCount > 0 {
		imageProbes := p.probeImageSlots(ctx, post)
		acq.AccessDenied = acq.AccessDenied || hasForbidden(imageProbes)
		for i, r := range imageProbes {
			imageFailedSlots[i] = !r.Valid
		}
	}
	imageFailed := lo.Count(imageFailedSlots, true)

	failedVideo := lo.Count(videoFailed, true)

	exceeds, maxSz, total := p.sizeLimitExceeded(videoSizes)
	acq.VideoSizes = videoSizes
	acq.MaxVideoSizeMB = maxSz
	acq.TotalVideoSizeMB = total

	if exceeds {
		// A fetch-measured size can land above the limit even when the
		// probe could not resolve one.
		p.Lifecycle.CleanupFiles(videoPaths)
		acq.Decision = domain.DecisionRejectedTooLarge
		acq.ExceedsMaxSize = true
		acq.FailedVideoCount = videoCount
		acq.FailedImageCount = imageCount
		return
	}

	acq.FilePaths = append(videoPaths, make([]string, imageCount)...)
	acq.FailedSlots = append(append([]bool{}, videoFailed...), imageFailedSlots...)
	acq.FailedVideoCount = failedVideo
	acq.FailedImageCount = imageFailed
	acq.UseLocalFiles = usedLocal

	hasValid := (videoCount-failedVideo) > 0 || (imageCount-imageFailed) > 0
	acq.HasValidMedia = hasValid

	switch {
	case !hasValid:
		acq.Decision = domain.DecisionNone
	case failedVideo+imageFailed > 0:
		acq.Decision = domain.DecisionPartial
	case usedLocal:
		acq.Decision = domain.DecisionLocalFiles
	default:
		acq.Decision = domain.DecisionDirectLink
	}
}
