package pipelineimpl

import (
	"context"

	"github.com/orgball2608/media-parser-telegram-bot/internal/batch"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/fetcher"
	"github.com/orgball2608/media-parser-telegram-bot/internal/probe"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
	"github.com/samber/lo"
)

// Process runs the acquisition state machine for one post. The post is
// annotated in place; the returned Acquisition is the same object stored on
// the post.
func (p *PipelineImpl) Process(ctx context.Context, post *domain.MediaPost) (*domain.Acquisition, error) {
	if post == nil {
		return nil, errors.ErrInvalidInput
	}

	acq := &domain.Acquisition{Decision: domain.DecisionNone}
	post.Acquisition = acq

	if p.Lifecycle.ShuttingDown() {
		return acq, errors.ErrShuttingDown
	}
	if post.SlotCount() == 0 {
		return acq, nil
	}

	ctx, done := p.Lifecycle.Track(ctx)
	defer done()

	maxSize := p.Config.Downloader.MaxVideoSizeMB

	// Probing must complete before the size gate, which gates whether any
	// fetching happens at all.
	var probed []domain.ProbeResult
	if len(post.VideoSlots) > 0 && maxSize > 0 {
		probed = p.probeVideoSizes(ctx, post)
		acq.AccessDenied = hasForbidden(probed)

		sizes := probeSizes(probed)
		if exceeds, maxSz, total := p.sizeLimitExceeded(sizes); exceeds {
			p.Logger.Warn("Video size exceeds limit",
				"url", post.SourceURL,
				"max_size_mb", lo.FromPtr(maxSz),
				"limit_mb", maxSize,
				"error", errors.ErrSizeExceeded)
			acq.Decision = domain.DecisionRejectedTooLarge
			acq.ExceedsMaxSize = true
			acq.VideoSizes = sizes
			acq.MaxVideoSizeMB = maxSz
			acq.TotalVideoSizeMB = total
			acq.FailedVideoCount = len(post.VideoSlots)
			acq.FailedImageCount = len(post.ImageSlots)
			return acq, nil
		}
	}

	if p.preFetchAll {
		p.processPreFetch(ctx, post, acq, probed)
	} else {
		p.processDirect(ctx, post, acq, probed)
	}

	p.Logger.Info("Acquisition decided",
		"url", post.SourceURL,
		"decision", acq.Decision.String(),
		"videos", len(post.VideoSlots),
		"images", len(post.ImageSlots),
		"failed_videos", acq.FailedVideoCount,
		"failed_images", acq.FailedImageCount,
		"local_files", acq.UseLocalFiles)

	return acq, nil
}

// probeVideoSizes checks every video slot's first candidate concurrently
// under the executor's budget. Results are index-aligned with the slots.
func (p *PipelineImpl) probeVideoSizes(ctx context.Context, post *domain.MediaPost) []domain.ProbeResult {
	headers := post.VideoHeadersOrEmpty()
	proxy := post.VideoProxy(p.Config.Proxy.URL)

	jobs := make([]func(context.Context) domain.ProbeResult, len(post.VideoSlots))
	for i, slot := range post.VideoSlots {
		url := slot.FirstURL()
		jobs[i] = func(ctx context.Context) domain.ProbeResult {
			if url == "" {
				return domain.ProbeResult{}
			}
			return p.Prober.Size(ctx, url, probe.Options{Headers: headers, Proxy: proxy})
		}
	}

	return batch.RunAll(ctx, p.Executor, jobs)
}

// probeImageSlots validates every image slot's first candidate without
// downloading.
func (p *PipelineImpl) probeImageSlots(ctx context.Context, post *domain.MediaPost) []domain.ProbeResult {
	headers := post.ImageHeadersOrEmpty()
	proxy := post.ImageProxy(p.Config.Proxy.URL)

	jobs := make([]func(context.Context) domain.ProbeResult, len(post.ImageSlots))
	for i, slot := range post.ImageSlots {
		url := slot.FirstURL()
		jobs[i] = func(ctx context.Context) domain.ProbeResult {
			if url == "" {
				return domain.ProbeResult{}
			}
			return p.Prober.Size(ctx, url, probe.Options{Headers: headers, Proxy: proxy})
		}
	}

	return batch.RunAll(ctx, p.Executor, jobs)
}

// fetchSlots downloads the given slots to the cache, index-aligned with the
// input.
func (p *PipelineImpl) fetchSlots(ctx context.Context, post *domain.MediaPost, slots []domain.MediaSlot, mediaID string) []domain.FetchResult {
	jobs := make([]func(context.Context) domain.FetchResult, len(slots))
	for i, slot := range slots {
		headers := post.VideoHeadersOrEmpty()
		proxy := post.VideoProxy(p.Config.Proxy.URL)
		if slot.Kind == domain.KindImage {
			headers = post.ImageHeadersOrEmpty()
			proxy = post.ImageProxy(p.Config.Proxy.URL)
		}

		req := fetcher.Request{
			Slot:     slot,
			Headers:  headers,
			Proxy:    proxy,
			CacheDir: p.Config.Downloader.CacheDir,
			MediaID:  mediaID,
		}
		jobs[i] = func(ctx context.Context) domain.FetchResult {
			return p.Fetcher.Fetch(ctx, req)
		}
	}

	return batch.RunAll(ctx, p.Executor, jobs)
}

// sizeLimitExceeded aggregates only the successfully-measured subset. With
// no limit configured, or nothing measured, nothing is ever rejected.
func (p *PipelineImpl) sizeLimitExceeded(sizes []*float64) (bool, *float64, float64) {
	maxSize := p.Config.Downloader.MaxVideoSizeMB

	valid := lo.FilterMap(sizes, func(s *float64, _ int) (float64, bool) {
		return lo.FromPtr(s), s != nil
	})
	if len(valid) == 0 {
		return false, nil, 0
	}

	maxSz := lo.Max(valid)
	total := lo.Sum(valid)

	if maxSize > 0 && maxSz > maxSize {
		return true, &maxSz, total
	}
	return false, &maxSz, total
}

func probeSizes(probed []domain.ProbeResult) []*float64 {
	return lo.Map(probed, func(r domain.ProbeResult, _ int) *float64 {
		return r.SizeMB
	})
}

func hasForbidden(probed []domain.ProbeResult) bool {
	return lo.SomeBy(probed, func(r domain.ProbeResult) bool {
		return r.Forbidden
	})
}
