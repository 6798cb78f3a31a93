package fetcher

import (
	"context"
	"time"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/internal/mediatype"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
)

// Fetcher downloads one media slot from its ranked candidate list, stopping
// at the first candidate that validates. Per-candidate failures never
// propagate as errors; the slot simply reports failure when every candidate
// failed.
type Fetcher struct {
	lm  *lifecycle.Manager
	log logger.Logger

	timeout    time.Duration
	ffmpegBin  string
	ffprobeBin string
}

type Options struct {
	Timeout    time.Duration
	FfmpegBin  string
	FfprobeBin string
}

// Request describes one slot fetch.
type Request struct {
	Slot     domain.MediaSlot
	Headers  map[string]string
	Proxy    string
	CacheDir string
	MediaID  string
}

func New(lm *lifecycle.Manager, log logger.Logger, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.FfmpegBin == "" {
		opts.FfmpegBin = "ffmpeg"
	}
	if opts.FfprobeBin == "" {
		opts.FfprobeBin = "ffprobe"
	}
	return &Fetcher{
		lm:         lm,
		log:        log,
		timeout:    opts.Timeout,
		ffmpegBin:  opts.FfmpegBin,
		ffprobeBin: opts.FfprobeBin,
	}
}

// Fetch tries each candidate URL in order and persists the first one that
// validates, dispatching segmented streams to the remux handler. A URL is
// never retried; fallback moves to the next candidate.
func (f *Fetcher) Fetch(ctx context.Context, req Request) domain.FetchResult {
	res := domain.FetchResult{Index: req.Slot.Index}

	if f.lm.ShuttingDown() || req.CacheDir == "" || len(req.Slot.Candidates) == 0 {
		return res
	}

	for _, cand := range req.Slot.Candidates {
		if ctx.Err() != nil {
			return res
		}

		kind := mediatype.Detect(cand.URL)
		if cand.Tag == domain.TagSegmented {
			kind = mediatype.Stream
		}

		var (
			path string
			size *float64
			err  error
		)
		if kind == mediatype.Stream {
			path, size, err = f.fetchStream(ctx, cand.URL, req)
		} else {
			path, size, err = f.fetchFile(ctx, cand, kind, req)
		}
		if err != nil {
			if errors.IsAccessDenied(err) {
				f.log.Warn("Candidate blocked by source",
					"url", cand.URL,
					"index", req.Slot.Index)
			} else {
				f.log.Warn("Candidate fetch failed",
					"url", cand.URL,
					"kind", kind.String(),
					"index", req.Slot.Index,
					"error", err)
			}
			continue
		}

		res.Success = true
		res.FilePath = path
		res.SizeMB = size
		return res
	}

	return res
}
