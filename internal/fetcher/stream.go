package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/floostack/transcoder/ffmpeg"
	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
)

// fetchStream assembles a segmented stream into one playable mp4 by handing
// the index URL to ffmpeg for a stream-copy remux. Segments are written to a
// temp path and renamed only after the remux finished, so a partial assembly
// is never visible.
func (f *Fetcher) fetchStream(ctx context.Context, streamURL string, req Request) (string, *float64, error) {
	dest := filepath.Join(req.CacheDir, cache.Filename(req.MediaID, req.Slot.Index, ".mp4"))

	if info, err := os.Stat(dest); err == nil {
		size := float64(info.Size()) / (1024 * 1024)
		return dest, &size, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	tmp := dest + ".part.mp4"

	outputFormat := "mp4"
	copyCodec := "copy"
	overwrite := true
	opts := &ffmpeg.Options{
		OutputFormat: &outputFormat,
		VideoCodec:   &copyCodec,
		AudioCodec:   &copyCodec,
		Overwrite:    &overwrite,
	}

	progress, err := ffmpeg.
		New(&ffmpeg.Config{
			FfmpegBinPath:  f.ffmpegBin,
			FfprobeBinPath: f.ffprobeBin,
		}).
		Input(streamURL).
		Output(tmp).
		Start(opts)
	if err != nil {
		os.Remove(tmp)
		return "", nil, fmt.Errorf("stream remux failed: %w", err)
	}

	// The transcoder does not take a context; the progress channel closing is
	// the only completion signal. On cancellation the job is abandoned and its
	// partial output removed once ffmpeg exits.
	done := make(chan struct{})
	go func() {
		for range progress {
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		go func() {
			<-done
			os.Remove(tmp)
		}()
		return "", nil, ctx.Err()
	case <-done:
	}

	info, err := os.Stat(tmp)
	if err != nil || info.Size() == 0 {
		os.Remove(tmp)
		return "", nil, fmt.Errorf("%w: remux produced no output", errors.ErrInvalidMedia)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", nil, err
	}

	size := float64(info.Size()) / (1024 * 1024)
	return dest, &size, nil
}
