package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/mediatype"
	"github.com/orgball2608/media-parser-telegram-bot/internal/probe"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const sniffSize = 512

// fetchFile downloads a plain image or video candidate into the cache.
// The body streams to a temp file which is renamed into place only once the
// copy completed, so a truncated file is never visible to callers. A
// destination that already exists is returned as is.
func (f *Fetcher) fetchFile(ctx context.Context, cand domain.Candidate, kind mediatype.Type, req Request) (string, *float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	rawURL := cand.URL
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, err
	}

	httpReq.Header.Set("User-Agent", defaultUserAgent)
	if kind == mediatype.Image {
		httpReq.Header.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")
	}
	// Some CDNs only serve these URLs to range-aware clients.
	ranged := cand.Tag == domain.TagRanged
	if ranged {
		httpReq.Header.Set("Range", "bytes=0-")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.lm.HTTPClient(req.Proxy).Do(httpReq)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", nil, errors.ErrAccessDenied
	}
	if resp.StatusCode != http.StatusOK && !(ranged && resp.StatusCode == http.StatusPartialContent) {
		return "", nil, fmt.Errorf("%w: status %d", errors.ErrInvalidMedia, resp.StatusCode)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/") {
		return "", nil, fmt.Errorf("%w: content-type %s", errors.ErrInvalidMedia, ct)
	}

	// With no Content-Type, sniff the first bytes before committing to the
	// transfer.
	prefix, err := io.ReadAll(io.LimitReader(resp.Body, sniffSize))
	if err != nil {
		return "", nil, err
	}
	if ct == "" {
		if len(prefix) == 0 || probe.IsErrorBody(prefix) {
			return "", nil, fmt.Errorf("%w: sniffed error payload", errors.ErrInvalidMedia)
		}
	}

	ext := extensionFor(prefix, rawURL, kind)
	dest := filepath.Join(req.CacheDir, cache.Filename(req.MediaID, req.Slot.Index, ext))

	// Idempotent: a completed earlier fetch wins.
	if info, err := os.Stat(dest); err == nil {
		size := float64(info.Size()) / (1024 * 1024)
		return dest, &size, nil
	}

	written, err := writeAtomic(dest, prefix, resp.Body)
	if err != nil {
		return "", nil, err
	}

	size := float64(written) / (1024 * 1024)
	return dest, &size, nil
}

// writeAtomic streams prefix+body to a temp file beside dest and renames it
// into place once the copy is complete.
func writeAtomic(dest string, prefix []byte, body io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(prefix); err != nil {
		cleanup()
		return 0, err
	}
	copied, err := io.Copy(tmp, body)
	if err != nil {
		cleanup()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	return int64(len(prefix)) + copied, nil
}

// extensionFor picks the cache file extension: detected from content bytes
// when possible, then from the URL path, then the kind default.
func extensionFor(prefix []byte, rawURL string, kind mediatype.Type) string {
	if len(prefix) > 0 {
		if ext := mimetype.Detect(prefix).Extension(); ext != "" && ext != ".bin" {
			return ext
		}
	}

	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if ext := filepath.Ext(path); len(ext) > 1 && len(ext) <= 5 {
		return strings.ToLower(ext)
	}

	return mediatype.Ext(kind)
}
