package probe

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// sniffSize is how much of a body is read when the Content-Type header
	// is empty and we need to decide whether this is media or a JSON error
	// payload pretending to be one.
	sniffSize = 512
)

// rangeTotalRe extracts the total length from a Content-Range header,
// e.g. "bytes 0-1023/4194304".
var rangeTotalRe = regexp.MustCompile(`/\s*(\d+)`)

// Prober determines remote content length and whether a response is
// genuinely media. It never downloads a full body.
type Prober struct {
	lm      *lifecycle.Manager
	log     logger.Logger
	timeout time.Duration
}

type Options struct {
	Headers map[string]string
	Proxy   string
}

func New(lm *lifecycle.Manager, log logger.Logger, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{lm: lm, log: log, timeout: timeout}
}

// Size resolves the remote size of a media URL: a HEAD request first, a GET
// fallback when the HEAD fails or cannot classify the response. Timeouts and
// transport errors degrade to an unknown size, never a hard failure. A 403
// is surfaced via Forbidden so callers can adjust delivery strategy.
func (p *Prober) Size(ctx context.Context, rawURL string, opts Options) domain.ProbeResult {
	if p.lm.ShuttingDown() {
		return domain.ProbeResult{}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.do(ctx, http.MethodHead, rawURL, opts)
	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			p.log.Warn("Media URL access denied", "url", rawURL, "status", resp.StatusCode)
			return domain.ProbeResult{Forbidden: true, StatusCode: resp.StatusCode}
		}

		if size := sizeFromHeaders(resp); size != nil {
			return domain.ProbeResult{SizeMB: size, Valid: true, StatusCode: resp.StatusCode}
		}

		valid, decided := classifyHeaders(resp)
		if decided {
			return domain.ProbeResult{Valid: valid, StatusCode: resp.StatusCode}
		}
		// Empty Content-Type on a HEAD response: only a body read can
		// classify it, so fall through to the GET path.
	}

	return p.sizeViaGet(ctx, rawURL, opts)
}

func (p *Prober) sizeViaGet(ctx context.Context, rawURL string, opts Options) domain.ProbeResult {
	resp, err := p.do(ctx, http.MethodGet, rawURL, opts)
	if err != nil {
		p.log.Warn("Failed to probe media size", "url", rawURL, "error", err)
		return domain.ProbeResult{}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		p.log.Warn("Media URL access denied", "url", rawURL, "status", resp.StatusCode)
		return domain.ProbeResult{Forbidden: true, StatusCode: resp.StatusCode}
	}

	valid := p.validateBody(resp, rawURL)
	if !valid {
		return domain.ProbeResult{StatusCode: resp.StatusCode}
	}

	return domain.ProbeResult{SizeMB: sizeFromHeaders(resp), Valid: true, StatusCode: resp.StatusCode}
}

func (p *Prober) do(ctx context.Context, method, rawURL string, opts Options) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	return p.lm.HTTPClient(opts.Proxy).Do(req)
}

// validateBody applies the header rules and, when the Content-Type is empty,
// sniffs a small body prefix before accepting the response as media.
func (p *Prober) validateBody(resp *http.Response, rawURL string) bool {
	valid, decided := classifyHeaders(resp)
	if decided {
		return valid
	}

	prefix, err := io.ReadAll(io.LimitReader(resp.Body, sniffSize))
	if err != nil || len(prefix) == 0 {
		return false
	}
	if IsErrorBody(prefix) {
		p.log.Warn("Media URL served an error payload", "url", rawURL)
		return false
	}
	return true
}

// classifyHeaders decides validity from status and Content-Type alone.
// decided is false when only a body read can settle it.
func classifyHeaders(resp *http.Response) (valid, decided bool) {
	if resp.StatusCode != http.StatusOK {
		return false, true
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct == "" {
		return false, false
	}
	if strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "text/") {
		return false, true
	}
	return true, true
}

// IsErrorBody reports whether a body prefix looks like a JSON or HTML error
// payload rather than media bytes.
func IsErrorBody(prefix []byte) bool {
	trimmed := bytes.TrimSpace(prefix)
	if len(trimmed) == 0 {
		return true
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return true
	}

	mtype := mimetype.Detect(prefix)
	if mtype.Is("application/json") || strings.HasPrefix(mtype.String(), "text/") {
		return true
	}
	return false
}

// sizeFromHeaders resolves a size in MB: the total of a Content-Range first,
// then Content-Length, then nil for unknown.
func sizeFromHeaders(resp *http.Response) *float64 {
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if m := rangeTotalRe.FindStringSubmatch(cr); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return toMB(n)
			}
		}
	}
	if resp.ContentLength > 0 {
		return toMB(resp.ContentLength)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > 0 {
			return toMB(n)
		}
	}
	return nil
}

func toMB(n int64) *float64 {
	mb := float64(n) / (1024 * 1024)
	return &mb
}
