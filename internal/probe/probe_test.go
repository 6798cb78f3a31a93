package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProber(t *testing.T) *Prober {
	t.Helper()
	return New(lifecycle.New(logger.NewNop()), logger.NewNop(), 5*time.Second)
}

func TestSizeFromContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "4194304") // 4MB
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.True(t, res.Valid)
	require.NotNil(t, res.SizeMB)
	assert.InDelta(t, 4.0, *res.SizeMB, 0.001)
	assert.False(t, res.Forbidden)
}

func TestSizeFromContentRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Range", "bytes 0-1023/8388608") // total 8MB
		w.Header().Set("Content-Length", "1024")
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.True(t, res.Valid)
	require.NotNil(t, res.SizeMB)
	assert.InDelta(t, 8.0, *res.SizeMB, 0.001)
}

func TestSizeForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.True(t, res.Forbidden)
	assert.False(t, res.Valid)
	assert.Nil(t, res.SizeMB)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestSizeRejectsJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.False(t, res.Valid)
	assert.False(t, res.Forbidden)
}

func TestSizeRejectsTextContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.False(t, res.Valid)
}

func TestSizeSniffsBodyWhenContentTypeMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress the automatic Content-Type so the prober must sniff.
		w.Header()["Content-Type"] = nil
		if r.Method == http.MethodHead {
			return
		}
		w.Write([]byte(`{"error":"not media"}`))
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.False(t, res.Valid)
}

func TestSizeAcceptsSniffedBinaryBody(t *testing.T) {
	payload := append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}, make([]byte, 128)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		if r.Method == http.MethodHead {
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.True(t, res.Valid)
}

func TestSizeUnreachableHostDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	res := newProber(t).Size(context.Background(), srv.URL, Options{})

	assert.False(t, res.Valid)
	assert.False(t, res.Forbidden)
	assert.Nil(t, res.SizeMB)
}

func TestSizeDuringShutdown(t *testing.T) {
	lm := lifecycle.New(logger.NewNop())
	p := New(lm, logger.NewNop(), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, lm.Shutdown(ctx))

	res := p.Size(context.Background(), "http://example.com/video.mp4", Options{})
	assert.Equal(t, 0, res.StatusCode)
	assert.False(t, res.Valid)
}

func TestSizePassesHeaders(t *testing.T) {
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "1048576")
	}))
	defer srv.Close()

	newProber(t).Size(context.Background(), srv.URL, Options{
		Headers: map[string]string{"Referer": "https://example.com/post/1"},
	})

	assert.Equal(t, "https://example.com/post/1", gotReferer)
}

func TestIsErrorBody(t *testing.T) {
	testCases := []struct {
		name string
		body []byte
		want bool
	}{
		{name: "json object", body: []byte(`{"status":"fail"}`), want: true},
		{name: "json array", body: []byte(`[1,2,3]`), want: true},
		{name: "html page", body: []byte("<html><body>404</body></html>"), want: true},
		{name: "plain text", body: []byte("access denied"), want: true},
		{name: "empty", body: []byte("  "), want: true},
		{name: "png bytes", body: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsErrorBody(tc.body))
		})
	}
}

func TestSizeFromHeaders(t *testing.T) {
	t.Run("content-range wins over content-length", func(t *testing.T) {
		resp := &http.Response{
			Header:        http.Header{"Content-Range": []string{"bytes 0-99/2097152"}},
			ContentLength: 100,
		}
		size := sizeFromHeaders(resp)
		require.NotNil(t, size)
		assert.InDelta(t, 2.0, *size, 0.001)
	})

	t.Run("nothing known", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}, ContentLength: -1}
		assert.Nil(t, sizeFromHeaders(resp))
	})
}
