package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/lifecycle"
	"github.com/orgball2608/media-parser-telegram-bot/internal/mediatype"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)

func newFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return New(lifecycle.New(logger.NewNop()), logger.NewNop(), Options{Timeout: 5 * time.Second})
}

func slot(urls ...string) domain.MediaSlot {
	s := domain.MediaSlot{Index: 0, Kind: domain.KindImage}
	for _, u := range urls {
		s.Candidates = append(s.Candidates, domain.Candidate{URL: u})
	}
	return s
}

func TestFetchWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	dir := t.TempDir()
	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot:     slot(srv.URL + "/photo.png"),
		CacheDir: dir,
		MediaID:  "direct_1_aa",
	})

	require.True(t, res.Success)
	assert.FileExists(t, res.FilePath)
	assert.Equal(t, filepath.Join(dir, cache.Filename("direct_1_aa", 0, ".png")), res.FilePath)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	require.NotNil(t, res.SizeMB)
	assert.InDelta(t, float64(len(pngBytes))/(1024*1024), *res.SizeMB, 1e-9)
}

func TestFetchFallsBackToNextCandidate(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer good.Close()

	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot:     slot(bad.URL+"/a.png", good.URL+"/b.png"),
		CacheDir: t.TempDir(),
		MediaID:  "direct_2_aa",
	})

	require.True(t, res.Success)
	assert.FileExists(t, res.FilePath)
}

func TestFetchFailsWhenAllCandidatesFail(t *testing.T) {
	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer forbidden.Close()

	jsonBody := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"blocked"}`))
	}))
	defer jsonBody.Close()

	dir := t.TempDir()
	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot:     slot(forbidden.URL+"/a.png", jsonBody.URL+"/b.png"),
		CacheDir: dir,
		MediaID:  "direct_3_aa",
	})

	assert.False(t, res.Success)
	assert.Empty(t, res.FilePath)

	// No partial file may be left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchRangedCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(pngBytes)-1, len(pngBytes)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(pngBytes)
	}))
	defer srv.Close()

	s := domain.MediaSlot{Index: 0, Kind: domain.KindImage, Candidates: []domain.Candidate{
		{URL: srv.URL + "/guarded.png", Tag: domain.TagRanged},
	}}

	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot:     s,
		CacheDir: t.TempDir(),
		MediaID:  "direct_7_aa",
	})

	require.True(t, res.Success)
	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestFetchIsIdempotent(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	dir := t.TempDir()
	req := Request{
		Slot:     slot(srv.URL + "/photo.png"),
		CacheDir: dir,
		MediaID:  "direct_4_aa",
	}

	f := newFetcher(t)
	first := f.Fetch(context.Background(), req)
	second := f.Fetch(context.Background(), req)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, first.FilePath, second.FilePath)
	// The second fetch still issues the request (headers decide the
	// extension) but reuses the completed file.
	data, err := os.ReadFile(second.FilePath)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestFetchRejectsEmptyBodyWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
	}))
	defer srv.Close()

	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot:     slot(srv.URL + "/x"),
		CacheDir: t.TempDir(),
		MediaID:  "direct_5_aa",
	})

	assert.False(t, res.Success)
}

func TestFetchNoCacheDir(t *testing.T) {
	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot:    slot("http://example.com/a.png"),
		MediaID: "direct_6_aa",
	})
	assert.False(t, res.Success)
}

func TestFetchDuringShutdown(t *testing.T) {
	lm := lifecycle.New(logger.NewNop())
	f := New(lm, logger.NewNop(), Options{Timeout: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, lm.Shutdown(ctx))

	res := f.Fetch(context.Background(), Request{
		Slot:     slot("http://example.com/a.png"),
		CacheDir: t.TempDir(),
		MediaID:  "direct_7_aa",
	})
	assert.False(t, res.Success)
}

func TestExtensionFor(t *testing.T) {
	testCases := []struct {
		name   string
		prefix []byte
		url    string
		kind   mediatype.Type
		want   string
	}{
		{name: "sniffed png wins", prefix: pngBytes, url: "http://x/file.mp4", kind: mediatype.Video, want: ".png"},
		{name: "url extension", prefix: nil, url: "http://x/file.webp?sig=1", kind: mediatype.Image, want: ".webp"},
		{name: "image kind default", prefix: nil, url: "http://x/file", kind: mediatype.Image, want: ".jpg"},
		{name: "video kind default", prefix: nil, url: "http://x/file", kind: mediatype.Video, want: ".mp4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extensionFor(tc.prefix, tc.url, tc.kind))
		})
	}
}
