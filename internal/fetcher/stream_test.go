package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFfmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}

func TestFetchSegmentedReturnsExistingAssembly(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, cache.Filename("direct_9_aa", 0, ".mp4"))
	require.NoError(t, os.WriteFile(dest, []byte("assembled"), 0o644))

	res := newFetcher(t).Fetch(context.Background(), Request{
		Slot: domain.MediaSlot{Index: 0, Kind: domain.KindVideo, Candidates: []domain.Candidate{
			{URL: "https://cdn.example.com/live.m3u8", Tag: domain.TagSegmented},
		}},
		CacheDir: dir,
		MediaID:  "direct_9_aa",
	})

	require.True(t, res.Success)
	assert.Equal(t, dest, res.FilePath)
	require.NotNil(t, res.SizeMB)
	assert.InDelta(t, float64(len("assembled"))/(1024*1024), *res.SizeMB, 1e-9)
}

func TestFetchStreamBadSource(t *testing.T) {
	requireFfmpeg(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, _, err := newFetcher(t).fetchStream(context.Background(), srv.URL+"/gone.m3u8", Request{
		Slot:     domain.MediaSlot{Index: 0, Kind: domain.KindVideo},
		CacheDir: dir,
		MediaID:  "direct_10_aa",
	})

	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "failed assembly leaves no partial output")
}
