package cache

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "cache")
		assert.True(t, Available(dir))
		assert.DirExists(t, dir)
	})

	t.Run("empty dir is unavailable", func(t *testing.T) {
		assert.False(t, Available(""))
	})
}

func TestMediaID(t *testing.T) {
	n := NewNamer()

	t.Run("numeric path id", func(t *testing.T) {
		post := &domain.MediaPost{
			Platform:  "direct",
			SourceURL: "https://example.com/posts/1234567890/video.mp4",
		}
		id := n.MediaID(post)
		assert.True(t, strings.HasPrefix(id, "direct_1234567890_"), id)
	})

	t.Run("hash fallback without numeric id", func(t *testing.T) {
		post := &domain.MediaPost{
			Platform:  "direct",
			SourceURL: "https://example.com/clip/video.mp4",
		}
		id := n.MediaID(post)
		parts := strings.Split(id, "_")
		require.Len(t, parts, 3)
		assert.Equal(t, "direct", parts[0])
		assert.Len(t, parts[1], 8)
	})

	t.Run("deterministic within one namer", func(t *testing.T) {
		post := &domain.MediaPost{Platform: "direct", SourceURL: "https://example.com/a/9/v.mp4"}
		assert.Equal(t, n.MediaID(post), n.MediaID(post))
	})

	t.Run("distinct across namers", func(t *testing.T) {
		post := &domain.MediaPost{Platform: "direct", SourceURL: "https://example.com/a/9/v.mp4"}
		assert.NotEqual(t, n.MediaID(post), NewNamer().MediaID(post))
	})

	t.Run("missing platform tagged unknown", func(t *testing.T) {
		post := &domain.MediaPost{SourceURL: "https://example.com/v.mp4"}
		assert.True(t, strings.HasPrefix(n.MediaID(post), "unknown_"))
	})
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "direct_42_ab_0.mp4", Filename("direct_42_ab", 0, ".mp4"))
	assert.Equal(t, "direct_42_ab_3.jpg", Filename("direct_42_ab", 3, "jpg"))
	assert.Equal(t, "direct_42_ab_1.bin", Filename("direct_42_ab", 1, ""))
}
