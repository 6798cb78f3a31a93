package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
)

// Available reports whether dir can be used as a cache directory, creating
// it on demand.
func Available(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

var numericIDRe = regexp.MustCompile(`/(\d+)`)

// Namer derives deterministic cache names. The run suffix is mixed in once
// per process so the same post maps to the same id within one decision while
// concurrent runs on the same URL cannot collide.
type Namer struct {
	runID string
}

func NewNamer() *Namer {
	return &Namer{runID: strings.ReplaceAll(uuid.NewString(), "-", "")[:8]}
}

// MediaID derives a stable id for a post: a numeric id embedded in the URL
// path when one exists, otherwise a short hash of the source URL, prefixed
// with the platform tag and suffixed with the run id.
func (n *Namer) MediaID(post *domain.MediaPost) string {
	platform := post.Platform
	if platform == "" {
		platform = "unknown"
	}

	id := ""
	if u, err := url.Parse(post.SourceURL); err == nil {
		if m := numericIDRe.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		}
	}
	if id == "" {
		sum := md5.Sum([]byte(post.SourceURL))
		id = hex.EncodeToString(sum[:])[:8]
	}

	return fmt.Sprintf("%s_%s_%s", platform, id, n.runID)
}

// Filename builds the cache entry name for one slot. ext must include the
// leading dot.
func Filename(mediaID string, index int, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s_%d%s", mediaID, index, ext)
}
