package mediatype

import (
	"regexp"
	"strings"
)

// Type is the transfer handling a URL needs.
type Type int

const (
	// Video is the default: most undecorated CDN links in this domain are
	// video, and treating an unknown link as video is the conservative path.
	Video Type = iota
	Image
	Stream
)

func (t Type) String() string {
	switch t {
	case Image:
		return "image"
	case Stream:
		return "stream"
	default:
		return "video"
	}
}

var imageExts = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "svg"}

var videoExts = []string{"mp4", "mkv", "mov", "avi", "flv", "f4v", "webm", "wmv", "m4v"}

// CDN URLs often bury the extension mid-path with a cache-busting suffix,
// e.g. ".../video_720.mp4_1". The token must be followed by an underscore,
// a digit, or the end of the string.
var (
	imageTokenRe = regexp.MustCompile(`[._!-](jpg|jpeg|png|gif|webp|bmp|svg)(_|\d|$)`)
	videoTokenRe = regexp.MustCompile(`[._!-](mp4|mkv|mov|avi|flv|f4v|webm|wmv|m4v|3gp|ts)(_|\d|$)`)
)

// Detect classifies a URL without network access. A ".m3u8" substring
// anywhere forces Stream; otherwise known extensions at the end of the path
// (query and fragment ignored) decide, then the mid-path token patterns, and
// finally the Video default.
func Detect(rawURL string) Type {
	t, _ := DetectExplicit(rawURL)
	return t
}

// DetectExplicit is Detect plus a flag reporting whether the type was
// actually recognized or fell back to the Video default.
func DetectExplicit(rawURL string) (Type, bool) {
	if rawURL == "" {
		return Video, false
	}

	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, ".m3u8") {
		return Stream, true
	}

	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	if matchExt(path, imageExts) {
		return Image, true
	}
	if matchExt(path, videoExts) {
		return Video, true
	}

	if imageTokenRe.MatchString(lower) {
		return Image, true
	}
	if videoTokenRe.MatchString(lower) {
		return Video, true
	}

	return Video, false
}

func matchExt(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, "."+ext) {
			return true
		}
	}
	return false
}

// Ext returns a sensible file extension for a detected type when the
// response gives no better answer.
func Ext(t Type) string {
	if t == Image {
		return ".jpg"
	}
	return ".mp4"
}
