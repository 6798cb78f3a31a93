package platform

import (
	"context"
	"regexp"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
)

// Parser recognizes one platform's links and turns them into MediaPosts.
// The acquisition pipeline depends only on this interface, never on a
// concrete platform.
type Parser interface {
	Name() string
	CanHandle(url string) bool
	ExtractLinks(text string) []string
	Parse(ctx context.Context, url string) (*domain.MediaPost, error)
}

// Registry holds the registered platform parsers in priority order.
type Registry struct {
	parsers []Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Match returns the first parser that claims the URL.
func (r *Registry) Match(url string) (Parser, bool) {
	for _, p := range r.parsers {
		if p.CanHandle(url) {
			return p, true
		}
	}
	return nil, false
}

// ExtractLinks collects the links every parser recognizes in the text,
// de-duplicated, in order of first appearance.
func (r *Registry) ExtractLinks(text string) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, p := range r.parsers {
		for _, link := range p.ExtractLinks(text) {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links
}

// URLRe matches http(s) links in free-form message text; parsers narrow the
// result with CanHandle.
var URLRe = regexp.MustCompile(`https?://[^\s<>"']+`)
