// Package direct handles bare media links: URLs that point straight at a
// video, image, or stream index with no platform API in between.
package direct

import (
	"context"

	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/mediatype"
	"github.com/orgball2608/media-parser-telegram-bot/internal/platform"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

var _ platform.Parser = (*Parser)(nil)

func (p *Parser) Name() string {
	return "direct"
}

// CanHandle claims URLs whose media type is explicitly recognizable from the
// URL alone; anything that would only hit the classifier's default is left
// to other parsers.
func (p *Parser) CanHandle(url string) bool {
	_, known := mediatype.DetectExplicit(url)
	return known
}

func (p *Parser) ExtractLinks(text string) []string {
	var links []string
	for _, link := range platform.URLRe.FindAllString(text, -1) {
		if p.CanHandle(link) {
			links = append(links, link)
		}
	}
	return links
}

func (p *Parser) Parse(_ context.Context, url string) (*domain.MediaPost, error) {
	kind, known := mediatype.DetectExplicit(url)
	if !known {
		return nil, errors.ErrInvalidInput
	}

	post := &domain.MediaPost{
		SourceURL: url,
		Platform:  p.Name(),
	}

	switch kind {
	case mediatype.Image:
		post.Kind = domain.PostImage
		post.ImageSlots = []domain.MediaSlot{{
			Index:      0,
			Kind:       domain.KindImage,
			Candidates: []domain.Candidate{{URL: url}},
		}}
	case mediatype.Stream:
		post.Kind = domain.PostVideo
		post.VideoSlots = []domain.MediaSlot{{
			Index:      0,
			Kind:       domain.KindVideo,
			Candidates: []domain.Candidate{{URL: url, Tag: domain.TagSegmented}},
		}}
	default:
		post.Kind = domain.PostVideo
		post.VideoSlots = []domain.MediaSlot{{
			Index:      0,
			Kind:       domain.KindVideo,
			Candidates: []domain.Candidate{{URL: url}},
		}}
	}

	return post, nil
}
