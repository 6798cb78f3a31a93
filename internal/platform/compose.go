package platform

import (
	"github.com/orgball2608/media-parser-telegram-bot/internal/domain"
	"github.com/orgball2608/media-parser-telegram-bot/internal/mediatype"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/errors"
)

// ComposePost builds a multi-item post from a platform's resolved media URLs,
// in display order. Gallery items default to images; a URL that carries an
// explicit video or stream marker becomes a video slot instead, which covers
// galleries that lead with a clip.
func ComposePost(sourceURL, platformName string, urls []string) (*domain.MediaPost, error) {
	if len(urls) == 0 {
		return nil, errors.ErrNoCandidates
	}

	post := &domain.MediaPost{
		SourceURL: sourceURL,
		Platform:  platformName,
	}

	for _, u := range urls {
		kind, known := mediatype.DetectExplicit(u)
		switch {
		case known && kind == mediatype.Stream:
			post.VideoSlots = append(post.VideoSlots, domain.MediaSlot{
				Index:      len(post.VideoSlots),
				Kind:       domain.KindVideo,
				Candidates: []domain.Candidate{{URL: u, Tag: domain.TagSegmented}},
			})
		case known && kind == mediatype.Video:
			post.VideoSlots = append(post.VideoSlots, domain.MediaSlot{
				Index:      len(post.VideoSlots),
				Kind:       domain.KindVideo,
				Candidates: []domain.Candidate{{URL: u}},
			})
		default:
			post.ImageSlots = append(post.ImageSlots, domain.MediaSlot{
				Index:      len(post.ImageSlots),
				Kind:       domain.KindImage,
				Candidates: []domain.Candidate{{URL: u}},
			})
		}
	}

	switch {
	case len(post.VideoSlots) > 0 && len(post.ImageSlots) > 0:
		post.Kind = domain.PostMixed
	case len(post.VideoSlots) > 0:
		post.Kind = domain.PostVideo
	case len(post.ImageSlots) > 1:
		post.Kind = domain.PostGallery
	default:
		post.Kind = domain.PostImage
	}

	return post, nil
}
