package domain

// MediaKind distinguishes the two deliverable slot kinds.
type MediaKind int

const (
	KindVideo MediaKind = iota
	KindImage
)

func (k MediaKind) String() string {
	if k == KindImage {
		return "image"
	}
	return "video"
}

// PostKind is the shape of a whole post as reported by the platform parser.
type PostKind int

const (
	PostVideo PostKind = iota
	PostImage
	PostMixed
	PostGallery
)

func (k PostKind) String() string {
	switch k {
	case PostImage:
		return "image"
	case PostMixed:
		return "mixed"
	case PostGallery:
		return "gallery"
	default:
		return "video"
	}
}

// URLTag marks a candidate URL that needs special transfer handling. It used
// to be encoded as a string prefix on the URL itself; carrying it alongside
// keeps the URL clean for probing.
type URLTag int

const (
	TagNone URLTag = iota
	TagSegmented
	TagRanged
)

// Candidate is one URL in a slot's fallback list.
type Candidate struct {
	URL string
	Tag URLTag
}

// MediaSlot is one deliverable media item within a post. Candidates are an
// ordered fallback list: the first that succeeds wins. A slot is never
// constructed with an empty candidate list.
type MediaSlot struct {
	Index      int
	Kind       MediaKind
	Candidates []Candidate
}

// FirstURL returns the preferred candidate URL, or "" for a malformed slot.
func (s MediaSlot) FirstURL() string {
	if len(s.Candidates) == 0 {
		return ""
	}
	return s.Candidates[0].URL
}

// MediaPost is one logical unit to deliver. Produced by a platform parser,
// progressively annotated by the acquisition pipeline, consumed by the
// delivery layer. Identity (SourceURL) is stable for the life of a request.
type MediaPost struct {
	SourceURL string
	Platform  string
	Kind      PostKind

	Author  string
	Caption string

	VideoSlots []MediaSlot
	ImageSlots []MediaSlot

	VideoHeaders map[string]string
	ImageHeaders map[string]string

	ProxyURL      string
	UseVideoProxy bool
	UseImageProxy bool

	// ForceLocalVideo is set by parsers whose direct video links are known to
	// be unusable for remote streaming; such videos must be fetched locally
	// or dropped.
	ForceLocalVideo bool

	// Acquisition is filled in by the pipeline.
	Acquisition *Acquisition
}

// SlotCount returns the total number of media slots on the post.
func (p *MediaPost) SlotCount() int {
	return len(p.VideoSlots) + len(p.ImageSlots)
}

// VideoHeadersOrEmpty never returns nil.
func (p *MediaPost) VideoHeadersOrEmpty() map[string]string {
	if p.VideoHeaders == nil {
		return map[string]string{}
	}
	return p.VideoHeaders
}

// ImageHeadersOrEmpty never returns nil.
func (p *MediaPost) ImageHeadersOrEmpty() map[string]string {
	if p.ImageHeaders == nil {
		return map[string]string{}
	}
	return p.ImageHeaders
}

// VideoProxy returns the proxy URL to use for video requests, if any.
func (p *MediaPost) VideoProxy(fallback string) string {
	return p.proxy(p.UseVideoProxy, fallback)
}

// ImageProxy returns the proxy URL to use for image requests, if any.
func (p *MediaPost) ImageProxy(fallback string) string {
	return p.proxy(p.UseImageProxy, fallback)
}

func (p *MediaPost) proxy(enabled bool, fallback string) string {
	if !enabled {
		return ""
	}
	if p.ProxyURL != "" {
		return p.ProxyURL
	}
	return fallback
}
