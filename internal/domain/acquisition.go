package domain

// ProbeResult is the outcome of a size/validity check. It is consumed by the
// policy decision and then discarded.
type ProbeResult struct {
	// SizeMB is nil when the size could not be determined. Callers treat an
	// unknown size as permissive.
	SizeMB    *float64
	Valid     bool
	Forbidden bool
	// StatusCode is the HTTP status observed, 0 when the request never
	// produced a response.
	StatusCode int
}

// FetchResult is the outcome of fetching one slot.
type FetchResult struct {
	Index    int
	Success  bool
	FilePath string
	SizeMB   *float64
}

// Decision is the terminal state of the acquisition policy for one post.
type Decision int

const (
	// DecisionNone means the post had no media slots; nothing to deliver.
	DecisionNone Decision = iota
	DecisionRejectedTooLarge
	DecisionDirectLink
	DecisionLocalFiles
	DecisionPartial
)

func (d Decision) String() string {
	switch d {
	case DecisionRejectedTooLarge:
		return "rejected-too-large"
	case DecisionDirectLink:
		return "accepted-direct-link"
	case DecisionLocalFiles:
		return "accepted-local-files"
	case DecisionPartial:
		return "accepted-partial"
	default:
		return "no-op"
	}
}

// Accepted reports whether the decision carries deliverable media.
func (d Decision) Accepted() bool {
	switch d {
	case DecisionDirectLink, DecisionLocalFiles, DecisionPartial:
		return true
	}
	return false
}

// Acquisition is the pipeline's annotation on a MediaPost. FilePaths is
// positionally aligned with the slots: all video slots first, then all image
// slots; an empty string marks a slot with no local file.
type Acquisition struct {
	Decision Decision

	VideoSizes       []*float64
	MaxVideoSizeMB   *float64
	TotalVideoSizeMB float64

	FailedVideoCount int
	FailedImageCount int

	UseLocalFiles bool
	FilePaths     []string
	// FailedSlots is aligned with FilePaths; a true entry marks a slot that
	// produced no usable media and must be skipped by delivery.
	FailedSlots []bool

	ExceedsMaxSize bool
	HasValidMedia  bool
	AccessDenied   bool
}

// VideoPath returns the local path for video slot i, or "".
func (a *Acquisition) VideoPath(i int) string {
	if i < 0 || i >= len(a.FilePaths) {
		return ""
	}
	return a.FilePaths[i]
}

// ImagePath returns the local path for image slot i given the number of
// video slots on the post, or "".
func (a *Acquisition) ImagePath(videoCount, i int) string {
	return a.VideoPath(videoCount + i)
}

// SlotFailed reports whether the slot at the aligned position failed.
func (a *Acquisition) SlotFailed(i int) bool {
	return i >= 0 && i < len(a.FailedSlots) && a.FailedSlots[i]
}
