package artifact

import (
	"time"
)

// Kind classifies what an artifact holds.
type Kind string

const (
	KindOriginal         Kind = "original"
	KindVideoOnly        Kind = "video-only-intermediate"
	KindFinalVideo       Kind = "final-video"
	KindSubtitleDocument Kind = "subtitle-document"
)

// File name prefixes used by the stages.
const (
	PrefixUpload     = "upload"
	PrefixBlurredRaw = "blurred-raw"
	PrefixBlurred    = "blurred"
	PrefixSubtitles  = "subs"
	PrefixSubbed     = "subbed"
)

// Artifact is one registered file in the store.
type Artifact struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	FileName  string    `json:"file_name"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ParentID  string    `json:"parent_id,omitempty"`
	Degraded  bool      `json:"degraded,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// IsVideo reports whether the artifact can feed a video stage.
func (a Artifact) IsVideo() bool {
	return a.Kind != KindSubtitleDocument
}
