package burnin

import (
	"context"
	"fmt"

	"vidpipe/internal/artifact"
	"vidpipe/internal/subtitles"
)

// Export persists segments as a standalone subtitle document whose parent is
// the given video. The video itself is not changed.
func (s *Stage) Export(ctx context.Context, parent artifact.Artifact, segments []subtitles.Segment, format subtitles.Format) (artifact.Artifact, error) {
	doc, err := subtitles.Build(segments, format)
	if err != nil {
		return artifact.Artifact{}, err
	}
	a, err := s.store.Put(ctx, artifact.KindSubtitleDocument, artifact.PrefixSubtitles, doc.Format.Extension(), parent.ID, doc.Bytes())
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("persist subtitle document: %w", err)
	}
	return a, nil
}
