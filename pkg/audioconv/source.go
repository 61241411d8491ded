package audioconv

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// FileSource replays audio files as captured phrases, one file per
// Capture, then reports io.EOF.
type FileSource struct {
	mu    sync.Mutex
	paths []string
	next  int
}

func NewFileSource(paths ...string) *FileSource {
	return &FileSource{paths: append([]string(nil), paths...)}
}

// Capture ignores startTimeout. The phrase is cut at phraseLimit.
func (s *FileSource) Capture(ctx context.Context, _, phraseLimit time.Duration) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}

	path := s.paths[s.next]
	s.next++

	pcm, err := DecodeFile(ctx, path, Options{MaxSamples: int(phraseLimit.Seconds() * TargetRate)})
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}
	return pcm, nil
}
