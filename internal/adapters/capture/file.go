package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/cabina/internal/domain/audio"
	"github.com/okian/cabina/pkg/logger"
)

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithFileLogger sets the logger.
func WithFileLogger(l logger.Logger) FileOption {
	return func(s *FileSource) {
		if l != nil {
			s.log = l
		}
	}
}

// FileSource serves consecutive windows of a recording and loops at the end.
type FileSource struct {
	rate    int
	window  int
	samples audio.Block
	log     logger.Logger

	mu  sync.Mutex
	pos int
}

// NewFileSource loads path. A WAV header's sample rate overrides sampleRate.
func NewFileSource(path string, sampleRate int, duration time.Duration, opts ...FileOption) (*FileSource, error) {
	samples, rate, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture file %s: %w", path, err)
	}
	if rate == 0 {
		rate = sampleRate
	}
	window := audio.WindowLength(rate, duration)
	if window == 0 || len(samples) < window {
		return nil, fmt.Errorf("%w: %s has %d samples, window is %d", ErrShortRead, path, len(samples), window)
	}
	s := &FileSource{
		rate:    rate,
		window:  window,
		samples: samples,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SampleRate implements Source.
func (s *FileSource) SampleRate() int { return s.rate }

// Capture implements Source. A window that runs past the end wraps to the start.
func (s *FileSource) Capture(ctx context.Context) (audio.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(audio.Block, s.window)
	n := copy(out, s.samples[s.pos:])
	if n < s.window {
		copy(out[n:], s.samples)
		s.log.Debug(ctx, "capture file looped")
	}
	s.pos = (s.pos + s.window) % len(s.samples)
	return out, nil
}
