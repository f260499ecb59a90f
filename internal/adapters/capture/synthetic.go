package capture

import (
	"context"
	"sync"
	"time"

	"github.com/okian/cabina/internal/domain/audio"
	"github.com/okian/cabina/pkg/logger"
)

// Profile is a named waveform recipe.
type Profile struct {
	Name     string
	Generate func(n, sampleRate int) audio.Block
}

// Profiles returns the built-in recipes. Each one lands on a different
// classifier outcome under the default thresholds.
func Profiles() []Profile {
	return []Profile{
		{Name: "calm", Generate: func(n, rate int) audio.Block { return audio.Tone(n, rate, 220, 6000) }},
		{Name: "agitated", Generate: func(n, rate int) audio.Block { return audio.Tone(n, rate, 400, 14000) }},
		{Name: "subdued", Generate: func(n, rate int) audio.Block { return audio.Tone(n, rate, 60, 2500) }},
		{Name: "withdrawn", Generate: func(n, _ int) audio.Block { return audio.Bursts(n, n/12, n/24, 600) }},
		{Name: "distressed", Generate: func(n, _ int) audio.Block { return audio.Bursts(n, n/12, n/240, 6000) }},
		{Name: "silence", Generate: func(n, _ int) audio.Block { return make(audio.Block, n) }},
	}
}

// SyntheticOption configures a SyntheticSource.
type SyntheticOption func(*SyntheticSource)

// WithProfiles replaces the cycled profiles.
func WithProfiles(p ...Profile) SyntheticOption {
	return func(s *SyntheticSource) {
		if len(p) > 0 {
			s.profiles = p
		}
	}
}

// WithPacing makes Capture block for the window duration like a live microphone.
func WithPacing(enabled bool) SyntheticOption {
	return func(s *SyntheticSource) { s.paced = enabled }
}

// WithSyntheticLogger sets the logger.
func WithSyntheticLogger(l logger.Logger) SyntheticOption {
	return func(s *SyntheticSource) {
		if l != nil {
			s.log = l
		}
	}
}

// SyntheticSource cycles through waveform profiles, one per capture.
type SyntheticSource struct {
	rate     int
	duration time.Duration
	profiles []Profile
	paced    bool
	log      logger.Logger

	mu   sync.Mutex
	next int
}

// NewSyntheticSource creates a generator for windows of duration at sampleRate Hz.
func NewSyntheticSource(sampleRate int, duration time.Duration, opts ...SyntheticOption) *SyntheticSource {
	s := &SyntheticSource{
		rate:     sampleRate,
		duration: duration,
		profiles: Profiles(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SampleRate implements Source.
func (s *SyntheticSource) SampleRate() int { return s.rate }

// Capture implements Source.
func (s *SyntheticSource) Capture(ctx context.Context) (audio.Block, error) {
	if s.paced {
		t := time.NewTimer(s.duration)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	p := s.profiles[s.next%len(s.profiles)]
	s.next++
	s.mu.Unlock()

	s.log.Debug(ctx, "synthetic capture", logger.String("profile", p.Name))
	return p.Generate(audio.WindowLength(s.rate, s.duration), s.rate), nil
}
