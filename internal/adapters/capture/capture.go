// Package capture provides audio sources for the monitor loop: a
// deterministic synthetic generator and a looping file reader.
package capture

import (
	"context"

	"github.com/okian/cabina/internal/domain/audio"
)

// Source produces one capture window per call.
type Source interface {
	Capture(ctx context.Context) (audio.Block, error)
	SampleRate() int
}
