package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/cabina/internal/adapters/capture"
	"github.com/okian/cabina/internal/domain/audio"
	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/protocol"
)

const (
	defaultAnalyzeRate  = 16000
	defaultMaxBodyBytes = 8 << 20
)

// AnalyzeDependencies classifies an uploaded block.
type AnalyzeDependencies interface {
	Analyze(block audio.Block, sampleRate int) (emotion.Result, error)
}

// AnalyzeOption configures the analyze handler.
type AnalyzeOption func(*AnalyzeHandler)

// WithDefaultSampleRate sets the rate used when ?rate is absent.
func WithDefaultSampleRate(rate int) AnalyzeOption {
	return func(h *AnalyzeHandler) {
		if rate > 0 {
			h.defaultRate = rate
		}
	}
}

// WithMaxBodyBytes caps the upload size.
func WithMaxBodyBytes(n int64) AnalyzeOption {
	return func(h *AnalyzeHandler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// AnalyzeHandler handles POST /api/analyze.
type AnalyzeHandler struct {
	deps        AnalyzeDependencies
	defaultRate int
	maxBody     int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies, opts ...AnalyzeOption) *AnalyzeHandler {
	h := &AnalyzeHandler{
		deps:        deps,
		defaultRate: defaultAnalyzeRate,
		maxBody:     defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type analyzeResponse struct {
	emotion.Result
	SampleRate int               `json:"sample_rate"`
	Samples    int               `json:"samples"`
	Protocol   protocol.Protocol `json:"protocol"`
}

// HandleAnalyze classifies a raw PCM16LE (or WAV) body. The result is not
// published as the cabin state.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	rate := h.defaultRate
	if q := r.URL.Query().Get("rate"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: rate must be a positive integer", ErrBadRequest))
			return
		}
		rate = v
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", ErrBodyTooBig)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	block, wavRate, err := capture.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported_format", err)
		return
	}
	if wavRate > 0 {
		rate = wavRate
	}

	res, err := h.deps.Analyze(block, rate)
	if err != nil {
		if errors.Is(err, audio.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_input", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Result:     res,
		SampleRate: rate,
		Samples:    len(block),
		Protocol:   protocol.For(res.State),
	})
}
