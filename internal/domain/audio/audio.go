// Package audio derives scalar voice statistics from one mono PCM capture
// window. Every function here is pure: no state is kept between calls.
package audio

import (
	"fmt"
	"math"
	"time"
)

// silenceRatio scales the mean amplitude into the adaptive silence threshold.
const silenceRatio = 0.3

// Block is one mono capture window of signed 16-bit samples.
// A Block is treated as immutable once produced.
type Block []int16

// Features holds the statistics extracted from one Block.
type Features struct {
	MeanAmplitude       float64 `json:"mean_amplitude"`
	MaxAmplitude        float64 `json:"max_amplitude"`
	Variability         float64 `json:"variability"`
	FrequencyEstimateHz float64 `json:"frequency_estimate_hz"`
	Energy              float64 `json:"energy"`
	SilenceSegmentCount float64 `json:"silence_segment_count"`
}

// WindowLength returns the number of samples in a capture window of the
// given duration. Fractional samples are truncated.
func WindowLength(sampleRate int, duration time.Duration) int {
	if sampleRate <= 0 || duration <= 0 {
		return 0
	}
	return int(int64(sampleRate) * int64(duration) / int64(time.Second))
}

// ExtractWindow validates that block spans exactly one capture window of
// the given duration and then extracts its features.
func ExtractWindow(block Block, sampleRate int, duration time.Duration) (Features, error) {
	want := WindowLength(sampleRate, duration)
	if want == 0 || len(block) != want {
		return Features{}, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidInput, len(block), want)
	}
	return Extract(block, sampleRate)
}

// Extract computes the feature set of block sampled at sampleRate Hz.
//
// Zero crossings use three sign classes (negative, zero, positive); any
// adjacent pair whose classes differ counts as one crossing, so stepping
// into or out of an exact zero is a crossing.
//
// Silence segments are counted as silent/non-silent flag transitions
// divided by two. A segment touching either end of the block contributes
// a single transition and is therefore counted as half a segment.
func Extract(block Block, sampleRate int) (Features, error) {
	if len(block) == 0 {
		return Features{}, fmt.Errorf("%w: empty block", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return Features{}, fmt.Errorf("%w: sample rate %d", ErrInvalidInput, sampleRate)
	}

	n := float64(len(block))

	var sumAbs, sum, sumSquares, maxAbs float64
	for _, s := range block {
		v := float64(s)
		a := math.Abs(v)
		sumAbs += a
		sum += v
		sumSquares += v * v
		if a > maxAbs {
			maxAbs = a
		}
	}
	meanAbs := sumAbs / n
	mean := sum / n

	var sumDev float64
	for _, s := range block {
		d := float64(s) - mean
		sumDev += d * d
	}

	return Features{
		MeanAmplitude:       meanAbs,
		MaxAmplitude:        maxAbs,
		Variability:         math.Sqrt(sumDev / n),
		FrequencyEstimateHz: float64(zeroCrossings(block)) / n * float64(sampleRate) / 2,
		Energy:              sumSquares / n,
		SilenceSegmentCount: float64(silenceTransitions(block, meanAbs*silenceRatio)) / 2,
	}, nil
}

func signClass(s int16) int8 {
	switch {
	case s > 0:
		return 1
	case s < 0:
		return -1
	default:
		return 0
	}
}

func zeroCrossings(block Block) int {
	crossings := 0
	for i := 1; i < len(block); i++ {
		if signClass(block[i]) != signClass(block[i-1]) {
			crossings++
		}
	}
	return crossings
}

func silenceTransitions(block Block, threshold float64) int {
	transitions := 0
	prev := math.Abs(float64(block[0])) < threshold
	for _, s := range block[1:] {
		silent := math.Abs(float64(s)) < threshold
		if silent != prev {
			transitions++
		}
		prev = silent
	}
	return transitions
}
