package audio

import "math"

// Tone returns n samples of a sine wave of the given frequency and peak
// amplitude at sampleRate Hz. Amplitudes are clamped to the int16 range.
func Tone(n, sampleRate int, freqHz, amplitude float64) Block {
	out := make(Block, n)
	if sampleRate <= 0 {
		return out
	}
	for i := range out {
		v := amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate))
		out[i] = clamp16(v)
	}
	return out
}

// Alternating returns n samples flipping between +amplitude and -amplitude.
func Alternating(n int, amplitude int16) Block {
	out := make(Block, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amplitude
		} else {
			out[i] = -amplitude
		}
	}
	return out
}

// Gate zeroes every other run of runLen samples of b in place, starting
// with the second run, and returns b. It turns a steady tone into speech
// separated by pauses.
func Gate(b Block, runLen int) Block {
	if runLen <= 0 {
		return b
	}
	for i := range b {
		if (i/runLen)%2 == 1 {
			b[i] = 0
		}
	}
	return b
}

func clamp16(v float64) int16 {
	switch {
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	default:
		return int16(math.Round(v))
	}
}

// Bursts returns n samples of alternating ±amplitude bursts, on samples
// long, starting every period samples; everything between bursts is zero.
func Bursts(n, period, on int, amplitude int16) Block {
	out := Alternating(n, amplitude)
	if period <= 0 {
		return out
	}
	for i := range out {
		if i%period >= on {
			out[i] = 0
		}
	}
	return out
}
