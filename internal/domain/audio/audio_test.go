package audio_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/cabina/internal/domain/audio"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtract(t *testing.T) {
	Convey("Given the feature extractor", t, func() {
		Convey("When the block is all zeros", func() {
			f, err := audio.Extract(make(audio.Block, 100), 16000)

			Convey("Then every amplitude statistic is zero", func() {
				So(err, ShouldBeNil)
				So(f.MeanAmplitude, ShouldEqual, 0)
				So(f.MaxAmplitude, ShouldEqual, 0)
				So(f.Variability, ShouldEqual, 0)
				So(f.FrequencyEstimateHz, ShouldEqual, 0)
				So(f.Energy, ShouldEqual, 0)
				So(f.SilenceSegmentCount, ShouldEqual, 0)
				So(math.IsNaN(f.SilenceSegmentCount), ShouldBeFalse)
			})
		})

		Convey("When the block holds a single sample", func() {
			f, err := audio.Extract(audio.Block{5}, 16000)

			Convey("Then it returns defined values without failing", func() {
				So(err, ShouldBeNil)
				So(f.MeanAmplitude, ShouldEqual, 5)
				So(f.MaxAmplitude, ShouldEqual, 5)
				So(f.Variability, ShouldEqual, 0)
				So(f.FrequencyEstimateHz, ShouldEqual, 0)
				So(f.Energy, ShouldEqual, 25)
				So(f.SilenceSegmentCount, ShouldEqual, 0)
			})
		})

		Convey("When the block alternates between +9000 and -9000", func() {
			f, err := audio.Extract(audio.Alternating(48000, 9000), 16000)

			Convey("Then amplitude, spread and frequency follow the waveform", func() {
				So(err, ShouldBeNil)
				So(f.MeanAmplitude, ShouldEqual, 9000)
				So(f.MaxAmplitude, ShouldEqual, 9000)
				So(f.Variability, ShouldEqual, 9000)
				So(f.Energy, ShouldEqual, 81_000_000)
				So(f.FrequencyEstimateHz, ShouldAlmostEqual, 47999.0/48000.0*16000/2, 1e-9)
				So(f.SilenceSegmentCount, ShouldEqual, 0)
			})
		})

		Convey("When the block is empty", func() {
			_, err := audio.Extract(audio.Block{}, 16000)

			Convey("Then it fails with ErrInvalidInput", func() {
				So(errors.Is(err, audio.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the sample rate is not positive", func() {
			_, err := audio.Extract(audio.Block{1, 2, 3}, 0)

			Convey("Then it fails with ErrInvalidInput", func() {
				So(errors.Is(err, audio.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the block contains the most negative sample", func() {
			f, err := audio.Extract(audio.Block{math.MinInt16}, 8000)

			Convey("Then its magnitude is widened without overflow", func() {
				So(err, ShouldBeNil)
				So(f.MaxAmplitude, ShouldEqual, 32768)
				So(f.Energy, ShouldEqual, 32768.0*32768.0)
			})
		})
	})
}

func TestZeroCrossingConvention(t *testing.T) {
	Convey("Given samples that touch exact zero", t, func() {
		Convey("When stepping into and out of zero", func() {
			// classes: 0, +, 0, - => three crossings
			f, err := audio.Extract(audio.Block{0, 5, 0, -5}, 4)

			Convey("Then every change of sign class counts", func() {
				So(err, ShouldBeNil)
				So(f.FrequencyEstimateHz, ShouldEqual, 3.0/4.0*4/2)
			})
		})

		Convey("When equal-signed neighbours repeat", func() {
			f, err := audio.Extract(audio.Block{5, 5, -5}, 6)

			Convey("Then only the real sign change counts", func() {
				So(err, ShouldBeNil)
				So(f.FrequencyEstimateHz, ShouldEqual, 1.0/3.0*6/2)
			})
		})
	})
}

func TestSilenceSegments(t *testing.T) {
	Convey("Given blocks with quiet stretches", t, func() {
		Convey("When a pause sits inside speech", func() {
			f, err := audio.Extract(audio.Block{100, 100, 0, 0, 100, 100}, 16000)

			Convey("Then entry and exit make one segment", func() {
				So(err, ShouldBeNil)
				So(f.SilenceSegmentCount, ShouldEqual, 1)
			})
		})

		Convey("When the pause starts at the block boundary", func() {
			f, err := audio.Extract(audio.Block{0, 0, 100, 100}, 16000)

			Convey("Then the single transition counts as half a segment", func() {
				So(err, ShouldBeNil)
				So(f.SilenceSegmentCount, ShouldEqual, 0.5)
			})
		})

		Convey("When gated speech produces many pauses", func() {
			block := audio.Gate(audio.Alternating(1600, 500), 100)
			f, err := audio.Extract(block, 16000)

			Convey("Then the trailing pause is under-counted", func() {
				So(err, ShouldBeNil)
				// eight pauses, the last one runs to the end of the block
				So(f.SilenceSegmentCount, ShouldEqual, 7.5)
			})
		})
	})
}

func TestExtractWindow(t *testing.T) {
	Convey("Given a three second window at 16 kHz", t, func() {
		So(audio.WindowLength(16000, 3*time.Second), ShouldEqual, 48000)

		Convey("When the block has the expected length", func() {
			_, err := audio.ExtractWindow(make(audio.Block, 48000), 16000, 3*time.Second)

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the block is one sample short", func() {
			_, err := audio.ExtractWindow(make(audio.Block, 47999), 16000, 3*time.Second)

			Convey("Then it is rejected as invalid input", func() {
				So(errors.Is(err, audio.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestExtractIsIdempotent(t *testing.T) {
	Convey("Given the same block extracted twice", t, func() {
		block := audio.Gate(audio.Tone(48000, 16000, 180, 2500), 4000)
		a, errA := audio.Extract(block, 16000)
		b, errB := audio.Extract(block, 16000)

		Convey("Then both results are identical", func() {
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(a, ShouldResemble, b)
		})
	})
}

func TestBursts(t *testing.T) {
	Convey("Given 12 bursts of 200 samples every 4000 samples", t, func() {
		block := audio.Bursts(48000, 4000, 200, 6000)
		f, err := audio.Extract(block, 16000)

		Convey("Then only the burst samples are non-zero", func() {
			So(err, ShouldBeNil)
			So(block[199], ShouldEqual, -6000)
			So(block[200], ShouldEqual, 0)
			So(block[4000], ShouldEqual, 6000)
			So(f.MeanAmplitude, ShouldEqual, 300)
			So(f.MaxAmplitude, ShouldEqual, 6000)
		})

		Convey("Then each burst adds one silence segment", func() {
			// The first burst starts at sample 0, so only 23 edges are seen.
			So(f.SilenceSegmentCount, ShouldEqual, 11.5)
		})
	})
}
