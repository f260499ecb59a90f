package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/cabina/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.SampleRate, convey.ShouldEqual, 16000)
			convey.So(cfg.CaptureSeconds, convey.ShouldEqual, 3)
			convey.So(cfg.CaptureSource, convey.ShouldEqual, config.SourceSynthetic)
			convey.So(cfg.LowVolume, convey.ShouldEqual, 1000)
			convey.So(cfg.HighVolume, convey.ShouldEqual, 8000)
			convey.So(cfg.HighVariability, convey.ShouldEqual, 2000)
			convey.So(cfg.CrisisLine, convey.ShouldEqual, "800-911-2000")
			convey.So(cfg.MQTTBroker, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the durations are derived from the raw fields", func() {
			convey.So(cfg.CaptureDuration(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.PollInterval(), convey.ShouldEqual, 500*time.Millisecond)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero sample rate", func(c *config.Config) { c.SampleRate = 0 }},
			{"negative capture seconds", func(c *config.Config) { c.CaptureSeconds = -1 }},
			{"zero poll interval", func(c *config.Config) { c.PollIntervalMS = 0 }},
			{"inverted volume thresholds", func(c *config.Config) { c.LowVolume = 9000 }},
			{"unknown capture source", func(c *config.Config) { c.CaptureSource = "mic" }},
			{"file source without a file", func(c *config.Config) { c.CaptureSource = config.SourceFile }},
		}

		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					err := cfg.Validate()
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
