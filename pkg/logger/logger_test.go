package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)

		Convey("When logging with typed fields through a named logger", func() {
			Named("monitor").Info(context.Background(), "cycle done",
				String("state", "stable"),
				Uint64("version", 3),
				Bool("critical", false),
				Duration("took", 2*time.Millisecond),
			)

			Convey("Then every field is written as a JSON attribute", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "cycle done")
				So(rec["component"], ShouldEqual, "monitor")
				So(rec["state"], ShouldEqual, "stable")
				So(rec["version"], ShouldEqual, 3.0)
				So(rec["critical"], ShouldEqual, false)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given a text logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("WARN"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then info lines are dropped", func() {
				out := buf.String()
				So(strings.Contains(out, "hidden"), ShouldBeFalse)
				So(strings.Contains(out, "shown"), ShouldBeTrue)
			})
		})

		Convey("When the level is unknown", func() {
			Convey("Then it returns an error", func() {
				So(SetLevelString("verbose"), ShouldNotBeNil)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop logger", t, func() {
		l := Nop()

		Convey("Then logging is a no-op", func() {
			So(func() { l.Error(context.Background(), "ignored", Error(nil)) }, ShouldNotPanic)
		})
	})
}
