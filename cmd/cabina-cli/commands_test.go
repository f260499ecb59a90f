package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/cabina/internal/adapters/capture"
	"github.com/okian/cabina/internal/domain/audio"
	. "github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	Convey("Given a loud erratic WAV recording", t, func() {
		path := filepath.Join(t.TempDir(), "agitated.wav")
		block := audio.Tone(8000, 8000, 400, 14000)
		So(os.WriteFile(path, capture.EncodeWAV(block, 8000), 0o600), ShouldBeNil)

		Convey("When it is analyzed", func() {
			out, err := execute("analyze", path)

			Convey("Then the report shows the state and its protocol", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "anxiety")
				So(out, ShouldContainSubstring, "loud and erratic")
				So(out, ShouldContainSubstring, "calming blue")
			})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := execute("analyze", filepath.Join(t.TempDir(), "nope.wav"))

		Convey("Then the command fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given no arguments", t, func() {
		_, err := execute("analyze")

		Convey("Then cobra rejects the call", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSessionCommand(t *testing.T) {
	Convey("Given a session over every synthetic profile", t, func() {
		out, err := execute("session", "--count", "6")

		Convey("Then each state is summarized and the crisis escalated", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Session summary (6 windows)")
			So(out, ShouldContainSubstring, "depression")
			So(out, ShouldContainSubstring, "crisis")
			So(out, ShouldContainSubstring, "ALERT")
			So(out, ShouldContainSubstring, "calling 800-911-2000")
			So(out, ShouldContainSubstring, "emergencies")
		})
	})

	Convey("Given a non-positive count", t, func() {
		_, err := execute("session", "--count", "0")

		Convey("Then the command fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRulesCommand(t *testing.T) {
	Convey("Given the rules command", t, func() {
		out, err := execute("rules")

		Convey("Then the table lists every rule in order", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "sustained low energy + frequent pauses")
			So(out, ShouldContainSubstring, "extreme quiet with long pauses")
			So(out, ShouldContainSubstring, "stable otherwise")
		})
	})
}
