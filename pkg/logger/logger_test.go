package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "test message",
		String("k", "v"),
		Int("n", 1),
		Int64("n64", 2),
		Bool("ok", true),
		Duration("took", time.Millisecond),
		Error(errors.New("boom")),
	)
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestLoggerLevelsAndFormats(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When setting known levels", func() {
			Convey("Then each should be accepted", func() {
				for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", "INFO "} {
					So(SetLevelString(lvl), ShouldBeNil)
				}
			})
		})

		Convey("When setting an unknown level", func() {
			err := SetLevelString("verbose")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When switching to json output", func() {
			err := SetFormat("json")
			defer func() { _ = SetFormat("text") }()

			Convey("Then the global logger should still be usable", func() {
				So(err, ShouldBeNil)
				So(func() { Get().Debug(context.Background(), "json entry") }, ShouldNotPanic)
			})
		})

		Convey("When setting an unknown format", func() {
			Convey("Then it should fail", func() {
				So(SetFormat("xml"), ShouldNotBeNil)
			})
		})

		Convey("When redirecting output to a buffer", func() {
			var buf bytes.Buffer
			SetOutput(&buf)
			defer SetOutput(os.Stdout)
			Get().Info(context.Background(), "redirected entry", String("k", "v"))

			Convey("Then the entry lands in the buffer", func() {
				So(buf.String(), ShouldContainSubstring, "redirected entry")
				So(buf.String(), ShouldContainSubstring, "k=v")
			})
		})

		Convey("When using the discard logger", func() {
			l := Discard()

			Convey("Then it should never panic", func() {
				So(func() { l.Named("x").Warn(context.Background(), "dropped") }, ShouldNotPanic)
			})
		})
	})
}
