package types_test

import (
	"errors"
	"testing"

	types "github.com/okian/sentinel/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeSymbol(t *testing.T) {
	Convey("Given raw symbol strings", t, func() {
		Convey("When the input is lower case with a cashtag prefix", func() {
			s, err := types.NormalizeSymbol("  $sol ")

			Convey("Then it should be normalized", func() {
				So(err, ShouldBeNil)
				So(s, ShouldEqual, "SOL")
			})
		})

		Convey("When the input mixes letters and digits", func() {
			s, err := types.NormalizeSymbol("1inch")

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(s, ShouldEqual, "1INCH")
			})
		})

		Convey("When the input is empty", func() {
			_, err := types.NormalizeSymbol("  ")

			Convey("Then it should be rejected", func() {
				So(err, ShouldEqual, types.ErrEmptySymbol)
			})
		})

		Convey("When the input is longer than ten characters", func() {
			_, err := types.NormalizeSymbol("ABCDEFGHIJK")

			Convey("Then it should be rejected as too long", func() {
				So(errors.Is(err, types.ErrSymbolTooLong), ShouldBeTrue)
			})
		})

		Convey("When the input has punctuation", func() {
			_, err := types.NormalizeSymbol("SO-L")

			Convey("Then it should be rejected as invalid", func() {
				So(errors.Is(err, types.ErrInvalidSymbol), ShouldBeTrue)
			})
		})
	})
}

func TestValidateSymbol(t *testing.T) {
	Convey("Given ValidateSymbol", t, func() {
		Convey("Then lower case input is not a normalized symbol", func() {
			So(errors.Is(types.ValidateSymbol("sol"), types.ErrInvalidSymbol), ShouldBeTrue)
		})

		Convey("Then a ten character symbol is accepted", func() {
			So(types.ValidateSymbol("ABCDEFGHIJ"), ShouldBeNil)
		})
	})
}

func TestClamp(t *testing.T) {
	Convey("Given the clamp helpers", t, func() {
		So(types.ClampInt(150, types.MinScore, types.MaxScore), ShouldEqual, 100)
		So(types.ClampInt(-150, types.MinScore, types.MaxScore), ShouldEqual, -100)
		So(types.ClampInt(42, types.MinScore, types.MaxScore), ShouldEqual, 42)
		So(types.ClampFloat(-3.5, 0, 1), ShouldEqual, 0)
		So(types.ClampFloat(3.5, 0, 1), ShouldEqual, 1)
		So(types.ClampFloat(0.25, 0, 1), ShouldEqual, 0.25)
	})
}
