package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	model "github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestTextItemEngagement(t *testing.T) {
	convey.Convey("Given a text item with malformed engagement counts", t, func() {
		item := model.TextItem{ID: "a", Likes: -5, Reshares: 3, Replies: -1, Followers: -100}

		convey.Convey("When reading its engagement", func() {
			likes, reshares, replies, followers := item.Engagement()

			convey.Convey("Then negative counts should read as zero", func() {
				convey.So(likes, convey.ShouldEqual, 0)
				convey.So(reshares, convey.ShouldEqual, 3)
				convey.So(replies, convey.ShouldEqual, 0)
				convey.So(followers, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestTokenSignalValidate(t *testing.T) {
	convey.Convey("Given a token signal", t, func() {
		sig := model.TokenSignal{
			Symbol:     "SOL",
			Score:      40,
			Confidence: 70,
			Volume:     3,
			CreatedAt:  time.Unix(1_700_000_000, 0),
			Sources:    []string{"a", "b", "c"},
			Breakdown:  &model.SignalBreakdown{KeywordScore: 80, Momentum: 30},
		}

		convey.Convey("When all fields are within bounds", func() {
			convey.Convey("Then it should validate", func() {
				convey.So(sig.Validate(), convey.ShouldBeNil)
				convey.So(sig.Momentum(), convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When the score is out of range", func() {
			sig.Score = 101

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(sig.Validate(), model.ErrScoreOutOfRange), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the confidence is out of range", func() {
			sig.Confidence = -1

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(sig.Validate(), model.ErrConfidenceOutOfRange), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the symbol is not normalized", func() {
			sig.Symbol = "sol"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(sig.Validate(), types.ErrInvalidSymbol), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a breakdown value is NaN", func() {
			sig.Breakdown = &model.SignalBreakdown{ViralityBonus: math.NaN()}

			convey.Convey("Then validation should fail", func() {
				convey.So(sig.Validate(), convey.ShouldEqual, model.ErrNonFinite)
			})
		})

		convey.Convey("When the signal has no breakdown", func() {
			sig.Breakdown = nil

			convey.Convey("Then momentum reads as zero", func() {
				convey.So(sig.Momentum(), convey.ShouldEqual, 0)
				convey.So(sig.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
