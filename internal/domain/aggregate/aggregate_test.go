package aggregate_test

import (
	"testing"
	"time"

	"github.com/okian/sentinel/internal/domain/aggregate"
	"github.com/okian/sentinel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregate(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	Convey("Given the aggregator", t, func() {
		Convey("When no items reference the token", func() {
			sig := aggregate.Aggregate("SOL", nil, nil, now)

			Convey("Then it should produce the zero signal", func() {
				So(sig.Symbol, ShouldEqual, "SOL")
				So(sig.Score, ShouldEqual, 0)
				So(sig.Confidence, ShouldEqual, 0)
				So(sig.Volume, ShouldEqual, 0)
				So(sig.Sources, ShouldBeEmpty)
				So(sig.Breakdown, ShouldBeNil)
				So(sig.Momentum(), ShouldEqual, 0)
				So(sig.CreatedAt, ShouldEqual, now)
			})
		})

		Convey("When two strong bullish items and one weak negated item contribute", func() {
			items := []aggregate.Scored{
				{ItemID: "b", CreatedAt: now.Add(2 * time.Second), Breakdown: model.ItemBreakdown{Score: 57, Confidence: 89, KeywordScore: 100, EmojiScore: 10}},
				{ItemID: "a", CreatedAt: now.Add(1 * time.Second), Breakdown: model.ItemBreakdown{Score: 57, Confidence: 89, KeywordScore: 100, EmojiScore: 10}},
				{ItemID: "c", CreatedAt: now.Add(3 * time.Second), Breakdown: model.ItemBreakdown{Score: -55, Confidence: 5, KeywordScore: -100}},
			}
			sig := aggregate.Aggregate("SOL", items, nil, now)

			Convey("Then score and confidence should be confidence-weighted", func() {
				So(sig.Score, ShouldEqual, 54)
				So(sig.Confidence, ShouldEqual, 61)
				So(sig.Volume, ShouldEqual, 3)
			})

			Convey("And the score should sit between the item scores", func() {
				So(sig.Score, ShouldBeLessThan, 57)
				So(sig.Score, ShouldBeGreaterThan, -55)
			})

			Convey("And sources should be ordered by creation time", func() {
				So(sig.Sources, ShouldResemble, []string{"a", "b", "c"})
			})

			Convey("And the breakdown should be the weighted average", func() {
				So(sig.Breakdown, ShouldNotBeNil)
				So(sig.Breakdown.KeywordScore, ShouldAlmostEqual, (178.0-5.0)/1.83, 1e-9)
				So(sig.Breakdown.EmojiScore, ShouldAlmostEqual, 17.8/1.83, 1e-9)
				So(sig.Breakdown.Momentum, ShouldEqual, 0)
			})

			Convey("And the input slice should not be reordered", func() {
				So(items[0].ItemID, ShouldEqual, "b")
			})
		})

		Convey("When every item has zero confidence", func() {
			items := []aggregate.Scored{
				{ItemID: "x", Breakdown: model.ItemBreakdown{Score: 1}},
				{ItemID: "y", Breakdown: model.ItemBreakdown{Score: -3}},
			}
			sig := aggregate.Aggregate("ETH", items, nil, now)

			Convey("Then score and confidence should be zero without dividing by zero", func() {
				So(sig.Score, ShouldEqual, 0)
				So(sig.Confidence, ShouldEqual, 0)
				So(sig.Volume, ShouldEqual, 2)
				So(sig.Sources, ShouldResemble, []string{"x", "y"})
				So(sig.Breakdown.KeywordScore, ShouldEqual, 0)
			})
		})

		Convey("When a previous signal exists", func() {
			prev := &model.TokenSignal{Symbol: "SOL", Score: 10}
			items := []aggregate.Scored{{ItemID: "z", Breakdown: model.ItemBreakdown{Score: 40, Confidence: 50}}}
			sig := aggregate.Aggregate("SOL", items, prev, now)

			Convey("Then momentum should be the score delta", func() {
				So(sig.Score, ShouldEqual, 40)
				So(sig.Confidence, ShouldEqual, 50)
				So(sig.Momentum(), ShouldEqual, 30)
			})
		})

		Convey("When all contributing items are at the bounds", func() {
			items := []aggregate.Scored{
				{ItemID: "1", Breakdown: model.ItemBreakdown{Score: 100, Confidence: 100}},
				{ItemID: "2", Breakdown: model.ItemBreakdown{Score: 100, Confidence: 100}},
			}
			sig := aggregate.Aggregate("BTC", items, nil, now)

			Convey("Then the result should stay within bounds", func() {
				So(sig.Score, ShouldEqual, 100)
				So(sig.Confidence, ShouldEqual, 100)
				So(sig.Validate(), ShouldBeNil)
			})
		})
	})
}
