package scoring_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/okian/sentinel/internal/domain/lexicon"
	"github.com/okian/sentinel/internal/domain/model"
	scoring "github.com/okian/sentinel/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScorer_Keywords(t *testing.T) {
	Convey("Given a scorer with the default lexicon", t, func() {
		scorer := scoring.New()

		Convey("When the item has no lexicon hits", func() {
			b := scorer.Score(&model.TextItem{Text: "just watching $SOL today"})

			Convey("Then score and confidence should be zero", func() {
				So(b.KeywordWeight, ShouldEqual, 0)
				So(b.KeywordScore, ShouldEqual, 0)
				So(b.Score, ShouldEqual, 0)
				So(b.Confidence, ShouldEqual, 0)
			})
		})

		Convey("When a bullish keyword is negated", func() {
			b := scorer.Score(&model.TextItem{Text: "not bullish"})

			Convey("Then it should count as bearish at half weight", func() {
				So(b.KeywordWeight, ShouldEqual, 0.5)
				So(b.KeywordScore, ShouldEqual, -100)
				So(b.Score, ShouldEqual, -55)
				So(b.Confidence, ShouldEqual, 5)
			})
		})

		Convey("When a bearish keyword is negated", func() {
			b := scorer.Score(&model.TextItem{Text: "this is not a scam"})

			Convey("Then it should count as bullish", func() {
				So(b.KeywordScore, ShouldEqual, 100)
				So(b.Score, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the negation is outside the look-back window", func() {
			b := scorer.Score(&model.TextItem{Text: "not that i think it is bullish"})

			Convey("Then the keyword should keep its polarity", func() {
				So(b.KeywordWeight, ShouldEqual, 1)
				So(b.Score, ShouldEqual, 55)
			})
		})

		Convey("When the negation is inside the window", func() {
			b := scorer.Score(&model.TextItem{Text: "never really bullish"})

			Convey("Then the keyword should be inverted", func() {
				So(b.Score, ShouldEqual, -55)
			})
		})

		Convey("When a typographic apostrophe is used in the negation", func() {
			b := scorer.Score(&model.TextItem{Text: "isn’t bullish"})

			Convey("Then it should still negate", func() {
				So(b.Score, ShouldEqual, -55)
			})
		})

		Convey("When keywords only appear inside longer words", func() {
			b := scorer.Score(&model.TextItem{Text: "pumpkin spice and rugged boots"})

			Convey("Then nothing should match", func() {
				So(b.KeywordWeight, ShouldEqual, 0)
			})
		})

		Convey("When keywords carry punctuation or capitals", func() {
			b := scorer.Score(&model.TextItem{Text: "BULLISH!!!"})

			Convey("Then they should still match", func() {
				So(b.Score, ShouldEqual, 55)
			})
		})
	})
}

func TestScorer_HighConviction(t *testing.T) {
	Convey("Given a scorer with the default lexicon", t, func() {
		scorer := scoring.New()

		Convey("When a high-conviction bearish phrase is preceded by a negation", func() {
			b := scorer.Score(&model.TextItem{Text: "not capitulation"})

			Convey("Then it should not be negated", func() {
				So(b.KeywordWeight, ShouldEqual, 2)
				So(b.Score, ShouldEqual, -55)
			})
		})

		Convey("When a high-conviction phrase contains a plain keyword", func() {
			b := scorer.Score(&model.TextItem{Text: "strong buy"})

			Convey("Then only the phrase should be counted", func() {
				So(b.KeywordWeight, ShouldEqual, 2)
				So(b.KeywordScore, ShouldEqual, 100)
				So(b.Score, ShouldEqual, 55)
				So(b.Confidence, ShouldEqual, 22)
			})
		})

		Convey("When a high-conviction phrase follows a negation", func() {
			b := scorer.Score(&model.TextItem{Text: "not a strong buy"})

			Convey("Then its plain keyword should not be inverted separately", func() {
				So(b.KeywordWeight, ShouldEqual, 2)
				So(b.KeywordScore, ShouldEqual, 100)
			})
		})

		Convey("When a plain keyword repeats outside the phrase", func() {
			b := scorer.Score(&model.TextItem{Text: "massive dump then another dump"})

			Convey("Then the repeat should still be counted", func() {
				So(b.KeywordWeight, ShouldEqual, 3)
				So(b.KeywordScore, ShouldEqual, -100)
			})
		})

		Convey("When everyday text contains a common two-word phrase", func() {
			b := scorer.Score(&model.TextItem{Text: "I sold it all in the morning"})

			Convey("Then it should stay neutral", func() {
				So(b.KeywordWeight, ShouldEqual, 0)
				So(b.Score, ShouldEqual, 0)
			})
		})
	})
}

func TestScorer_EmojiAndEngagement(t *testing.T) {
	Convey("Given a scorer with the default lexicon", t, func() {
		scorer := scoring.New()

		Convey("When a popular author posts a bullish item", func() {
			b := scorer.Score(&model.TextItem{
				Text:      "$SOL is bullish 🚀🚀 to the moon",
				Likes:     1000,
				Reshares:  200,
				Replies:   100,
				Followers: 50000,
			})

			Convey("Then every signal should contribute", func() {
				So(b.KeywordWeight, ShouldEqual, 4)
				So(b.KeywordScore, ShouldEqual, 100)
				So(b.EmojiScore, ShouldEqual, 20)
				So(b.EngagementMultiplier, ShouldAlmostEqual, 2.9, 1e-9)
				So(b.FollowerWeight, ShouldAlmostEqual, 1.5, 1e-9)
				So(b.ViralityBonus, ShouldEqual, 0)
				So(b.Score, ShouldEqual, 58)
				So(b.Confidence, ShouldEqual, 100)
			})
		})

		Convey("When the item is full of rockets", func() {
			b := scorer.Score(&model.TextItem{Text: "🚀🚀🚀🚀🚀🚀"})

			Convey("Then the emoji score should be capped", func() {
				So(b.EmojiScore, ShouldEqual, 50)
				So(b.Score, ShouldEqual, 63)
			})
		})

		Convey("When the emoji are bearish", func() {
			b := scorer.Score(&model.TextItem{Text: "📉📉📉"})

			Convey("Then the emoji score should be negative", func() {
				So(b.EmojiScore, ShouldEqual, -30)
				So(b.Score, ShouldBeLessThan, 0)
			})
		})

		Convey("When engagement counters are negative", func() {
			b := scorer.Score(&model.TextItem{Text: "bullish", Likes: -10, Reshares: -3, Followers: -7})

			Convey("Then they should be treated as zero", func() {
				So(b.EngagementMultiplier, ShouldEqual, 0)
				So(b.FollowerWeight, ShouldEqual, 1)
				So(b.ViralityBonus, ShouldEqual, 0)
			})
		})

		Convey("When engagement is huge", func() {
			b := scorer.Score(&model.TextItem{Text: "bullish", Likes: math.MaxInt32, Followers: math.MaxInt32})

			Convey("Then the multipliers should be capped", func() {
				So(b.EngagementMultiplier, ShouldEqual, scoring.DefaultEngagementCap)
				So(b.FollowerWeight, ShouldEqual, scoring.DefaultFollowerCap)
			})
		})
	})
}

func TestScorer_Virality(t *testing.T) {
	Convey("Given a scorer with the default lexicon", t, func() {
		scorer := scoring.New()

		Convey("When a small account goes viral with a bullish item", func() {
			b := scorer.Score(&model.TextItem{Text: "$SOL pump", Likes: 100, Followers: 1000})

			Convey("Then the virality bonus should push the score up", func() {
				So(b.ViralityBonus, ShouldAlmostEqual, 10, 1e-9)
				So(b.Score, ShouldEqual, 56)
				So(b.Confidence, ShouldEqual, 12)
			})
		})

		Convey("When a small account goes viral with a bearish item", func() {
			b := scorer.Score(&model.TextItem{Text: "$SOL dump", Likes: 100, Followers: 1000})

			Convey("Then the virality bonus should follow the keyword sign", func() {
				So(b.Score, ShouldEqual, -56)
			})
		})

		Convey("When a viral item has no keyword hits", func() {
			b := scorer.Score(&model.TextItem{Text: "$SOL", Likes: 100, Followers: 1000})

			Convey("Then a neutral keyword score should count as positive", func() {
				So(b.Score, ShouldEqual, 1)
				So(b.Confidence, ShouldEqual, 0)
			})
		})

		Convey("When the ratio is far above the threshold", func() {
			b := scorer.Score(&model.TextItem{Text: "bullish", Likes: 5000, Followers: 10})

			Convey("Then the bonus should be capped", func() {
				So(b.ViralityBonus, ShouldEqual, scoring.DefaultViralityCap)
			})
		})
	})
}

func TestScorer_Options(t *testing.T) {
	Convey("Given custom scorer options", t, func() {
		Convey("When keyword weight is raised", func() {
			w := scoring.DefaultWeights()
			w.KeywordWeight = 1
			scorer := scoring.New(scoring.WithWeights(w))

			Convey("Then a single keyword should reach the maximum score", func() {
				So(scorer.Score(&model.TextItem{Text: "bullish"}).Score, ShouldEqual, 100)
			})
		})

		Convey("When weights carry invalid values", func() {
			w := scoring.DefaultWeights()
			w.EngagementDivisor = 0
			w.FollowerDivisor = math.NaN()
			w.NegationWindow = -1
			scorer := scoring.New(scoring.WithWeights(w))

			Convey("Then the defaults should be used for those fields", func() {
				So(scorer.Weights().EngagementDivisor, ShouldEqual, scoring.DefaultEngagementDivisor)
				So(scorer.Weights().FollowerDivisor, ShouldEqual, scoring.DefaultFollowerDivisor)
				So(scorer.Weights().NegationWindow, ShouldEqual, scoring.DefaultNegationWindow)
			})
		})

		Convey("When a custom lexicon is supplied", func() {
			scorer := scoring.New(scoring.WithLexicon(&lexicon.Lexicon{Bullish: []string{"wagmi"}}))

			Convey("Then only its words should match", func() {
				So(scorer.Score(&model.TextItem{Text: "wagmi"}).Score, ShouldEqual, 55)
				So(scorer.Score(&model.TextItem{Text: "bullish"}).Score, ShouldEqual, 0)
			})
		})
	})
}

func TestWeights_Validate(t *testing.T) {
	Convey("Given scoring weights", t, func() {
		Convey("When they are the defaults", func() {
			Convey("Then they should be valid", func() {
				So(scoring.DefaultWeights().Validate(), ShouldBeNil)
			})
		})

		Convey("When a divisor is zero", func() {
			w := scoring.DefaultWeights()
			w.FollowerDivisor = 0

			Convey("Then validation should fail", func() {
				So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			})
		})

		Convey("When a weight is NaN", func() {
			w := scoring.DefaultWeights()
			w.EmojiWeight = math.NaN()

			Convey("Then validation should fail", func() {
				So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			})
		})

		Convey("When the negation window is negative", func() {
			w := scoring.DefaultWeights()
			w.NegationWindow = -2

			Convey("Then validation should fail", func() {
				So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
			})
		})
	})
}

func TestScorer_BoundsAndDeterminism(t *testing.T) {
	Convey("Given a scorer and a mix of items", t, func() {
		scorer := scoring.New()
		items := []model.TextItem{
			{Text: ""},
			{Text: "   "},
			{Text: "bullish bearish moon dump 🚀📉"},
			{Text: "capitulation massive dump going to zero 💀💀💀💀💀💀💀", Likes: 1 << 40, Reshares: 1 << 40, Replies: 1 << 40},
			{Text: "strong buy loading up all in 🚀🚀🚀🚀🚀🚀🚀🚀", Likes: 900000, Followers: 1},
			{Text: "no no no not never sell", Followers: 1 << 50},
			{Text: "$BTC $ETH $SOL to the moon!!! lfg", Likes: 3, Replies: 1},
		}

		Convey("When scoring each item twice", func() {
			Convey("Then outputs should be bounded, finite and identical", func() {
				for i := range items {
					a := scorer.Score(&items[i])
					b := scorer.Score(&items[i])
					So(a, ShouldResemble, b)
					So(a.Score, ShouldBeBetweenOrEqual, -100, 100)
					So(a.Confidence, ShouldBeBetweenOrEqual, 0, 100)
					for _, v := range []float64{a.KeywordScore, a.EmojiScore, a.EngagementMultiplier, a.FollowerWeight, a.ViralityBonus} {
						So(math.IsNaN(v) || math.IsInf(v, 0), ShouldBeFalse)
					}
				}
			})
		})

		Convey("When scoring concurrently", func() {
			item := items[6]
			want := scorer.Score(&item)
			results := make([]model.ItemBreakdown, 16)
			var wg sync.WaitGroup
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					it := item
					results[i] = scorer.Score(&it)
				}(i)
			}
			wg.Wait()

			Convey("Then every goroutine should see the same breakdown", func() {
				for _, got := range results {
					So(got, ShouldResemble, want)
				}
			})
		})
	})
}
