package engine_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/sentinel/internal/adapters/repository"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/engine"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine(opts ...engine.Option) (*engine.Engine, func()) {
	store := repository.NewHistoryStore(context.Background())
	opts = append([]engine.Option{engine.WithClock(func() time.Time { return fixedNow })}, opts...)
	return engine.New(store, opts...), func() { _ = store.Close() }
}

func solBatch() []model.TextItem {
	return []model.TextItem{
		{ID: "1", Text: "Super bullish on $SOL 🚀 moon", Likes: 1000, Reshares: 200, Followers: 50000, CreatedAt: fixedNow.Add(-3 * time.Minute)},
		{ID: "2", Text: "Super bullish on $SOL 🚀 moon", Likes: 1000, Reshares: 200, Followers: 50000, CreatedAt: fixedNow.Add(-2 * time.Minute)},
		{ID: "3", Text: "not bullish on $SOL", Likes: 1, Followers: 100, CreatedAt: fixedNow.Add(-1 * time.Minute)},
	}
}

func TestEngine_EndToEnd(t *testing.T) {
	Convey("Given an engine", t, func() {
		e, closeFn := newEngine(engine.WithTrackedSymbols([]string{"SOL", "ETH"}))
		defer closeFn()
		ctx := context.Background()

		Convey("When two bullish items and one negated item mention SOL", func() {
			items := solBatch()
			bullish := e.ScoreItem(&items[0])
			negated := e.ScoreItem(&items[2])
			out := e.ProcessBatch(ctx, items)

			Convey("Then the item scores should be as expected", func() {
				So(bullish.Score, ShouldEqual, 57)
				So(bullish.Confidence, ShouldEqual, 89)
				So(negated.Score, ShouldEqual, -55)
				So(negated.KeywordScore, ShouldBeLessThanOrEqualTo, 0)
			})

			Convey("Then SOL should aggregate between the item scores", func() {
				sol, ok := out["SOL"]
				So(ok, ShouldBeTrue)
				So(sol.Score, ShouldBeLessThan, bullish.Score)
				So(sol.Score, ShouldBeGreaterThan, negated.Score)
				So(sol.Score, ShouldEqual, 54)
				So(sol.Confidence, ShouldEqual, 61)
				So(sol.Volume, ShouldEqual, 3)
				So(sol.Sources, ShouldResemble, []string{"1", "2", "3"})
				So(sol.CreatedAt, ShouldEqual, fixedNow)
				So(sol.Momentum(), ShouldEqual, 0)
				So(sol.Validate(), ShouldBeNil)
			})

			Convey("And the items should carry their extracted tokens", func() {
				So(items[0].Tokens, ShouldResemble, []string{"SOL"})
			})

			Convey("And tokens the batch did not touch should read as the zero signal", func() {
				eth := out["ETH"]
				So(eth.Score, ShouldEqual, 0)
				So(eth.Confidence, ShouldEqual, 0)
				So(eth.Volume, ShouldEqual, 0)
			})

			Convey("And the signal should be the current one", func() {
				cur, ok := e.CurrentSignal(ctx, "sol")
				So(ok, ShouldBeTrue)
				So(cur.Score, ShouldEqual, 54)
				So(len(e.History(ctx, "$SOL")), ShouldEqual, 1)
			})
		})

		Convey("When a token is mentioned only by items without lexicon hits", func() {
			out := e.ProcessBatch(ctx, []model.TextItem{{ID: "n1", Text: "watching $ETH"}})

			Convey("Then it should get a zero score with its volume", func() {
				So(out["ETH"].Score, ShouldEqual, 0)
				So(out["ETH"].Confidence, ShouldEqual, 0)
				So(out["ETH"].Volume, ShouldEqual, 1)
			})
		})

		Convey("When the batch is empty or mentions nothing", func() {
			empty := e.ProcessBatch(ctx, nil)
			nothing := e.ProcessBatch(ctx, []model.TextItem{{ID: "x", Text: "hello world"}})

			Convey("Then no signal should be produced", func() {
				So(empty, ShouldBeEmpty)
				So(nothing, ShouldBeEmpty)
				So(e.Stats(ctx).Tokens, ShouldEqual, 0)
			})
		})
	})
}

func TestEngine_Momentum(t *testing.T) {
	Convey("Given an engine with one SOL signal", t, func() {
		e, closeFn := newEngine()
		defer closeFn()
		ctx := context.Background()

		first := e.ProcessBatch(ctx, []model.TextItem{{ID: "a", Text: "$SOL bullish"}})["SOL"]

		Convey("When a bearish batch follows", func() {
			second := e.ProcessBatch(ctx, []model.TextItem{{ID: "b", Text: "$SOL dump"}})["SOL"]

			Convey("Then momentum should be the score delta", func() {
				So(first.Score, ShouldEqual, 55)
				So(first.Momentum(), ShouldEqual, 0)
				So(second.Score, ShouldEqual, -55)
				So(second.Momentum(), ShouldEqual, -110)
				So(len(e.History(ctx, "SOL")), ShouldEqual, 2)
			})
		})
	})
}

func TestEngine_Tokens(t *testing.T) {
	Convey("Given an engine tracking SOL", t, func() {
		ctx := context.Background()

		Convey("When items already carry tokens", func() {
			e, closeFn := newEngine()
			defer closeFn()
			items := []model.TextItem{{ID: "p", Text: "bullish", Tokens: []string{"$sol", "sol", "not valid!"}}}
			out := e.ProcessBatch(ctx, items)

			Convey("Then they should be normalized and trusted", func() {
				So(items[0].Tokens, ShouldResemble, []string{"SOL"})
				So(out["SOL"].Volume, ShouldEqual, 1)
			})
		})

		Convey("When only tracked tokens are kept", func() {
			e, closeFn := newEngine(engine.WithTrackedSymbols([]string{"SOL"}), engine.WithTrackedOnly(true))
			defer closeFn()
			out := e.ProcessBatch(ctx, []model.TextItem{{ID: "q", Text: "$PEPE and sol both bullish"}})

			Convey("Then discovered cashtags should be dropped", func() {
				_, hasPepe := out["PEPE"]
				So(hasPepe, ShouldBeFalse)
				So(out["SOL"].Volume, ShouldEqual, 1)
			})
		})

		Convey("When discovery is allowed", func() {
			e, closeFn := newEngine(engine.WithTrackedSymbols([]string{"SOL"}))
			defer closeFn()
			out := e.ProcessBatch(ctx, []model.TextItem{{ID: "r", Text: "$PEPE and sol both bullish"}})

			Convey("Then untracked cashtags should produce signals too", func() {
				So(out["PEPE"].Volume, ShouldEqual, 1)
				So(out["SOL"].Volume, ShouldEqual, 1)
				So(e.ExtractTokens("GOLDMAN says go"), ShouldBeEmpty)
			})
		})
	})
}

func TestEngine_ParallelScoring(t *testing.T) {
	Convey("Given a large batch", t, func() {
		ctx := context.Background()
		var items []model.TextItem
		texts := []string{"$SOL bullish 🚀", "$ETH dump 📉", "not bullish $SOL", "$BTC strong buy", "$ETH to the moon", "$BTC capitulation"}
		for i := 0; i < 300; i++ {
			items = append(items, model.TextItem{
				ID:        fmt.Sprintf("i%d", i),
				Text:      texts[i%len(texts)],
				Likes:     int64(i * 7),
				Followers: int64(i * 131),
				CreatedAt: fixedNow.Add(time.Duration(i) * time.Second),
			})
		}

		Convey("When scoring sequentially and in parallel", func() {
			seq, closeSeq := newEngine(engine.WithScoringParallelism(1))
			defer closeSeq()
			par, closePar := newEngine(engine.WithScoringParallelism(8))
			defer closePar()

			a := seq.ProcessBatch(ctx, append([]model.TextItem(nil), items...))
			b := par.ProcessBatch(ctx, append([]model.TextItem(nil), items...))

			Convey("Then the results should be identical and bounded", func() {
				So(b, ShouldResemble, a)
				for _, sig := range b {
					So(sig.Validate(), ShouldBeNil)
					So(math.IsNaN(sig.Breakdown.KeywordScore), ShouldBeFalse)
				}
				So(b["SOL"].Volume, ShouldEqual, 100)
			})
		})
	})
}

func TestEngine_TrendingAndReset(t *testing.T) {
	Convey("Given an engine with two batches of history", t, func() {
		e, closeFn := newEngine()
		defer closeFn()
		ctx := context.Background()

		e.ProcessBatch(ctx, []model.TextItem{
			{ID: "1", Text: "$SOL bullish"},
			{ID: "2", Text: "$ETH bullish"},
		})
		e.ProcessBatch(ctx, []model.TextItem{
			{ID: "3", Text: "$SOL dump"},
			{ID: "4", Text: "$ETH bullish"},
		})

		Convey("When asking for trending tokens", func() {
			got := e.Trending(ctx, 10)

			Convey("Then the biggest mover should rank first", func() {
				So(len(got), ShouldEqual, 2)
				So(got[0].Symbol, ShouldEqual, "SOL")
				So(got[0].PercentChange, ShouldEqual, -200)
				So(got[0].RecentSources, ShouldResemble, []string{"3"})
				So(got[1].Symbol, ShouldEqual, "ETH")
				So(got[1].PercentChange, ShouldEqual, 0)
			})

			Convey("And the limit should be honored", func() {
				So(len(e.Trending(ctx, 1)), ShouldEqual, 1)
				So(e.Trending(ctx, 0), ShouldBeEmpty)
			})
		})

		Convey("When the engine is reset", func() {
			e.Reset(ctx)

			Convey("Then every query should come back empty", func() {
				_, ok := e.CurrentSignal(ctx, "SOL")
				So(ok, ShouldBeFalse)
				So(e.History(ctx, "SOL"), ShouldBeEmpty)
				So(e.Trending(ctx, 10), ShouldBeEmpty)
				So(e.Stats(ctx), ShouldResemble, engine.Stats{})
			})
		})

		Convey("When querying an unknown or malformed symbol", func() {
			_, ok := e.CurrentSignal(ctx, "DOGE")
			_, bad := e.CurrentSignal(ctx, "not a symbol")

			Convey("Then it should be reported absent", func() {
				So(ok, ShouldBeFalse)
				So(bad, ShouldBeFalse)
				So(e.History(ctx, "DOGE"), ShouldBeEmpty)
			})
		})
	})
}
