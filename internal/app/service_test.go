package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/sentinel/internal/app"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is not running yet", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Enqueue(context.Background(), model.Batch{}), ShouldBeFalse)
			_, ok := svc.CurrentSignal(context.Background(), "SOL")
			So(ok, ShouldBeFalse)
			So(svc.Trending(context.Background(), 5), ShouldBeEmpty)
			So(svc.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(64),
			service.WithDedupeSize(100),
			service.WithShardCount(2),
			service.WithHistoryLimit(10),
		)

		Convey("Then the options show in the stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 64)
			So(stats["dedupeSize"], ShouldEqual, 100)
			So(stats["historyLimit"], ShouldEqual, 10)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Enqueue(ctx, model.Batch{ID: "late"}), ShouldBeFalse)
			})
		})
	})

	Convey("Given a service with invalid weights", t, func() {
		w := scoring.DefaultWeights()
		w.EngagementDivisor = 0
		svc := service.New(service.WithWeights(w))

		Convey("Then Start refuses to run", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_Dedupe(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then an item id is recorded once", func() {
			So(svc.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "a"), ShouldBeTrue)
			So(svc.Size(), ShouldEqual, 1)

			svc.Unrecord(ctx, "a")
			So(svc.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		})

		Convey("Then Reset forgets ids and signals", func() {
			svc.SeenAndRecord(ctx, "a")
			svc.ProcessBatch(ctx, []model.TextItem{{ID: "a", Text: "$SOL bullish", CreatedAt: time.Now()}})
			_, ok := svc.CurrentSignal(ctx, "SOL")
			So(ok, ShouldBeTrue)

			svc.Reset(ctx)
			So(svc.Size(), ShouldEqual, 0)
			_, ok = svc.CurrentSignal(ctx, "SOL")
			So(ok, ShouldBeFalse)
			So(svc.History(ctx, "SOL"), ShouldBeEmpty)
		})
	})
}
