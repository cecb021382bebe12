package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/twin/internal/adapters/repository"
	service "github.com/okian/twin/internal/app"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
	"github.com/okian/twin/internal/domain/taper"
	"github.com/okian/twin/internal/domain/twin"
	"github.com/okian/twin/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return epoch }

func session(id string, day int, tss float64) model.Workout {
	return model.Workout{ID: id, Date: epoch.AddDate(0, 0, day), TSS: model.Float(tss)}
}

func newTwin(ctx context.Context, svc *service.Service, id string, history ...model.Workout) *twin.Twin {
	t, err := svc.CreateTwin(ctx, service.CreateTwinRequest{
		Profile:   model.ProfileInput{ID: id, TrainingAge: model.Float(3), Age: model.Float(28)},
		History:   history,
		CreatedAt: epoch,
	})
	So(err, ShouldBeNil)
	return t
}

func TestService_CreateTwin(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock))

		Convey("When a twin is created without history", func() {
			tw := newTwin(ctx, svc, "ath-1")

			Convey("Then it starts at its baseline with no load", func() {
				So(tw.ID, ShouldEqual, "ath-1")
				So(tw.State.Fitness, ShouldEqual, 0)
				So(tw.State.Fatigue, ShouldEqual, 0)
				So(tw.State.Performance, ShouldEqual, tw.Params.P0)
				So(tw.State.Timestamp.Equal(epoch), ShouldBeTrue)
			})

			Convey("And the same athlete cannot be created twice", func() {
				_, err := svc.CreateTwin(ctx, service.CreateTwinRequest{Profile: model.ProfileInput{ID: "ath-1"}})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
			})
		})

		Convey("When a twin is created without an ID", func() {
			tw, err := svc.CreateTwin(ctx, service.CreateTwinRequest{})

			Convey("Then one is generated and the clock anchors the state", func() {
				So(err, ShouldBeNil)
				So(tw.ID, ShouldNotBeBlank)
				So(tw.State.Timestamp.Equal(epoch), ShouldBeTrue)
			})
		})

		Convey("When a twin is created from history", func() {
			tw := newTwin(ctx, svc, "ath-2", session("h2", -2, 60), session("h1", -5, 80))

			Convey("Then the sessions are replayed in date order and decayed to creation", func() {
				So(tw.History, ShouldHaveLength, 2)
				So(tw.History[0].Date.Equal(epoch.AddDate(0, 0, -5)), ShouldBeTrue)
				So(tw.State.Fitness, ShouldBeGreaterThan, 0)
				So(tw.State.Timestamp.Equal(epoch), ShouldBeTrue)
			})

			Convey("And replayed sessions are recognised as duplicates", func() {
				_, dup, err := svc.RecordSessionSync(ctx, "ath-2", session("h1", 1, 80))
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
			})
		})
	})
}

func TestService_RecordSessionSync(t *testing.T) {
	Convey("Given a service with one twin", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock))
		newTwin(ctx, svc, "ath-1")

		Convey("When a session is recorded", func() {
			applied, dup, err := svc.RecordSessionSync(ctx, "ath-1", session("s1", 1, 100))

			Convey("Then the twin state moves forward", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(applied.Entry.TSS, ShouldEqual, 100)

				got, err := svc.GetTwin(ctx, "ath-1")
				So(err, ShouldBeNil)
				So(got.History, ShouldHaveLength, 1)
				So(got.State.Fatigue, ShouldBeGreaterThan, got.State.Fitness)
			})

			Convey("And the same session is skipped on retry", func() {
				_, dup, err := svc.RecordSessionSync(ctx, "ath-1", session("s1", 1, 100))
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)

				got, _ := svc.GetTwin(ctx, "ath-1")
				So(got.History, ShouldHaveLength, 1)
			})
		})

		Convey("When a session predates the state", func() {
			_, _, err := svc.RecordSessionSync(ctx, "ath-1", session("old", -1, 50))

			Convey("Then it is rejected as non-monotonic", func() {
				So(errors.Is(err, twin.ErrNonMonotonicTime), ShouldBeTrue)
			})

			Convey("And a corrected retry is accepted", func() {
				_, dup, err := svc.RecordSessionSync(ctx, "ath-1", session("old", 2, 50))
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
			})
		})

		Convey("When a session has no date", func() {
			_, _, err := svc.RecordSessionSync(ctx, "ath-1", model.Workout{ID: "x"})

			Convey("Then it is an invalid request", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(errors.Is(err, twin.ErrMissingDate), ShouldBeTrue)
			})
		})

		Convey("When the athlete is unknown", func() {
			_, _, err := svc.RecordSessionSync(ctx, "nobody", session("s1", 1, 10))

			Convey("Then the store reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then queued ingestion is refused", func() {
			_, err := svc.RecordSession(context.Background(), "ath-1", session("s1", 1, 10))
			So(err, ShouldEqual, service.ErrNotStarted)
		})
	})
}

func TestService_Projections(t *testing.T) {
	Convey("Given a trained twin", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithClock(fixedClock),
			service.WithDefaultScenarioDays(10),
			service.WithMaxScenarios(2),
			service.WithMaxHorizonDays(30),
		)
		history := make([]model.Workout, 0, 10)
		for d := -10; d < 0; d++ {
			history = append(history, session("", d, 70))
		}
		newTwin(ctx, svc, "ath-1", history...)

		Convey("When simulating without a horizon", func() {
			run, err := svc.Simulate(ctx, "ath-1", service.SimulateRequest{})

			Convey("Then the default horizon is used from the clock", func() {
				So(err, ShouldBeNil)
				So(run, ShouldHaveLength, 10)
				So(run[0].Date.Equal(epoch.AddDate(0, 0, 1)), ShouldBeTrue)
			})
		})

		Convey("When simulating beyond the horizon cap", func() {
			_, err := svc.Simulate(ctx, "ath-1", service.SimulateRequest{Days: 31})

			Convey("Then it is refused", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When simulating an unknown twin", func() {
			_, err := svc.Simulate(ctx, "nobody", service.SimulateRequest{Days: 5})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When optimizing toward a close target", func() {
			res, err := svc.OptimizePeaking(ctx, "ath-1", service.OptimizeRequest{Target: epoch.AddDate(0, 0, 3)})

			Convey("Then it is too late", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, taper.StatusTooLate)
				So(res.DaysToTarget, ShouldEqual, 3)
			})
		})

		Convey("When optimizing toward a reachable target", func() {
			res, err := svc.OptimizePeaking(ctx, "ath-1", service.OptimizeRequest{Target: epoch.AddDate(0, 0, 21)})

			Convey("Then every strategy is evaluated", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, taper.StatusSuccess)
				So(res.Alternatives, ShouldHaveLength, 3)
				So(res.Recommended, ShouldNotBeBlank)
			})
		})

		Convey("When optimizing without a target", func() {
			_, err := svc.OptimizePeaking(ctx, "ath-1", service.OptimizeRequest{})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When comparing two scenarios", func() {
			res, err := svc.CompareScenarios(ctx, "ath-1", service.CompareRequest{Scenarios: []scenario.Scenario{
				{Name: "rest"},
				{Name: "load", Plan: model.Plan{session("", 2, 120), session("", 4, 120)}},
			}})

			Convey("Then both are ranked over the default horizon", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, scenario.StatusRanked)
				So(res.Ranked, ShouldHaveLength, 2)
				So(res.Ranked[0].Simulation, ShouldHaveLength, 10)
			})
		})

		Convey("When comparing more scenarios than allowed", func() {
			_, err := svc.CompareScenarios(ctx, "ath-1", service.CompareRequest{Scenarios: []scenario.Scenario{
				{Name: "a"}, {Name: "b"}, {Name: "c"},
			}})
			So(errors.Is(err, service.ErrTooManyScenarios), ShouldBeTrue)
		})

		Convey("When asking for recommendations", func() {
			report, err := svc.Recommendations(ctx, "ath-1")

			Convey("Then the current state is described", func() {
				So(err, ShouldBeNil)
				So(report.CurrentState.Description, ShouldNotBeBlank)
				So(string(report.Status), ShouldNotBeBlank)
			})
		})

		Convey("When reading the trailing history", func() {
			all, err := svc.History(ctx, "ath-1", 0)
			So(err, ShouldBeNil)
			tail, err := svc.History(ctx, "ath-1", 3)
			So(err, ShouldBeNil)

			Convey("Then the limit keeps the newest entries", func() {
				So(all, ShouldHaveLength, 10)
				So(tail, ShouldHaveLength, 3)
				So(tail[2], ShouldResemble, all[9])
			})
		})
	})
}

func TestService_RecalibrateAndDelete(t *testing.T) {
	Convey("Given a twin", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithClock(fixedClock))
		before := newTwin(ctx, svc, "ath-1")

		Convey("When only the training age changes", func() {
			after, err := svc.Recalibrate(ctx, "ath-1", model.ProfileInput{TrainingAge: model.Float(12)})

			Convey("Then the other traits are kept", func() {
				So(err, ShouldBeNil)
				So(after.Profile.TrainingAge, ShouldEqual, 12)
				So(after.Profile.Age, ShouldEqual, before.Profile.Age)
				So(after.ID, ShouldEqual, "ath-1")
			})
		})

		Convey("When the twin is deleted", func() {
			So(svc.DeleteTwin(ctx, "ath-1"), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := svc.GetTwin(ctx, "ath-1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(svc.DeleteTwin(ctx, "ath-1"), repository.ErrNotFound), ShouldBeTrue)
				So(svc.GetStats(ctx).Twins, ShouldEqual, 0)
			})
		})
	})
}
