package taper_test

import (
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/simulation"
	"github.com/okian/twin/internal/domain/taper"
	"github.com/okian/twin/internal/domain/twin"
	"github.com/smartystreets/goconvey/convey"
)

var reference = time.Date(2026, 5, 4, 7, 0, 0, 0, time.UTC)

func fixture() *twin.Twin {
	tw := twin.New(model.NewProfile(model.ProfileInput{ID: "taper"}), reference.AddDate(0, 0, -14))
	for i := 0; i < 14; i += 2 {
		if _, err := tw.Record(model.Workout{Date: reference.AddDate(0, 0, -14+i), TSS: model.Float(90)}); err != nil {
			panic(err)
		}
	}
	return tw
}

func TestReductionShape(t *testing.T) {
	convey.Convey("Given the reduction shapes", t, func() {
		convey.So(taper.Linear.Shape(50, 0.5), convey.ShouldAlmostEqual, 35, 1e-9)
		convey.So(taper.Linear.Shape(50, 1), convey.ShouldAlmostEqual, 20, 1e-9)
		convey.So(taper.Step.Shape(50, 0.49), convey.ShouldAlmostEqual, 30, 1e-9)
		convey.So(taper.Step.Shape(50, 0.5), convey.ShouldAlmostEqual, 15, 1e-9)
		convey.So(taper.Exponential.Shape(50, 1), convey.ShouldAlmostEqual, 50*math.Exp(-2), 1e-9)

		convey.Convey("When parsing names", func() {
			r, err := taper.ParseReduction(" Exponential ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(r, convey.ShouldEqual, taper.Exponential)
			convey.So(r.String(), convey.ShouldEqual, "exponential")

			_, err = taper.ParseReduction("cliff")
			convey.So(errors.Is(err, taper.ErrUnknownReduction), convey.ShouldBeTrue)
		})
	})
}

func TestGeneratePlan(t *testing.T) {
	convey.Convey("Given a 14 day linear taper over 14 days", t, func() {
		s := taper.Strategy{Name: "Linear Taper", Reduction: taper.Linear, Duration: 14}
		plan, err := taper.GeneratePlan(s, 14, reference)
		convey.So(err, convey.ShouldBeNil)

		byDay := map[int]model.Workout{}
		for _, w := range plan {
			byDay[taper.DaysToTarget(reference, w.Date)] = w
		}

		convey.Convey("Then day 7 sits at seventy percent of the baseline", func() {
			w, ok := byDay[7]
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(*w.TSS, convey.ShouldEqual, 35)
			convey.So(w.Type, convey.ShouldEqual, taper.TypeLight)
		})

		convey.Convey("And every third day is omitted as rest", func() {
			for _, d := range []int{3, 6, 9, 12} {
				_, ok := byDay[d]
				convey.So(ok, convey.ShouldBeFalse)
			}
		})

		convey.Convey("And the first day is a normal day", func() {
			convey.So(*byDay[1].TSS, convey.ShouldEqual, 48)
			convey.So(byDay[1].Type, convey.ShouldEqual, taper.TypeNormal)
		})

		convey.Convey("And no retained day is at or below 5", func() {
			for _, w := range plan {
				convey.So(*w.TSS, convey.ShouldBeGreaterThan, 5)
			}
		})
	})

	convey.Convey("Given a baseline block before the taper", t, func() {
		s := taper.Strategy{Name: "Step Taper", Reduction: taper.Step, Duration: 10}
		plan, err := taper.GeneratePlan(s, 21, reference)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the first 11 days hold the baseline", func() {
			for _, w := range plan[:11] {
				convey.So(*w.TSS, convey.ShouldEqual, taper.BaselineTSS)
			}
		})

		convey.Convey("And step days tag as light then recovery", func() {
			convey.So(plan[11].Type, convey.ShouldEqual, taper.TypeLight)
			convey.So(*plan[11].TSS, convey.ShouldEqual, 30)
			last := plan[len(plan)-1]
			convey.So(*last.TSS, convey.ShouldEqual, 15)
			convey.So(last.Type, convey.ShouldEqual, taper.TypeRecovery)
		})
	})

	convey.Convey("Given a strategy with no duration", t, func() {
		_, err := taper.GeneratePlan(taper.Strategy{Name: "bad"}, 10, reference)
		convey.So(errors.Is(err, taper.ErrInvalidStrategy), convey.ShouldBeTrue)
	})
}

func TestOptimize(t *testing.T) {
	convey.Convey("Given a planner and a trained twin", t, func() {
		planner := taper.NewPlanner(simulation.New())
		tw := fixture()

		convey.Convey("When the target is three days out", func() {
			res, err := planner.Optimize(tw, reference.AddDate(0, 0, 3), reference, nil)

			convey.Convey("Then it is too late and nothing is simulated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Status, convey.ShouldEqual, taper.StatusTooLate)
				convey.So(res.Message, convey.ShouldEqual, "Not enough time for effective peaking")
				convey.So(res.Recommendations, convey.ShouldResemble, []string{"Focus on recovery and rest", "Reduce volume 50%"})
				convey.So(res.Alternatives, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the target is 21 days out", func() {
			target := reference.AddDate(0, 0, 21)
			first, err := planner.Optimize(tw, target, reference, nil)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then three strategies are evaluated in order", func() {
				convey.So(first.Status, convey.ShouldEqual, taper.StatusSuccess)
				convey.So(first.DaysToTarget, convey.ShouldEqual, 21)
				convey.So(first.Alternatives, convey.ShouldHaveLength, 3)
				convey.So(first.Alternatives[0].Strategy, convey.ShouldEqual, "Linear Taper")
				convey.So(first.Alternatives[1].Strategy, convey.ShouldEqual, "Step Taper")
				convey.So(first.Alternatives[2].Strategy, convey.ShouldEqual, "Exponential Taper")
			})

			convey.Convey("And the winner has the highest final performance", func() {
				for _, alt := range first.Alternatives {
					convey.So(first.ExpectedPeakPerformance, convey.ShouldBeGreaterThanOrEqualTo, alt.PeakPerformance)
				}
				for _, alt := range first.Alternatives {
					if alt.Strategy == first.Recommended {
						convey.So(first.TaperPlan, convey.ShouldResemble, alt.Plan)
						convey.So(first.ExpectedForm, convey.ShouldEqual, alt.Form)
					}
				}
			})

			convey.Convey("And repeated runs agree", func() {
				for i := 0; i < 5; i++ {
					again, err := planner.Optimize(tw, target, reference, nil)
					convey.So(err, convey.ShouldBeNil)
					convey.So(again.Recommended, convey.ShouldEqual, first.Recommended)
					convey.So(again, convey.ShouldResemble, first)
				}
			})
		})

		convey.Convey("When the target is a partial day beyond a week", func() {
			res, err := planner.Optimize(tw, reference.AddDate(0, 0, 6).Add(time.Hour), reference, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.DaysToTarget, convey.ShouldEqual, 7)
			convey.So(res.Status, convey.ShouldEqual, taper.StatusSuccess)
		})

		convey.Convey("When the target exceeds the simulator cap", func() {
			short := taper.NewPlanner(simulation.New(simulation.WithMaxDays(30)))
			_, err := short.Optimize(tw, reference.AddDate(0, 0, 60), reference, nil)
			convey.So(errors.Is(err, simulation.ErrHorizonTooLong), convey.ShouldBeTrue)
		})

		convey.Convey("When the twin is nil", func() {
			_, err := planner.Optimize(nil, reference.AddDate(0, 0, 20), reference, nil)
			convey.So(errors.Is(err, twin.ErrNilTwin), convey.ShouldBeTrue)
		})
	})
}

func TestOptimizeTie(t *testing.T) {
	convey.Convey("Given a twin whose fitness and fatigue respond identically", t, func() {
		p := model.DefaultParameters()
		p.KFat, p.TauFat = p.KFit, p.TauFit
		tw := twin.New(model.NewProfile(model.ProfileInput{ID: "flat"}), reference, twin.WithParameters(p))

		res, err := taper.NewPlanner(simulation.New()).Optimize(tw, reference.AddDate(0, 0, 21), reference, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res.Status, convey.ShouldEqual, taper.StatusSuccess)

		convey.Convey("Then every strategy finishes at baseline", func() {
			for _, alt := range res.Alternatives {
				convey.So(alt.PeakPerformance, convey.ShouldEqual, 100)
			}
		})

		convey.Convey("And the first strategy evaluated wins the tie", func() {
			convey.So(res.Recommended, convey.ShouldEqual, "Linear Taper")
			convey.So(res.TaperPlan, convey.ShouldResemble, res.Alternatives[0].Plan)
		})
	})
}

func TestGeneratePlanAcrossDaylightSaving(t *testing.T) {
	convey.Convey("Given a reference just before New York leaves daylight saving", t, func() {
		ny, err := time.LoadLocation("America/New_York")
		convey.So(err, convey.ShouldBeNil)
		ref := time.Date(2026, 10, 31, 0, 30, 0, 0, ny)

		plan, err := taper.GeneratePlan(taper.Strategy{Name: "Linear Taper", Reduction: taper.Linear, Duration: 14}, 21, ref)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then planned workouts fall on distinct calendar days at the reference time", func() {
			seen := map[string]bool{}
			for _, w := range plan {
				local := w.Date.In(ny)
				key := local.Format("2006-01-02")
				convey.So(seen[key], convey.ShouldBeFalse)
				seen[key] = true
				convey.So(local.Hour(), convey.ShouldEqual, 0)
				convey.So(local.Minute(), convey.ShouldEqual, 30)
			}
			convey.So(plan[0].Date.In(ny).Format("2006-01-02"), convey.ShouldEqual, "2026-11-01")
		})
	})
}
