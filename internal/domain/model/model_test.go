package model_test

import (
	"testing"
	"time"

	model "github.com/okian/twin/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewProfile(t *testing.T) {
	convey.Convey("Given a profile input", t, func() {
		convey.Convey("When every trait is missing", func() {
			p := model.NewProfile(model.ProfileInput{ID: "athlete-1"})

			convey.Convey("Then the named defaults are substituted", func() {
				convey.So(p.ID, convey.ShouldEqual, "athlete-1")
				convey.So(p.TrainingAge, convey.ShouldEqual, model.DefaultTrainingAge)
				convey.So(p.Age, convey.ShouldEqual, model.DefaultAge)
				convey.So(p.Cluster, convey.ShouldEqual, model.ClusterUnclassified)
				convey.So(p.BaselinePerformance, convey.ShouldEqual, 100.0)
			})
		})

		convey.Convey("When a zero training age is supplied", func() {
			p := model.NewProfile(model.ProfileInput{TrainingAge: model.Float(0)})

			convey.Convey("Then it is kept as a real beginner value", func() {
				convey.So(p.TrainingAge, convey.ShouldEqual, 0.0)
			})
		})

		convey.Convey("When invalid values are supplied", func() {
			p := model.NewProfile(model.ProfileInput{
				TrainingAge:         model.Float(-3),
				Age:                 model.Float(0),
				BaselinePerformance: model.Float(-50),
			})

			convey.Convey("Then they degrade to defaults", func() {
				convey.So(p.TrainingAge, convey.ShouldEqual, model.DefaultTrainingAge)
				convey.So(p.Age, convey.ShouldEqual, model.DefaultAge)
				convey.So(p.BaselinePerformance, convey.ShouldEqual, model.DefaultBaselinePerformance)
			})
		})
	})
}

func TestParseCluster(t *testing.T) {
	convey.Convey("Given cluster labels", t, func() {
		convey.So(model.ParseCluster("recovery_dependent"), convey.ShouldEqual, model.ClusterRecoveryDependent)
		convey.So(model.ParseCluster(" HIGH_RESPONDER "), convey.ShouldEqual, model.ClusterHighResponder)
		convey.So(model.ParseCluster("something-else"), convey.ShouldEqual, model.ClusterUnclassified)
		convey.So(model.ClusterUnclassified.String(), convey.ShouldEqual, "unclassified")
	})
}

func TestStateAndHelpers(t *testing.T) {
	convey.Convey("Given a state built from accumulators", t, func() {
		at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		s := model.NewState(100, 12.5, 20, at)

		convey.Convey("Then performance and form are derived", func() {
			convey.So(s.Performance, convey.ShouldEqual, 92.5)
			convey.So(s.Form(), convey.ShouldEqual, -7.5)
			convey.So(s.Timestamp, convey.ShouldEqual, at)
		})
	})

	convey.Convey("Given values to round", t, func() {
		convey.So(model.Round(37.5, 0), convey.ShouldEqual, 38.0)
		convey.So(model.Round(4.26, 1), convey.ShouldEqual, 4.3)
		convey.So(model.Round(1.005, 2), convey.ShouldAlmostEqual, 1.0, 0.011)
	})

	convey.Convey("Given a workout with exercises", t, func() {
		w := model.Workout{Exercises: []model.Exercise{{Name: "squat", Sets: 5}, {Name: "row", Sets: 4}, {Name: "plank"}}}

		convey.So(w.TotalSets(), convey.ShouldEqual, 9)
	})
}
