package calibration_test

import (
	"testing"

	"github.com/okian/twin/internal/domain/calibration"
	"github.com/okian/twin/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func profile(trainingAge, age float64, cluster model.Cluster) model.AthleteProfile {
	return model.AthleteProfile{
		ID:                  "a",
		TrainingAge:         trainingAge,
		Age:                 age,
		Cluster:             cluster,
		BaselinePerformance: 100,
	}
}

func TestCalibrate(t *testing.T) {
	Convey("Given an intermediate athlete with no special traits", t, func() {
		p := calibration.Calibrate(profile(2, 30, model.ClusterUnclassified))

		Convey("Then the defaults are returned", func() {
			So(p, ShouldResemble, model.DefaultParameters())
		})
	})

	Convey("Given a beginner", t, func() {
		p := calibration.Calibrate(profile(0.5, 25, model.ClusterUnclassified))

		Convey("Then fitness and fatigue time constants shrink and gain rises", func() {
			So(p.TauFit, ShouldEqual, 35)
			So(p.TauFat, ShouldEqual, 10)
			So(p.KFit, ShouldEqual, 0.15)
			So(p.KFat, ShouldEqual, 0.2)
		})
	})

	Convey("Given an advanced athlete", t, func() {
		p := calibration.Calibrate(profile(6, 30, model.ClusterUnclassified))

		Convey("Then adaptation slows", func() {
			So(p.TauFit, ShouldEqual, 50)
			So(p.KFit, ShouldEqual, 0.07)
			So(p.TauFat, ShouldEqual, 15)
		})
	})

	Convey("Given a master athlete who is also recovery dependent", t, func() {
		p := calibration.Calibrate(profile(3, 45, model.ClusterRecoveryDependent))

		Convey("Then both the age and the cluster rules fire", func() {
			So(p.TauFat, ShouldAlmostEqual, 15*1.2*1.3, 1e-9)
			So(p.KFat, ShouldAlmostEqual, 0.22, 1e-9)
			So(p.SleepModifier, ShouldEqual, 0.25)
		})
	})

	Convey("Given a beginner high responder", t, func() {
		p := calibration.Calibrate(profile(0, 30, model.ClusterHighResponder))

		Convey("Then the cluster scales the beginner values", func() {
			So(p.KFit, ShouldAlmostEqual, 0.18, 1e-9)
			So(p.TauFit, ShouldAlmostEqual, 31.5, 1e-9)
		})
	})

	Convey("Given a custom baseline performance", t, func() {
		pr := profile(2, 30, model.ClusterUnclassified)
		pr.BaselinePerformance = 120
		p := calibration.Calibrate(pr)

		Convey("Then p_0 follows the baseline", func() {
			So(p.P0, ShouldEqual, 120)
		})
	})

	Convey("Given the same profile twice", t, func() {
		pr := profile(7, 50, model.ClusterHighResponder)

		Convey("Then calibration is deterministic", func() {
			So(calibration.Calibrate(pr), ShouldResemble, calibration.Calibrate(pr))
		})
	})
}
