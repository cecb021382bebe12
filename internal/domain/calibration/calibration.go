// Package calibration derives per-athlete model parameters from static traits.
package calibration

import "github.com/okian/twin/internal/domain/model"

// Trait thresholds.
const (
	beginnerTrainingAge = 1.0
	advancedTrainingAge = 5.0
	masterAge           = 40.0
)

// Calibrate returns the model parameters for a profile. Rules are cumulative
// and applied in order: training age, chronological age, responder cluster.
func Calibrate(profile model.AthleteProfile) model.Parameters {
	p := model.DefaultParameters()

	if profile.BaselinePerformance > 0 {
		p.P0 = profile.BaselinePerformance
	}

	switch {
	case profile.TrainingAge < beginnerTrainingAge:
		// beginners adapt and fatigue faster
		p.TauFit = 35
		p.TauFat = 10
		p.KFit = 0.15
	case profile.TrainingAge > advancedTrainingAge:
		p.TauFit = 50
		p.KFit = 0.07
	}

	if profile.Age > masterAge {
		p.TauFat *= 1.2
		p.KFat *= 1.1
	}

	switch profile.Cluster {
	case model.ClusterRecoveryDependent:
		p.TauFat *= 1.3
		p.SleepModifier = 0.25
	case model.ClusterHighResponder:
		p.KFit *= 1.2
		p.TauFit *= 0.9
	case model.ClusterUnclassified:
	}

	return p
}
