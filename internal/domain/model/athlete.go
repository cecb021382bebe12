package model

import "strings"

// Defaults substituted for missing profile traits.
const (
	DefaultTrainingAge         = 2.0
	DefaultAge                 = 30.0
	DefaultBaselinePerformance = 100.0
)

// Cluster classifies how an athlete responds to training.
type Cluster string

// Known responder clusters. The zero value is unclassified.
const (
	ClusterUnclassified      Cluster = ""
	ClusterRecoveryDependent Cluster = "recovery_dependent"
	ClusterHighResponder     Cluster = "high_responder"
)

// ParseCluster maps a free-form label to a known cluster. Unknown labels are
// unclassified.
func ParseCluster(s string) Cluster {
	switch Cluster(strings.ToLower(strings.TrimSpace(s))) {
	case ClusterRecoveryDependent:
		return ClusterRecoveryDependent
	case ClusterHighResponder:
		return ClusterHighResponder
	default:
		return ClusterUnclassified
	}
}

// String returns the wire label of the cluster.
func (c Cluster) String() string {
	if c == ClusterUnclassified {
		return "unclassified"
	}
	return string(c)
}

// AthleteProfile holds the static traits of an athlete.
type AthleteProfile struct {
	ID                  string
	TrainingAge         float64 // years
	Age                 float64 // years
	Cluster             Cluster
	BaselinePerformance float64
}

// ProfileInput carries optional traits as supplied by a profile source.
type ProfileInput struct {
	ID                  string
	TrainingAge         *float64
	Age                 *float64
	Cluster             string
	BaselinePerformance *float64
}

// NewProfile builds a profile, substituting defaults for missing or invalid traits.
func NewProfile(in ProfileInput) AthleteProfile {
	p := AthleteProfile{
		ID:                  in.ID,
		TrainingAge:         DefaultTrainingAge,
		Age:                 DefaultAge,
		Cluster:             ParseCluster(in.Cluster),
		BaselinePerformance: DefaultBaselinePerformance,
	}
	if in.TrainingAge != nil && *in.TrainingAge >= 0 {
		p.TrainingAge = *in.TrainingAge
	}
	if in.Age != nil && *in.Age > 0 {
		p.Age = *in.Age
	}
	if in.BaselinePerformance != nil && *in.BaselinePerformance > 0 {
		p.BaselinePerformance = *in.BaselinePerformance
	}
	return p
}
