// Package twinctl runs the twin engines in-process from a YAML scenario file.
package twinctl

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
)

// ErrInvalidFile reports a scenario file that cannot be run.
var ErrInvalidFile = errors.New("invalid scenario file")

// Athlete holds the profile traits of the file's athlete.
type Athlete struct {
	ID                  string   `yaml:"id"`
	TrainingAge         *float64 `yaml:"training_age"`
	Age                 *float64 `yaml:"age"`
	Cluster             string   `yaml:"cluster"`
	BaselinePerformance *float64 `yaml:"baseline_performance"`
}

// SimulateBlock asks for a forward projection.
type SimulateBlock struct {
	Days int        `yaml:"days"`
	Plan model.Plan `yaml:"plan"`
}

// OptimizeBlock asks for a taper toward TargetDate.
type OptimizeBlock struct {
	TargetDate  time.Time  `yaml:"target_date"`
	CurrentPlan model.Plan `yaml:"current_plan"`
}

// CompareBlock asks for a scenario ranking.
type CompareBlock struct {
	Scenarios []scenario.Scenario `yaml:"scenarios"`
}

// File is a scenario file. Reference anchors every projection so runs are
// reproducible; CreatedAt defaults to it.
type File struct {
	Athlete   Athlete        `yaml:"athlete"`
	CreatedAt time.Time      `yaml:"created_at"`
	Reference time.Time      `yaml:"reference"`
	MaxDays   int            `yaml:"max_days"`
	History   model.Plan     `yaml:"history"`
	Simulate  *SimulateBlock `yaml:"simulate"`
	Optimize  *OptimizeBlock `yaml:"optimize"`
	Compare   *CompareBlock  `yaml:"compare"`
	Advise    bool           `yaml:"advise"`
}

// Load reads and parses the scenario file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a scenario file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if f.Reference.IsZero() {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidFile)
	}
	if f.Athlete.ID == "" {
		f.Athlete.ID = "athlete"
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = f.Reference
	}
	if f.Optimize != nil && f.Optimize.TargetDate.IsZero() {
		return nil, fmt.Errorf("%w: optimize.target_date is required", ErrInvalidFile)
	}
	return &f, nil
}

func (a Athlete) input() model.ProfileInput {
	return model.ProfileInput{
		ID:                  a.ID,
		TrainingAge:         a.TrainingAge,
		Age:                 a.Age,
		Cluster:             a.Cluster,
		BaselinePerformance: a.BaselinePerformance,
	}
}
