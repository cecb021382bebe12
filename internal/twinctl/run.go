package twinctl

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/okian/twin/internal/domain/advice"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
	"github.com/okian/twin/internal/domain/simulation"
	"github.com/okian/twin/internal/domain/taper"
	"github.com/okian/twin/internal/domain/twin"
)

// Blocks that can be selected with Only.
const (
	BlockSimulate = "simulate"
	BlockOptimize = "optimize"
	BlockCompare  = "compare"
	BlockAdvise   = "advise"
)

// State is the twin state after history replay.
type State struct {
	Timestamp   time.Time        `json:"timestamp"`
	Fitness     float64          `json:"fitness"`
	Fatigue     float64          `json:"fatigue"`
	Form        float64          `json:"form"`
	Performance float64          `json:"performance"`
	Params      model.Parameters `json:"params"`
	Sessions    int              `json:"sessions"`
}

// Report is the JSON document twinctl writes.
type Report struct {
	AthleteID  string                `json:"athlete_id"`
	Reference  time.Time             `json:"reference"`
	State      State                 `json:"state"`
	Simulation []model.SimulationDay `json:"simulation,omitempty"`
	Optimize   *taper.Result         `json:"optimize,omitempty"`
	Compare    *scenario.Result      `json:"compare,omitempty"`
	Advice     *advice.Report        `json:"advice,omitempty"`
}

// Run builds the twin from the file's history and runs the requested blocks.
// An empty only runs every block present in the file.
func Run(f *File, only string) (*Report, error) {
	switch only {
	case "", BlockSimulate, BlockOptimize, BlockCompare, BlockAdvise:
	default:
		return nil, fmt.Errorf("unknown block %q", only)
	}
	want := func(block string) bool { return only == "" || only == block }

	t, err := twin.FromHistory(model.NewProfile(f.Athlete.input()), f.CreatedAt, f.History)
	if err != nil {
		return nil, fmt.Errorf("replay history: %w", err)
	}

	var opts []simulation.Option
	if f.MaxDays > 0 {
		opts = append(opts, simulation.WithMaxDays(f.MaxDays))
	}
	sim := simulation.New(opts...)

	s := t.State
	r := &Report{
		AthleteID: t.ID,
		Reference: f.Reference,
		State: State{
			Timestamp:   s.Timestamp,
			Fitness:     model.Round(s.Fitness, 1),
			Fatigue:     model.Round(s.Fatigue, 1),
			Form:        model.Round(s.Form(), 1),
			Performance: model.Round(s.Performance, 1),
			Params:      t.Params,
			Sessions:    len(t.History),
		},
	}

	if f.Simulate != nil && want(BlockSimulate) {
		days := f.Simulate.Days
		if days == 0 {
			days = scenario.DefaultDays
		}
		if r.Simulation, err = sim.Simulate(t, f.Simulate.Plan, days, f.Reference); err != nil {
			return nil, fmt.Errorf("simulate: %w", err)
		}
	}
	if f.Optimize != nil && want(BlockOptimize) {
		res, err := taper.NewPlanner(sim).Optimize(t, f.Optimize.TargetDate, f.Reference, f.Optimize.CurrentPlan)
		if err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}
		r.Optimize = &res
	}
	if f.Compare != nil && want(BlockCompare) {
		res, err := scenario.NewComparator(sim).Compare(t, f.Compare.Scenarios, f.Reference)
		if err != nil {
			return nil, fmt.Errorf("compare: %w", err)
		}
		r.Compare = &res
	}
	if f.Advise && want(BlockAdvise) {
		rep, err := advice.Recommend(t)
		if err != nil {
			return nil, fmt.Errorf("advise: %w", err)
		}
		r.Advice = &rep
	}
	return r, nil
}

// Write encodes r as indented JSON.
func Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
