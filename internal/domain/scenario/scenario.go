// Package scenario runs competing training plans against the same twin and
// ranks them by projected end-of-horizon performance.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/simulation"
	"github.com/okian/twin/internal/domain/twin"
)

// DefaultDays is the horizon used by scenarios that do not set one.
const DefaultDays = 84

// fatigueCaveatRatio flags the winner when its average fatigue exceeds the
// loser's by this factor.
const fatigueCaveatRatio = 1.3

// Status of a comparison.
type Status string

const (
	StatusRanked       Status = "ranked"
	StatusInsufficient Status = "insufficient_scenarios"
)

const insufficientAnalysis = "Need at least 2 scenarios to compare"

// ErrUnnamedScenario is returned for scenarios without a name.
var ErrUnnamedScenario = errors.New("scenario name is required")

// Scenario is a named plan to compare.
type Scenario struct {
	Name string     `json:"name" yaml:"name"`
	Plan model.Plan `json:"plan" yaml:"plan"`
	Days int        `json:"days,omitempty" yaml:"days,omitempty"`
}

// Metrics summarize one scenario run.
type Metrics struct {
	FinalPerformance  float64 `json:"final_performance"`
	AvgPerformance    float64 `json:"avg_performance"`
	PeakPerformance   float64 `json:"peak_performance"`
	AvgFatigue        float64 `json:"avg_fatigue"`
	TotalTrainingLoad float64 `json:"total_training_load"`
	// Efficiency is nil when the scenario carries no load.
	Efficiency *float64 `json:"efficiency"`
}

// Outcome is the result of one scenario.
type Outcome struct {
	Name       string                `json:"name"`
	Metrics    Metrics               `json:"metrics"`
	Simulation []model.SimulationDay `json:"simulation"`
}

// Result is the ranked comparison.
type Result struct {
	Status         Status    `json:"status"`
	Ranked         []Outcome `json:"ranked,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Analysis       string    `json:"analysis"`
}

// Comparator simulates scenarios concurrently.
type Comparator struct {
	sim         *simulation.Simulator
	defaultDays int
	parallelism int
}

// Option applies a configuration option to the Comparator.
type Option func(*Comparator)

// WithParallelism bounds how many scenarios are simulated at once.
func WithParallelism(n int) Option {
	return func(c *Comparator) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithDefaultDays sets the horizon for scenarios that omit one.
func WithDefaultDays(n int) Option {
	return func(c *Comparator) {
		if n > 0 {
			c.defaultDays = n
		}
	}
}

// NewComparator creates a Comparator. A nil simulator gets the defaults.
func NewComparator(sim *simulation.Simulator, opts ...Option) *Comparator {
	if sim == nil {
		sim = simulation.New()
	}
	c := &Comparator{sim: sim, defaultDays: DefaultDays, parallelism: 4}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare runs every scenario from t's current state and ranks them.
func (c *Comparator) Compare(t *twin.Twin, scenarios []Scenario, reference time.Time) (Result, error) {
	if t == nil {
		return Result{}, twin.ErrNilTwin
	}
	if len(scenarios) < 2 {
		return Result{Status: StatusInsufficient, Analysis: insufficientAnalysis}, nil
	}
	for i, s := range scenarios {
		if strings.TrimSpace(s.Name) == "" {
			return Result{}, fmt.Errorf("scenario %d: %w", i, ErrUnnamedScenario)
		}
		if err := c.sim.CheckHorizon(c.days(s)); err != nil {
			return Result{}, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}

	snap := t.Snapshot()
	outcomes := make([]Outcome, len(scenarios))
	errs := make([]error, len(scenarios))
	sem := make(chan struct{}, c.parallelism)
	var wg sync.WaitGroup
	for i := range scenarios {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			s := scenarios[i]
			run, err := c.sim.Simulate(snap, s.Plan, c.days(s), reference)
			if err != nil {
				errs[i] = fmt.Errorf("scenario %q: %w", s.Name, err)
				return
			}
			outcomes[i] = Outcome{Name: s.Name, Metrics: Summarize(run), Simulation: run}
		}(i)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return Result{}, err
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Metrics.FinalPerformance > outcomes[j].Metrics.FinalPerformance
	})
	return Result{
		Status:         StatusRanked,
		Ranked:         outcomes,
		Recommendation: outcomes[0].Name,
		Analysis:       Analyze(outcomes),
	}, nil
}

func (c *Comparator) days(s Scenario) int {
	if s.Days == 0 {
		return c.defaultDays
	}
	return s.Days
}

// Summarize derives the comparison metrics of one simulated run.
func Summarize(run []model.SimulationDay) Metrics {
	if len(run) == 0 {
		return Metrics{}
	}
	var sumPerf, sumFat, load float64
	peak := math.Inf(-1)
	for _, d := range run {
		sumPerf += d.Performance
		sumFat += d.Fatigue
		load += d.TSS
		peak = math.Max(peak, d.Performance)
	}
	n := float64(len(run))
	m := Metrics{
		FinalPerformance:  model.Round(run[len(run)-1].Performance, 1),
		AvgPerformance:    model.Round(sumPerf/n, 1),
		PeakPerformance:   model.Round(peak, 1),
		AvgFatigue:        model.Round(sumFat/n, 1),
		TotalTrainingLoad: model.Round(load, 1),
	}
	if load > 0 {
		m.Efficiency = model.Float(model.Round(peak/load, 2))
	}
	return m
}

// Analyze writes the best-versus-worst comparison of ranked outcomes.
func Analyze(ranked []Outcome) string {
	if len(ranked) < 2 {
		return insufficientAnalysis
	}
	best, worst := ranked[0], ranked[len(ranked)-1]
	diff := best.Metrics.FinalPerformance - worst.Metrics.FinalPerformance

	var b strings.Builder
	fmt.Fprintf(&b, "%s produces %.1f points higher performance than %s.", best.Name, diff, worst.Name)
	if bf, wf := best.Metrics.AvgFatigue, worst.Metrics.AvgFatigue; bf > wf && bf >= wf*fatigueCaveatRatio {
		b.WriteString(" However, it also generates more fatigue which may increase injury risk.")
	}
	if be, we := best.Metrics.Efficiency, worst.Metrics.Efficiency; be != nil && we != nil && *be > *we {
		b.WriteString(" It is also more efficient in terms of training load to performance ratio.")
	}
	return b.String()
}
