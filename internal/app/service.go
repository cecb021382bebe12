// Package service hosts the training twin engine: it owns the twin store, the
// single-writer ingestion pipeline and the read-only projection operations the
// HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/twin/internal/adapters/mq/queue"
	"github.com/okian/twin/internal/adapters/mq/worker"
	"github.com/okian/twin/internal/adapters/repository"
	"github.com/okian/twin/internal/domain/advice"
	"github.com/okian/twin/internal/domain/dedupe"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
	"github.com/okian/twin/internal/domain/simulation"
	"github.com/okian/twin/internal/domain/taper"
	"github.com/okian/twin/internal/domain/twin"
	"github.com/okian/twin/pkg/logger"
	"github.com/okian/twin/pkg/metrics"
)

// Service implements the API dependencies of the twin engine.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	deduper    dedupe.Deduper
	simulator  *simulation.Simulator
	planner    *taper.Planner
	comparator *scenario.Comparator
	queue      *queue.Sharded
	pool       *worker.Pool

	workerCount    int
	queueSize      int
	dedupeSize     int
	maxTwins       int
	maxHorizonDays int
	defaultDays    int
	parallelism    int
	maxScenarios   int
	now            func() time.Time

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Read operations work immediately; ingestion
// through the queue needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      10_000,
		dedupeSize:     dedupe.DefaultMaxSize,
		maxHorizonDays: simulation.DefaultMaxDays,
		defaultDays:    scenario.DefaultDays,
		parallelism:    4,
		maxScenarios:   16,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewInMemoryStore(repository.WithMaxTwins(s.maxTwins))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.simulator = simulation.New(simulation.WithMaxDays(s.maxHorizonDays))
	s.planner = taper.NewPlanner(s.simulator)
	s.comparator = scenario.NewComparator(s.simulator,
		scenario.WithParallelism(s.parallelism),
		scenario.WithDefaultDays(s.defaultDays),
	)
	return s
}

// Start launches the ingestion queue and workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting twin service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.queue = queue.NewSharded(s.workerCount, s.queueSize)
	s.pool = worker.NewPool(s.queue, s.store, worker.WithRejectHook(s.onReject))
	s.pool.Start(runCtx)
	s.cancel = cancel
	s.started = true

	s.logger.Info(ctx, "twin service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queue.Capacity()),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("max_horizon_days", s.maxHorizonDays),
	)
	return nil
}

// Stop drains the ingestion queue and stops the workers. Twins stay readable.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping twin service...")
	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "twin service stopped")
	return err
}

// onReject lets a session refused by a worker be resubmitted under the same ID.
func (s *Service) onReject(ctx context.Context, e model.Event, _ string, _ error) { //nolint:gocritic // hugeParam: hook signature
	s.deduper.Unrecord(ctx, dedupe.Key(e.AthleteID, e.EventID))
}

func (s *Service) reference(at time.Time) time.Time {
	if at.IsZero() {
		return s.now()
	}
	return at
}

// CreateTwin calibrates a twin for the profile, replays its history and stores it.
func (s *Service) CreateTwin(ctx context.Context, req CreateTwinRequest) (*twin.Twin, error) {
	if req.Profile.ID == "" {
		req.Profile.ID = uuid.NewString()
	}
	profile := model.NewProfile(req.Profile)

	t, err := twin.FromHistory(profile, s.reference(req.CreatedAt), req.History)
	if err != nil {
		return nil, fmt.Errorf("replay history: %w", err)
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	for _, h := range req.History {
		if h.ID != "" {
			s.deduper.SeenAndRecord(ctx, dedupe.Key(t.ID, h.ID))
		}
	}

	s.logger.Info(ctx, "twin created",
		logger.AthleteID(t.ID),
		logger.Int("history", len(t.History)),
		logger.String("cluster", profile.Cluster.String()),
		logger.Float64("p_0", t.Params.P0),
	)
	return t.Snapshot(), nil
}

// GetTwin returns a snapshot of the twin.
func (s *Service) GetTwin(ctx context.Context, id string) (*twin.Twin, error) {
	return s.store.Get(ctx, id)
}

// DeleteTwin removes a twin.
func (s *Service) DeleteTwin(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "twin deleted", logger.AthleteID(id))
	return nil
}

// prepare validates a session against the current state and claims its
// dedupe key. It returns duplicate=true when the session was already seen.
func (s *Service) prepare(ctx context.Context, athleteID string, session *model.Workout) (bool, error) {
	if session.Date.IsZero() {
		metrics.RecordSessionRejected(worker.ReasonInvalid)
		return false, fmt.Errorf("%w: %w", ErrInvalidRequest, twin.ErrMissingDate)
	}
	current, err := s.store.Get(ctx, athleteID)
	if err != nil {
		metrics.RecordSessionRejected(worker.ReasonUnknownTwin)
		return false, err
	}
	if session.Date.Before(current.State.Timestamp) {
		metrics.RecordSessionRejected(worker.ReasonNonMonotonic)
		return false, fmt.Errorf("%w: session %s precedes state at %s", twin.ErrNonMonotonicTime,
			session.Date.Format(time.RFC3339), current.State.Timestamp.Format(time.RFC3339))
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, dedupe.Key(athleteID, session.ID)) {
		metrics.RecordSessionDuplicate()
		s.logger.Debug(ctx, "duplicate session skipped",
			logger.AthleteID(athleteID), logger.String("session_id", session.ID))
		return true, nil
	}
	return false, nil
}

// RecordSession validates a session and queues it for the athlete's worker.
func (s *Service) RecordSession(ctx context.Context, athleteID string, session model.Workout) (IngestResult, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return IngestResult{}, ErrNotStarted
	}

	dup, err := s.prepare(ctx, athleteID, &session)
	if err != nil {
		return IngestResult{}, err
	}
	if dup {
		return IngestResult{Status: StatusDuplicate, SessionID: session.ID, Duplicate: true}, nil
	}

	e := model.Event{EventID: session.ID, AthleteID: athleteID, Session: session, ReceivedAt: time.Now()}
	if err := q.Enqueue(ctx, e); err != nil {
		s.deduper.Unrecord(ctx, dedupe.Key(athleteID, session.ID))
		if errors.Is(err, queue.ErrFull) {
			metrics.RecordSessionRejected("backpressure")
			return IngestResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		if errors.Is(err, queue.ErrClosed) {
			return IngestResult{}, ErrNotStarted
		}
		return IngestResult{}, err
	}
	return IngestResult{Status: StatusAccepted, SessionID: session.ID}, nil
}

// RecordSessionSync applies a session immediately, bypassing the queue.
func (s *Service) RecordSessionSync(ctx context.Context, athleteID string, session model.Workout) (twin.Applied, bool, error) {
	dup, err := s.prepare(ctx, athleteID, &session)
	if err != nil || dup {
		return twin.Applied{}, dup, err
	}

	var applied twin.Applied
	err = s.store.Update(ctx, athleteID, func(t *twin.Twin) error {
		var err error
		applied, err = t.Record(session)
		return err
	})
	if err != nil {
		s.deduper.Unrecord(ctx, dedupe.Key(athleteID, session.ID))
		return twin.Applied{}, false, err
	}
	metrics.RecordSessionIngested()
	return applied, false, nil
}

// Recalibrate re-derives the twin's parameters. Traits missing from in keep
// their current values.
func (s *Service) Recalibrate(ctx context.Context, id string, in model.ProfileInput) (*twin.Twin, error) {
	var out *twin.Twin
	err := s.store.Update(ctx, id, func(t *twin.Twin) error {
		t.Recalibrate(model.NewProfile(mergeProfile(t.Profile, in)))
		out = t.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "twin recalibrated", logger.AthleteID(id), logger.Any("params", out.Params))
	return out, nil
}

func mergeProfile(cur model.AthleteProfile, in model.ProfileInput) model.ProfileInput {
	in.ID = cur.ID
	if in.TrainingAge == nil {
		in.TrainingAge = model.Float(cur.TrainingAge)
	}
	if in.Age == nil {
		in.Age = model.Float(cur.Age)
	}
	if in.BaselinePerformance == nil {
		in.BaselinePerformance = model.Float(cur.BaselinePerformance)
	}
	if in.Cluster == "" {
		in.Cluster = string(cur.Cluster)
	}
	return in
}

// Simulate projects the twin forward over a plan.
func (s *Service) Simulate(ctx context.Context, id string, req SimulateRequest) ([]model.SimulationDay, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	days := req.Days
	if days == 0 {
		days = s.defaultDays
	}

	start := time.Now()
	run, err := s.simulator.Simulate(t, req.Plan, days, s.reference(req.Reference))
	if err != nil {
		return nil, err
	}
	metrics.RecordSimulation("simulate", days, elapsedMs(start))
	return run, nil
}

// OptimizePeaking finds the best taper toward the target date.
func (s *Service) OptimizePeaking(ctx context.Context, id string, req OptimizeRequest) (taper.Result, error) {
	if req.Target.IsZero() {
		return taper.Result{}, fmt.Errorf("%w: target date is required", ErrInvalidRequest)
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return taper.Result{}, err
	}

	start := time.Now()
	res, err := s.planner.Optimize(t, req.Target, s.reference(req.Reference), req.CurrentPlan)
	if err != nil {
		return taper.Result{}, err
	}
	if res.Status == taper.StatusSuccess {
		metrics.RecordSimulation("optimize", res.DaysToTarget*len(res.Alternatives), elapsedMs(start))
	}
	metrics.RecordTaper(string(res.Status), res.Recommended)
	s.logger.Debug(ctx, "taper optimized",
		logger.AthleteID(id),
		logger.String("status", string(res.Status)),
		logger.Int("days_to_target", res.DaysToTarget),
		logger.String("recommended", res.Recommended),
	)
	return res, nil
}

// CompareScenarios ranks competing plans for the twin.
func (s *Service) CompareScenarios(ctx context.Context, id string, req CompareRequest) (scenario.Result, error) {
	if len(req.Scenarios) > s.maxScenarios {
		return scenario.Result{}, fmt.Errorf("%w: %d > %d", ErrTooManyScenarios, len(req.Scenarios), s.maxScenarios)
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return scenario.Result{}, err
	}

	start := time.Now()
	res, err := s.comparator.Compare(t, req.Scenarios, s.reference(req.Reference))
	if err != nil {
		return scenario.Result{}, err
	}
	days := 0
	for _, o := range res.Ranked {
		days += len(o.Simulation)
	}
	if days > 0 {
		metrics.RecordSimulation("compare", days, elapsedMs(start))
	}
	metrics.RecordComparison(string(res.Status))
	return res, nil
}

// Recommendations returns training advice for the twin's current state.
func (s *Service) Recommendations(ctx context.Context, id string) (advice.Report, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return advice.Report{}, err
	}
	report, err := advice.Recommend(t)
	if err != nil {
		return advice.Report{}, err
	}
	for _, r := range report.Recommendations {
		metrics.RecordRecommendation(string(r.Type))
	}
	return report, nil
}

// History returns the trailing limit history entries, or all when limit <= 0.
func (s *Service) History(ctx context.Context, id string, limit int) ([]model.HistoryEntry, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h := t.History
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return h, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:        s.started,
		Twins:          s.store.Count(ctx),
		Workers:        s.workerCount,
		DedupeSize:     s.deduper.Size(),
		MaxHorizonDays: s.maxHorizonDays,
	}
	if s.queue != nil {
		st.QueueLength = s.queue.Len()
		st.QueueCapacity = s.queue.Capacity()
	}
	if s.pool != nil {
		st.SessionsApplied = s.pool.Processed()
		st.SessionsRejected = s.pool.Rejected()
	}

	metrics.UpdateTwinCount(st.Twins)
	metrics.UpdateQueueSize(st.QueueLength)
	return st
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
