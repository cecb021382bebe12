// Package worker applies queued training sessions to twins. Each worker owns
// one queue shard, so a twin only ever has a single writer on the ingestion
// path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/twin/internal/adapters/mq/queue"
	"github.com/okian/twin/internal/adapters/repository"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/twin"
	"github.com/okian/twin/pkg/logger"
	"github.com/okian/twin/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Rejection reasons reported to metrics and hooks.
const (
	ReasonNonMonotonic = "non_monotonic"
	ReasonUnknownTwin  = "unknown_twin"
	ReasonInvalid      = "invalid"
)

// Event abstracts what workers read off the queue.
type Event = model.Event

// Updater gives exclusive access to a twin.
type Updater interface {
	Update(ctx context.Context, id string, fn func(*twin.Twin) error) error
}

// Source is the queue shard a worker drains.
type Source interface {
	Dequeue() <-chan Event
}

// RejectHook is told about every session a worker could not apply.
type RejectHook func(ctx context.Context, e Event, reason string, err error)

// Worker drains one shard until it is closed or ctx is cancelled.
type Worker struct {
	name    string
	source  Source
	updater Updater
	onDrain func()
	reject  RejectHook
	logger  logger.Logger

	active    *atomic.Int64
	processed atomic.Int64
	rejected  atomic.Int64
	done      chan struct{}
}

// New creates a worker.
func New(source Source, updater Updater, opts ...Option) *Worker {
	w := &Worker{
		name:    "worker",
		source:  source,
		updater: updater,
		onDrain: func() {},
		reject:  func(context.Context, Event, string, error) {},
		active:  &atomic.Int64{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes events until the source is closed and drained or ctx ends.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			w.onDrain()
			w.process(ctx, e)
		}
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Processed returns the number of sessions applied.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Rejected returns the number of sessions refused.
func (w *Worker) Rejected() int64 { return w.rejected.Load() }

func (w *Worker) process(ctx context.Context, e Event) { //nolint:gocritic // hugeParam: events are values on the channel
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var applied twin.Applied
	err := w.updater.Update(ctx, e.AthleteID, func(t *twin.Twin) error {
		var err error
		applied, err = t.Record(e.Session)
		return err
	})
	if err != nil {
		reason := classify(err)
		w.rejected.Add(1)
		metrics.RecordSessionRejected(reason)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", reason)
		w.logger.Warn(ctx, "session rejected",
			logger.AthleteID(e.AthleteID),
			logger.String("session_id", e.EventID),
			logger.String("reason", reason),
			logger.Error(err),
		)
		w.reject(ctx, e, reason, err)
		return
	}

	w.processed.Add(1)
	metrics.RecordSessionIngested()
	if !e.ReceivedAt.IsZero() {
		metrics.RecordIngestLatency(float64(time.Since(e.ReceivedAt).Microseconds()) / 1000)
	}
	w.logger.Debug(ctx, "session applied",
		logger.AthleteID(e.AthleteID),
		logger.String("session_id", e.EventID),
		logger.Float64("tss", applied.Entry.TSS),
		logger.Float64("performance", applied.Entry.Performance),
		logger.Any("defaulted", applied.Defaulted),
	)
}

func classify(err error) string {
	switch {
	case errors.Is(err, twin.ErrNonMonotonicTime):
		return ReasonNonMonotonic
	case errors.Is(err, repository.ErrNotFound):
		return ReasonUnknownTwin
	default:
		return ReasonInvalid
	}
}

// Pool runs one worker per queue shard.
type Pool struct {
	workers []*Worker
	queue   *queue.Sharded
	logger  logger.Logger
	once    sync.Once
}

// NewPool creates a worker for every shard of q.
func NewPool(q *queue.Sharded, updater Updater, opts ...Option) *Pool {
	p := &Pool{
		workers: make([]*Worker, q.Shards()),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	active := &atomic.Int64{}
	for i := range p.workers {
		wopts := append([]Option{
			WithName("worker-" + strconv.Itoa(i)),
			withActive(active),
			withDrainHook(q.Observe),
		}, opts...)
		p.workers[i] = New(q.Shard(i), updater, wopts...)
	}
	metrics.UpdateWorkerCount(len(p.workers))
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed sums the sessions applied by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Rejected sums the sessions refused by all workers.
func (p *Pool) Rejected() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Rejected()
	}
	return n
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		if cerr := p.queue.Close(); cerr != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()
		for i, w := range p.workers {
			select {
			case <-w.Done():
			case <-shutdownCtx.Done():
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
				err = fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
				return
			}
		}
		p.logger.Info(ctx, "worker pool stopped", logger.Int("processed", int(p.Processed())))
	})
	return err
}
