package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/twin/pkg/metrics"
)

// Sharded splits a total capacity over n queues and routes every athlete to
// exactly one of them, so one consumer per shard sees an athlete's sessions in
// arrival order.
type Sharded struct {
	shards   []*InMemoryQueue
	capacity int
}

// NewSharded creates n shards sharing capacity. n < 1 is treated as 1.
func NewSharded(n, capacity int) *Sharded {
	if n < 1 {
		n = 1
	}
	if capacity < n {
		capacity = n
	}
	per := (capacity + n - 1) / n
	s := &Sharded{shards: make([]*InMemoryQueue, n), capacity: per * n}
	for i := range s.shards {
		s.shards[i] = NewInMemoryQueue(WithCapacity(per), WithComponent(fmt.Sprintf("queue_shard_%d", i)))
	}
	metrics.UpdateQueueCapacity(s.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return s
}

// ShardFor returns the shard index owning athleteID.
func (s *Sharded) ShardFor(athleteID string) int {
	return int(xxhash.Sum64String(athleteID) % uint64(len(s.shards)))
}

// Shard returns shard i.
func (s *Sharded) Shard(i int) *InMemoryQueue { return s.shards[i] }

// Shards returns the number of shards.
func (s *Sharded) Shards() int { return len(s.shards) }

// Enqueue routes e to the shard of its athlete.
func (s *Sharded) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: see InMemoryQueue.Enqueue
	err := s.shards[s.ShardFor(e.AthleteID)].Enqueue(ctx, e)
	if err == nil {
		s.publish()
	}
	return err
}

// Len sums the backlog of every shard.
func (s *Sharded) Len() int {
	n := 0
	for _, q := range s.shards {
		n += q.Len()
	}
	return n
}

// Capacity is the total capacity across shards.
func (s *Sharded) Capacity() int { return s.capacity }

// Close closes every shard.
func (s *Sharded) Close() error {
	var errs []error
	for _, q := range s.shards {
		errs = append(errs, q.Close())
	}
	return errors.Join(errs...)
}

// IsClosed reports whether the shards are closed.
func (s *Sharded) IsClosed() bool { return s.shards[0].IsClosed() }

func (s *Sharded) publish() {
	n := s.Len()
	metrics.UpdateQueueSize(n)
	metrics.UpdateQueueUtilization(float64(n) / float64(s.capacity))
}

// Observe refreshes the backlog gauges after a consumer drained an event.
func (s *Sharded) Observe() {
	metrics.RecordQueueDequeue()
	s.publish()
}
