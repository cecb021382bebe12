package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/twin/internal/domain/twin"
	"github.com/okian/twin/pkg/metrics"
)

// slot guards one twin. Writers to different twins never contend.
type slot struct {
	mu      sync.Mutex
	twin    *twin.Twin
	deleted bool
}

// InMemoryStore keeps twins in a map with one lock per twin plus an index lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	slots    map[string]*slot
	maxTwins int
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{slots: make(map[string]*slot)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Create(_ context.Context, t *twin.Twin) error {
	if t == nil || t.ID == "" {
		return ErrInvalidTwin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[t.ID]; ok {
		metrics.RecordErrorByComponent("repository", "already_exists")
		return fmt.Errorf("%w: %s", ErrAlreadyExists, t.ID)
	}
	if s.maxTwins > 0 && len(s.slots) >= s.maxTwins {
		metrics.RecordErrorByComponent("repository", "capacity")
		return fmt.Errorf("%w: limit %d", ErrCapacityExceeded, s.maxTwins)
	}
	s.slots[t.ID] = &slot{twin: t}
	metrics.UpdateTwinCount(len(s.slots))
	return nil
}

func (s *InMemoryStore) lookup(id string) (*slot, error) {
	s.mu.RLock()
	sl, ok := s.slots[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sl, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*twin.Twin, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sl, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.deleted {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sl.twin.Snapshot(), nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, fn func(*twin.Twin) error) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sl, err := s.lookup(id)
	if err != nil {
		return err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fn(sl.twin)
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	sl, ok := s.slots[id]
	if ok {
		delete(s.slots, id)
		metrics.UpdateTwinCount(len(s.slots))
	}
	s.mu.Unlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// An Update that looked the slot up before the delete must not resurrect it.
	sl.mu.Lock()
	sl.deleted = true
	sl.mu.Unlock()
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

func (s *InMemoryStore) IDs(_ context.Context) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
