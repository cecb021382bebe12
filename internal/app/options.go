package service

import (
	"time"

	"github.com/okian/twin/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of ingestion workers and queue shards.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the total capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many session keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxTwins caps the number of twins. Zero means no cap.
func WithMaxTwins(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxTwins = n
		}
	}
}

// WithMaxHorizonDays caps simulation and taper horizons.
func WithMaxHorizonDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxHorizonDays = days
		}
	}
}

// WithDefaultScenarioDays sets the horizon used when a request omits one.
func WithDefaultScenarioDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.defaultDays = days
		}
	}
}

// WithScenarioParallelism bounds concurrent scenario simulations per comparison.
func WithScenarioParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithMaxScenarios caps scenarios per comparison.
func WithMaxScenarios(n int) Option {
	return func(s *Service) {
		if n > 1 {
			s.maxScenarios = n
		}
	}
}

// WithClock replaces time.Now. It is only consulted when a request carries no
// reference instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
