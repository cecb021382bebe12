// Package loadgen drives a running twin service over HTTP: it creates
// synthetic athletes, streams their sessions concurrently and checks the
// resulting twin states.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL            string        // Base URL of the service
	Athletes           int           // Number of synthetic athletes
	SessionsPerAthlete int           // Daily sessions generated per athlete
	Workers            int           // Concurrent submitters
	RequestsPerSec     int           // Client-side rate limit across all workers
	Timeout            time.Duration // HTTP request timeout
	MaxRetryTime       time.Duration // Backoff budget for one request
	SettleTimeout      time.Duration // How long to wait for the queue to drain
	Seed               uint64        // Generator seed; equal seeds give equal runs
	Start              time.Time     // Anchor of the first athlete's twin; zero means now
	OutputFile         string        // Optional JSON dump of generated athletes
	Verbose            bool
}

func (c *Config) withDefaults() {
	if c.Athletes <= 0 {
		c.Athletes = 100
	}
	if c.SessionsPerAthlete <= 0 {
		c.SessionsPerAthlete = 30
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = 500
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetryTime <= 0 {
		c.MaxRetryTime = 30 * time.Second
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = time.Minute
	}
	if c.Start.IsZero() {
		c.Start = time.Now().UTC().Truncate(24 * time.Hour)
	}
}

// Stats holds run statistics.
type Stats struct {
	AthletesCreated  int
	SessionsPlanned  int
	SessionsAccepted int
	SessionsDup      int
	SessionsFailed   int
	Retries          int
	TwinsVerified    int
	Recommendations  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
