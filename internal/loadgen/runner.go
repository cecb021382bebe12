package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/twin/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	settlePoll          = 50 * time.Millisecond
)

type createTwinBody struct {
	AthleteID string `json:"athlete_id"`
	Profile
	CreatedAt string `json:"created_at"`
}

type ingestResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type statsResponse struct {
	QueueLength      int   `json:"queue_length"`
	SessionsApplied  int64 `json:"sessions_applied"`
	SessionsRejected int64 `json:"sessions_rejected"`
}

func (s statsResponse) handled() int64 { return s.SessionsApplied + s.SessionsRejected }

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg.withDefaults()
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting twin load run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("sessions_per_athlete", cfg.SessionsPerAthlete),
		logger.Int("workers", cfg.Workers),
		logger.Int("rps", cfg.RequestsPerSec),
	)

	client := NewClient(cfg)
	if _, err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	athletes := Generate(cfg)
	stats.SessionsPlanned = len(athletes) * cfg.SessionsPerAthlete
	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, athletes); err != nil {
			log.Warn(ctx, "failed to save athletes", logger.Error(err))
		}
	}

	var before statsResponse
	if _, err := client.Do(ctx, http.MethodGet, "/stats", nil, &before); err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	if err := createTwins(ctx, client, cfg, athletes, stats); err != nil {
		return nil, err
	}
	submitSessions(ctx, client, cfg, athletes, stats, log)

	want := before.handled() + int64(stats.SessionsAccepted)
	if err := settle(ctx, client, want, cfg.SettleTimeout); err != nil {
		return nil, err
	}
	if err := verify(ctx, client, athletes, stats); err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	stats.Retries = client.Retries()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

func createTwins(ctx context.Context, client *Client, cfg Config, athletes []Athlete, stats *Stats) error {
	created := cfg.Start.Format(time.RFC3339)
	for _, a := range athletes {
		body := createTwinBody{AthleteID: a.ID, Profile: a.Profile, CreatedAt: created}
		if _, err := client.Do(ctx, http.MethodPost, "/twins", body, nil); err != nil {
			return fmt.Errorf("create twin %s: %w", a.ID, err)
		}
		stats.AthletesCreated++
	}
	return nil
}

// submitSessions fans athletes out to workers. Each athlete is owned by one
// worker so its sessions arrive in date order.
func submitSessions(ctx context.Context, client *Client, cfg Config, athletes []Athlete, stats *Stats, log logger.Logger) {
	var accepted, duplicate, failed atomic.Int64
	work := make(chan Athlete, cfg.Workers)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range work {
				path := "/twins/" + a.ID + "/sessions"
				for _, s := range a.Sessions {
					var res ingestResponse
					if _, err := client.Do(ctx, http.MethodPost, path, s, &res); err != nil {
						failed.Add(1)
						if cfg.Verbose {
							log.Warn(ctx, "session failed", logger.AthleteID(a.ID), logger.String("session_id", s.ID), logger.Error(err))
						}
						continue
					}
					if res.Duplicate {
						duplicate.Add(1)
					} else {
						accepted.Add(1)
					}
				}
			}
		}()
	}

feed:
	for _, a := range athletes {
		select {
		case <-ctx.Done():
			break feed
		case work <- a:
		}
	}
	close(work)
	wg.Wait()

	stats.SessionsAccepted = int(accepted.Load())
	stats.SessionsDup = int(duplicate.Load())
	stats.SessionsFailed = int(failed.Load())
}

// settle polls /stats until the queue is empty and want sessions have been handled.
func settle(ctx context.Context, client *Client, want int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		var st statsResponse
		if _, err := client.Do(ctx, http.MethodGet, "/stats", nil, &st); err == nil &&
			st.QueueLength == 0 && st.handled() >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d handled sessions: %w", want, ctx.Err())
		case <-ticker.C:
		}
	}
}

func save(filename string, athletes []Athlete) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(athletes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SessionsAccepted+stats.SessionsDup+stats.SessionsFailed) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("athletes_created", stats.AthletesCreated),
		logger.Int("sessions_planned", stats.SessionsPlanned),
		logger.Int("sessions_accepted", stats.SessionsAccepted),
		logger.Int("sessions_duplicate", stats.SessionsDup),
		logger.Int("sessions_failed", stats.SessionsFailed),
		logger.Int("retries", stats.Retries),
		logger.Int("twins_verified", stats.TwinsVerified),
		logger.Int("recommendations", stats.Recommendations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("sessions_per_second", perSecond),
	)
}
