package loadgen

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var clusters = []string{"", "recovery_dependent", "high_responder"}

// Profile mirrors the traits accepted by POST /twins.
type Profile struct {
	TrainingAge float64 `json:"training_age"`
	Age         float64 `json:"age"`
	Cluster     string  `json:"cluster,omitempty"`
}

// Exercise mirrors a workout exercise.
type Exercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
}

// Session mirrors the body of POST /twins/{id}/sessions.
type Session struct {
	ID           string     `json:"id"`
	Date         string     `json:"date"`
	TSS          *float64   `json:"tss,omitempty"`
	Exercises    []Exercise `json:"exercises,omitempty"`
	AvgIntensity *float64   `json:"avg_intensity,omitempty"`
	Duration     *float64   `json:"duration,omitempty"`
	Type         string     `json:"type,omitempty"`
}

// Athlete is one synthetic athlete with its session stream in date order.
type Athlete struct {
	ID       string    `json:"athlete_id"`
	Profile  Profile   `json:"profile"`
	Sessions []Session `json:"sessions"`
}

// Generate builds cfg.Athletes athletes. Every third session carries raw
// workout metrics instead of a TSS so the server-side derivation is exercised,
// and every seventh day is rest.
func Generate(cfg Config) []Athlete {
	cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	ids := rand.New(rand.NewPCG(cfg.Seed+1, cfg.Seed))

	athletes := make([]Athlete, cfg.Athletes)
	for i := range athletes {
		a := Athlete{
			ID: newID(ids),
			Profile: Profile{
				TrainingAge: round1(rng.Float64() * 15),
				Age:         float64(18 + rng.IntN(30)),
				Cluster:     clusters[rng.IntN(len(clusters))],
			},
		}
		for d := 1; len(a.Sessions) < cfg.SessionsPerAthlete; d++ {
			if d%7 == 0 {
				continue
			}
			a.Sessions = append(a.Sessions, session(rng, ids, cfg.Start.AddDate(0, 0, d), len(a.Sessions)))
		}
		athletes[i] = a
	}
	return athletes
}

func session(rng *rand.Rand, ids *rand.Rand, at time.Time, n int) Session {
	s := Session{ID: newID(ids), Date: at.Add(time.Duration(6+rng.IntN(12)) * time.Hour).Format(time.RFC3339)}
	if n%3 == 2 {
		s.Type = "strength"
		s.Exercises = []Exercise{
			{Name: "squat", Sets: 3 + rng.IntN(4)},
			{Name: "press", Sets: 2 + rng.IntN(4)},
		}
		s.AvgIntensity = ptr(float64(60 + rng.IntN(30)))
		s.Duration = ptr(float64(30 + rng.IntN(60)))
		return s
	}
	s.Type = "endurance"
	s.TSS = ptr(round1(20 + rng.Float64()*110))
	return s
}

// newID draws a version 4 UUID from rng so runs are reproducible.
func newID(rng *rand.Rand) string {
	var b [16]byte
	for i := range b {
		b[i] = byte(rng.UintN(256))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}

func ptr(v float64) *float64 { return &v }

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
