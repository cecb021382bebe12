package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/twin/internal/loadgen"
	"github.com/okian/twin/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		athletes = flag.Int("athletes", 100, "Number of synthetic athletes")
		sessions = flag.Int("sessions", 30, "Sessions per athlete")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		rps      = flag.Int("rps", 500, "Client-side request rate limit")
		timeout  = flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
		settle   = flag.Duration("settle", time.Minute, "Maximum wait for the queue to drain")
		seed     = flag.Uint64("seed", 1, "Generator seed")
		output   = flag.String("output", "", "Write generated athletes as JSON to this file")
		verbose  = flag.Bool("verbose", false, "Log every failed session")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	_, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:            *baseURL,
		Athletes:           *athletes,
		SessionsPerAthlete: *sessions,
		Workers:            *workers,
		RequestsPerSec:     *rps,
		Timeout:            *timeout,
		SettleTimeout:      *settle,
		Seed:               *seed,
		OutputFile:         *output,
		Verbose:            *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}
