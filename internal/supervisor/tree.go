// Package supervisor runs the long-lived parts of the service under a suture
// supervision tree. The tree has two layers:
//   - api: the HTTP server
//   - jobs: background work such as the release ingestion scheduler
//
// A crashing job is restarted with backoff without taking the API down.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"
)

// TreeConfig tunes restart behavior. Zero values select suture's defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64 // seconds
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = 30
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Tree is the root supervisor with its api and jobs layers.
type Tree struct {
	root *suture.Supervisor
	api  *suture.Supervisor
	jobs *suture.Supervisor
}

// NewTree builds an empty tree named name.
func NewTree(name string, cfg TreeConfig) *Tree {
	cfg = cfg.withDefaults()

	child := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := child
	rootSpec.EventHook = logEvent

	t := &Tree{
		root: suture.New(name, rootSpec),
		api:  suture.New("api-layer", child),
		jobs: suture.New("jobs-layer", child),
	}
	t.root.Add(t.api)
	t.root.Add(t.jobs)
	return t
}

// AddAPIService supervises svc in the api layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken { return t.api.Add(svc) }

// AddJobService supervises svc in the jobs layer.
func (t *Tree) AddJobService(svc suture.Service) suture.ServiceToken { return t.jobs.Add(svc) }

// Serve runs the tree until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error { return t.root.Serve(ctx) }

// ServeBackground runs the tree in its own goroutine.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// logEvent routes supervisor events to the global zerolog logger.
func logEvent(e suture.Event) {
	ev := log.Info()
	switch e.Type() {
	case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
		ev = log.Error()
	case suture.EventTypeBackoff, suture.EventTypeStopTimeout:
		ev = log.Warn()
	}
	ev.Fields(e.Map()).Msg("supervisor: " + e.String())
}
