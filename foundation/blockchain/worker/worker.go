// Package worker implements the background operations of a node: the
// discovery broadcast and the periodic chain integrity check.
package worker

import (
	"sync"
	"time"
)

// Defaults applied when the configuration leaves an interval unset.
const (
	defaultBroadcastInterval = 10 * time.Second
)

// EventHandler defines a function that is called when events
// occur in the background operations.
type EventHandler func(v string, args ...any)

// Broadcaster represents the behavior required to announce this node.
type Broadcaster interface {
	Broadcast() error
}

// Verifier represents the behavior required to re-verify the chain.
type Verifier interface {
	VerifyChain() error
}

// Config represents the configuration required to start the worker.
type Config struct {
	Broadcaster       Broadcaster
	Verifier          Verifier
	BroadcastInterval time.Duration
	VerifyInterval    time.Duration // 0 disables the periodic check.
	EvHandler         EventHandler
}

// =============================================================================

// Worker manages the background operations of the node.
type Worker struct {
	broadcaster    Broadcaster
	verifier       Verifier
	broadcastEvery time.Duration
	verifyEvery    time.Duration
	wg             sync.WaitGroup
	shut           chan struct{}
	evHandler      EventHandler
}

// Run creates a worker and starts up all the background processes.
func Run(cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	broadcastEvery := cfg.BroadcastInterval
	if broadcastEvery <= 0 {
		broadcastEvery = defaultBroadcastInterval
	}

	w := Worker{
		broadcaster:    cfg.Broadcaster,
		verifier:       cfg.Verifier,
		broadcastEvery: broadcastEvery,
		verifyEvery:    cfg.VerifyInterval,
		shut:           make(chan struct{}),
		evHandler:      ev,
	}

	// Load the set of operations we need to run.
	var operations []func()
	if w.broadcaster != nil {
		operations = append(operations, w.broadcastOperations)
	}
	if w.verifier != nil && w.verifyEvery > 0 {
		operations = append(operations, w.verifyOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
