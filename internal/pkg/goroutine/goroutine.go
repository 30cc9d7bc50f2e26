// Package goroutine runs fire-and-forget work with a concurrency cap and
// lets shutdown wait for it.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/watarui/wauth/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// MaxKeptErrors bounds the errors a Manager retains for Wait. Later failures
// are only counted so a long-running server cannot grow the slice forever.
const MaxKeptErrors = 64

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// It collects errors returned by tasks and can be waited on using Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	dropped *atomic.Int64
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  *atomic.Bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema:    make(chan struct{}, maxGoroutine),
		dropped: atomic.NewInt64(0),
		closed:  atomic.NewBool(false),
	}
}

// Go schedules f if the manager is open and below its limit. Otherwise f is
// dropped and a warning is logged. The context passed to f is detached from
// pCtx cancellation so work started by a finished request can complete.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed.Load() {
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine")
		return false
	}

	ctx := context.WithoutCancel(pCtx)
	g.wg.Go(func() {
		defer func() {
			<-g.sema

			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", stacktrace.Internal(2))
				g.addErr(fmt.Errorf("goroutine panicked: %v", rvr))
			}
		}()

		if err := f(ctx); err != nil {
			g.addErr(err)
		}
	})

	return true
}

func (g *Manager) addErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.errs) >= MaxKeptErrors {
		g.dropped.Inc()
		return
	}
	g.errs = append(g.errs, err)
}

// Wait closes the manager, blocks until all scheduled goroutines finish and
// returns the collected errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed.Store(true)
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if n := g.dropped.Load(); n > 0 {
		return errors.Join(append(g.errs, fmt.Errorf("goroutine: %d more errors dropped", n))...)
	}
	return errors.Join(g.errs...)
}
