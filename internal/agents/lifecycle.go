// Package agents provides the seller and customer agents: their state,
// their per-tick decision rules, and the worker loops that run them.
//
// Every agent owns one goroutine looping {tick → sleep} until killed. The
// agent's mutable state is guarded by its own lock; cross-agent mutation
// goes through the defined entry points (ViewAdvert, Sold, Deduct).
// Sellers release their own lock before delivering ads, so the only lock
// nesting at runtime is customer → seller during a purchase; there is no
// path that takes the locks in the opposite order.
package agents

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/mini-market/internal/metrics"
)

// lifecycle is the shared worker-loop plumbing. The stop channel signals
// STOPPING; the loop observes it at the top of the next cycle and closes
// done when it exits. The lock is never held across the sleep.
type lifecycle struct {
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	killOnce sync.Once
}

func newLifecycle() lifecycle {
	return lifecycle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// run starts the worker goroutine. tick is called once per cycle.
func (l *lifecycle) run(kind string, interval time.Duration, tick func()) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}

	// Killed before the first cycle: a Kill that raced this start saw
	// started false and did not wait on done, so the worker must never
	// launch. Close done here so a later Kill does not hang.
	select {
	case <-l.stop:
		close(l.done)
		return
	default:
	}

	metrics.AgentsRunning.WithLabelValues(kind).Inc()

	go func() {
		defer close(l.done)
		defer metrics.AgentsRunning.WithLabelValues(kind).Dec()

		for {
			select {
			case <-l.stop:
				return
			default:
			}

			tick()
			metrics.AgentTicks.WithLabelValues(kind).Inc()

			select {
			case <-l.stop:
				return
			case <-time.After(interval):
			}
		}
	}()
}

// Kill signals the worker to stop and waits for it to finish its current
// cycle. Safe to call more than once; a no-op for agents never started.
func (l *lifecycle) Kill() {
	l.killOnce.Do(func() { close(l.stop) })
	if l.started.Load() {
		<-l.done
	}
}

// Running reports whether the worker has started and not yet exited.
func (l *lifecycle) Running() bool {
	if !l.started.Load() {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}
