package sunxigfx

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Lifecycle turns interruption and termination signals into cancellation.
//
// Delivery only records the signal and cancels a context. Unmapping and
// closing happen in the main flow, which polls Context or Cancelled at safe
// points and then calls Dev.Close.
type Lifecycle struct {
	signals []os.Signal

	mu       sync.Mutex
	ch       chan os.Signal
	stop     chan struct{}
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	restored bool

	sig atomic.Pointer[os.Signal]
}

// NewLifecycle returns a Lifecycle for sigs, or DefaultSignals if none are
// given. Nothing is registered until Install.
func NewLifecycle(sigs ...os.Signal) *Lifecycle {
	if len(sigs) == 0 {
		sigs = DefaultSignals
	}
	return &Lifecycle{signals: sigs}
}

// Install registers the signal handler, replacing the default disposition,
// and returns a context that is cancelled on the first delivery. Calling
// Install again returns the same context.
func (l *Lifecycle) Install(parent context.Context) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ch != nil {
		return l.ctx
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	l.ch = make(chan os.Signal, 1)
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	signal.Notify(l.ch, l.signals...)
	go l.watch(l.ch, l.stop, l.done)
	return l.ctx
}

func (l *Lifecycle) watch(ch <-chan os.Signal, stop, done chan struct{}) {
	defer close(done)
	select {
	case s := <-ch:
		l.trigger(s)
	case <-stop:
	}
}

// trigger records s as the cancelling signal. Only the first one sticks.
func (l *Lifecycle) trigger(s os.Signal) {
	l.sig.CompareAndSwap(nil, &s)
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Context returns the context returned by Install, or a never-cancelled
// context before Install.
func (l *Lifecycle) Context() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx == nil {
		return context.Background()
	}
	return l.ctx
}

// Cancelled reports whether a signal has been delivered.
func (l *Lifecycle) Cancelled() bool {
	return l.sig.Load() != nil
}

// Signal returns the delivered signal, or nil.
func (l *Lifecycle) Signal() os.Signal {
	if s := l.sig.Load(); s != nil {
		return *s
	}
	return nil
}

// Restore reinstalls the default disposition for the signal set, so a signal
// arriving afterwards behaves as if Install had never been called. It also
// cancels the context. Restore is idempotent.
func (l *Lifecycle) Restore() {
	l.mu.Lock()
	if l.ch == nil || l.restored {
		l.mu.Unlock()
		return
	}
	l.restored = true
	signal.Stop(l.ch)
	signal.Reset(l.signals...)
	close(l.stop)
	done, cancel := l.done, l.cancel
	l.mu.Unlock()

	<-done
	cancel()
}
