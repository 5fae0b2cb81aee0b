package warmup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

// Registrar keeps the background refresher alive, best effort. The check
// and register funcs mirror the opportunistic pattern of the dashboard's
// service worker registration: on start and on every trigger (interval
// tick, reconnect, manual kick) it checks whether the refresher is active
// and attempts registration if not. All registration errors are
// swallowed; there is no backoff and no status surfaced to callers.
type Registrar struct {
	check     func() bool
	register  func(ctx context.Context) error
	interval  time.Duration
	kicks     chan struct{}
	cancelled atomic.Bool
	l         *log.Logger
}

type Option func(*Registrar)

// WithInterval changes the periodic trigger interval.
func WithInterval(d time.Duration) Option {
	return func(r *Registrar) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Registrar) { r.l = l }
}

func NewRegistrar(check func() bool, register func(ctx context.Context) error,
	opts ...Option,
) *Registrar {
	ret := &Registrar{
		check:    check,
		register: register,
		interval: time.Minute,
		kicks:    make(chan struct{}, 1),
		l:        log.Default().Named("warmup"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Start runs the trigger loop until the context is done. An immediate
// attempt is made before the first tick.
func (r *Registrar) Start(ctx context.Context) {
	go func() {
		r.attempt(ctx)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.cancelled.Store(true)
				return
			case <-ticker.C:
				r.attempt(ctx)
			case <-r.kicks:
				r.attempt(ctx)
			}
		}
	}()
}

// Kick triggers an immediate attempt (reconnects, manual refresh).
// Non-blocking; coalesces with a pending kick.
func (r *Registrar) Kick() {
	select {
	case r.kicks <- struct{}{}:
	default:
	}
}

func (r *Registrar) attempt(ctx context.Context) {
	// late triggers after shutdown are ignored
	if r.cancelled.Load() {
		return
	}
	if r.check() {
		return
	}
	if err := r.register(ctx); err != nil {
		// best effort only
		r.l.Debug("registration attempt failed", log.ErrorField(err))
	}
}
