package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"mixdown/internal/logging"
	"mixdown/internal/services"
)

// LoadObserver is notified after every load attempt.
type LoadObserver func(elapsed time.Duration, err error)

// AccessorOption configures an Accessor.
type AccessorOption func(*Accessor)

// WithLoadTimeout bounds each load attempt. Zero disables the bound.
func WithLoadTimeout(d time.Duration) AccessorOption {
	return func(a *Accessor) {
		if d >= 0 {
			a.timeout = d
		}
	}
}

// WithLoadObserver registers a callback for load attempts.
func WithLoadObserver(fn LoadObserver) AccessorOption {
	return func(a *Accessor) {
		a.observer = fn
	}
}

// WithAccessorLogger attaches a logger.
func WithAccessorLogger(logger *slog.Logger) AccessorOption {
	return func(a *Accessor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// ErrAccessorClosed is returned by Acquire after Close.
var ErrAccessorClosed = errors.New("engine accessor closed")

type attempt struct {
	done chan struct{}
	err  error
}

// Accessor hands out a lazily loaded engine shared by all callers.
type Accessor struct {
	engine   Engine
	timeout  time.Duration
	observer LoadObserver
	logger   *slog.Logger

	mu       sync.Mutex
	ready    bool
	closed   bool
	inflight *attempt
}

// NewAccessor wraps an unloaded engine.
func NewAccessor(e Engine, opts ...AccessorOption) *Accessor {
	a := &Accessor{engine: e, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "engine-accessor")
	return a
}

// Acquire returns the loaded engine, loading it on first use. Concurrent
// callers during a load wait for that same load. The load runs detached from
// the first caller's cancellation; a cancelled waiter stops waiting without
// affecting the load.
func (a *Accessor) Acquire(ctx context.Context) (Engine, error) {
	if a == nil || a.engine == nil {
		return nil, services.Wrap(services.ErrLoad, "engine", "acquire", "no engine configured", nil)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, services.Wrap(services.ErrLoad, "engine", "acquire", "", ErrAccessorClosed)
	}
	if a.ready {
		a.mu.Unlock()
		return a.engine, nil
	}
	att := a.inflight
	if att == nil {
		att = &attempt{done: make(chan struct{})}
		a.inflight = att
		go a.load(context.WithoutCancel(ctx), att)
	}
	a.mu.Unlock()

	select {
	case <-att.done:
		if att.err != nil {
			return nil, att.err
		}
		return a.engine, nil
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrLoad, "engine", "acquire", "gave up waiting for load", ctx.Err())
	}
}

func (a *Accessor) load(ctx context.Context, att *attempt) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	err := a.engine.Load(ctx)
	elapsed := time.Since(started)

	a.mu.Lock()
	a.inflight = nil
	if err != nil {
		att.err = services.Wrap(services.ErrLoad, "engine", "load", "", err)
	} else if a.closed {
		att.err = services.Wrap(services.ErrLoad, "engine", "load", "", ErrAccessorClosed)
		if closer, ok := a.engine.(io.Closer); ok {
			_ = closer.Close()
		}
	} else {
		a.ready = true
	}
	a.mu.Unlock()
	defer close(att.done)

	if a.observer != nil {
		a.observer(elapsed, err)
	}
	if err != nil {
		a.logger.Warn("engine load failed; next acquire will retry",
			logging.String(logging.FieldEventType, "engine_load_failed"),
			logging.String(logging.FieldErrorHint, "verify engine.ffmpeg_binary and workspace_dir"),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
	}
}

// Ready reports whether the engine has loaded.
func (a *Accessor) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Close tears the engine down. Subsequent Acquire calls fail.
func (a *Accessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	wasReady := a.ready
	a.ready = false
	if wasReady {
		if closer, ok := a.engine.(io.Closer); ok {
			return closer.Close()
		}
	}
	return nil
}
