package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"mixdown/internal/config"
	"mixdown/internal/logging"
)

// Prober reports the total playback length of data in seconds. Implementations
// must not mutate data.
type Prober interface {
	Duration(ctx context.Context, data []byte) (float64, error)
}

// ErrUnsupportedFormat is returned by Native when no decoder recognizes the payload.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrInvalidDuration is returned when a decoder reports an unusable length.
var ErrInvalidDuration = errors.New("invalid audio duration")

func checkDuration(seconds float64) (float64, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDuration, seconds)
	}
	return seconds, nil
}

// Chain tries each prober in order and returns the first success. When all
// fail the last error is returned.
type Chain []Prober

func (c Chain) Duration(ctx context.Context, data []byte) (float64, error) {
	if len(c) == 0 {
		return 0, errors.New("no probers configured")
	}
	var lastErr error
	for _, p := range c {
		seconds, err := p.Duration(ctx, data)
		if err == nil {
			return seconds, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		lastErr = err
	}
	return 0, lastErr
}

// Option configures New.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	inspect  InspectFunc
	observer func(method string, hit bool)
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithInspectFunc replaces the ffprobe invocation (primarily for tests).
func WithInspectFunc(fn InspectFunc) Option {
	return func(o *options) { o.inspect = fn }
}

// WithCacheObserver reports cache lookups.
func WithCacheObserver(fn func(method string, hit bool)) Option {
	return func(o *options) { o.observer = fn }
}

// New builds the prober selected by cfg.Method, wrapped in a cache when
// cfg.CacheSize is positive.
func New(cfg config.Probe, ffprobeBinary string, opts ...Option) (Prober, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	ff := NewFFprobe(ffprobeBinary)
	if o.inspect != nil {
		ff.inspect = o.inspect
	}

	var base Prober
	switch cfg.Method {
	case config.ProbeMethodNative:
		base = Native{}
	case config.ProbeMethodFFprobe:
		base = ff
	case config.ProbeMethodAuto, "":
		base = Chain{Native{}, ff}
	default:
		return nil, fmt.Errorf("probe: unsupported method %q", cfg.Method)
	}

	if cfg.CacheSize <= 0 {
		return base, nil
	}
	cached, err := NewCached(base, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	cached.logger = logging.NewComponentLogger(o.logger, "probe-cache")
	cached.method = cfg.Method
	cached.observer = o.observer
	return cached, nil
}
