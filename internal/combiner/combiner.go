package combiner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mixdown/internal/engine"
	"mixdown/internal/logging"
	"mixdown/internal/probe"
	"mixdown/internal/services"
)

// Acquirer hands out a loaded engine.
type Acquirer interface {
	Acquire(ctx context.Context) (engine.Engine, error)
}

// Result is the outcome of a Combine call. ID and Warnings are populated even
// when Combine fails.
type Result struct {
	ID        string
	Audio     []byte
	DurationA float64
	DurationB float64
	// Duration is the length of the combined track: the shorter input.
	Duration float64
	Warnings []services.CleanupWarning
	Elapsed  time.Duration
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithSettings overrides the output settings.
func WithSettings(s Settings) Option {
	return func(c *Combiner) { c.settings = s }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Combiner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator replaces the per-call namespace generator (primarily for tests).
func WithIDGenerator(fn func() string) Option {
	return func(c *Combiner) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Combiner runs the combine pipeline against a shared engine.
type Combiner struct {
	engines  Acquirer
	prober   probe.Prober
	settings Settings
	logger   *slog.Logger
	newID    func() string
}

// New constructs a Combiner.
func New(engines Acquirer, prober probe.Prober, opts ...Option) (*Combiner, error) {
	if engines == nil {
		return nil, errors.New("combiner requires an engine accessor")
	}
	if prober == nil {
		return nil, errors.New("combiner requires a duration prober")
	}
	c := &Combiner{
		engines:  engines,
		prober:   prober,
		settings: DefaultSettings(),
		logger:   logging.NewNop(),
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.settings = c.settings.withDefaults()
	switch c.settings.Mode {
	case ModeSplit, ModeSum:
	default:
		return nil, fmt.Errorf("combiner: unsupported mix mode %q", c.settings.Mode)
	}
	c.logger = logging.NewComponentLogger(c.logger, "combiner")
	return c, nil
}

// Settings returns the effective output settings.
func (c *Combiner) Settings() Settings { return c.settings }

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if strings.TrimSpace(s.Mode) == "" {
		s.Mode = def.Mode
	}
	if strings.TrimSpace(s.Codec) == "" {
		s.Codec = def.Codec
	}
	if strings.TrimSpace(s.Bitrate) == "" {
		s.Bitrate = def.Bitrate
	}
	if s.SampleRate <= 0 {
		s.SampleRate = def.SampleRate
	}
	return s
}

type entries struct {
	input1, input2     string
	trimmed1, trimmed2 string
	output             string
}

func newEntries(id, ext string) entries {
	return entries{
		input1:   id + "-input1",
		input2:   id + "-input2",
		trimmed1: id + "-trimmed1.wav",
		trimmed2: id + "-trimmed2.wav",
		output:   id + "-output." + ext,
	}
}

func (e entries) all() []string {
	return []string{e.input1, e.input2, e.trimmed1, e.trimmed2, e.output}
}

// Combine mixes a and b into one track as long as the shorter of the two.
// Neither input is modified.
func (c *Combiner) Combine(ctx context.Context, a, b []byte) (res Result, err error) {
	started := time.Now()
	res.ID = c.newID()
	logger := logging.WithContext(ctx, c.logger).With(logging.String("namespace", res.ID))

	defer func() { res.Elapsed = time.Since(started) }()

	eng, err := c.engines.Acquire(ctx)
	if err != nil {
		return res, err
	}

	names := newEntries(res.ID, Extension(c.settings.Codec))
	defer func() {
		res.Warnings = c.cleanup(context.WithoutCancel(ctx), logger, eng, names)
	}()

	if err := c.writeInputs(ctx, eng, names, a, b); err != nil {
		return res, err
	}

	res.DurationA, res.DurationB, err = c.probeDurations(ctx, a, b)
	if err != nil {
		return res, err
	}
	res.Duration = math.Min(res.DurationA, res.DurationB)
	logger.Debug("probed sources",
		logging.Float64("duration_a", res.DurationA),
		logging.Float64("duration_b", res.DurationB),
		logging.Float64("shorter", res.Duration),
	)

	steps := []struct {
		in, out string
		own     float64
	}{
		{names.input1, names.trimmed1, res.DurationA},
		{names.input2, names.trimmed2, res.DurationB},
	}
	for _, step := range steps {
		args := TrimArgs(step.in, step.out, step.own, res.Duration, c.settings.SampleRate)
		if err := eng.Exec(services.WithStage(ctx, "trim"), args); err != nil {
			return res, services.Wrap(services.ErrExec, "trim", step.in, "normalize failed", err)
		}
	}

	mergeArgs := MergeArgs(names.trimmed1, names.trimmed2, names.output, c.settings)
	if err := eng.Exec(services.WithStage(ctx, "merge"), mergeArgs); err != nil {
		return res, services.Wrap(services.ErrExec, "merge", names.output, "merge failed", err)
	}

	audio, err := eng.ReadFile(ctx, names.output)
	if err != nil {
		return res, services.Wrap(services.ErrRead, "read", names.output, "", err)
	}
	if len(audio) == 0 {
		return res, services.Wrap(services.ErrRead, "read", names.output, "engine produced an empty output", nil)
	}
	res.Audio = audio

	logger.Info("sources combined",
		logging.String(logging.FieldEventType, "combine_completed"),
		logging.String("mode", c.settings.Mode),
		logging.Float64("duration", res.Duration),
		logging.Int("output_bytes", len(audio)),
	)
	return res, nil
}

func (c *Combiner) writeInputs(ctx context.Context, eng engine.Engine, names entries, a, b []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, in := range []struct {
		name string
		data []byte
	}{{names.input1, a}, {names.input2, b}} {
		g.Go(func() error {
			if err := eng.WriteFile(gctx, in.name, in.data); err != nil {
				return services.Wrap(services.ErrWrite, "write", in.name, "", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Combiner) probeDurations(ctx context.Context, a, b []byte) (float64, float64, error) {
	var durA, durB float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.prober.Duration(gctx, a)
		if err != nil {
			return services.Wrap(services.ErrDecode, "probe", "source a", "", err)
		}
		durA = d
		return nil
	})
	g.Go(func() error {
		d, err := c.prober.Duration(gctx, b)
		if err != nil {
			return services.Wrap(services.ErrDecode, "probe", "source b", "", err)
		}
		durB = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	for _, d := range []float64{durA, durB} {
		if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			return 0, 0, services.Wrap(services.ErrDecode, "probe", "", fmt.Sprintf("unusable duration %v", d), nil)
		}
	}
	return durA, durB, nil
}

func (c *Combiner) cleanup(ctx context.Context, logger *slog.Logger, eng engine.Engine, names entries) []services.CleanupWarning {
	var warnings []services.CleanupWarning
	for _, name := range names.all() {
		if err := eng.DeleteFile(ctx, name); err != nil {
			warnings = append(warnings, services.CleanupWarning{Entry: name, Err: err})
			logger.Warn("workspace entry not removed",
				logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "run mixdown clean to sweep stale entries"),
				logging.String(logging.FieldImpact, "entry remains on disk until swept"),
				logging.String("entry", name),
				logging.Error(err),
			)
		}
	}
	return warnings
}
