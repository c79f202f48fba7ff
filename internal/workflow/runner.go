package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mixdown/internal/combiner"
	"mixdown/internal/history"
	"mixdown/internal/logging"
	"mixdown/internal/metrics"
	"mixdown/internal/notifications"
	"mixdown/internal/services"
)

// Combiner merges two buffers.
type Combiner interface {
	Combine(ctx context.Context, a, b []byte) (combiner.Result, error)
}

// Fetcher retrieves a source buffer.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Recorder persists job state.
type Recorder interface {
	Create(ctx context.Context, id, sourceA, sourceB, mode string) (*history.Job, error)
	Finish(ctx context.Context, id string, out history.Outcome) (*history.Job, error)
}

// Notifier publishes job outcomes.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, job notifications.Job) error
	NotifyJobFailed(ctx context.Context, job notifications.Job, err error) error
}

// Request names the two sources of a job.
type Request struct {
	SourceA string
	SourceB string
}

// Outcome is the result of a job. JobID is always set once validation passed.
type Outcome struct {
	JobID       string
	Result      combiner.Result
	ContentType string
	Job         *history.Job
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records jobs in rec.
func WithHistory(rec Recorder) Option {
	return func(r *Runner) { r.history = rec }
}

// WithMetrics records job metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithNotifier publishes each finished job in the background.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSettings declares the output settings recorded with each job.
func WithSettings(s combiner.Settings) Option {
	return func(r *Runner) { r.settings = s }
}

// WithJobIDGenerator replaces the job ID generator (primarily for tests).
func WithJobIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Runner executes mix jobs.
type Runner struct {
	fetcher  Fetcher
	combiner Combiner
	history  Recorder
	metrics  *metrics.Metrics
	notifier Notifier
	logger   *slog.Logger
	settings combiner.Settings
	newID    func() string

	pending sync.WaitGroup
}

// NewRunner constructs a Runner.
func NewRunner(fetcher Fetcher, comb Combiner, opts ...Option) (*Runner, error) {
	if fetcher == nil || comb == nil {
		return nil, errors.New("workflow runner requires a fetcher and a combiner")
	}
	r := &Runner{
		fetcher:  fetcher,
		combiner: comb,
		logger:   logging.NewNop(),
		settings: combiner.DefaultSettings(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "workflow")
	return r, nil
}

// ErrSourcesRequired is returned when either source is blank.
var ErrSourcesRequired = services.Wrap(services.ErrValidation, "", "", "both audio sources are required", nil)

// Run executes one job.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	req.SourceA = strings.TrimSpace(req.SourceA)
	req.SourceB = strings.TrimSpace(req.SourceB)
	if req.SourceA == "" || req.SourceB == "" {
		return Outcome{}, ErrSourcesRequired
	}

	out := Outcome{JobID: r.newID(), ContentType: combiner.ContentType(r.settings.Codec)}
	ctx = services.WithJobID(ctx, out.JobID)
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()

	r.metrics.RecordJobStarted()
	if r.history != nil {
		if _, err := r.history.Create(ctx, out.JobID, req.SourceA, req.SourceB, r.settings.Mode); err != nil {
			logger.Warn("job history unavailable",
				logging.String(logging.FieldEventType, "history_write_failed"),
				logging.String(logging.FieldImpact, "job will not appear in history"),
				logging.Error(err),
			)
		}
	}
	logger.Info("mix job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("source_a", req.SourceA),
		logging.String("source_b", req.SourceB),
	)

	a, b, err := r.fetchSources(services.WithStage(ctx, "fetch"), req)
	if err == nil {
		out.Result, err = r.combiner.Combine(services.WithStage(ctx, "combine"), a, b)
	}

	elapsed := time.Since(started)
	detached := context.WithoutCancel(ctx)
	r.finish(detached, logger, &out, elapsed, err)
	r.notify(detached, logger, req, out, elapsed, err)
	return out, err
}

// Wait blocks until every background notification has been sent.
func (r *Runner) Wait() {
	r.pending.Wait()
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, req Request, out Outcome, elapsed time.Duration, runErr error) {
	if r.notifier == nil {
		return
	}
	job := notifications.Job{
		ID:          out.JobID,
		SourceA:     req.SourceA,
		SourceB:     req.SourceB,
		Duration:    out.Result.Duration,
		OutputBytes: len(out.Result.Audio),
		Elapsed:     elapsed,
	}
	if runErr != nil {
		job.ErrorKind = string(services.KindOf(runErr))
	}
	r.pending.Go(func() {
		var err error
		if runErr != nil {
			err = r.notifier.NotifyJobFailed(ctx, job, runErr)
		} else {
			err = r.notifier.NotifyJobCompleted(ctx, job)
		}
		if err != nil {
			logger.Warn("job notification failed",
				logging.String(logging.FieldEventType, "notification_failed"),
				logging.String(logging.FieldImpact, "job outcome not announced"),
				logging.Error(err),
			)
		}
	})
}

func (r *Runner) fetchSources(ctx context.Context, req Request) ([]byte, []byte, error) {
	var a, b []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := r.fetcher.Fetch(gctx, req.SourceA)
		a = data
		return err
	})
	g.Go(func() error {
		data, err := r.fetcher.Fetch(gctx, req.SourceB)
		b = data
		return err
	})
	if err := g.Wait(); err != nil {
		if services.KindOf(err) == services.KindUnknown {
			err = services.Wrap(services.ErrFetch, "fetch", "", "", err)
		}
		return nil, nil, err
	}
	r.metrics.RecordSourceFetched(len(a))
	r.metrics.RecordSourceFetched(len(b))
	return a, b, nil
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, out *Outcome, elapsed time.Duration, runErr error) {
	res := out.Result
	warnings := len(res.Warnings)
	kind := services.KindOf(runErr)

	if runErr != nil {
		r.metrics.RecordJobFailed(string(kind), elapsed, warnings)
		logger.Error("mix job failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.String("error_kind", string(kind)),
			logging.Duration("elapsed", elapsed),
			logging.Error(runErr),
		)
	} else {
		r.metrics.RecordJobCompleted(elapsed, len(res.Audio), warnings)
		logger.Info("mix job completed",
			logging.String(logging.FieldEventType, "job_completed"),
			logging.Float64("duration", res.Duration),
			logging.Int("output_bytes", len(res.Audio)),
			logging.Int("cleanup_warnings", warnings),
			logging.Duration("elapsed", elapsed),
		)
	}

	if r.history == nil {
		return
	}
	outcome := history.Outcome{
		DurationA:       res.DurationA,
		DurationB:       res.DurationB,
		Duration:        res.Duration,
		OutputBytes:     int64(len(res.Audio)),
		CleanupWarnings: warnings,
		Err:             runErr,
	}
	if runErr != nil {
		outcome.ErrorKind = string(kind)
	}
	job, err := r.history.Finish(ctx, out.JobID, outcome)
	if err != nil {
		logger.Warn("job outcome not recorded",
			logging.String(logging.FieldEventType, "history_write_failed"),
			logging.Error(err),
		)
		return
	}
	out.Job = job
}
