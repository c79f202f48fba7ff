package main

import (
	"errors"
	"fmt"
	"log/slog"

	"mixdown/internal/combiner"
	"mixdown/internal/config"
	"mixdown/internal/engine"
	"mixdown/internal/fetch"
	"mixdown/internal/history"
	"mixdown/internal/logging"
	"mixdown/internal/metrics"
	"mixdown/internal/notifications"
	"mixdown/internal/probe"
	"mixdown/internal/workflow"
)

// pipeline holds every component a mix job touches, wired from config.
type pipeline struct {
	ffmpeg   *engine.FFmpeg
	engines  *engine.Accessor
	metrics  *metrics.Metrics
	history  *history.Store
	runner   *workflow.Runner
	settings combiner.Settings
}

type pipelineOptions struct {
	settings   combiner.Settings
	localFiles bool
}

func settingsFromConfig(cfg *config.Config) combiner.Settings {
	return combiner.Settings{
		Mode:       cfg.Mix.Mode,
		Codec:      cfg.Mix.Codec,
		Bitrate:    cfg.Mix.Bitrate,
		SampleRate: cfg.Mix.SampleRate,
	}
}

func buildPipeline(cfg *config.Config, logger *slog.Logger, opts pipelineOptions) (*pipeline, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &pipeline{metrics: metrics.New(), settings: opts.settings}

	ff, err := engine.NewFFmpeg(cfg.Engine.FFmpegBinary, cfg.Paths.WorkspaceDir, engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	p.ffmpeg = ff
	p.engines = engine.NewAccessor(ff,
		engine.WithLoadTimeout(cfg.LoadTimeout()),
		engine.WithLoadObserver(p.metrics.RecordEngineLoad),
		engine.WithAccessorLogger(logger),
	)

	prober, err := probe.New(cfg.Probe, cfg.Engine.FFprobeBinary,
		probe.WithLogger(logger),
		probe.WithCacheObserver(p.metrics.RecordProbeCache),
	)
	if err != nil {
		return nil, fmt.Errorf("create prober: %w", err)
	}

	comb, err := combiner.New(p.engines, prober,
		combiner.WithSettings(p.settings),
		combiner.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create combiner: %w", err)
	}
	p.settings = comb.Settings()

	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	p.history = store

	fetcher := fetch.New(cfg.Fetch, fetch.WithLocalFiles(opts.localFiles))
	runner, err := workflow.NewRunner(fetcher, comb,
		workflow.WithHistory(store),
		workflow.WithMetrics(p.metrics),
		workflow.WithLogger(logger),
		workflow.WithSettings(p.settings),
		workflow.WithNotifier(notifications.NewService(cfg)),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create runner: %w", err)
	}
	p.runner = runner
	return p, nil
}

// Close waits for pending notifications, then releases the engine lock and
// the history database.
func (p *pipeline) Close() error {
	if p == nil {
		return nil
	}
	if p.runner != nil {
		p.runner.Wait()
	}
	var errs []error
	if p.engines != nil {
		errs = append(errs, p.engines.Close())
	}
	if p.history != nil {
		errs = append(errs, p.history.Close())
	}
	return errors.Join(errs...)
}
