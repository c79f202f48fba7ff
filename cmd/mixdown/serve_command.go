package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mixdown/internal/api"
	"mixdown/internal/config"
	"mixdown/internal/deps"
	"mixdown/internal/logging"
	"mixdown/internal/preflight"
	"mixdown/internal/server"
	"mixdown/internal/staging"
)

const combineBudget = 5 * time.Minute

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var skipPreflight bool
	var skipSweep bool
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the combine API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if !skipPreflight {
				if err := runPreflight(signalCtx, cfg); err != nil {
					return err
				}
			}

			if !skipSweep {
				result := staging.CleanStale(signalCtx, cfg.Paths.WorkspaceDir, cfg.WorkspaceMaxAge(), logger)
				for _, cerr := range result.Errors {
					logger.Warn("workspace sweep error",
						logging.String("path", cerr.Path),
						logging.Error(cerr.Error),
					)
				}
			}

			p, err := buildPipeline(cfg, logger, pipelineOptions{settings: settingsFromConfig(cfg)})
			if err != nil {
				return err
			}
			defer p.Close()

			if warm {
				if _, err := p.engines.Acquire(signalCtx); err != nil {
					return fmt.Errorf("warm engine: %w", err)
				}
			}

			address := strings.TrimSpace(bind)
			if address == "" {
				address = cfg.Paths.APIBind
			}
			statusFn := func(ctx context.Context) ([]api.DependencyStatus, []api.CheckResult) {
				return api.FromDependencies(preflight.CheckSystemDeps(cfg)), api.FromChecks(preflight.RunAll(ctx, cfg))
			}
			srv, err := server.New(address, p.runner,
				server.WithJobs(p.history),
				server.WithMetrics(p.metrics),
				server.WithLogger(logger),
				server.WithToken(cfg.Paths.APIToken),
				server.WithStatus(p.engines, p.ffmpeg.Version, statusFn),
				server.WithWriteTimeout(cfg.FetchTimeout()+cfg.LoadTimeout()+combineBudget),
				server.WithVersion(version),
			)
			if err != nil {
				return err
			}
			if err := srv.Start(signalCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mixdown listening on %s\n", srv.Addr())

			<-signalCtx.Done()
			logger.Info("mixdown server shutting down")
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without checking binaries and directories")
	cmd.Flags().BoolVar(&skipSweep, "no-sweep", false, "Do not remove stale workspace entries at startup")
	cmd.Flags().BoolVar(&warm, "warm", false, "Load the engine before accepting requests")
	return cmd
}

// runPreflight fails when a required binary or check is unavailable.
func runPreflight(ctx context.Context, cfg *config.Config) error {
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Detail))
		}
		return fmt.Errorf("missing required dependencies: %s", strings.Join(names, ", "))
	}
	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, f := range failed {
			details = append(details, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}
	return nil
}
