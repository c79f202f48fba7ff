package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mixdown/internal/api"
	"mixdown/internal/deps"
	"mixdown/internal/preflight"
)

type depsReport struct {
	Dependencies []api.DependencyStatus `json:"dependencies"`
	Checks       []api.CheckResult      `json:"checks"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries and directory access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := preflight.CheckSystemDeps(cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)
			missing := deps.MissingRequired(statuses)
			failed := preflight.Failed(checks)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, depsReport{
					Dependencies: api.FromDependencies(statuses),
					Checks:       api.FromChecks(checks),
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, st := range statuses {
					kind, msg := statusOK, st.Command
					if !st.Available {
						kind, msg = statusError, st.Detail
						if st.Optional {
							kind = statusWarn
						}
					}
					fmt.Fprintln(out, renderStatusLine(st.Name, kind, msg, colorize))
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Checks", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
			}

			if len(missing) > 0 || len(failed) > 0 {
				return fmt.Errorf("%d required dependencies missing, %d checks failed", len(missing), len(failed))
			}
			return nil
		},
	}
}
