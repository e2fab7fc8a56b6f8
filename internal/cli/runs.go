package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazardlab/sesgen/internal/store"
)

// NewRunsCommand creates the runs command, which lists stored runs.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List the runs stored in an event catalog database, newest first.

Example:
  sesgen runs --db catalog.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			st, err := store.Open(database)
			if err != nil {
				out.Error("failed to open database", err.Error())
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				out.Error("failed to list runs", err.Error())
				return WrapExitError(ExitCommandError, "failed to list runs", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(runs)
			}
			var b strings.Builder
			fmt.Fprintf(&b, "%d run(s)\n", len(runs))
			for _, r := range runs {
				fmt.Fprintf(&b, "  %s  %s  seed=%d ruptures=%d events=%d  %s\n",
					r.RunID, r.Scenario, r.Seed, r.NumRuptures, r.NumEvents, r.CreatedAt)
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// NewShowCommand creates the show command, which prints one stored run with
// its ruptures and events.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run",
		Long: `Print one stored run with its ruptures and events.

Example:
  sesgen show --db catalog.db 01912f6e-1a2b-7c3d-8e4f-5a6b7c8d9e0f`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			st, err := store.Open(database)
			if err != nil {
				out.Error("failed to open database", err.Error())
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			run, err := st.ReadRun(cmd.Context(), args[0])
			if err != nil {
				out.Error("failed to read run", err.Error())
				if errors.Is(err, store.ErrRunNotFound) {
					return WrapExitError(ExitFailure, "run not found", err)
				}
				return WrapExitError(ExitCommandError, "failed to read run", err)
			}
			ruptures, err := st.ReadRuptures(cmd.Context(), args[0])
			if err != nil {
				out.Error("failed to read ruptures", err.Error())
				return WrapExitError(ExitCommandError, "failed to read ruptures", err)
			}

			if rootOpts.Format == "json" {
				return out.Success(map[string]any{"run": run, "ruptures": ruptures})
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Run %s (%s): seed=%d ses=%d samples=%d\n",
				run.RunID, run.Scenario, run.Seed, run.SESPerPath, run.Samples)
			for _, r := range ruptures {
				fmt.Fprintf(&b, "  serial=%d source=%s grp=%d sites=%v\n",
					r.Serial, r.SourceID, r.GrpID, r.SIDs)
				for _, ev := range r.Events {
					fmt.Fprintf(&b, "    eid=%d ses=%d sample=%d\n", ev.EID, ev.SES, ev.Sample)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
