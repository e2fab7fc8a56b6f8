package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazardlab/sesgen/internal/monitor"
	"github.com/hazardlab/sesgen/internal/sampler"
	"github.com/hazardlab/sesgen/internal/store"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Database string
}

// sampleSummary is the JSON payload of a sample run.
type sampleSummary struct {
	RunID       string `json:"run_id"`
	Scenario    string `json:"scenario"`
	NumRuptures int    `json:"num_ruptures"`
	EBRuptures  int    `json:"eb_ruptures"`
	NumEvents   int    `json:"num_events"`
	Persisted   bool   `json:"persisted"`
}

// NewSampleCommand creates the sample command, which runs the full batch
// sampling pipeline for a scenario.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <scenario.yaml>",
		Short: "Sample stochastic event sets for a scenario",
		Long: `Run the batch sampling pipeline for a scenario: occurrence sampling,
distance filtering, event construction and event-ID allocation.

With --db the resulting catalog is persisted to a SQLite database.

Example:
  sesgen sample scenarios/demo.yaml
  sesgen sample scenarios/demo.yaml --db catalog.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for persisting the catalog")
	return cmd
}

func runSample(opts *SampleOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	s, model, err := loadScenario(path)
	if err != nil {
		out.Error("failed to load scenario", err.Error())
		return err
	}

	mon := monitor.New("sampling")
	batch, err := sampler.SampleRuptures(cmd.Context(), model.Sources, model.Sites,
		model.Filter, model.ContextMaker, model.Params, mon)
	if err != nil {
		out.Error("sampling failed", err.Error())
		var srcErr *sampler.SourceError
		if errors.As(err, &srcErr) {
			return WrapExitError(ExitFailure, "sampling failed", err)
		}
		return WrapExitError(ExitCommandError, "sampling failed", err)
	}

	persisted := false
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			out.Error("failed to open database", err.Error())
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		if err := st.WriteBatch(cmd.Context(), s.Name, model.Params, batch); err != nil {
			out.Error("failed to persist batch", err.Error())
			return WrapExitError(ExitCommandError, "failed to persist batch", err)
		}
		persisted = true
	}

	if opts.Format == "json" {
		return out.Success(sampleSummary{
			RunID:       batch.RunID,
			Scenario:    s.Name,
			NumRuptures: batch.NumRuptures,
			EBRuptures:  len(batch.EBRuptures),
			NumEvents:   batch.NumEvents,
			Persisted:   persisted,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d declared rupture(s), %d occurring, %d event(s)\n",
		batch.RunID, batch.NumRuptures, len(batch.EBRuptures), batch.NumEvents)
	if opts.Verbose {
		for _, ct := range batch.CalcTimes {
			fmt.Fprintf(&b, "  %s: %s\n", ct.SourceID, ct.Elapsed)
		}
		fmt.Fprintf(&b, "  contexts: %d in %s\n",
			mon.Sub("making contexts").Count(), mon.Sub("making contexts").Elapsed())
	}
	if persisted {
		fmt.Fprintf(&b, "Persisted to %s\n", opts.Database)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
