package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/placar/internal/scenario"
	"github.com/okian/placar/pkg/logger"
)

// ErrScenariosFailed is returned when any replayed expectation did not hold.
var ErrScenariosFailed = errors.New("scenarios failed")

// ReplayCmd returns the replay command.
func ReplayCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay <file-or-dir>...",
		Short: "Replay scripted form sessions and check their expectations",
		Long: `Replay YAML scenarios against an in-memory form. Each step writes one
field, answers any confirmation prompt with the step's confirm value and
checks the resulting field policy, lifecycle state, alerts and prompts.

Directories are expanded to their *.yaml files. The command exits non-zero
when any expectation fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := scenario.LoadAll(args...)
			if err != nil {
				return err
			}

			var opts []scenario.Option
			if verbose {
				if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
					return err
				}
				_ = logger.SetLevelString("debug")
				opts = append(opts, scenario.WithLogger(logger.Get().Named("replay")))
			}
			return replay(cmd, scenarios, verbose, opts...)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every step and log controller decisions")
	return cmd
}

func replay(cmd *cobra.Command, scenarios []*scenario.Scenario, verbose bool, opts ...scenario.Option) error {
	w := cmd.OutOrStdout()
	failed := 0
	for _, s := range scenarios {
		rep, err := scenario.Run(cmd.Context(), s, opts...)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Path(), err)
		}
		printReport(w, rep, verbose)
		if !rep.Passed() {
			failed++
		}
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d scenarios, %d passed, %d failed", len(scenarios), len(scenarios)-failed, failed)
	if failed > 0 {
		fmt.Fprintln(w, color.New(color.FgRed, color.Bold).Sprint(summary))
		return fmt.Errorf("%w: %d of %d", ErrScenariosFailed, failed, len(scenarios))
	}
	fmt.Fprintln(w, color.New(color.FgGreen, color.Bold).Sprint(summary))
	return nil
}

func printReport(w io.Writer, rep scenario.Report, verbose bool) {
	mark := color.New(color.FgGreen).Sprint("PASS")
	if !rep.Passed() {
		mark = color.New(color.FgRed).Sprint("FAIL")
	}
	fmt.Fprintf(w, "%s %s\n", mark, rep.Name)

	if verbose || len(rep.Initial.Failures) > 0 {
		fmt.Fprintf(w, "    initial  %s\n", color.New(color.FgCyan).Sprint(rep.Initial.State))
		printFailures(w, rep.Initial.Failures)
	}
	for _, st := range rep.Steps {
		if !verbose && len(st.Failures) == 0 {
			continue
		}
		fmt.Fprintf(w, "    step %-3d %s=%q -> %s %s\n",
			st.Index, st.Field, st.Value, st.Outcome, color.New(color.FgCyan).Sprint(st.State))
		for _, p := range st.Prompts {
			fmt.Fprintf(w, "             prompt %s: %s\n", p.Kind, p.Message)
		}
		for _, a := range st.Alerts {
			fmt.Fprintf(w, "             alert: %s\n", color.New(color.FgYellow).Sprint(a))
		}
		printFailures(w, st.Failures)
	}
}

func printFailures(w io.Writer, failures []string) {
	for _, f := range failures {
		fmt.Fprintf(w, "             %s %s\n", color.New(color.FgRed).Sprint("✗"), f)
	}
}
