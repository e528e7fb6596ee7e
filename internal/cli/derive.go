package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/placar/internal/domain/lifecycle"
	"github.com/okian/placar/internal/domain/match"
	"github.com/okian/placar/internal/domain/visibility"
)

// DeriveCmd returns the derive command.
func DeriveCmd() *cobra.Command {
	var (
		configPath string
		modality   string
		hasScore   bool
		hasSets    bool
		sets       []string
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Show the field policy for a set of values",
		Long: `Derive the visibility, required and read-only state of every form field
from the given values, without opening a session.

Metadata comes from the configuration unless --has-score or --has-sets is
given, in which case only the named modality is described by the flags.

Examples:
  placar derive --modality futsal --set started=true --set team_a=X --set team_b=Y --set walkover=nao
  placar derive --modality rugby --has-score --set started=sim`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			if modality != "" {
				values[match.FieldModality] = modality
			}

			var meta match.Metadata
			if cmd.Flags().Changed("has-score") || cmd.Flags().Changed("has-sets") {
				meta = match.NewMetadata(match.Modality{ID: match.ModalityID(modality), HasScore: hasScore, HasSets: hasSets})
			} else {
				cfg, err := loadConfig(cmd.Context(), configPath)
				if err != nil {
					return err
				}
				meta = cfg.Metadata()
			}

			printPolicy(cmd.OutOrStdout(), values, meta)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file for modality metadata")
	cmd.Flags().StringVarP(&modality, "modality", "m", "", "modality id")
	cmd.Flags().BoolVar(&hasScore, "has-score", false, "the modality keeps a score")
	cmd.Flags().BoolVar(&hasSets, "has-sets", false, "the modality keeps per-set scores")
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "field=value, repeatable")
	return cmd
}

// parseAssignments turns field=value pairs into form values.
func parseAssignments(pairs []string) (map[match.Field]string, error) {
	values := make(map[match.Field]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want field=value", p)
		}
		f, err := match.ParseField(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		values[f] = value
	}
	return values, nil
}

func printPolicy(w io.Writer, values map[match.Field]string, meta match.Metadata) {
	snap := match.ReadValues(values)
	policy := visibility.Derive(snap, meta)
	state := lifecycle.Classify(snap, meta)

	fmt.Fprintf(w, "State: %s\n", color.New(color.FgCyan, color.Bold).Sprint(state))
	if next := lifecycle.Next(state); len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		fmt.Fprintf(w, "Next:  %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)

	for _, f := range match.ManagedFields {
		st := policy.State(f)
		fmt.Fprintf(w, "  %-16s %s  %s\n", f, stateLabel(st), values[f])
	}

	if extra := unmanaged(values); len(extra) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Also set: %s\n", strings.Join(extra, ", "))
	}
}

func stateLabel(st visibility.FieldState) string {
	label := fmt.Sprintf("%-26s", st.String())
	switch {
	case !st.Visible:
		return color.New(color.FgHiBlack).Sprint(label)
	case st.ReadOnly:
		return color.New(color.FgYellow).Sprint(label)
	case st.Required:
		return color.New(color.FgGreen, color.Bold).Sprint(label)
	default:
		return color.New(color.FgGreen).Sprint(label)
	}
}

func unmanaged(values map[match.Field]string) []string {
	var out []string
	for f := range values {
		if !f.Managed() {
			out = append(out, string(f))
		}
	}
	sort.Strings(out)
	return out
}
