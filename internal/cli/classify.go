package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/profile"
)

func newClassifyCommand() *cobra.Command {
	var (
		file             string
		balancedBelow    float64
		specializedAbove float64
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a role vector into a profile",
		Long:  "Classify reads a role vector from per-role flags or a YAML/JSON file and prints its profile.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := vectorInput(cmd, file)
			if err != nil {
				return err
			}
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%w: %w", ErrInput, err)
			}
			c := profile.NewClassifier(profile.WithThresholds(balancedBelow, specializedAbove))
			return printJSON(cmd, struct {
				Roles apest.Vector `json:"roles"`
				profile.Profile
			}{Roles: v, Profile: c.Classify(v)})
		},
	}
	for _, r := range apest.Roles() {
		cmd.Flags().Float64(r.String(), 0, "score for the "+r.String()+" role")
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON role vector (- for stdin)")
	cmd.Flags().Float64Var(&balancedBelow, "balanced-below", profile.DefaultBalancedBelow, "dominance ratio under which a profile is balanced")
	cmd.Flags().Float64Var(&specializedAbove, "specialized-above", profile.DefaultSpecializedAbove, "dominance ratio above which a profile is specialized")
	return cmd
}

// vectorInput builds a vector from --file or from the per-role flags.
func vectorInput(cmd *cobra.Command, file string) (apest.Vector, error) {
	if file != "" {
		var v apest.Vector
		if err := readYAML(cmd, file, &v); err != nil {
			return apest.Vector{}, err
		}
		return v, nil
	}
	scores := make(map[string]float64)
	for _, r := range apest.Roles() {
		s, err := cmd.Flags().GetFloat64(r.String())
		if err != nil {
			return apest.Vector{}, fmt.Errorf("%w: %w", ErrInput, err)
		}
		scores[r.String()] = s
	}
	return apest.FromMap(scores), nil
}
