package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/apest/internal/domain/invite"
)

func newResolveCommand() *cobra.Command {
	var (
		code      string
		file      string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a typed invite code against a code list",
		Long:  "Resolve matches a code exactly, then ignoring case, then by fuzzy similarity against a YAML/JSON list of {entity_id, code}.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var index []invite.Entry
			if err := readYAML(cmd, file, &index); err != nil {
				return err
			}
			m := invite.NewMatcher(invite.WithThreshold(threshold))
			match, ok := m.Resolve(code, index)
			if !ok {
				return fmt.Errorf("%w: %q", ErrNoMatch, code)
			}
			return printJSON(cmd, match)
		},
	}
	cmd.Flags().StringVarP(&code, "code", "c", "", "code as typed by the user (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "known codes file (- for stdin, required)")
	cmd.Flags().Float64Var(&threshold, "threshold", invite.DefaultThreshold, "minimum fuzzy similarity score (exclusive, up to 1.75)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
