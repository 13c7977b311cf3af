package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	"github.com/okian/apest/internal/domain/profile"
)

// teamFlags are shared by assemble and suggest.
type teamFlags struct {
	size     int
	balance  int
	priority string
}

func (f *teamFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.size, "size", "n", 0, "number of members to select (required)")
	cmd.Flags().IntVarP(&f.balance, "balance", "b", assembly.DefaultBalance, "balance factor in [0,100]; below 50 fills weak roles")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "role to over-represent (apostle, prophet, evangelist, shepherd, teacher)")
	_ = cmd.MarkFlagRequired("size")
}

func (f *teamFlags) params() (assembly.Params, error) {
	p := assembly.Params{Size: f.size, BalanceFactor: f.balance}
	if f.priority != "" {
		r, err := apest.ParseRole(f.priority)
		if err != nil {
			return assembly.Params{}, fmt.Errorf("%w: %w", ErrInput, err)
		}
		p.Priority = r
	}
	if err := p.Validate(); err != nil {
		return assembly.Params{}, err
	}
	return p, nil
}

type assembledTeam struct {
	Strategy  assembly.Strategy    `json:"strategy"`
	Requested int                  `json:"requested"`
	Members   []assembly.Candidate `json:"members"`
	Aggregate apest.Vector         `json:"aggregate"`
	Profile   profile.Profile      `json:"profile"`
}

func newAssembleCommand() *cobra.Command {
	var (
		flags teamFlags
		file  string
	)
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble a team from a candidate pool file",
		Long:  "Assemble reads a YAML/JSON list of candidates ({id, roles}) and prints the proposed team.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}
			var pool []assembly.Candidate
			if err := readYAML(cmd, file, &pool); err != nil {
				return err
			}
			for _, c := range pool {
				if err := c.Roles.Validate(); err != nil {
					return fmt.Errorf("%w: candidate %q: %w", ErrInput, c.ID, err)
				}
			}
			team, err := assembly.Assemble(pool, params)
			if err != nil {
				return err
			}
			return printJSON(cmd, assembledTeam{
				Strategy:  assembly.StrategyFor(params.BalanceFactor),
				Requested: params.Size,
				Members:   team.Members,
				Aggregate: team.Aggregate,
				Profile:   profile.Classify(team.Aggregate),
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "candidate pool file (- for stdin, required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
