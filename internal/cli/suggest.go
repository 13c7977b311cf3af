package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/apest/internal/client"
)

// Defaults for commands that call a server.
const (
	defaultServerURL = "http://localhost:9080"
	defaultTimeout   = 10 * time.Second
)

func newSuggestCommand() *cobra.Command {
	var (
		flags   teamFlags
		url     string
		church  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask a running server to suggest a team for a church",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params()
			if err != nil {
				return err
			}
			c := client.New(url, client.WithTimeout(timeout))
			team, err := c.SuggestTeam(cmd.Context(), church, params)
			if err != nil {
				return err
			}
			return printJSON(cmd, team)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&url, "url", "u", defaultServerURL, "base URL of the apest server")
	cmd.Flags().StringVar(&church, "church", "", "church identifier (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")
	_ = cmd.MarkFlagRequired("church")
	return cmd
}
