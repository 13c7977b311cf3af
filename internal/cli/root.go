// Package cli implements the apestctl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/apest/pkg/logger"
)

// stdinPath makes file flags read standard input.
const stdinPath = "-"

// NewRootCommand assembles apestctl and its subcommands.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "apestctl",
		Short:         "apestctl classifies role profiles and assembles teams",
		Long:          "apestctl runs the APEST classifier, team assembly and invite-code matching offline, and talks to a running apest server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("log-format", "text", "log format for progress output (text or json)")

	root.AddCommand(
		newClassifyCommand(),
		newAssembleCommand(),
		newResolveCommand(),
		newSeedCommand(),
		newSuggestCommand(),
		newVersionCommand(),
	)
	return root
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// readYAML decodes a YAML (or JSON) document from path into v.
func readYAML(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == stdinPath {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInput, err)
		}
		defer f.Close()
		r = f
	}
	if err := yaml.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrInput, path, err)
	}
	return nil
}

// progressLogger writes structured progress to stderr.
func progressLogger(cmd *cobra.Command) (logger.Logger, error) {
	format, _ := cmd.Flags().GetString("log-format")
	return logger.New(cmd.ErrOrStderr(), format)
}
