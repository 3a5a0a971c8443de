// Package cli implements the spindle command line interface: manifest
// validation, instance execution, and options inspection against a
// registry of built-in components.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/component"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. All subcommands resolve
// component names against the given registry.
func NewRootCommand(reg *component.Registry) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "spindle",
		Short: "Spindle component runtime",
		Long:  "Runs trigger-driven components with declarative props, dedupe, and durable per-instance state.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts, reg))
	cmd.AddCommand(NewRunCommand(opts, reg))
	cmd.AddCommand(NewPropsCommand(opts, reg))
	cmd.AddCommand(NewComponentsCommand(opts, reg))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
