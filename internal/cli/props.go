package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/manifest"
	"github.com/spindle-dev/spindle/internal/props"
)

// PropsOptions holds flags for the props command.
type PropsOptions struct {
	*RootOptions
	Prop     string
	MaxPages int
}

// NewPropsCommand creates the props command: it resolves a manifest's
// props and pages through one prop's options provider.
func NewPropsCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	opts := &PropsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "props <manifest.yaml>",
		Short: "List the selectable options for a prop",
		Long: `Resolve a manifest's props and enumerate the options of one prop.

Options providers are paginated; pages are fetched until the provider
reports exhaustion or --max-pages is reached.

Example:
  spindle props ./deploy/webhook.yaml --prop channel`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProps(opts, reg, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prop, "prop", "", "prop name to enumerate (required)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 10, "page fetch limit")
	_ = cmd.MarkFlagRequired("prop")

	return cmd
}

func runProps(opts *PropsOptions, reg *component.Registry, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	m, err := manifest.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	def, ok := reg.Lookup(m.Owner, m.Component)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown component %q (registered: %v)", m.Component, reg.Names(m.Owner)))
	}

	resolved, err := props.Resolve(def.Props, m.Props)
	if err != nil {
		return WrapExitError(ExitFailure, "prop resolution failed", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var all []component.Option
	prevContext := ""
	for page := 0; page < opts.MaxPages; page++ {
		result, err := props.FetchOptionsPage(ctx, resolved, opts.Prop, page, prevContext)
		if err != nil {
			return WrapExitError(ExitFailure, "options fetch failed", err)
		}
		all = append(all, result.Options...)
		if props.Exhausted(result) {
			break
		}
		prevContext = result.NextPageToken
	}

	if opts.Format == "json" {
		return out.Success(all)
	}
	for _, o := range all {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", o.Label, o.Value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d option(s)\n", len(all))
	return nil
}
