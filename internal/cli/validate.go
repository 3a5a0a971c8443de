package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/manifest"
	"github.com/spindle-dev/spindle/internal/props"
)

// NewValidateCommand creates the validate command: it checks a
// manifest against its component's prop schema without running
// anything.
func NewValidateCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest.yaml>",
		Short: "Validate a deployment manifest",
		Long: `Validate a deployment manifest without deploying it.

The manifest is schema-checked, the named component must exist in the
registry, and the supplied prop values must resolve against the
component's prop schema.

Example:
  spindle validate ./deploy/heartbeat.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, reg, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, reg *component.Registry, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	m, err := manifest.Load(path)
	if err != nil {
		out.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "manifest invalid", err)
	}

	def, ok := reg.Lookup(m.Owner, m.Component)
	if !ok {
		msg := fmt.Sprintf("unknown component %q (registered: %v)", m.Component, reg.Names(m.Owner))
		out.Error("E404", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	resolved, err := props.Resolve(def.Props, m.Props)
	if err != nil {
		out.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "prop resolution failed", err)
	}

	return out.Success(map[string]any{
		"component": def.Name,
		"instance":  m.Instance,
		"props":     resolved.Names(),
	})
}

// errorCode surfaces the stable code carried by typed errors, falling
// back to a generic code.
func errorCode(err error) string {
	var mErr *manifest.Error
	if errors.As(err, &mErr) {
		return mErr.Code
	}
	var rErr *props.ResolutionError
	if errors.As(err, &rErr) {
		return string(rErr.Code)
	}
	return "E001"
}
