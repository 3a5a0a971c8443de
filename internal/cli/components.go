package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spindle-dev/spindle/internal/component"
)

// NewComponentsCommand creates the components command: it lists the
// components registered under an owner scope.
func NewComponentsCommand(rootOpts *RootOptions, reg *component.Registry) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:           "components",
		Short:         "List registered components",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComponents(rootOpts, reg, owner, cmd)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner scope to list")
	return cmd
}

type componentInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Dedupe      string `json:"dedupe"`
	Props       int    `json:"props"`
}

func runComponents(opts *RootOptions, reg *component.Registry, owner string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	var infos []componentInfo
	for _, name := range reg.Names(owner) {
		def, ok := reg.Lookup(owner, name)
		if !ok {
			continue
		}
		infos = append(infos, componentInfo{
			Name:        name,
			Version:     def.Version,
			Description: def.Description,
			Dedupe:      string(def.Strategy()),
			Props:       len(def.Props),
		})
	}

	if opts.Format == "json" {
		return out.Success(infos)
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tdedupe=%s\tprops=%d\n",
			info.Name, info.Version, info.Dedupe, info.Props)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d component(s)\n", len(infos))
	return nil
}
