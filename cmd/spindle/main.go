package main

import (
	"fmt"
	"os"

	"github.com/spindle-dev/spindle/internal/builtin"
	"github.com/spindle-dev/spindle/internal/cli"
	"github.com/spindle-dev/spindle/internal/component"
)

func main() {
	reg := component.NewRegistry()
	if err := builtin.RegisterAll(reg, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}

	cmd := cli.NewRootCommand(reg)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
