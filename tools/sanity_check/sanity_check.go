// Package sanity_check reports the tool versions and whether the external
// programs the tools shell out to can be found.
package sanity_check

import (
	"fmt"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"molluscdb_ops/app"
	"molluscdb_ops/config"
)

// LookPath is swapped out in tests.
var LookPath = exec.LookPath

func NewCommand(env *app.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run diagnostic test",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Execute(cmd, args, func() error { return Run(env) })
		},
	}
}

// Binaries lists the programs the tools invoke, as configured.
func Binaries(s *config.Settings) []string {
	genomehubs := s.Genomehubs.Binary
	if genomehubs == "" {
		genomehubs = "genomehubs"
	}
	scp := s.Execution.ScpBinary
	if scp == "" {
		scp = "scp"
	}
	return []string{genomehubs, scp}
}

// Run prints a status line per binary and fails when any is missing.
func Run(env *app.Env) error {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)

	fmt.Fprintf(env.Out, "Successfully running molluscdb_ops! (%s)\n", config.Main_version)
	var missing []string
	for _, bin := range Binaries(env.Settings) {
		path, err := LookPath(bin)
		if err != nil {
			bad.Fprint(env.Out, "  missing ")
			fmt.Fprintf(env.Out, "%s\n", bin)
			missing = append(missing, bin)
			continue
		}
		ok.Fprint(env.Out, "  found   ")
		fmt.Fprintf(env.Out, "%s (%s)\n", bin, path)
	}
	if len(missing) > 0 {
		return fmt.Errorf("required programs not on PATH: %v", missing)
	}
	return nil
}
