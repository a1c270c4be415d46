// Command safecompose rewrites a docker compose file so several copies of the
// stack can run on one host, and publishes the variables it introduces.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	// cobra falls back to os.Args for nil args
	if args == nil {
		args = []string{}
	}
	log := ui.NewLogger(stderr)
	cmd := rootCmd(log, stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		log.Errorf("%v", err)
		return 1
	}
	return 0
}

func rootCmd(log *ui.Logger, stdout io.Writer) *cobra.Command {
	var (
		input    string
		volumes  string
		output   string
		envFile  string
		snapshot string
	)
	modes := make([]string, len(compose.VolumeModes))
	for i, m := range compose.VolumeModes {
		modes[i] = string(m)
	}

	cmd := &cobra.Command{
		Use:           "safecompose",
		Short:         "Make a docker compose file safe to run several times side by side",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := compose.ParseVolumeMode(volumes)
			if err != nil {
				return err
			}
			path, err := compose.Discover(input)
			if err != nil {
				return err
			}

			w := &compose.Writer{
				Files: compose.EnvFiles{Shared: envFile, Snapshot: snapshot},
				Log:   log,
			}
			res, err := w.Safeify(path, mode, output)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Safe compose file: %s\n", res.Output)
			if res.Env.Len() == 0 {
				fmt.Fprintln(stdout, "No variables generated.")
				return nil
			}
			var targets []string
			for _, f := range []string{envFile, snapshot} {
				if f != "" {
					targets = append(targets, f)
				}
			}
			fmt.Fprintf(stdout, "Variables (%s):\n", strings.Join(targets, ", "))
			for _, line := range res.Env.Lines() {
				fmt.Fprintf(stdout, "  %s\n", line)
			}
			fmt.Fprintf(stdout, "Run: docker compose -f %s up\n", res.Output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", compose.DefaultPattern, "compose file or glob; must match exactly one file")
	f.StringVar(&volumes, "volumes", string(compose.VolumesKeep), "bind mount handling: "+strings.Join(modes, ", "))
	f.StringVarP(&output, "output", "o", "", "output path (default <input stem>"+compose.SafeSuffix+")")
	f.StringVar(&envFile, "env-file", compose.DefaultEnvFiles().Shared, "env file the variables are appended to")
	f.StringVar(&snapshot, "snapshot-file", compose.DefaultEnvFiles().Snapshot, "env file replaced with this run's variables")
	return cmd
}
