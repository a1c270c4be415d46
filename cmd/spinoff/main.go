package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpdzap/spinoff/internal/agent"
	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/config"
	"github.com/zpdzap/spinoff/internal/execx"
	"github.com/zpdzap/spinoff/internal/tui"
	"github.com/zpdzap/spinoff/internal/ui"
	"github.com/zpdzap/spinoff/internal/workspace"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// reportedError marks a failure the workspace manager already logged.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func run(args []string, stdout, stderr io.Writer) int {
	// cobra falls back to os.Args for nil args
	if args == nil {
		args = []string{}
	}
	log := ui.NewLogger(stderr)
	root := rootCmd(log, stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		log.Errorf("%v", err)
	}
	return execx.ExitCode(err, 1)
}

func rootCmd(log *ui.Logger, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "spinoff <feature>",
		Short:         "Run a coding agent on a feature in a throwaway copy of the repository",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeature(cmd, args[0], log, stdout)
		},
	}

	f := root.Flags()
	f.StringP("input-dir", "i", "", "source repository (default: git top level of the current directory)")
	f.StringP("agent", "a", agent.DefaultCommand, "agent command line; the prompt is appended")
	f.StringSliceP("docker-services", "d", []string{"all"}, `services to start: "all", "none" or a comma separated list`)
	f.StringP("prompt", "p", "", "prompt passed to the agent")
	f.String("volumes", string(compose.VolumesConvertToNamed), "bind mount handling: remove, keep or convert-to-named")
	f.String("compose-pattern", compose.DefaultPattern, "glob used to find the compose file")
	f.Bool("fail-on-agent-error", false, "exit with the agent's status when it fails")
	f.Bool("free-ports", false, "publish services on free host ports instead of the container ports")
	root.PersistentFlags().String("workspaces-dir", "./"+workspace.DefaultWorkspacesDir, "where workspaces are created (env "+config.EnvWorkspacesDir+")")

	root.AddCommand(initCmd(stdout), lsCmd(log), pruneCmd(log, stdout))
	return root
}

// projectDir is where .spinoff/config.yaml is looked up.
func projectDir(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("input-dir"); f != nil && f.Value.String() != "" {
		return f.Value.String(), nil
	}
	return os.Getwd()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, err := projectDir(cmd)
	if err != nil {
		return nil, err
	}
	return config.Load(dir, cmd.Flags())
}

func runFeature(cmd *cobra.Command, feature string, log *ui.Logger, stdout io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	inputDir, _ := cmd.Flags().GetString("input-dir")
	opts, err := cfg.Options(feature, inputDir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(cmd.Context())
	defer cancel(nil)
	signals := workspace.NewSignalHandler(cancel, log)
	signals.Start()
	defer signals.Stop()

	mgr := workspace.NewManager(execx.OSRunner{}, log)
	mgr.Out = stdout
	ws, err := mgr.Run(ctx, opts)
	if err != nil && ws != nil {
		return &reportedError{err: err}
	}
	return err
}

func lsCmd(log *ui.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Browse, open and stop running workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mgr := workspace.NewManager(execx.OSRunner{}, log)
			files := compose.EnvFiles{Shared: cfg.Env.Shared, Snapshot: cfg.Env.Snapshot}
			return tui.Run(cmd.Context(), mgr, cfg.Workspaces.Dir, files)
		},
	}
}

func pruneCmd(log *ui.Logger, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Tear down workspaces whose spinoff process is gone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mgr := workspace.NewManager(execx.OSRunner{}, log)
			removed, err := mgr.Prune(cmd.Context(), cfg.Workspaces.Dir)
			for _, ws := range removed {
				fmt.Fprintf(stdout, "Removed %s\n", ws.ID)
			}
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintln(stdout, "Nothing to prune.")
			}
			return nil
		},
	}
}
