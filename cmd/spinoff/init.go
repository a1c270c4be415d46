package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/config"
	"github.com/zpdzap/spinoff/internal/workspace"
)

func initCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a spinoff config for the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir, err := os.Getwd()
			if err != nil {
				return err
			}
			return initProject(projectDir, stdout)
		},
	}
}

func initProject(projectDir string, stdout io.Writer) error {
	if config.Exists(projectDir) {
		fmt.Fprintln(stdout, "spinoff already initialized in this project.")
		return nil
	}

	detection := config.Detect(projectDir)
	cfg := config.Default()
	if len(detection.Services) > 0 {
		cfg.Docker.Services = detection.Services
	}
	if detection.ComposeFile != "" {
		cfg.Docker.ComposePattern = detection.ComposeFile
	}

	if err := config.Save(projectDir, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if err := updateGitignore(projectDir); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}

	fmt.Fprintf(stdout, "Initialized spinoff for %s (%s project)\n", filepath.Base(projectDir), detection.Language)
	fmt.Fprintf(stdout, "  Config: %s/%s\n", config.Dir, config.ConfigFile)
	if detection.ComposeFile != "" {
		fmt.Fprintf(stdout, "  Compose: %s (%s)\n", detection.ComposeFile, strings.Join(detection.Services, ", "))
	} else {
		fmt.Fprintln(stdout, "  Compose: none found, Docker will be skipped")
	}
	fmt.Fprintln(stdout, "\nRun `spinoff <feature>` to start a workspace.")
	return nil
}

func updateGitignore(projectDir string) error {
	gitignorePath := filepath.Join(projectDir, ".gitignore")

	entries := []string{
		workspace.DefaultWorkspacesDir + "/",
		compose.DefaultEnvFiles().Snapshot,
		"*" + compose.SafeSuffix,
	}

	existing, _ := os.ReadFile(gitignorePath)
	content := string(existing)

	var toAdd []string
	for _, entry := range entries {
		if !strings.Contains(content, entry) {
			toAdd = append(toAdd, entry)
		}
	}

	if len(toAdd) == 0 {
		return nil
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	content += "\n# spinoff\n"
	for _, entry := range toAdd {
		content += entry + "\n"
	}

	return os.WriteFile(gitignorePath, []byte(content), 0o644)
}
