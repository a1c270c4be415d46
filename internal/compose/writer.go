package compose

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zpdzap/spinoff/internal/ui"
)

// Marker precedes every block of generated variables in the env files.
const Marker = "# Generated by safecompose"

// SafeSuffix is the extension of rewritten compose files.
const SafeSuffix = ".safe.yml"

// EnvFiles names the files generated variables are published to.
type EnvFiles struct {
	// Shared is appended to and never truncated.
	Shared string
	// Snapshot is rewritten with only the latest run's variables.
	Snapshot string
}

// DefaultEnvFiles targets .env and .safecompose.env in the working directory.
func DefaultEnvFiles() EnvFiles {
	return EnvFiles{Shared: ".env", Snapshot: ".safecompose.env"}
}

// In resolves relative targets against dir.
func (f EnvFiles) In(dir string) EnvFiles {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	return EnvFiles{Shared: resolve(f.Shared), Snapshot: resolve(f.Snapshot)}
}

// Writer rewrites compose files on disk.
type Writer struct {
	Files EnvFiles
	Log   *ui.Logger
}

// Result describes one Safeify run.
type Result struct {
	Output  string
	Volumes *EnvVars
	Ports   *EnvVars
	// Env holds volume variables followed by port variables.
	Env *EnvVars
}

// DefaultOutputPath returns "<stem>.safe.yml" next to input.
func DefaultOutputPath(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), stem+SafeSuffix)
}

// Safeify rewrites input for multi-instance use and writes it to output
// (DefaultOutputPath when empty). Generated variables are published to the
// configured env files.
func (w *Writer) Safeify(input string, mode VolumeMode, output string) (*Result, error) {
	if !mode.Valid() {
		return nil, volumeModeError(string(mode))
	}
	if output == "" {
		output = DefaultOutputPath(input)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("reading compose file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = input
		}
		return nil, err
	}

	volumes, err := TransformVolumes(doc, mode)
	if err != nil {
		return nil, err
	}
	ports := MakeMultiInstanceSafe(doc)

	env := NewEnvVars()
	env.Merge(volumes)
	env.Merge(ports)

	out, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", output, err)
	}
	w.Log.Stepf("Wrote %s", output)

	if err := w.PublishEnv(env); err != nil {
		return nil, err
	}
	return &Result{Output: output, Volumes: volumes, Ports: ports, Env: env}, nil
}

// PublishEnv appends env to the shared file and replaces the snapshot.
// Nothing is written when env is empty.
func (w *Writer) PublishEnv(env *EnvVars) error {
	if env.Len() == 0 {
		return nil
	}
	block := strings.Join(env.Lines(), "\n") + "\n"

	if w.Files.Shared != "" {
		f, err := os.OpenFile(w.Files.Shared, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", w.Files.Shared, err)
		}
		_, err = f.WriteString("\n" + Marker + "\n" + block)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("appending to %s: %w", w.Files.Shared, err)
		}
		w.Log.Stepf("Appended %d variable%s to %s", env.Len(), ui.Plural(env.Len()), w.Files.Shared)
	}

	if w.Files.Snapshot != "" {
		if err := WriteSnapshot(w.Files.Snapshot, env); err != nil {
			return err
		}
		w.Log.Stepf("Wrote %s", w.Files.Snapshot)
	}
	return nil
}

// WriteSnapshot truncates path and writes the marker and env to it.
func WriteSnapshot(path string, env *EnvVars) error {
	content := Marker + "\n" + strings.Join(env.Lines(), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
