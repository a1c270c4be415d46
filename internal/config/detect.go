package config

import (
	"os"
	"path/filepath"

	"github.com/zpdzap/spinoff/internal/compose"
)

type Detection struct {
	Language    string
	ComposeFile string
	Services    []string
}

// Detect inspects the project directory for its language and compose stack.
func Detect(projectDir string) Detection {
	checks := []struct {
		file     string
		language string
	}{
		{"go.mod", "go"},
		{"package.json", "node"},
		{"requirements.txt", "python"},
		{"Cargo.toml", "rust"},
		{"pyproject.toml", "python"},
	}

	det := Detection{Language: "unknown"}
	for _, c := range checks {
		if _, err := os.Stat(filepath.Join(projectDir, c.file)); err == nil {
			det.Language = c.language
			break
		}
	}

	matches, err := compose.Find(projectDir, compose.DefaultPattern)
	if err != nil || len(matches) == 0 {
		return det
	}
	det.ComposeFile = filepath.Base(compose.Choose(matches))

	data, err := os.ReadFile(filepath.Join(projectDir, det.ComposeFile))
	if err != nil {
		return det
	}
	if doc, err := compose.Parse(data); err == nil {
		det.Services = doc.Services()
	}
	return det
}
