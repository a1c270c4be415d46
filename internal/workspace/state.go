package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RecordDir holds one JSON record per live workspace inside the workspaces
// directory. One file per workspace lets concurrent runs write without
// coordinating.
const RecordDir = ".spinoff"

func recordPath(workspacesDir, id string) string {
	return filepath.Join(workspacesDir, RecordDir, id+".json")
}

func saveRecord(ws *Workspace) error {
	dir := filepath.Join(ws.WorkspacesDir, RecordDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating record dir: %w", err)
	}
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	path := recordPath(ws.WorkspacesDir, ws.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return os.Rename(tmp, path)
}

func removeRecord(ws *Workspace) error {
	err := os.Remove(recordPath(ws.WorkspacesDir, ws.ID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadRecords returns the workspaces recorded under workspacesDir, oldest
// first. A missing directory yields no records; unreadable records are skipped.
func LoadRecords(workspacesDir string) ([]*Workspace, error) {
	entries, err := os.ReadDir(filepath.Join(workspacesDir, RecordDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var out []*Workspace
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(workspacesDir, RecordDir, e.Name()))
		if err != nil {
			continue
		}
		var ws Workspace
		if err := json.Unmarshal(data, &ws); err != nil {
			continue
		}
		out = append(out, &ws)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
