// Package workspace runs one feature in an isolated copy of a repository:
// copy, branch, bring up a private compose stack, run the agent, and always
// tear everything down again.
package workspace

import (
	"fmt"
	"sync"
	"time"
)

// Stage is how far a workspace got through its lifecycle.
type Stage string

const (
	StageStart         Stage = "start"
	StageCopied        Stage = "copied"
	StageBranched      Stage = "branched"
	StageDockerUp      Stage = "docker-up"
	StageDockerSkipped Stage = "docker-skipped"
	StageAgentRunning  Stage = "agent-running"
	StageDone          Stage = "done"
	StageCleaned       Stage = "cleaned"
)

// Workspace is one isolated run. It owns its directory and its compose
// project; both are removed by teardown.
type Workspace struct {
	ID            string    `json:"id"`
	Feature       string    `json:"feature"`
	Path          string    `json:"path"`
	WorkspacesDir string    `json:"workspaces_dir"`
	SourceRoot    string    `json:"source_root"`
	Branch        string    `json:"branch"`
	BaseBranch    string    `json:"base_branch"`
	Project       string    `json:"project"`
	ComposeFile   string    `json:"compose_file,omitempty"`
	DockerStarted bool      `json:"docker_started"`
	Stage         Stage     `json:"stage"`
	PID           int       `json:"pid"`
	CreatedAt     time.Time `json:"created_at"`

	// foreign is set when Path already existed and so is not ours to remove.
	foreign      bool
	teardownOnce sync.Once
	teardownErr  error
}

// NewID returns "<feature>_<unix seconds>_<pid>".
func NewID(feature string, now time.Time, pid int) string {
	return fmt.Sprintf("%s_%d_%d", feature, now.Unix(), pid)
}
