package git

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// Uncommitted states reported by git status.
const (
	Untracked     = "untracked"
	Modified      = "modified"
	LocalDeletion = "deleted"
)

// FileChange is one file touched on a feature branch.
type FileChange struct {
	Path    string
	Status  string // "M", "A", "D"
	Added   int
	Deleted int
	// Uncommitted is empty, Untracked, Modified or LocalDeletion.
	Uncommitted string
}

// Changes summarises what a feature branch changed relative to its base.
type Changes struct {
	Branch  string
	Commits int
	Files   []FileChange
}

func (c Changes) Empty() bool { return len(c.Files) == 0 }

// Changes collects committed and uncommitted changes in dir since base.
// Only the name-status diff is required; the other queries are best effort.
func (c *Client) Changes(ctx context.Context, dir, base string) (Changes, error) {
	branch, _ := c.CurrentBranch(ctx, dir)

	nameStatus, err := c.output(ctx, dir, "diff", "--name-status", base+"...HEAD")
	if err != nil {
		return Changes{}, err
	}
	commits, _ := c.output(ctx, dir, "rev-list", "--count", base+"..HEAD")
	numstat, _ := c.output(ctx, dir, "diff", "--numstat", base+"...HEAD")
	porcelain, _ := c.raw(ctx, dir, "status", "--porcelain")

	changes := ParseChanges(nameStatus, numstat, porcelain)
	changes.Branch = branch
	changes.Commits, _ = strconv.Atoi(commits)
	return changes, nil
}

// ParseChanges merges `git diff --name-status`, `git diff --numstat` and
// `git status --porcelain` output into one sorted file list.
func ParseChanges(nameStatus, numstat, porcelain string) Changes {
	entries := make(map[string]*FileChange)

	for _, line := range lines(nameStatus) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		file := fields[len(fields)-1] // last field handles renames
		entries[file] = &FileChange{Path: file, Status: fields[0][:1]}
	}

	for _, line := range lines(numstat) {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if e, ok := entries[fields[len(fields)-1]]; ok {
			e.Added, _ = strconv.Atoi(fields[0])
			e.Deleted, _ = strconv.Atoi(fields[1])
		}
	}

	for _, line := range lines(porcelain) {
		if len(line) < 4 {
			continue
		}
		x, y := line[0], line[1]
		file := strings.TrimSpace(line[2:])
		if _, after, ok := strings.Cut(file, " -> "); ok {
			file = after
		}

		var status, state string
		switch {
		case x == '?' && y == '?':
			status, state = "A", Untracked
		case y == 'D':
			status, state = "D", LocalDeletion
		case x == 'M' || y == 'M':
			status, state = "M", Modified
		case x == 'A':
			status, state = "A", Untracked
		default:
			continue
		}
		if e, ok := entries[file]; ok {
			if x == 'A' {
				state = Modified
			}
			e.Uncommitted = state
			continue
		}
		entries[file] = &FileChange{Path: file, Status: status, Uncommitted: state}
	}

	var out Changes
	for _, e := range entries {
		out.Files = append(out.Files, *e)
	}
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })
	return out
}

func lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
