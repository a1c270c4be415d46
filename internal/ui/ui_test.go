package ui

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zpdzap/spinoff/internal/git"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf)

	log.Infof("copying %s", "repo")
	log.Warnf("no compose file")
	log.Errorf("boom")
	log.Stepf("done")
	log.Stagef("Stage %d", 2)

	lines := strings.Split(strings.TrimSpace(plain(buf.String())), "\n")
	assert.Len(t, lines, 5)
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2} INFO copying repo$`, lines[0])
	assert.Contains(t, lines[1], "WARN no compose file")
	assert.Contains(t, lines[2], "ERROR boom")
	assert.Contains(t, lines[3], "✓ done")
	assert.Contains(t, lines[4], "=== Stage 2 ===")
}

func TestLogger_NilIsNoop(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() {
		log.Infof("x")
		log.Stagef("y")
	})
}

func TestRenderChanges(t *testing.T) {
	c := git.Changes{
		Commits: 2,
		Files: []git.FileChange{
			{Path: "README.md", Status: "M", Added: 1, Deleted: 2},
			{Path: "src/api/handler.go", Status: "A", Added: 10},
			{Path: "src/main.go", Status: "M", Uncommitted: git.Modified},
		},
	}

	out := plain(RenderChanges("feat/login", c))

	assert.Equal(t, strings.Join([]string{
		"feat/login  2 commits",
		"├── src/",
		"│   ├── api/",
		"│   │   └── handler.go new  +10",
		"│   └── main.go ⚠ uncommitted changes",
		"└── README.md  +1 -2",
		"",
		"3 files changed, +11, -2",
		"⚠ 1 file with uncommitted changes",
	}, "\n"), out)
}

func TestRenderChanges_Empty(t *testing.T) {
	assert.Equal(t, "[feat/x] No changes yet", RenderChanges("feat/x", git.Changes{}))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, "Done", []Field{{"Branch", "feat/x"}, {"Skipped", ""}}, "")

	out := plain(buf.String())
	assert.Contains(t, out, "Done")
	assert.Contains(t, out, "feat/x")
	assert.NotContains(t, out, "Skipped")
}
