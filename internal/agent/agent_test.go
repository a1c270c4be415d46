package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpdzap/spinoff/internal/execx"
	"github.com/zpdzap/spinoff/internal/testutil"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		prompt  string
		want    []string
		wantErr bool
	}{
		{"prompt appended", "claude-code", "add login", []string{"claude-code", "add login"}, false},
		{"no prompt", "claude-code", "", []string{"claude-code"}, false},
		{"flags kept", `claude --model "big one"`, "go", []string{"claude", "--model", "big one", "go"}, false},
		{"empty", "  ", "go", nil, true},
		{"unterminated quote", `claude "oops`, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Command(tt.command, tt.prompt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun(t *testing.T) {
	r := testutil.NewStubRunner()
	r.Stub("claude-code --yolo fix the bug", "", nil)

	err := (&Runner{Exec: r}).Run(context.Background(), "/ws", "claude-code --yolo", "fix the bug")

	require.NoError(t, err)
	call, ok := r.LastCall("claude-code")
	require.True(t, ok)
	assert.Equal(t, "/ws", call.Dir)
	assert.Equal(t, []string{"--yolo", "fix the bug"}, call.Args)
}

func TestRun_NonZeroExit(t *testing.T) {
	r := testutil.NewStubRunner()
	r.Stub("agent go", "", &execx.ExitError{Cmd: "agent go", Code: 2})

	err := (&Runner{Exec: r}).Run(context.Background(), "/ws", "agent", "go")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Equal(t, "agent", exitErr.Command)
}
