package compose

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		pattern string
		want    string
		matches int
		wantErr bool
	}{
		{name: "single match", files: []string{"docker-compose.yml"}, want: "docker-compose.yml"},
		{name: "safe output ignored", files: []string{"docker-compose.yml", "docker-compose.safe.yml"}, want: "docker-compose.yml"},
		{name: "no match", files: []string{"README.md"}, wantErr: true},
		{name: "two matches", files: []string{"compose.yml", "docker-compose.yaml"}, matches: 2, wantErr: true},
		{name: "literal path", files: []string{"stack.yml"}, pattern: "stack.yml", want: "stack.yml"},
		{name: "missing literal", pattern: "stack.yml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), "services: {}\n")
			}
			t.Chdir(dir)

			got, err := Discover(tt.pattern)
			if tt.wantErr {
				var discErr *DiscoveryError
				require.ErrorAs(t, err, &discErr)
				assert.Len(t, discErr.Matches, tt.matches)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoveryError_Messages(t *testing.T) {
	assert.Equal(t, "no files found matching pattern: *.yml", (&DiscoveryError{Pattern: "*.yml"}).Error())
	assert.Equal(t, "multiple files found matching pattern *.yml: a.yml, b.yml",
		(&DiscoveryError{Pattern: "*.yml", Matches: []string{"a.yml", "b.yml"}}).Error())
}

func TestFindAndChoose(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"compose.override.yml", "docker-compose.yml", "docker-compose.safe.yml"} {
		writeFile(t, filepath.Join(dir, f), "services: {}\n")
	}

	matches, err := Find(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "compose.override.yml"),
		filepath.Join(dir, "docker-compose.yml"),
	}, matches)
	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), Choose(matches))
	assert.Equal(t, "", Choose(nil))
	assert.Equal(t, "a/x-compose.yml", Choose([]string{"a/x-compose.yml", "b/y-compose.yml"}))
}
