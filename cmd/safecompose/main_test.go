package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stack = `services:
  web:
    image: nginx
    ports:
      - "8080:80"
    volumes:
      - ./html:/usr/share/nginx/html
`

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_NoMatchingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "no files found matching pattern")
	assert.Empty(t, listDir(t, dir))
}

func TestRun_MultipleMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("docker-compose.yml", []byte(stack), 0o644))
	require.NoError(t, os.WriteFile("compose.yaml", []byte(stack), 0o644))

	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "multiple files found")
	assert.ElementsMatch(t, []string{"compose.yaml", "docker-compose.yml"}, listDir(t, dir))
}

func TestRun_MissingLiteralPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-i", "stack.yml"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, listDir(t, dir))
}

func TestRun_InvalidVolumesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("docker-compose.yml", []byte(stack), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--volumes", "bogus"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "convert-to-named")
	assert.Equal(t, []string{"docker-compose.yml"}, listDir(t, dir))
}

func TestRun_WritesSafeFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("docker-compose.yml", []byte(stack), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--volumes", "convert-to-named"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, filepath.Join(dir, "docker-compose.safe.yml"))
	assert.Contains(t, stdout.String(), "WEB_PORT=80")

	for _, name := range []string{".env", ".safecompose.env"} {
		vars, err := godotenv.Read(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "80", vars["WEB_PORT"], name)
		assert.Regexp(t, `^web-[0-9a-f]{8}$`, vars["WEB_VOLUME"], name)
	}
}

func TestRun_KeepModeCustomOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("stack.yml", []byte(stack), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-i", "stack.yml", "-o", "out.yml", "--env-file", "", "--snapshot-file", "vars.env"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	data, err := os.ReadFile(filepath.Join(dir, "out.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "./html:/usr/share/nginx/html")
	assert.NoFileExists(t, filepath.Join(dir, ".env"))
	vars, err := godotenv.Read(filepath.Join(dir, "vars.env"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"WEB_PORT": "80"}, vars)
}
