package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

// decode renders doc and reads it back as plain Go values.
func decode(t *testing.T, doc *Document) map[string]any {
	t.Helper()
	out, err := doc.Encode()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, yaml.Unmarshal(out, &m))
	return m
}

func svcOf(t *testing.T, m map[string]any, name string) map[string]any {
	t.Helper()
	services, ok := m["services"].(map[string]any)
	require.True(t, ok, "services missing")
	svc, ok := services[name].(map[string]any)
	require.True(t, ok, "service %s missing", name)
	return svc
}

func TestMakeMultiInstanceSafe_SinglePort(t *testing.T) {
	doc := mustParse(t, `
services:
  web:
    image: nginx
    ports:
      - "8080:80"
`)
	env := MakeMultiInstanceSafe(doc)

	assert.Equal(t, []string{"WEB_PORT=80"}, env.Lines())
	web := svcOf(t, decode(t, doc), "web")
	assert.Equal(t, []any{"${WEB_PORT:-80}:80"}, web["ports"])
}

func TestMakeMultiInstanceSafe_MultiplePortsIndexed(t *testing.T) {
	doc := mustParse(t, `
services:
  api:
    ports: ["8080:80", "8443:443"]
`)
	env := MakeMultiInstanceSafe(doc)

	assert.Equal(t, []string{"API_PORT_0", "API_PORT_1"}, env.Keys())
	assert.Equal(t, []string{"API_PORT_0=80", "API_PORT_1=443"}, env.Lines())
	api := svcOf(t, decode(t, doc), "api")
	assert.Equal(t, []any{"${API_PORT_0:-80}:80", "${API_PORT_1:-443}:443"}, api["ports"])
}

func TestMakeMultiInstanceSafe_PortForms(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		want    string
		wantEnv string
	}{
		{"bare number", "5432", "${DB_PORT:-5432}:5432", "5432"},
		{"bare string", `"5432"`, "${DB_PORT:-5432}:5432", "5432"},
		{"host ip", `"127.0.0.1:6543:5432"`, "${DB_PORT:-5432}:5432", "5432"},
		{"protocol", `"53:53/udp"`, "${DB_PORT:-53}:53/udp", "53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, "services:\n  db:\n    ports:\n      - "+tt.entry+"\n")
			env := MakeMultiInstanceSafe(doc)

			v, ok := env.Get("DB_PORT")
			require.True(t, ok)
			assert.Equal(t, tt.wantEnv, v)
			db := svcOf(t, decode(t, doc), "db")
			assert.Equal(t, []any{tt.want}, db["ports"])
		})
	}
}

func TestMakeMultiInstanceSafe_LongSyntax(t *testing.T) {
	doc := mustParse(t, `
services:
  web:
    ports:
      - target: 80
        published: 8080
        protocol: tcp
`)
	env := MakeMultiInstanceSafe(doc)

	assert.Equal(t, []string{"WEB_PORT=80"}, env.Lines())
	web := svcOf(t, decode(t, doc), "web")
	ports := web["ports"].([]any)
	require.Len(t, ports, 1)
	entry := ports[0].(map[string]any)
	assert.Equal(t, "${WEB_PORT:-80}", entry["published"])
	assert.Equal(t, 80, entry["target"])
}

func TestMakeMultiInstanceSafe_ServiceNameSanitized(t *testing.T) {
	doc := mustParse(t, `
services:
  my-app.v2:
    ports: ["3000:3000"]
`)
	env := MakeMultiInstanceSafe(doc)
	assert.Equal(t, []string{"MY_APP_V2_PORT"}, env.Keys())
}

func TestMakeMultiInstanceSafe_RemovesNamesAndNetworks(t *testing.T) {
	doc := mustParse(t, `
services:
  web:
    container_name: web
    networks: [front, default]
  worker:
    container_name: worker
    networks:
      back:
        aliases: [jobs]
networks:
  front: {}
  back:
    name: shared-back
`)
	env := MakeMultiInstanceSafe(doc)
	assert.Zero(t, env.Len())

	m := decode(t, doc)
	assert.NotContains(t, m, "networks")
	web := svcOf(t, m, "web")
	assert.NotContains(t, web, "container_name")
	assert.Equal(t, []any{"default"}, web["networks"])
	worker := svcOf(t, m, "worker")
	assert.NotContains(t, worker, "container_name")
	assert.NotContains(t, worker, "networks")
}

func TestMakeMultiInstanceSafe_NoOpWithoutKeys(t *testing.T) {
	src := "services:\n  web:\n    image: nginx\n"
	doc := mustParse(t, src)

	env := MakeMultiInstanceSafe(doc)

	assert.Zero(t, env.Len())
	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestTransformVolumes_ConvertToNamedDeterministic(t *testing.T) {
	src := `
services:
  db:
    image: postgres
    volumes:
      - ./data:/var/lib/data
`
	first := mustParse(t, src)
	env1, err := TransformVolumes(first, VolumesConvertToNamed)
	require.NoError(t, err)
	second := mustParse(t, src)
	env2, err := TransformVolumes(second, VolumesConvertToNamed)
	require.NoError(t, err)

	name, ok := env1.Get("DB_VOLUME")
	require.True(t, ok)
	assert.Equal(t, VolumeName("db", "./data:/var/lib/data"), name)
	assert.Regexp(t, `^db-[0-9a-f]{8}$`, name)
	assert.Equal(t, env1.Lines(), env2.Lines())

	m := decode(t, first)
	assert.Equal(t, []any{"${DB_VOLUME:-" + name + "}:/var/lib/data"}, svcOf(t, m, "db")["volumes"])
	top, ok := m["volumes"].(map[string]any)
	require.True(t, ok, "top-level volumes missing")
	assert.Contains(t, top, name)
	assert.Nil(t, top[name])
}

func TestTransformVolumes_MultipleMountsIndexed(t *testing.T) {
	doc := mustParse(t, `
services:
  app:
    volumes:
      - cache:/cache
      - ./src:/app/src:ro
      - /var/run/docker.sock:/var/run/docker.sock
volumes:
  cache:
`)
	env, err := TransformVolumes(doc, VolumesConvertToNamed)
	require.NoError(t, err)

	assert.Equal(t, []string{"APP_VOLUME_0", "APP_VOLUME_1"}, env.Keys())
	src, _ := env.Get("APP_VOLUME_0")
	sock, _ := env.Get("APP_VOLUME_1")

	m := decode(t, doc)
	assert.Equal(t, []any{
		"cache:/cache",
		"${APP_VOLUME_0:-" + src + "}:/app/src:ro",
		"${APP_VOLUME_1:-" + sock + "}:/var/run/docker.sock",
	}, svcOf(t, m, "app")["volumes"])

	top := m["volumes"].(map[string]any)
	assert.Len(t, top, 3)
	assert.Contains(t, top, "cache")
}

func TestTransformVolumes_TopLevelVolumesAppendedLast(t *testing.T) {
	doc := mustParse(t, `
services:
  db:
    volumes: ["./data:/data"]
networks:
  default: {}
`)
	_, err := TransformVolumes(doc, VolumesConvertToNamed)
	require.NoError(t, err)

	last := doc.root.Content[len(doc.root.Content)-2]
	assert.Equal(t, "volumes", last.Value)
}

func TestTransformVolumes_Remove(t *testing.T) {
	doc := mustParse(t, `
services:
  db:
    volumes:
      - ./data:/var/lib/data
      - named:/other
  web:
    image: nginx
volumes:
  named:
`)
	env, err := TransformVolumes(doc, VolumesRemove)
	require.NoError(t, err)

	assert.Zero(t, env.Len())
	m := decode(t, doc)
	assert.NotContains(t, m, "volumes")
	assert.NotContains(t, svcOf(t, m, "db"), "volumes")
}

func TestTransformVolumes_Keep(t *testing.T) {
	src := "services:\n  db:\n    volumes:\n      - ./data:/data\n"
	doc := mustParse(t, src)

	env, err := TransformVolumes(doc, VolumesKeep)
	require.NoError(t, err)

	assert.Zero(t, env.Len())
	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestTransformVolumes_InvalidMode(t *testing.T) {
	doc := mustParse(t, "services: {}\n")

	_, err := TransformVolumes(doc, VolumeMode("bogus"))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bogus", cfgErr.Value)
	assert.Contains(t, err.Error(), "convert-to-named")
}

func TestParseVolumeMode(t *testing.T) {
	m, err := ParseVolumeMode("remove")
	require.NoError(t, err)
	assert.Equal(t, VolumesRemove, m)

	_, err = ParseVolumeMode("")
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":    "",
		"sequence": "- a\n- b\n",
		"scalar":   "hello\n",
		"invalid":  "services: [\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestEncode_BlockStyleKeepsOrderAndComments(t *testing.T) {
	doc := mustParse(t, `# stack
version: "3.9"
services:
  web: {image: nginx, environment: [A=1]}
  db:
    image: postgres
`)
	out, err := doc.Encode()
	require.NoError(t, err)

	assert.Equal(t, `# stack
version: "3.9"
services:
  web:
    image: nginx
    environment:
      - A=1
  db:
    image: postgres
`, string(out))
}

const anchoredStack = `x-base: &base
  image: app
  container_name: shared
  ports:
    - "8080:80"
  volumes:
    - ./data:/data
services:
  api:
    <<: *base
    ports: &api-ports
      - "9000:9000"
  web:
    <<: *base
  worker:
    <<: *base
    ports: *api-ports
`

func TestMakeMultiInstanceSafe_MergeKeysAndAliases(t *testing.T) {
	doc := mustParse(t, anchoredStack)

	env := MakeMultiInstanceSafe(doc)

	assert.Equal(t, []string{"API_PORT=9000", "WEB_PORT=80", "WORKER_PORT=9000"}, env.Lines())
	m := decode(t, doc)
	for name, want := range map[string]string{
		"api":    "${API_PORT:-9000}:9000",
		"web":    "${WEB_PORT:-80}:80",
		"worker": "${WORKER_PORT:-9000}:9000",
	} {
		svc := svcOf(t, m, name)
		assert.Equal(t, []any{want}, svc["ports"], name)
		assert.NotContains(t, svc, "container_name", name)
		assert.Equal(t, "app", svc["image"], name)
	}

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<<")
	assert.NotContains(t, string(out), "*")
}

func TestTransformVolumes_MergedBindMountsPerService(t *testing.T) {
	doc := mustParse(t, anchoredStack)

	env, err := TransformVolumes(doc, VolumesConvertToNamed)
	require.NoError(t, err)

	assert.Equal(t, []string{"API_VOLUME", "WEB_VOLUME", "WORKER_VOLUME"}, env.Keys())
	web, _ := env.Get("WEB_VOLUME")
	worker, _ := env.Get("WORKER_VOLUME")
	assert.NotEqual(t, web, worker)

	m := decode(t, doc)
	assert.Equal(t, []any{"${WEB_VOLUME:-" + web + "}:/data"}, svcOf(t, m, "web")["volumes"])
	assert.Equal(t, []any{"${WORKER_VOLUME:-" + worker + "}:/data"}, svcOf(t, m, "worker")["volumes"])
}

func TestParse_MergeKeyPrecedence(t *testing.T) {
	doc := mustParse(t, `
x-a: &a {image: a, restart: always}
x-b: &b {image: b, command: run}
services:
  svc:
    <<: [*a, *b]
    restart: "no"
`)
	svc := svcOf(t, decode(t, doc), "svc")
	assert.Equal(t, "a", svc["image"])
	assert.Equal(t, "run", svc["command"])
	assert.Equal(t, "no", svc["restart"])
}

func TestParse_RejectsMergeOfScalar(t *testing.T) {
	_, err := Parse([]byte("x: &x hello\nservices:\n  web:\n    <<: *x\n"))
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
