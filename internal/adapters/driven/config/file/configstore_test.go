package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewConfigStore_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	store, err := NewConfigStore(path)

	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	_, ok := store.Get("run.dry_run")
	assert.False(t, ok)
}

func TestNewConfigStore_DefaultPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	path, err := DefaultPath()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".nvrbot", "config.toml"), path)
}

func TestConfigStore_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[wikidata]
api_url = "https://test.wikidata.org/w/api.php"

[ledger]
backend = "sqlite"
max_generations = 0

[run]
dry_run = true
published_date = 2021-03-01
reprocess_before = 1587918274951

[reference]
tables = ["data/forvaltare.json", "data/municipalities.yaml"]
`)

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, "https://test.wikidata.org/w/api.php", store.GetString("wikidata.api_url"))
	assert.Equal(t, "sqlite", store.GetString("ledger.backend"))
	assert.Equal(t, 0, store.GetInt("ledger.max_generations"))
	_, ok := store.Get("ledger.max_generations")
	assert.True(t, ok)
	assert.True(t, store.GetBool("run.dry_run"))
	assert.Equal(t, []string{"data/forvaltare.json", "data/municipalities.yaml"}, store.GetStringSlice("reference.tables"))

	raw, ok := store.Get("run.published_date")
	require.True(t, ok)
	date, ok := raw.(toml.LocalDate)
	require.True(t, ok, "got %T", raw)
	assert.Equal(t, "2021-03-01", date.String())

	ms, ok := store.Get("run.reprocess_before")
	require.True(t, ok)
	assert.Equal(t, int64(1587918274951), ms)
}

func TestConfigStore_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
auth:
  user_agent: test-agent
ratelimit:
  edits_per_minute: 12
run:
  sandbox_user: Alice
  published_date: "2021-03-01"
`)

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, "test-agent", store.GetString("auth.user_agent"))
	assert.Equal(t, 12, store.GetInt("ratelimit.edits_per_minute"))
	assert.Equal(t, "Alice", store.GetString("run.sandbox_user"))
	assert.Equal(t, "2021-03-01", store.GetString("run.published_date"))
}

func TestConfigStore_TypeMismatches(t *testing.T) {
	path := writeConfig(t, "config.toml", `
name = 12
count = "twelve"
flag = "yes"
list = "a"
when = 2021-03-01T10:00:00Z
`)

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	assert.Equal(t, "", store.GetString("name"))
	assert.Equal(t, 0, store.GetInt("count"))
	assert.False(t, store.GetBool("flag"))
	assert.Nil(t, store.GetStringSlice("list"))
	when, ok := store.Get("when")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC), when.(time.Time).UTC())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	store, err := NewConfigStore(writeConfig(t, "config.toml", ""))
	require.NoError(t, err)
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_InvalidFile(t *testing.T) {
	_, err := NewConfigStore(writeConfig(t, "config.toml", "[[[not toml"))
	assert.ErrorContains(t, err, "parse")

	_, err = NewConfigStore(writeConfig(t, "config.yml", "a: [unclosed"))
	assert.ErrorContains(t, err, "parse")
}

func TestConfigStore_Reload(t *testing.T) {
	path := writeConfig(t, "config.toml", `[run]
sandbox_user = "Alice"
`)
	store, err := NewConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, "Alice", store.GetString("run.sandbox_user"))

	require.NoError(t, os.WriteFile(path, []byte(`[run]
sandbox_user = "Bob"
`), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, "Bob", store.GetString("run.sandbox_user"))
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"e": true,
	}, "")
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flat)
}
