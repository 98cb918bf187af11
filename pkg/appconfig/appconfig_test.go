package appconfig_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/pkg/appconfig"
)

const manifest = `
address: ":8080"
app_path: app
apps:
  - name: shop
    hosts: [shop.example.com]
    modules: [requestid, catalog]
    tags: [public]
    settings:
      db:
        url: ${MOSAIC_TEST_DB}
        max_conns: 4
  - name: admin
    hosts: [admin.example.com]
    modules: [admin]
    arch: modular
    path: backoffice
    tags: [internal]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadManifest(t *testing.T) {
	t.Setenv("MOSAIC_TEST_DB", "postgres://localhost/shop")

	dir := t.TempDir()
	path := filepath.Join(dir, "apps.yaml")
	writeFile(t, path, manifest)

	m, err := appconfig.LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", m.Address)
	require.Equal(t, filepath.Join(dir, "app"), m.AppPath)
	require.Len(t, m.Apps, 2)

	shop := m.Apps[0]
	require.Equal(t, []string{"requestid", "catalog"}, shop.Modules)
	require.Equal(t, "postgres://localhost/shop", shop.Settings.String("db.url", ""))
	require.Equal(t, filepath.Join(dir, "app", "shop"), shop.Dir(m.AppPath))
	require.Equal(t, filepath.Join(dir, "app", "backoffice"), m.Apps[1].Dir(m.AppPath))
}

func TestParseManifest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"unknown field", "apps:\n  - name: a\n    hostz: [x]\n", appconfig.ErrParseManifest},
		{"missing name", "apps:\n  - hosts: [x]\n", appconfig.ErrInvalidManifest},
		{"duplicate name", "apps:\n  - name: a\n  - name: ' a '\n", appconfig.ErrInvalidManifest},
		{"not yaml", "apps: [", appconfig.ErrParseManifest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := appconfig.ParseManifest([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.err)
		})
	}

	_, err := appconfig.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, appconfig.ErrReadManifest)
}

func TestManifest_Select(t *testing.T) {
	t.Parallel()

	m, err := appconfig.ParseManifest([]byte(`
apps:
  - name: shop
    tags: [public, eu]
  - name: admin
    tags: [internal]
  - name: blog
    tags: [public]
`))
	require.NoError(t, err)

	names := func(apps []appconfig.App) []string {
		out := make([]string, len(apps))
		for i, a := range apps {
			out[i] = a.Name
		}
		return out
	}

	all, err := m.Select()
	require.NoError(t, err)
	require.Equal(t, []string{"shop", "admin", "blog"}, names(all))

	public, err := m.Select("public", "")
	require.NoError(t, err)
	require.Equal(t, []string{"shop", "blog"}, names(public))

	_, err = m.Select("nothing")
	require.ErrorIs(t, err, appconfig.ErrNoApps)
}

func TestApp_LoadSettings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shop", appconfig.SettingsFile), `
db:
  url: postgres://file/shop
  max_conns: 2
cache:
  default_ttl: 5m
`)

	a := appconfig.App{Name: "shop", Settings: appconfig.Settings{
		"db": map[string]any{"max_conns": 8},
	}}
	s, err := a.LoadSettings(root)
	require.NoError(t, err)
	require.Equal(t, "postgres://file/shop", s.String("db.url", ""))
	require.Equal(t, 8, s.Sub("db")["max_conns"])

	var cache struct {
		DefaultTTL time.Duration `mapstructure:"default_ttl"`
	}
	require.NoError(t, s.Decode("cache", &cache))
	require.Equal(t, 5*time.Minute, cache.DefaultTTL)

	none, err := appconfig.App{Name: "blog"}.LoadSettings(root)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSettings(t *testing.T) {
	t.Parallel()

	s := appconfig.Settings{
		"name": "shop",
		"port": 8080,
		"db":   map[string]any{"url": "postgres://x", "hosts": "a,b"},
	}

	v, ok := s.Get("db.url")
	require.True(t, ok)
	require.Equal(t, "postgres://x", v)

	_, ok = s.Get("db.url.deeper")
	require.False(t, ok)
	_, ok = s.Get("missing")
	require.False(t, ok)

	require.Equal(t, "8080", s.String("port", ""))
	require.Equal(t, "def", s.String("nope", "def"))

	var db struct {
		URL   string   `mapstructure:"url"`
		Hosts []string `mapstructure:"hosts"`
	}
	require.NoError(t, s.Decode("db", &db))
	require.Equal(t, "postgres://x", db.URL)
	require.Equal(t, []string{"a", "b"}, db.Hosts)

	var untouched struct{ URL string }
	untouched.URL = "keep"
	require.NoError(t, s.Decode("absent", &untouched))
	require.Equal(t, "keep", untouched.URL)

	var bad struct {
		Port bool `mapstructure:"port"`
	}
	require.ErrorIs(t, s.Decode("", &struct {
		Name []map[string]int `mapstructure:"name"`
	}{}), appconfig.ErrDecode)
	require.NoError(t, s.Decode("", &bad))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "MOSAIC_TEST_FROM_FILE=file\nMOSAIC_TEST_PRESET=file\n")
	t.Setenv("MOSAIC_TEST_PRESET", "env")

	require.NoError(t, appconfig.LoadEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "file", os.Getenv("MOSAIC_TEST_FROM_FILE"))
	require.Equal(t, "env", os.Getenv("MOSAIC_TEST_PRESET"))
	require.NoError(t, os.Unsetenv("MOSAIC_TEST_FROM_FILE"))
}
