package appconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the per-application settings file, read from the
// application directory.
const SettingsFile = "app.config.yaml"

// Manifest lists the applications a server process may run.
//
//	address: ":8080"
//	ops_address: ":9090"
//	app_path: ./app
//	apps:
//	  - name: shop
//	    hosts: [shop.example.com, "*.shop.example.com"]
//	    modules: [requestid, postgres, catalog]
//	    tags: [public]
//	    settings:
//	      postgres:
//	        url: ${DATABASE_URL}
type Manifest struct {
	Address    string `yaml:"address"`
	OpsAddress string `yaml:"ops_address"`
	AppPath    string `yaml:"app_path"`
	// SharedScopes lets applications in the same namespace share module
	// scopes. By default every application gets its own.
	SharedScopes bool  `yaml:"shared_scopes"`
	Apps         []App `yaml:"apps"`
}

// App describes one application of the manifest.
type App struct {
	Name    string   `yaml:"name"`
	Hosts   []string `yaml:"hosts"`
	Modules []string `yaml:"modules"`
	Arch    string   `yaml:"arch"`
	// Path is the application directory, relative to the manifest app_path.
	// Defaults to the application name.
	Path     string   `yaml:"path"`
	Tags     []string `yaml:"tags"`
	Settings Settings `yaml:"settings"`
}

// LoadManifest reads and validates a manifest file.
// ${VAR} references are expanded from the environment before parsing.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadManifest, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.AppPath != "" && !filepath.IsAbs(m.AppPath) {
		m.AppPath = filepath.Join(filepath.Dir(path), m.AppPath)
	}
	return m, nil
}

// ParseManifest parses and validates manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Join(ErrParseManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]struct{}, len(m.Apps))
	for i, a := range m.Apps {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return fmt.Errorf("%w: app #%d has no name", ErrInvalidManifest, i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: app %q declared twice", ErrInvalidManifest, name)
		}
		seen[name] = struct{}{}
		m.Apps[i].Name = name
	}
	return nil
}

// Select returns the applications carrying at least one of tags, in
// manifest order. No tags selects every application.
func (m *Manifest) Select(tags ...string) ([]App, error) {
	tags = slices.DeleteFunc(slices.Clone(tags), func(t string) bool { return strings.TrimSpace(t) == "" })

	var out []App
	for _, a := range m.Apps {
		if len(tags) == 0 || slices.ContainsFunc(a.Tags, func(t string) bool { return slices.Contains(tags, t) }) {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: tags %v", ErrNoApps, tags)
	}
	return out, nil
}

// Dir returns the application directory under root.
func (a App) Dir(root string) string {
	p := a.Path
	if p == "" {
		p = a.Name
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// LoadSettings returns the application settings: the settings file of the
// application directory, when present, overlaid with the manifest settings.
func (a App) LoadSettings(root string) (Settings, error) {
	base := Settings{}
	path := filepath.Join(a.Dir(root), SettingsFile)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errors.Join(ErrReadSettings, err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &base); err != nil {
			return nil, errors.Join(ErrReadSettings, fmt.Errorf("%s: %w", path, err))
		}
	}
	return base.Merge(a.Settings), nil
}
