package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Scanner lists the local module directories under an application path.
type Scanner interface {
	LocalModules(appPath string) ([]string, error)
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(appPath string) ([]string, error)

func (f ScannerFunc) LocalModules(appPath string) ([]string, error) {
	return f(appPath)
}

// DirScanner lists the non-hidden subdirectories of Root/appPath.
type DirScanner struct {
	Root string
}

func (s DirScanner) LocalModules(appPath string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, appPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Join(ErrScanLocalModules, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Entry is one module placed in an application's composition.
type Entry struct {
	Module Module
	Config ModuleConfig
	Scope  *Scope
}

// CompositionList is the flattened module tree of one application,
// in root-first order.
type CompositionList []Entry

// RootFirst returns the entries parents before children.
func (l CompositionList) RootFirst() []Entry {
	return slices.Clone(l)
}

// LeafFirst returns the entries children before parents.
func (l CompositionList) LeafFirst() []Entry {
	out := slices.Clone(l)
	slices.Reverse(out)
	return out
}

// LeafFirstUnique returns LeafFirst with one entry per module name,
// keeping the deepest occurrence.
func (l CompositionList) LeafFirstUnique() []Entry {
	seen := make(map[string]struct{}, len(l))
	out := make([]Entry, 0, len(l))
	for _, e := range l.LeafFirst() {
		if _, ok := seen[e.Config.ModuleName]; ok {
			continue
		}
		seen[e.Config.ModuleName] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Names returns the module names in root-first order.
func (l CompositionList) Names() []string {
	names := make([]string, len(l))
	for i, e := range l {
		names[i] = e.Config.ModuleName
	}
	return names
}

// withScopes binds every entry to its scope in store.
func (l CompositionList) withScopes(store *ScopeStore) CompositionList {
	out := slices.Clone(l)
	for i := range out {
		out[i].Scope = store.Scope(out[i].Config.Namespace, out[i].Config.ScopeName)
	}
	return out
}

type entryKey struct {
	namespace string
	module    string
	appPath   string
}

// composition is the state of one Resolve call.
type composition struct {
	reg  *Registry
	scan Scanner
	seen map[entryKey]struct{}
	list CompositionList
}

type pendingSubs struct {
	cfg   ModuleConfig
	names []string
}

// Resolve flattens the module tree rooted at roots into a composition list.
// Each (namespace, module, appPath) triple appears once; the first placement
// wins. Siblings are placed before any of their submodules.
func Resolve(reg *Registry, roots []string, parent ModuleConfig, scan Scanner) (CompositionList, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrModuleNotFound)
	}
	c := &composition{
		reg:  reg,
		scan: scan,
		seen: make(map[entryKey]struct{}),
	}
	if err := c.walk(roots, parent); err != nil {
		return nil, err
	}
	return c.list, nil
}

func (c *composition) walk(names []string, parent ModuleConfig) error {
	var next []pendingSubs

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		m, ok := c.reg.Get(name)
		if !ok {
			if parent.ModuleName == "" {
				return fmt.Errorf("%w: %q in app %q", ErrModuleNotFound, name, parent.AppName)
			}
			return fmt.Errorf("%w: %q required by %q", ErrModuleNotFound, name, parent.ModuleName)
		}
		d := m.Descriptor()

		paths := []string{parent.AppPath}
		if d.AppPath != "" && d.AppPath != parent.AppPath {
			paths = append(paths, d.AppPath)
		}
		own := d.AppPath
		if own == "" {
			own = parent.AppPath
		}

		for _, p := range paths {
			local, err := c.localModules(parent, d, p)
			if err != nil {
				return err
			}
			cfg := parent.child(d, p, local)

			key := entryKey{namespace: cfg.Namespace, module: cfg.ModuleName, appPath: p}
			if _, dup := c.seen[key]; dup {
				continue
			}
			c.seen[key] = struct{}{}
			c.list = append(c.list, Entry{Module: m, Config: cfg})

			loadSubs := own == parent.AppPath || p != parent.AppPath
			if loadSubs && len(d.SubModules) > 0 {
				next = append(next, pendingSubs{cfg: cfg, names: d.SubModules})
			}
		}
	}

	for _, p := range next {
		if err := c.walk(p.names, p.cfg); err != nil {
			return err
		}
	}
	return nil
}

func (c *composition) localModules(parent ModuleConfig, d Descriptor, appPath string) ([]string, error) {
	if appPath == parent.AppPath {
		return parent.LocalModules, nil
	}
	if d.Arch != ArchModular || c.scan == nil {
		return nil, nil
	}
	return c.scan.LocalModules(appPath)
}
