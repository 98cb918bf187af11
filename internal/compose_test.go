package internal_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
)

func mod(name string, subs ...string) internal.Module {
	return internal.Define(internal.Definition{Name: name, SubModules: subs})
}

func newRegistry(t *testing.T, mods ...internal.Module) *internal.Registry {
	t.Helper()
	reg, err := internal.NewRegistry(mods...)
	require.NoError(t, err)
	return reg
}

func rootConfig() internal.ModuleConfig {
	return internal.ModuleConfig{AppName: "shop", Build: "b1", AppPath: "app"}
}

func TestResolve_Order(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t,
		mod("a", "c"),
		mod("b", "d"),
		mod("c", "e"),
		mod("d"),
		mod("e"),
	)

	list, err := internal.Resolve(reg, []string{"a", "b"}, rootConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "e", "d"}, list.Names(), "siblings first, then each subtree in turn")

	leaf := make([]string, 0, len(list))
	for _, e := range list.LeafFirst() {
		leaf = append(leaf, e.Config.ModuleName)
	}
	require.Equal(t, []string{"d", "e", "c", "b", "a"}, leaf)
}

func TestResolve_DerivedConfig(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t,
		internal.Define(internal.Definition{Name: "tenant", Namespace: "acme", SubModules: []string{"billing"}}),
		internal.Define(internal.Definition{Name: "billing", ScopeName: "payments"}),
	)

	list, err := internal.Resolve(reg, []string{"tenant"}, rootConfig(), nil)
	require.NoError(t, err)
	require.Len(t, list, 2)

	tenant, billing := list[0].Config, list[1].Config
	require.Equal(t, "shop", tenant.AppName)
	require.Equal(t, "b1", tenant.Build)
	require.Equal(t, "", tenant.ParentModuleName)
	require.Equal(t, "acme", tenant.Namespace)
	require.Equal(t, "tenant", tenant.ScopeName)

	require.Equal(t, "tenant", billing.ParentModuleName)
	require.Equal(t, "acme", billing.Namespace, "namespace is inherited")
	require.Equal(t, "payments", billing.ScopeName)
	require.Equal(t, "app", billing.AppPath)
}

func TestResolve_DuplicatesAndCycles(t *testing.T) {
	t.Parallel()

	t.Run("first placement wins", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t, mod("a", "shared"), mod("b", "shared"), mod("shared"))

		list, err := internal.Resolve(reg, []string{"a", "b"}, rootConfig(), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "shared"}, list.Names())
		require.Equal(t, "a", list[2].Config.ParentModuleName)
	})

	t.Run("cycle terminates", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t, mod("a", "b"), mod("b", "a"))

		list, err := internal.Resolve(reg, []string{"a"}, rootConfig(), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, list.Names())
	})

	t.Run("leaf first unique keeps the deepest placement", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t,
			mod("a", "shared"),
			internal.Define(internal.Definition{Name: "x", Namespace: "other", SubModules: []string{"shared"}}),
			mod("shared"),
		)

		list, err := internal.Resolve(reg, []string{"a", "x"}, rootConfig(), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "x", "shared", "shared"}, list.Names())

		unique := list.LeafFirstUnique()
		names := make([]string, 0, len(unique))
		for _, e := range unique {
			names = append(names, e.Config.ModuleName)
		}
		require.Equal(t, []string{"shared", "x", "a"}, names)
		require.Equal(t, "other", unique[0].Config.Namespace)
		require.Equal(t, "x", unique[0].Config.ParentModuleName)
	})
}

func TestResolve_SkipsCommentedModules(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, mod("a", "#b", " "), mod("c"))

	list, err := internal.Resolve(reg, []string{"a", "#missing", "c"}, rootConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, list.Names())
}

func TestResolve_MissingModule(t *testing.T) {
	t.Parallel()

	t.Run("root", func(t *testing.T) {
		t.Parallel()
		_, err := internal.Resolve(newRegistry(t), []string{"ghost"}, rootConfig(), nil)
		require.ErrorIs(t, err, internal.ErrModuleNotFound)
		require.Contains(t, err.Error(), `"ghost"`)
	})

	t.Run("submodule", func(t *testing.T) {
		t.Parallel()
		reg := newRegistry(t, mod("a", "ghost"))
		_, err := internal.Resolve(reg, []string{"a"}, rootConfig(), nil)
		require.ErrorIs(t, err, internal.ErrModuleNotFound)
		require.Contains(t, err.Error(), `required by "a"`)
	})
}

func TestResolve_AppPath(t *testing.T) {
	t.Parallel()

	scanned := 0
	scanner := internal.ScannerFunc(func(appPath string) ([]string, error) {
		scanned++
		require.Equal(t, "admin", appPath)
		return []string{"users"}, nil
	})

	reg := newRegistry(t,
		internal.Define(internal.Definition{
			Name:       "panel",
			AppPath:    "admin",
			Arch:       internal.ArchModular,
			SubModules: []string{"widgets"},
		}),
		mod("widgets"),
	)

	parent := rootConfig()
	parent.LocalModules = []string{"catalog"}

	list, err := internal.Resolve(reg, []string{"panel"}, parent, scanner)
	require.NoError(t, err)
	require.Equal(t, 1, scanned)

	require.Len(t, list, 3)
	require.Equal(t, "panel", list[0].Config.ModuleName)
	require.Equal(t, "app", list[0].Config.AppPath)
	require.Equal(t, []string{"catalog"}, list[0].Config.LocalModules)

	require.Equal(t, "panel", list[1].Config.ModuleName)
	require.Equal(t, "admin", list[1].Config.AppPath)
	require.Equal(t, []string{"users"}, list[1].Config.LocalModules)
	require.True(t, list[1].Config.HasLocalModule("users"))

	require.Equal(t, "widgets", list[2].Config.ModuleName)
	require.Equal(t, "admin", list[2].Config.AppPath, "submodules load only under the module's own path")
}

func TestResolve_ScannerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reg := newRegistry(t, internal.Define(internal.Definition{Name: "panel", AppPath: "admin", Arch: internal.ArchModular}))

	_, err := internal.Resolve(reg, []string{"panel"}, rootConfig(), internal.ScannerFunc(func(string) ([]string, error) {
		return nil, boom
	}))
	require.ErrorIs(t, err, boom)
}

func TestDirScanner(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, d := range []string{"shop/users", "shop/orders", "shop/.git"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "shop", "README.md"), []byte("x"), 0o644))

	s := internal.DirScanner{Root: root}

	dirs, err := s.LocalModules("shop")
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "users"}, dirs)

	dirs, err = s.LocalModules("missing")
	require.NoError(t, err)
	require.Empty(t, dirs)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, internal.Define(internal.Definition{Name: "postgres", Alias: "db"}))

	m, ok := reg.Get("db")
	require.True(t, ok)
	require.Equal(t, "postgres", m.Descriptor().Name)
	require.Equal(t, []string{"db", "postgres"}, reg.Names())

	_, err := reg.MustGet("redis")
	require.ErrorIs(t, err, internal.ErrModuleNotFound)

	require.ErrorIs(t, reg.Register(nil), internal.ErrNilModule)
	require.ErrorIs(t, reg.Register(internal.Define(internal.Definition{})), internal.ErrEmptyModuleName)
}
