package internal

import "slices"

// ModuleConfig is the configuration a module sees at one place in the
// composition tree. It is a value: deriving a child config never changes
// the parent's.
type ModuleConfig struct {
	AppName          string
	Build            string
	ModuleName       string
	ParentModuleName string
	Namespace        string
	ScopeName        string
	AppPath          string
	Arch             string
	LocalModules     []string
}

// rootScope is the namespace used when none is declared.
const rootScope = "root"

// child derives the config of module d placed under c at appPath.
func (c ModuleConfig) child(d Descriptor, appPath string, local []string) ModuleConfig {
	ns := d.Namespace
	if ns == "" {
		ns = c.Namespace
	}
	scope := d.ScopeName
	if scope == "" {
		scope = d.Name
	}
	return ModuleConfig{
		AppName:          c.AppName,
		Build:            c.Build,
		ModuleName:       d.Name,
		ParentModuleName: c.ModuleName,
		Namespace:        ns,
		ScopeName:        scope,
		AppPath:          appPath,
		Arch:             d.Arch,
		LocalModules:     slices.Clone(local),
	}
}

// HasLocalModule reports whether name is a local module directory.
func (c ModuleConfig) HasLocalModule(name string) bool {
	return slices.Contains(c.LocalModules, name)
}
