package internal

import (
	"context"
	"errors"
	"fmt"
)

// Contribution is one module's answer to an extension.
type Contribution struct {
	Module string
	Value  any
}

// Extension receives the contributions of the root modules of an application.
// It runs once, right after the application services are built.
type Extension func(ctx context.Context, contributions []Contribution) error

// applyExtensions collects contributions for every published extension.
// Extenders run in root-first order; contributors are the root modules.
func (a *App) applyExtensions(ctx context.Context) error {
	for _, e := range a.list.RootFirst() {
		publish := capsOf(e.Module).extensions
		if publish == nil {
			continue
		}
		exts, err := publish(e.Config, a.services)
		if err != nil {
			return errors.Join(ErrExtensionFailed, fmt.Errorf("module %q: %w", e.Config.ModuleName, err))
		}
		for _, name := range sortedKeys(exts) {
			ext := exts[name]
			if ext == nil {
				continue
			}
			if err := ext(ctx, a.contributions(name)); err != nil {
				return errors.Join(ErrExtensionFailed, fmt.Errorf("extension %q of module %q: %w", name, e.Config.ModuleName, err))
			}
		}
	}
	return nil
}

func (a *App) contributions(extension string) []Contribution {
	var out []Contribution
	for _, e := range a.list.RootFirst() {
		if e.Config.ParentModuleName != "" {
			continue
		}
		contribute := capsOf(e.Module).contribute
		if contribute == nil {
			continue
		}
		if v, ok := contribute(extension, e.Config, a.services); ok {
			out = append(out, Contribution{Module: e.Config.ModuleName, Value: v})
		}
	}
	return out
}
