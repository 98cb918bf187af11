// Package appconfig loads the application manifest of a Mosaic server.
//
// The manifest names every application, its hosts, root modules, tags and
// settings. Each application directory may hold an app.config.yaml whose
// settings the manifest ones override:
//
//	if err := appconfig.LoadEnv(".env"); err != nil {
//	    return err
//	}
//	m, err := appconfig.LoadManifest("apps.yaml")
//	if err != nil {
//	    return err
//	}
//	apps, err := m.Select("public")
//	for _, a := range apps {
//	    settings, err := a.LoadSettings(m.AppPath)
//	    ...
//	    url := settings.String("postgres.url", "")
//	}
//
// ${VAR} references in both files expand from the environment.
package appconfig
