// Package modcfg reads module settings from the application "config" service.
package modcfg

import (
	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/pkg/appconfig"
)

// Settings returns the application settings, or empty settings when the
// application has none.
func Settings(svc *mosaic.Services) appconfig.Settings {
	v, ok := svc.Get(mosaic.ServiceConfig)
	if !ok {
		return appconfig.Settings{}
	}
	switch s := v.(type) {
	case appconfig.Settings:
		return s
	case map[string]any:
		return s
	}
	return appconfig.Settings{}
}

// Decode decodes the settings under key into out.
func Decode(svc *mosaic.Services, key string, out any) error {
	return Settings(svc).Decode(key, out)
}
