package appconfig

import "errors"

var (
	ErrReadManifest    = errors.New("appconfig: failed to read manifest")
	ErrParseManifest   = errors.New("appconfig: failed to parse manifest")
	ErrInvalidManifest = errors.New("appconfig: invalid manifest")
	ErrNoApps          = errors.New("appconfig: no application selected")
	ErrReadSettings    = errors.New("appconfig: failed to read application settings")
	ErrDecode          = errors.New("appconfig: failed to decode settings")
	ErrLoadEnv         = errors.New("appconfig: failed to load env file")
)
