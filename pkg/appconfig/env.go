package appconfig

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads env files into the process environment. Variables already
// set win. Missing files are skipped.
func LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.Join(ErrLoadEnv, err)
	}
	return nil
}
