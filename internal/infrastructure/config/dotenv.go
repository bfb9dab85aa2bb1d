package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultDotEnvPath is read by LoadDotEnv when no path is given.
const DefaultDotEnvPath = ".env"

// LoadDotEnv exports KEY=value pairs from a dotenv file into the process
// environment so HOMESIM_* overrides can live beside the binary. Variables
// already set in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnvPath
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
