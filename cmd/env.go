package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// envFlags maps environment variables to the flags they default.
var envFlags = map[string]string{
	"STROKE_SIM_SEED":    "seed",
	"STROKE_SIM_WORKERS": "workers",
	"STROKE_SIM_LOG":     "log",
}

// loadEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	logrus.Debugf("Loaded environment from %s", path)
	return nil
}

// applyEnv sets every flag in envFlags that was not given on the command
// line from its environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	for env, name := range envFlags {
		val, ok := os.LookupEnv(env)
		if !ok || val == "" {
			continue
		}
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := flags.Set(name, val); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}
