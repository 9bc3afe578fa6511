package config

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// Env holds the small set of environment variables Milton bootstraps
// itself from, before the YAML configuration document is even located.
type Env struct {
	Base string `env:"MILTON_BASE"`
}

// LoadEnv reads $HOME/.miltonenv (if present, in `KEY=value` format) and
// then the process environment on top, so a real environment variable
// always wins over the dotfile.
func LoadEnv() (*Env, error) {
	var env Env

	if home, err := os.UserHomeDir(); err == nil {
		dotfile := filepath.Join(home, ".miltonenv")
		if _, statErr := os.Stat(dotfile); statErr == nil {
			if err := cleanenv.ReadConfig(dotfile, &env); err != nil {
				return nil, err
			}
		}
	}

	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, err
	}

	return &env, nil
}
