// Package config provides functionality for loading the environment and
// resolving the directories tally reads from and writes to.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/tally/internal/fileutils"

	"github.com/joho/godotenv"
)

const (
	// AppName names the per-user directories when no home is configured.
	AppName = "tally"

	// CategoriesFile is the taxonomy file inside the conf directory.
	CategoriesFile = "categories.yaml"
	// BudgetFile is the budget file inside the conf directory.
	BudgetFile = "budget.yaml"
)

// LoadEnv loads environment variables from a .env file in the current
// directory or its parent. A missing file is not an error; it returns the
// file that was loaded, or "".
func LoadEnv() (string, error) {
	for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
		if !fileutils.FileExists(envFile) {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return "", fmt.Errorf("error loading %s: %w", envFile, err)
		}
		return envFile, nil
	}
	return "", nil
}

// Dirs holds the resolved working directories.
type Dirs struct {
	Cache string
	Conf  string
	Parse string
}

// Categories returns the taxonomy file path.
func (d Dirs) Categories() string { return filepath.Join(d.Conf, CategoriesFile) }

// Budget returns the budget file path.
func (d Dirs) Budget() string { return filepath.Join(d.Conf, BudgetFile) }

// ResolveDirs returns the cache, conf and parse directories. With a home set
// they live under it; otherwise the user cache and config directories are used.
func (c *Config) ResolveDirs() (Dirs, error) {
	if c.Home != "" {
		conf := filepath.Join(c.Home, "conf")
		return Dirs{
			Cache: filepath.Join(c.Home, "cache"),
			Conf:  conf,
			Parse: filepath.Join(conf, "parse"),
		}, nil
	}

	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	confRoot, err := os.UserConfigDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	conf := filepath.Join(confRoot, AppName)
	return Dirs{
		Cache: filepath.Join(cacheRoot, AppName),
		Conf:  conf,
		Parse: filepath.Join(conf, "parse"),
	}, nil
}

// EnsureDirs creates every directory in d.
func EnsureDirs(d Dirs) error {
	for _, dir := range []string{d.Cache, d.Conf, d.Parse} {
		if err := fileutils.EnsureDirectoryExists(dir); err != nil {
			return err
		}
	}
	return nil
}
