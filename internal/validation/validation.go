// Package validation checks command-line inputs before any data is loaded.
package validation

import (
	"fmt"
	"os"
)

// IsValidDirectory checks that path exists and is a directory.
func IsValidDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path %s is not a valid directory: it does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a valid directory", path)
	}
	return nil
}

// IsPercentage checks that v lies in [0, 100].
func IsPercentage(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s must be a percentage between 0 and 100, got %v", name, v)
	}
	return nil
}
