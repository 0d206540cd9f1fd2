package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/tally/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	tests := []struct {
		name        string
		path        string
		errContains string
	}{
		{name: "existing directory", path: dir},
		{name: "regular file", path: file, errContains: "not a valid directory"},
		{name: "missing", path: filepath.Join(dir, "nope"), errContains: "does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidDirectory(tt.path)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestIsPercentage(t *testing.T) {
	for _, v := range []float64{0, 5.5, 100} {
		assert.NoError(t, validation.IsPercentage("consolidate", v), v)
	}
	for _, v := range []float64{-0.1, 100.5} {
		err := validation.IsPercentage("consolidate", v)
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "consolidate must be a percentage")
	}
}
