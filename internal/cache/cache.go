// Package cache persists the canonical table between runs in a single binary
// artifact, so reports can be produced without re-reading the sources.
package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fjacquet/tally/internal/fileutils"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
)

// formatVersion is bumped whenever the encoded layout changes.
const formatVersion = 1

// ErrVersion is returned when the artifact was written by another format version.
var ErrVersion = errors.New("cache format version mismatch")

type envelope struct {
	Version int
	Table   models.CanonicalTable
}

// Store reads and writes the table at dir/name.
type Store struct {
	dir    string
	name   string
	logger logging.Logger
}

// NewStore creates a Store. If logger is nil, a default logger will be used.
func NewStore(dir, name string, logger logging.Logger) *Store {
	return &Store{dir: dir, name: name, logger: logging.OrDefault(logger).WithField(logging.FieldComponent, "cache")}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Save replaces the artifact with table. A crash mid-write leaves the previous
// artifact intact.
func (s *Store) Save(table models.CanonicalTable) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Version: formatVersion, Table: table}); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	if err := fileutils.WriteFileAtomic(s.Path(), buf.Bytes(), models.PermissionConfigFile); err != nil {
		return fmt.Errorf("failed to save cache: %w", err)
	}

	s.logger.Debug("Saved table to cache",
		logging.F(logging.FieldFile, s.Path()),
		logging.F(logging.FieldCount, table.Len()),
		logging.F(logging.FieldRunID, table.RunID))
	return nil
}

// Load returns the cached table. found is false, with a nil error, when no
// artifact exists. An unreadable artifact is an error.
func (s *Store) Load() (table models.CanonicalTable, found bool, err error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Cache miss", logging.F(logging.FieldFile, s.Path()))
			return models.CanonicalTable{}, false, nil
		}
		return models.CanonicalTable{}, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return models.CanonicalTable{}, false, fmt.Errorf("corrupt cache %s: %w", s.Path(), err)
	}
	if env.Version != formatVersion {
		return models.CanonicalTable{}, false, fmt.Errorf("%s has version %d, want %d: %w", s.Path(), env.Version, formatVersion, ErrVersion)
	}

	s.logger.Debug("Loaded table from cache",
		logging.F(logging.FieldFile, s.Path()),
		logging.F(logging.FieldCount, env.Table.Len()),
		logging.F(logging.FieldRunID, env.Table.RunID))
	return env.Table, true, nil
}

// Clear removes the artifact. A missing artifact is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
