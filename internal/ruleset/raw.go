// Package ruleset loads ingestion rule-set files and holds the validated,
// immutable RuleSet handed to format parsers.
package ruleset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/tally/internal/fileutils"
	"fjacquet/tally/internal/parsererror"

	"gopkg.in/yaml.v3"
)

// Field names recognized in rule-set files.
const (
	FieldType                 = "type"
	FieldDirectory            = "directory"
	FieldColumns              = "columns"
	FieldUseColumnNames       = "use column names"
	FieldExpendituresPositive = "expenditures positive"
	FieldDuplicateChecking    = "duplicate checking"
	FieldHashColumn           = "hash column"
	FieldSkipLines            = "skip lines"
	FieldCategories           = "categories"
)

// DefaultExtensions are the rule-set file extensions used when none are configured.
var DefaultExtensions = []string{".yaml", ".yml"}

// Raw is an undecoded rule set: the YAML mapping as read from Path.
type Raw struct {
	Name   string
	Path   string
	Fields map[string]interface{}
}

// LoadFile reads and decodes the rule-set file at path. The document must be a
// mapping; anything else is a ConfigParseError.
func LoadFile(path string) (Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Raw{}, &parsererror.ConfigParseError{FilePath: path, Err: err}
	}
	return Decode(path, data)
}

// Decode decodes a rule-set document read from path.
func Decode(path string, data []byte) (Raw, error) {
	var fields map[string]interface{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return Raw{}, &parsererror.ConfigParseError{FilePath: path, Err: err}
	}
	if fields == nil {
		return Raw{}, &parsererror.ConfigParseError{FilePath: path, Err: errors.New("empty rule set")}
	}

	base := filepath.Base(path)
	return Raw{
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		Path:   path,
		Fields: fields,
	}, nil
}

// Discover returns every rule-set file below dir, recursively and in lexical
// order, whose extension is one of exts. A missing dir yields no files.
func Discover(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	files, err := fileutils.WalkFiles(dir, exts...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return files, nil
}

// Has reports whether field is present.
func (r Raw) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Keys returns the field names of r in sorted order.
func (r Raw) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r Raw) invalid(field, format string, args ...interface{}) error {
	return &parsererror.InvalidRuleError{RuleSet: r.Name, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Type returns the declared format type, or "" when absent or not a string.
func (r Raw) Type() string {
	s, _ := r.Fields[FieldType].(string)
	return strings.TrimSpace(s)
}

// RejectUnknown fails on the first field (in sorted order) not in allowed.
func (r Raw) RejectUnknown(allowed ...string) error {
	known := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		known[a] = true
	}
	for _, k := range r.Keys() {
		if !known[k] {
			return r.invalid(k, "unknown field (allowed: %s)", strings.Join(allowed, ", "))
		}
	}
	return nil
}

// RequireString returns the non-empty string value of field.
func (r Raw) RequireString(field string) (string, error) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return "", r.invalid(field, "required")
	}
	s, ok := v.(string)
	if !ok {
		return "", r.invalid(field, "must be a string, got %T", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", r.invalid(field, "must not be empty")
	}
	return s, nil
}

// Directory returns the required source directory, with a leading ~ and
// environment variables expanded.
func (r Raw) Directory() (string, error) {
	dir, err := r.RequireString(FieldDirectory)
	if err != nil {
		return "", err
	}
	dir = os.ExpandEnv(dir)
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", r.invalid(FieldDirectory, "cannot expand ~: %v", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return filepath.Clean(dir), nil
}

// Bool returns the boolean value of field, or def when absent.
func (r Raw) Bool(field string, def bool) (bool, error) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, r.invalid(field, "must be a boolean, got %v", v)
	}
	return b, nil
}

// NonNegInt returns the non-negative integer value of field, or def when absent.
func (r Raw) NonNegInt(field string, def int) (int, error) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := asInt(v)
	if !ok {
		return 0, r.invalid(field, "must be an integer, got %v", v)
	}
	if n < 0 {
		return 0, r.invalid(field, "must not be negative, got %d", n)
	}
	return n, nil
}

// StringMap returns field as a string-to-string mapping. Absent yields nil.
func (r Raw) StringMap(field string) (map[string]string, error) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return nil, nil
	}
	entries, ok := asMap(v)
	if !ok {
		return nil, r.invalid(field, "must be a mapping, got %T", v)
	}
	out := make(map[string]string, len(entries))
	for k, val := range entries {
		s, ok := val.(string)
		if !ok {
			return nil, r.invalid(field, "value for %q must be a string, got %v", k, val)
		}
		out[k] = s
	}
	return out, nil
}

// Mapping returns field as a generic mapping. Absent yields nil.
func (r Raw) Mapping(field string) (map[string]interface{}, error) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return nil, nil
	}
	entries, ok := asMap(v)
	if !ok {
		return nil, r.invalid(field, "must be a mapping, got %T", v)
	}
	return entries, nil
}

// ColumnRefOf interprets value as a column reference for field: a non-empty
// header name when byName, otherwise a zero-based position.
func (r Raw) ColumnRefOf(field string, value interface{}, byName bool) (ColumnRef, error) {
	if byName {
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return ColumnRef{}, r.invalid(field, "must be a column name when %q is true, got %v", FieldUseColumnNames, value)
		}
		return ByName(s), nil
	}
	n, ok := asInt(value)
	if !ok || n < 0 {
		return ColumnRef{}, r.invalid(field, "must be a non-negative column position when %q is false, got %v", FieldUseColumnNames, value)
	}
	return ByIndex(n), nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

// asMap normalizes YAML mappings, which decode with interface{} keys when any
// key is not a string.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
