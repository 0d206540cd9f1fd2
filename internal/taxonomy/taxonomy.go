// Package taxonomy loads the category taxonomy: the fixed set of category
// names, the keywords that select each one and the list of ignored categories.
package taxonomy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parsererror"

	"gopkg.in/yaml.v3"
)

// builtinKeys is the fixed key order of every taxonomy.
var builtinKeys = []string{
	models.CategoryAutomotive,
	models.CategoryCash,
	models.CategoryEntertainment,
	models.CategoryGroceries,
	models.CategoryHealthcare,
	models.CategoryIgnore,
	models.CategoryIncome,
	models.CategoryOther,
	models.CategoryRestaurants,
	models.CategoryRetail,
	models.CategoryTransfer,
}

// Taxonomy maps every built-in key to its keyword list. Under the Ignore key
// the list holds category names instead of keywords.
type Taxonomy struct {
	keywords map[string][]string
}

// Default returns a taxonomy with an empty list for every built-in key.
// Each call returns a new value.
func Default() *Taxonomy {
	t := &Taxonomy{keywords: make(map[string][]string, len(builtinKeys))}
	for _, key := range builtinKeys {
		t.keywords[key] = []string{}
	}
	return t
}

// Load reads the user taxonomy at path and merges it into the defaults.
// A missing file yields the defaults.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, &parsererror.ConfigParseError{FilePath: path, Err: err}
	}
	return Parse(path, data)
}

// Parse merges the YAML document data, read from path, into the defaults.
func Parse(path string, data []byte) (*Taxonomy, error) {
	t := Default()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &parsererror.ConfigParseError{FilePath: path, Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return t, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return t, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &parsererror.ConfigParseError{
			FilePath: path,
			Err:      fmt.Errorf("line %d: expected a mapping of category to keyword list", root.Line),
		}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		if _, ok := t.keywords[key]; !ok {
			return nil, &parsererror.UnknownCategoryKeyError{
				FilePath: path,
				Key:      key,
				Known:    append([]string(nil), builtinKeys...),
			}
		}

		var entries []string
		if err := valueNode.Decode(&entries); err != nil {
			return nil, &parsererror.ConfigParseError{
				FilePath: path,
				Err:      fmt.Errorf("line %d: %s must be a list of strings: %w", valueNode.Line, key, err),
			}
		}

		for _, entry := range entries {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if key != models.CategoryIgnore {
				entry = strings.ToLower(entry)
			}
			t.keywords[key] = append(t.keywords[key], entry)
		}
	}

	return t, nil
}

// Keys returns every built-in key, Ignore included, in taxonomy order.
func Keys() []string {
	return append([]string(nil), builtinKeys...)
}

// Categories returns the assignable categories in taxonomy order.
func (t *Taxonomy) Categories() []string {
	out := make([]string, 0, len(builtinKeys)-1)
	for _, key := range builtinKeys {
		if key != models.CategoryIgnore {
			out = append(out, key)
		}
	}
	return out
}

// Keywords returns a copy of the lowercased keywords for category.
func (t *Taxonomy) Keywords(category string) []string {
	return append([]string(nil), t.keywords[category]...)
}

// IsKnown reports whether category is an assignable category.
func (t *Taxonomy) IsKnown(category string) bool {
	if category == models.CategoryIgnore {
		return false
	}
	_, ok := t.keywords[category]
	return ok
}

// Ignored returns the categories whose records are dropped.
func (t *Taxonomy) Ignored() []string {
	return t.Keywords(models.CategoryIgnore)
}

// IsIgnored reports whether records of category are dropped.
func (t *Taxonomy) IsIgnored(category string) bool {
	for _, ignored := range t.keywords[models.CategoryIgnore] {
		if ignored == category {
			return true
		}
	}
	return false
}

// KeywordCount returns the number of keywords across all categories.
func (t *Taxonomy) KeywordCount() int {
	n := 0
	for _, category := range t.Categories() {
		n += len(t.keywords[category])
	}
	return n
}
