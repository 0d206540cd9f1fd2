package parser

import (
	"fmt"
	"sort"
	"strings"

	"fjacquet/tally/internal/parsererror"
)

// Registry maps format types to parsers. Type lookups are case-insensitive.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry holding parsers.
func NewRegistry(parsers ...Parser) (*Registry, error) {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range parsers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p under its type. Registering a type twice is an error.
func (r *Registry) Register(p Parser) error {
	if p == nil {
		return fmt.Errorf("cannot register nil parser")
	}
	key := normalizeType(p.Type())
	if key == "" {
		return fmt.Errorf("parser %T has an empty type", p)
	}
	if _, exists := r.parsers[key]; exists {
		return fmt.Errorf("parser type %q already registered", key)
	}
	r.parsers[key] = p
	return nil
}

// Get returns the parser registered for parserType. ruleSet names the rule
// set asking, for the error.
func (r *Registry) Get(parserType, ruleSet string) (Parser, error) {
	if p, ok := r.parsers[normalizeType(parserType)]; ok {
		return p, nil
	}
	return nil, &parsererror.UnknownFormatError{RuleSet: ruleSet, Type: parserType, Known: r.Types()}
}

// Types returns the registered types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
