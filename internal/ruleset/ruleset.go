package ruleset

import "strconv"

// ColumnRef identifies a source column by header name or zero-based position.
type ColumnRef struct {
	Name   string
	Index  int
	ByName bool
}

// ByName references the column with header name.
func ByName(name string) ColumnRef { return ColumnRef{Name: name, ByName: true} }

// ByIndex references the column at position i.
func ByIndex(i int) ColumnRef { return ColumnRef{Index: i} }

func (c ColumnRef) String() string {
	if c.ByName {
		return strconv.Quote(c.Name)
	}
	return "#" + strconv.Itoa(c.Index)
}

// Spec carries the validated field values a parser builds a RuleSet from.
type Spec struct {
	Name                 string
	Path                 string
	Type                 string
	Directory            string
	Columns              map[string]ColumnRef
	UseColumnNames       bool
	ExpendituresPositive bool
	DuplicateChecking    bool
	HashColumn           ColumnRef
	SkipLines            int
	Categories           map[string]string
}

// RuleSet is a validated rule set. It cannot be modified after New; the
// accessors hand out copies of its maps.
type RuleSet struct {
	spec Spec
}

// New builds a RuleSet from spec, copying its maps.
func New(spec Spec) RuleSet {
	spec.Columns = copyColumns(spec.Columns)
	spec.Categories = copyStrings(spec.Categories)
	return RuleSet{spec: spec}
}

func (r RuleSet) Name() string               { return r.spec.Name }
func (r RuleSet) Path() string               { return r.spec.Path }
func (r RuleSet) Type() string               { return r.spec.Type }
func (r RuleSet) Directory() string          { return r.spec.Directory }
func (r RuleSet) UseColumnNames() bool       { return r.spec.UseColumnNames }
func (r RuleSet) ExpendituresPositive() bool { return r.spec.ExpendituresPositive }
func (r RuleSet) DuplicateChecking() bool    { return r.spec.DuplicateChecking }
func (r RuleSet) HashColumn() ColumnRef      { return r.spec.HashColumn }
func (r RuleSet) SkipLines() int             { return r.spec.SkipLines }

// Columns returns a copy of the canonical-to-source column mapping.
func (r RuleSet) Columns() map[string]ColumnRef { return copyColumns(r.spec.Columns) }

// Column returns the source column for canonical.
func (r RuleSet) Column(canonical string) (ColumnRef, bool) {
	c, ok := r.spec.Columns[canonical]
	return c, ok
}

// Categories returns a copy of the per-source category rewrites.
func (r RuleSet) Categories() map[string]string { return copyStrings(r.spec.Categories) }

// RewriteCategory applies the per-source rewrite to category, which must
// match a key exactly. Rewrites are applied once and never chained, so
// {A: B, B: C} maps A to B.
func (r RuleSet) RewriteCategory(category string) string {
	if to, ok := r.spec.Categories[category]; ok {
		return to
	}
	return category
}

func copyColumns(in map[string]ColumnRef) map[string]ColumnRef {
	if in == nil {
		return nil
	}
	out := make(map[string]ColumnRef, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
