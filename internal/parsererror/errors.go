// Package parsererror defines the typed failures raised while loading
// configuration, validating rule sets and parsing source files.
//
// Every concrete error matches its sentinel with errors.Is, so callers can
// branch on the failure class without type switches:
//
//	if errors.Is(err, parsererror.ErrInvalidRule) { ... }
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels, one per failure class.
var (
	ErrConfigParse        = errors.New("config parse error")
	ErrUnknownCategoryKey = errors.New("unknown category key")
	ErrFormatMismatch     = errors.New("format mismatch")
	ErrUnknownFormat      = errors.New("unknown format")
	ErrInvalidRule        = errors.New("invalid rule")
	ErrSourceNotFound     = errors.New("source not found")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrMalformedAmount    = errors.New("malformed amount")
	ErrMalformedDate      = errors.New("malformed date")
	ErrLabelMismatch      = errors.New("label mismatch")
)

// ConfigParseError reports malformed structured configuration.
type ConfigParseError struct {
	FilePath string
	Err      error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("cannot parse config file %s: %v", e.FilePath, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

func (e *ConfigParseError) Is(target error) bool { return target == ErrConfigParse }

// UnknownCategoryKeyError reports a taxonomy key outside the built-in set.
type UnknownCategoryKeyError struct {
	FilePath string
	Key      string
	Known    []string
}

func (e *UnknownCategoryKeyError) Error() string {
	return fmt.Sprintf("unknown category key %q in %s (known: %s)",
		e.Key, e.FilePath, strings.Join(e.Known, ", "))
}

func (e *UnknownCategoryKeyError) Is(target error) bool { return target == ErrUnknownCategoryKey }

// FormatMismatchError reports a rule set handed to a parser for another format.
type FormatMismatchError struct {
	RuleSet  string
	Expected string
	Actual   string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("rule set %s: type %q does not match parser %q", e.RuleSet, e.Actual, e.Expected)
}

func (e *FormatMismatchError) Is(target error) bool { return target == ErrFormatMismatch }

// UnknownFormatError reports a rule set type with no registered parser.
type UnknownFormatError struct {
	RuleSet string
	Type    string
	Known   []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("rule set %s: no parser registered for type %q (known: %s)",
		e.RuleSet, e.Type, strings.Join(e.Known, ", "))
}

func (e *UnknownFormatError) Is(target error) bool { return target == ErrUnknownFormat }

// InvalidRuleError reports a rule set violating one of its declared constraints.
type InvalidRuleError struct {
	RuleSet string
	Field   string
	Reason  string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("rule set %s: invalid %q: %s", e.RuleSet, e.Field, e.Reason)
}

func (e *InvalidRuleError) Is(target error) bool { return target == ErrInvalidRule }

// SourceNotFoundError reports a missing source directory. Parsers treat it as
// zero files found and only log it.
type SourceNotFoundError struct {
	RuleSet   string
	Directory string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("rule set %s: source directory %s does not exist", e.RuleSet, e.Directory)
}

func (e *SourceNotFoundError) Is(target error) bool { return target == ErrSourceNotFound }

// SchemaMismatchError reports a source file whose columns differ from the rule set.
type SchemaMismatchError struct {
	RuleSet  string
	FilePath string
	Line     int
	Reason   string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("rule set %s: schema mismatch in %s", e.RuleSet, e.FilePath)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// MalformedAmountError reports an amount that cannot be coerced to a decimal.
type MalformedAmountError struct {
	RuleSet  string
	FilePath string
	Line     int
	Value    string
	Err      error
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("rule set %s: malformed amount %q in %s at line %d: %v",
		e.RuleSet, e.Value, e.FilePath, e.Line, e.Err)
}

func (e *MalformedAmountError) Unwrap() error { return e.Err }

func (e *MalformedAmountError) Is(target error) bool { return target == ErrMalformedAmount }

// MalformedDateError reports a date that none of the known layouts accept.
type MalformedDateError struct {
	RuleSet  string
	FilePath string
	Value    string
	Err      error
}

func (e *MalformedDateError) Error() string {
	if e.RuleSet == "" {
		return fmt.Sprintf("malformed date %q from %s: %v", e.Value, e.FilePath, e.Err)
	}
	return fmt.Sprintf("rule set %s: malformed date %q from %s: %v", e.RuleSet, e.Value, e.FilePath, e.Err)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

func (e *MalformedDateError) Is(target error) bool { return target == ErrMalformedDate }

// LabelMismatchError reports actual and budget tables with different category labels.
type LabelMismatchError struct {
	OnlyActual []string
	OnlyBudget []string
}

func (e *LabelMismatchError) Error() string {
	return fmt.Sprintf("category labels differ between actual and budget (only actual: [%s], only budget: [%s])",
		strings.Join(e.OnlyActual, ", "), strings.Join(e.OnlyBudget, ", "))
}

func (e *LabelMismatchError) Is(target error) bool { return target == ErrLabelMismatch }
