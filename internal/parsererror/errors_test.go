package parsererror

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"config parse", &ConfigParseError{FilePath: "c.yaml", Err: io.ErrUnexpectedEOF}, ErrConfigParse},
		{"unknown category", &UnknownCategoryKeyError{FilePath: "c.yaml", Key: "Pets"}, ErrUnknownCategoryKey},
		{"format mismatch", &FormatMismatchError{RuleSet: "r", Expected: "csv", Actual: "ofx"}, ErrFormatMismatch},
		{"unknown format", &UnknownFormatError{RuleSet: "r", Type: "qif"}, ErrUnknownFormat},
		{"invalid rule", &InvalidRuleError{RuleSet: "r", Field: "skip lines", Reason: "negative"}, ErrInvalidRule},
		{"source not found", &SourceNotFoundError{RuleSet: "r", Directory: "/nope"}, ErrSourceNotFound},
		{"schema mismatch", &SchemaMismatchError{RuleSet: "r", FilePath: "a.csv", Reason: "missing column"}, ErrSchemaMismatch},
		{"malformed amount", &MalformedAmountError{RuleSet: "r", FilePath: "a.csv", Line: 3, Value: "x"}, ErrMalformedAmount},
		{"malformed date", &MalformedDateError{FilePath: "a.csv", Value: "x"}, ErrMalformedDate},
		{"label mismatch", &LabelMismatchError{OnlyActual: []string{"Pets"}}, ErrLabelMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))

			wrapped := fmt.Errorf("while ingesting: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel), "sentinel must survive wrapping")
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrorsDoNotCrossMatch(t *testing.T) {
	err := &InvalidRuleError{RuleSet: "r", Field: "columns", Reason: "missing Category"}
	assert.False(t, errors.Is(err, ErrFormatMismatch))
	assert.False(t, errors.Is(err, ErrSchemaMismatch))
}

func TestErrorMessagesCarryContext(t *testing.T) {
	err := &InvalidRuleError{RuleSet: "parse/chase.yaml", Field: "hash column", Reason: "required when duplicate checking is enabled"}
	assert.Equal(t, `rule set parse/chase.yaml: invalid "hash column": required when duplicate checking is enabled`, err.Error())

	schema := &SchemaMismatchError{RuleSet: "chase", FilePath: "jan.csv", Line: 4, Reason: "wrong number of fields"}
	assert.Equal(t, "rule set chase: schema mismatch in jan.csv at line 4: wrong number of fields", schema.Error())

	amount := &MalformedAmountError{RuleSet: "chase", FilePath: "jan.csv", Line: 2, Value: "abc", Err: errors.New("bad")}
	assert.Contains(t, amount.Error(), `"abc"`)
	assert.Contains(t, amount.Error(), "line 2")
}

func TestUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := &ConfigParseError{FilePath: "c.yaml", Err: cause}
	assert.True(t, errors.Is(err, cause))

	var target *ConfigParseError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &target))
	assert.Equal(t, "c.yaml", target.FilePath)
}
