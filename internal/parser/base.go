// Package parser defines the format parser contract, the registry that
// dispatches rule sets to parsers by type, and the BaseParser implementations
// embed.
package parser

import (
	"context"
	"strings"

	"fjacquet/tally/internal/fileutils"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/ruleset"
)

// BaseParser provides common functionality for all parser implementations.
//
// Parsers should embed BaseParser to inherit common functionality:
//
//	type MyParser struct {
//		parser.BaseParser
//		// parser-specific fields
//	}
type BaseParser struct {
	logger     logging.Logger
	parserType string
}

// NewBaseParser creates a new BaseParser for parserType. If logger is nil, a
// default logger will be used.
func NewBaseParser(parserType string, logger logging.Logger) BaseParser {
	return BaseParser{
		logger:     logging.OrDefault(logger).WithField(logging.FieldParser, parserType),
		parserType: parserType,
	}
}

// Type returns the format type the parser handles.
func (b *BaseParser) Type() string {
	return b.parserType
}

// SetLogger replaces the logger. A nil logger is ignored.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger.WithField(logging.FieldParser, b.parserType)
	}
}

// GetLogger returns the current logger instance.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// CheckType fails with a FormatMismatchError unless raw declares this
// parser's type, compared case-insensitively.
func (b *BaseParser) CheckType(raw ruleset.Raw) error {
	if !strings.EqualFold(raw.Type(), b.parserType) {
		return &parsererror.FormatMismatchError{RuleSet: raw.Name, Expected: b.parserType, Actual: raw.Type()}
	}
	return nil
}

// DiscoverSources returns the source files of rs, recursively and in lexical
// order. A missing directory is logged as a SourceNotFoundError and yields no
// files.
func (b *BaseParser) DiscoverSources(ctx context.Context, rs ruleset.RuleSet, extensions ...string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fileutils.DirectoryExists(rs.Directory()) {
		b.logger.WithError(&parsererror.SourceNotFoundError{RuleSet: rs.Name(), Directory: rs.Directory()}).
			Warn("Source directory not found, no files to read",
				logging.F(logging.FieldRuleSet, rs.Name()),
				logging.F(logging.FieldDirectory, rs.Directory()))
		return nil, nil
	}

	files, err := fileutils.WalkFiles(rs.Directory(), extensions...)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Discovered source files",
		logging.F(logging.FieldRuleSet, rs.Name()),
		logging.F(logging.FieldDirectory, rs.Directory()),
		logging.F(logging.FieldCount, len(files)))
	return files, nil
}
