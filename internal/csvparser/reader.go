package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/ruleset"
)

const utf8BOM = "\ufeff"

// rawRow holds the mapped cells of one source row before conversion.
type rawRow struct {
	file        string
	line        int
	date        string
	description string
	amount      string
	category    string
	hash        string
}

// columnIndexes are the resolved positions of the mapped columns in a file.
type columnIndexes struct {
	date, description, amount, category, hash int
}

func readFile(path string, rs ruleset.RuleSet) ([]rawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return readRows(f, path, rs)
}

// readRows discards the banner lines, reads the header and then every row,
// keeping only the mapped columns.
func readRows(r io.Reader, path string, rs ruleset.RuleSet) ([]rawRow, error) {
	mismatch := func(line int, reason string, err error) error {
		return &parsererror.SchemaMismatchError{RuleSet: rs.Name(), FilePath: path, Line: line, Reason: reason, Err: err}
	}

	br := bufio.NewReader(r)
	for i := 0; i < rs.SkipLines(); i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, mismatch(i+1, fmt.Sprintf("file ends before %d skipped lines", rs.SkipLines()), nil)
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true
	// bank exports write inch marks and nicknames with bare quotes
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, mismatch(rs.SkipLines()+1, "no header row", nil)
		}
		return nil, mismatch(rs.SkipLines()+1, "unreadable header row", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	idx, err := resolveColumns(header, rs)
	if err != nil {
		return nil, mismatch(rs.SkipLines()+1, err.Error(), nil)
	}

	var rows []rawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				reason := "malformed row"
				if errors.Is(parseErr.Err, csv.ErrFieldCount) {
					reason = fmt.Sprintf("row does not match the %d header columns", len(header))
				}
				return nil, mismatch(rs.SkipLines()+parseErr.Line, reason, err)
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		line, _ := reader.FieldPos(0)
		row := rawRow{
			file:        path,
			line:        rs.SkipLines() + line,
			date:        strings.TrimSpace(record[idx.date]),
			description: strings.TrimSpace(record[idx.description]),
			amount:      strings.TrimSpace(record[idx.amount]),
			category:    strings.TrimSpace(record[idx.category]),
		}
		if rs.DuplicateChecking() {
			row.hash = record[idx.hash]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func resolveColumns(header []string, rs ruleset.RuleSet) (columnIndexes, error) {
	resolve := func(ref ruleset.ColumnRef) (int, error) {
		if !ref.ByName {
			if ref.Index >= len(header) {
				return 0, fmt.Errorf("column position %d out of range for %d columns", ref.Index, len(header))
			}
			return ref.Index, nil
		}
		for i, name := range header {
			if strings.TrimSpace(name) == ref.Name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found in header [%s]", ref.Name, strings.Join(header, ", "))
	}

	var idx columnIndexes
	targets := map[string]*int{
		models.ColumnDate:        &idx.date,
		models.ColumnDescription: &idx.description,
		models.ColumnAmount:      &idx.amount,
		models.ColumnCategory:    &idx.category,
	}
	for _, canonical := range models.CanonicalColumns {
		ref, _ := rs.Column(canonical)
		i, err := resolve(ref)
		if err != nil {
			return idx, err
		}
		*targets[canonical] = i
	}
	if rs.DuplicateChecking() {
		i, err := resolve(rs.HashColumn())
		if err != nil {
			return idx, fmt.Errorf("hash column: %w", err)
		}
		idx.hash = i
	}
	return idx, nil
}
