// Package ofxparser reads OFX and QFX statement downloads, bank and credit
// card alike, into canonical records.
package ofxparser

import (
	"context"
	"fmt"
	"os"

	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parser"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/ruleset"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// Type is the rule-set type handled by this parser.
const Type = "ofx"

// Extensions are the source file extensions read from the rule set's directory.
var Extensions = []string{".ofx", ".qfx"}

var allowedFields = []string{
	ruleset.FieldType,
	ruleset.FieldDirectory,
	ruleset.FieldExpendituresPositive,
	ruleset.FieldDuplicateChecking,
	ruleset.FieldCategories,
}

// Parser implements parser.Parser for OFX statements. Columns are fixed by the
// format: the posted date, the payee name (or memo), the amount and the
// transaction type as category.
type Parser struct {
	parser.BaseParser
}

// New returns an ofx parser logging to logger.
func New(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(Type, logger)}
}

// Validate checks raw against the ofx rule-set constraints. Duplicate checking
// uses the statement's FITID, so no hash column is accepted.
func (p *Parser) Validate(raw ruleset.Raw) (ruleset.RuleSet, error) {
	if err := p.CheckType(raw); err != nil {
		return ruleset.RuleSet{}, err
	}
	if err := raw.RejectUnknown(allowedFields...); err != nil {
		return ruleset.RuleSet{}, err
	}

	directory, err := raw.Directory()
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	expendituresPositive, err := raw.Bool(ruleset.FieldExpendituresPositive, false)
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	dedup, err := raw.Bool(ruleset.FieldDuplicateChecking, false)
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	categories, err := raw.StringMap(ruleset.FieldCategories)
	if err != nil {
		return ruleset.RuleSet{}, err
	}

	return ruleset.New(ruleset.Spec{
		Name:                 raw.Name,
		Path:                 raw.Path,
		Type:                 Type,
		Directory:            directory,
		ExpendituresPositive: expendituresPositive,
		DuplicateChecking:    dedup,
		Categories:           categories,
	}), nil
}

// Parse reads every OFX/QFX file under the rule set's directory.
func (p *Parser) Parse(ctx context.Context, rs ruleset.RuleSet) (models.RecordSet, error) {
	logger := p.GetLogger().WithField(logging.FieldRuleSet, rs.Name())

	files, err := p.DiscoverSources(ctx, rs, Extensions...)
	if err != nil {
		return nil, err
	}

	var records models.RecordSet
	seen := make(map[string]struct{})
	duplicates := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		statements, err := readStatements(file, rs)
		if err != nil {
			return nil, err
		}

		for _, tx := range statements {
			if rs.DuplicateChecking() {
				if _, dup := seen[tx.fitID]; dup {
					duplicates++
					continue
				}
				seen[tx.fitID] = struct{}{}
			}
			amount := tx.amount
			if rs.ExpendituresPositive() {
				amount = amount.Neg()
			}
			records = append(records, models.Record{
				Date:        tx.date,
				Description: tx.description,
				Amount:      amount,
				Category:    rs.RewriteCategory(tx.trnType),
				Source:      file,
			})
		}
		logger.Debug("Read statement file",
			logging.F(logging.FieldFile, file),
			logging.F(logging.FieldCount, len(statements)))
	}

	if duplicates > 0 {
		logger.Info("Dropped duplicate transactions", logging.F(logging.FieldCount, duplicates))
	}
	logger.Info("Parsed rule set",
		logging.F(logging.FieldCount, len(records)),
		logging.F("files", len(files)))
	return records, nil
}

type statementTx struct {
	fitID       string
	date        string
	description string
	amount      decimal.Decimal
	trnType     string
}

// readStatements returns the transactions of every bank and credit card
// statement in the file, in statement order.
func readStatements(path string, rs ruleset.RuleSet) ([]statementTx, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	resp, err := ofxgo.ParseResponse(f)
	if err != nil {
		return nil, &parsererror.SchemaMismatchError{RuleSet: rs.Name(), FilePath: path, Reason: "not a valid OFX response", Err: err}
	}

	var out []statementTx
	for _, msg := range append(resp.Bank, resp.CreditCard...) {
		var list *ofxgo.TransactionList
		switch stmt := msg.(type) {
		case *ofxgo.StatementResponse:
			list = stmt.BankTranList
		case *ofxgo.CCStatementResponse:
			list = stmt.BankTranList
		default:
			continue
		}
		if list == nil {
			continue
		}

		for _, tx := range list.Transactions {
			raw := tx.TrnAmt.String()
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, &parsererror.MalformedAmountError{RuleSet: rs.Name(), FilePath: path, Value: raw, Err: err}
			}

			description := string(tx.Name)
			if description == "" {
				description = string(tx.Memo)
			}

			out = append(out, statementTx{
				fitID:       string(tx.FiTID),
				date:        tx.DtPosted.Time.Format("2006-01-02"),
				description: description,
				amount:      amount,
				trnType:     tx.TrnType.String(),
			})
		}
	}
	return out, nil
}
