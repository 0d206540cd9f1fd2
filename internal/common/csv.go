// Package common provides the CSV export of the canonical table.
package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"

	"fjacquet/tally/internal/fileutils"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"

	"github.com/gocarina/gocsv"
)

// MarshalTransactions renders transactions as CSV with an ISO date and a
// two-decimal amount. A zero delimiter means comma.
func MarshalTransactions(transactions []models.Transaction, delimiter rune) ([]byte, error) {
	rows := make([]models.TransactionRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, tx.ToRow())
	}

	var buf bytes.Buffer
	csvWriter := csv.NewWriter(&buf)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return nil, fmt.Errorf("error writing CSV data: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTransactionsToCSV writes transactions to csvFile, creating its
// directory when needed.
func WriteTransactionsToCSV(transactions []models.Transaction, csvFile string, delimiter rune, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}

	if err := fileutils.EnsureDirectoryExists(filepath.Dir(csvFile)); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := MarshalTransactions(transactions, delimiter)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal transactions to CSV")
		return err
	}
	if err := fileutils.WriteFileAtomic(csvFile, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}

	logger.Info("Wrote transactions to CSV file",
		logging.F(logging.FieldFile, csvFile),
		logging.F(logging.FieldCount, len(transactions)))
	return nil
}
