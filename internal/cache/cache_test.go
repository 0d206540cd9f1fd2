package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() models.CanonicalTable {
	return models.CanonicalTable{
		RunID:     "0b6f7c2e-run",
		CreatedAt: time.Date(2023, 2, 1, 9, 30, 0, 0, time.UTC),
		Transactions: []models.Transaction{
			{
				Date:        time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
				Description: "COFFEE SHOP",
				Amount:      decimal.RequireFromString("-4.50"),
				Category:    "Restaurants",
				Source:      "/data/checking/jan.csv",
			},
			{
				Date:        time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
				Description: "ACME PAYROLL",
				Amount:      decimal.RequireFromString("2500"),
				Category:    "Income",
			},
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cache"), "frame.gob", logging.NewMockLogger())
	table := sampleTable()

	require.NoError(t, store.Save(table))
	loaded, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, table.RunID, loaded.RunID)
	assert.True(t, table.CreatedAt.Equal(loaded.CreatedAt))
	require.Len(t, loaded.Transactions, 2)
	for i, tx := range table.Transactions {
		got := loaded.Transactions[i]
		assert.True(t, tx.Date.Equal(got.Date))
		assert.Equal(t, tx.Description, got.Description)
		assert.True(t, tx.Amount.Equal(got.Amount), "amount %s != %s", tx.Amount, got.Amount)
		assert.Equal(t, tx.Category, got.Category)
		assert.Equal(t, tx.Source, got.Source)
	}
}

func TestStore_Miss(t *testing.T) {
	store := NewStore(t.TempDir(), "frame.gob", logging.NewMockLogger())

	table, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, table.Transactions)
}

func TestStore_SaveReplaces(t *testing.T) {
	store := NewStore(t.TempDir(), "frame.gob", logging.NewMockLogger())

	require.NoError(t, store.Save(sampleTable()))
	require.NoError(t, store.Save(models.CanonicalTable{RunID: "second"}))

	loaded, found, err := store.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", loaded.RunID)
	assert.Empty(t, loaded.Transactions)
}

func TestStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame.gob"), []byte("not gob"), 0600))

	_, found, err := NewStore(dir, "frame.gob", logging.NewMockLogger()).Load()
	assert.Error(t, err)
	assert.False(t, found)
}

func TestStore_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(envelope{Version: formatVersion + 1}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame.gob"), buf.Bytes(), 0600))

	_, found, err := NewStore(dir, "frame.gob", logging.NewMockLogger()).Load()
	assert.True(t, errors.Is(err, ErrVersion))
	assert.False(t, found)
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(t.TempDir(), "frame.gob", logging.NewMockLogger())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Save(sampleTable()))
	require.NoError(t, store.Clear())

	_, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}
