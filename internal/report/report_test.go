package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/tally/internal/analysis"
	"fjacquet/tally/internal/budget"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleCashflow() Report {
	return Cashflow(analysis.Sums{
		{Label: "Groceries", Amount: dec("-42.5")},
		{Label: "Income", Amount: dec("1000")},
		{Label: "Total", Amount: dec("957.5")},
	})
}

func TestForFormat(t *testing.T) {
	for _, name := range []string{"text", "csv", "json", " JSON "} {
		r, err := ForFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(name)), r.Format())
	}

	_, err := ForFormat("png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, json, text")
}

func TestBuilders(t *testing.T) {
	p := Percentages([]analysis.Share{{Category: "Groceries", Amount: dec("60"), Percent: dec("60")}})
	assert.Equal(t, NamePercentages, p.Name)
	assert.Equal(t, [][]string{{"Groceries", "60.00", "60.00"}}, p.Rows)

	c := sampleCashflow()
	assert.Equal(t, NameCashflow, c.Name)
	assert.Equal(t, []string{"Total", "957.50"}, c.Rows[2])

	b := Budget([]budget.Comparison{{Label: "Cash", Actual: dec("-30"), Budget: dec("-20"), Difference: dec("-10")}})
	assert.Equal(t, NameBudget, b.Name)
	assert.Equal(t, []string{"Cash", "-30.00", "-20.00", "-10.00"}, b.Rows[0])
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(&buf, sampleCashflow()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Net cashflow by category", lines[0])
	assert.Equal(t, "Category   Amount", lines[2])
	assert.Equal(t, "Groceries  -42.50", lines[3])
	assert.Equal(t, "Total      957.50", lines[5])
}

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVRenderer{Delimiter: ';'}.Render(&buf, sampleCashflow()))
	assert.Equal(t, "Category;Amount\nGroceries;-42.50\nIncome;1000.00\nTotal;957.50\n", buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, sampleCashflow()))

	var doc struct {
		Title string              `json:"title"`
		Rows  []map[string]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Net cashflow by category", doc.Title)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, map[string]string{"Category": "Income", "Amount": "1000.00"}, doc.Rows[1])
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	renderer, err := ForFormat("csv")
	require.NoError(t, err)

	path, err := Save(dir, sampleCashflow(), renderer)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "net-cashflow.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Category,Amount\n"))
}
