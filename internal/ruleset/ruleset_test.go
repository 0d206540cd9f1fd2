package ruleset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/tally/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chase.yaml")
	writeFile(t, path, `
type: CSV
directory: /data/chase
skip lines: 2
columns:
  Date: Posting Date
  Description: Description
  Amount: Amount
  Category: Type
`)

	raw, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "chase", raw.Name)
	assert.Equal(t, path, raw.Path)
	assert.Equal(t, "CSV", raw.Type())
	assert.True(t, raw.Has(FieldColumns))
	assert.False(t, raw.Has(FieldHashColumn))
	assert.Equal(t, []string{"columns", "directory", "skip lines", "type"}, raw.Keys())
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax.yaml": "type: [csv\n",
		"list.yaml":   "- type: csv\n",
		"empty.yaml":  "",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, parsererror.ErrConfigParse))
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "type: csv")
	writeFile(t, filepath.Join(dir, "bank", "a.yml"), "type: csv")
	writeFile(t, filepath.Join(dir, "README.md"), "notes")

	files, err := Discover(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "bank", "a.yml"),
	}, files)

	files, err = Discover(filepath.Join(dir, "missing"), nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func rawOf(fields map[string]interface{}) Raw {
	return Raw{Name: "test", Path: "test.yaml", Fields: fields}
}

func assertInvalid(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrInvalidRule), err.Error())
	var ruleErr *parsererror.InvalidRuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, field, ruleErr.Field)
	assert.Equal(t, "test", ruleErr.RuleSet)
}

func TestRaw_Bool(t *testing.T) {
	raw := rawOf(map[string]interface{}{"yes": true, "no": false, "bad": "true", "null": nil})

	v, err := raw.Bool("yes", false)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = raw.Bool("no", true)
	require.NoError(t, err)
	assert.False(t, v)

	v, err = raw.Bool("absent", true)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = raw.Bool("null", true)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = raw.Bool("bad", false)
	assertInvalid(t, err, "bad")
}

func TestRaw_NonNegInt(t *testing.T) {
	raw := rawOf(map[string]interface{}{"two": 2, "neg": -1, "str": "2", "float": 2.5})

	n, err := raw.NonNegInt("two", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = raw.NonNegInt("absent", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = raw.NonNegInt("neg", 0)
	assertInvalid(t, err, "neg")
	_, err = raw.NonNegInt("str", 0)
	assertInvalid(t, err, "str")
	_, err = raw.NonNegInt("float", 0)
	assertInvalid(t, err, "float")
}

func TestRaw_RequireString(t *testing.T) {
	raw := rawOf(map[string]interface{}{"dir": " /data ", "blank": "  ", "num": 3})

	s, err := raw.RequireString("dir")
	require.NoError(t, err)
	assert.Equal(t, "/data", s)

	_, err = raw.RequireString("missing")
	assertInvalid(t, err, "missing")
	_, err = raw.RequireString("blank")
	assertInvalid(t, err, "blank")
	_, err = raw.RequireString("num")
	assertInvalid(t, err, "num")
}

func TestRaw_StringMap(t *testing.T) {
	raw := rawOf(map[string]interface{}{
		"ok":     map[string]interface{}{"Gas": "Automotive"},
		"intkey": map[interface{}]interface{}{1: "Other"},
		"badval": map[string]interface{}{"Gas": 1},
		"list":   []interface{}{"Gas"},
	})

	m, err := raw.StringMap("ok")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Gas": "Automotive"}, m)

	m, err = raw.StringMap("intkey")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "Other"}, m)

	m, err = raw.StringMap("absent")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = raw.StringMap("badval")
	assertInvalid(t, err, "badval")
	_, err = raw.StringMap("list")
	assertInvalid(t, err, "list")
}

func TestRaw_ColumnRefOf(t *testing.T) {
	raw := rawOf(nil)

	ref, err := raw.ColumnRefOf("Date", "Posting Date", true)
	require.NoError(t, err)
	assert.Equal(t, ByName("Posting Date"), ref)

	ref, err = raw.ColumnRefOf("Date", 3, false)
	require.NoError(t, err)
	assert.Equal(t, ByIndex(3), ref)

	_, err = raw.ColumnRefOf("Date", 3, true)
	assertInvalid(t, err, "Date")
	_, err = raw.ColumnRefOf("Date", "Posting Date", false)
	assertInvalid(t, err, "Date")
	_, err = raw.ColumnRefOf("Date", -1, false)
	assertInvalid(t, err, "Date")
}

func TestRaw_RejectUnknown(t *testing.T) {
	raw := rawOf(map[string]interface{}{"type": "csv", "colums": nil})
	assertInvalid(t, raw.RejectUnknown(FieldType, FieldColumns), "colums")
	assert.NoError(t, raw.RejectUnknown(FieldType, "colums"))
}

func TestRuleSet_IsImmutable(t *testing.T) {
	columns := map[string]ColumnRef{"Date": ByIndex(0)}
	categories := map[string]string{"Gas": "Automotive"}
	rs := New(Spec{Name: "chase", Columns: columns, Categories: categories})

	columns["Date"] = ByIndex(9)
	categories["Gas"] = "Other"
	assert.Equal(t, ByIndex(0), rs.Columns()["Date"])
	assert.Equal(t, "Automotive", rs.RewriteCategory("Gas"))

	rs.Columns()["Date"] = ByIndex(7)
	rs.Categories()["Gas"] = "Other"
	ref, ok := rs.Column("Date")
	assert.True(t, ok)
	assert.Equal(t, ByIndex(0), ref)
	assert.Equal(t, "Automotive", rs.RewriteCategory("Gas"))
}

func TestRuleSet_RewriteCategory(t *testing.T) {
	rs := New(Spec{Categories: map[string]string{"Gas": "Automotive"}})
	assert.Equal(t, "Automotive", rs.RewriteCategory("Gas"))
	assert.Equal(t, "gas", rs.RewriteCategory("gas"))
	assert.Equal(t, "", rs.RewriteCategory(""))
}

func TestRuleSet_RewriteCategoryDoesNotChain(t *testing.T) {
	rs := New(Spec{Categories: map[string]string{"Gas": "Fuel", "Fuel": "Automotive"}})
	for i := 0; i < 20; i++ {
		assert.Equal(t, "Fuel", rs.RewriteCategory("Gas"))
	}
	assert.Equal(t, "Automotive", rs.RewriteCategory("Fuel"))
}

func TestColumnRef_String(t *testing.T) {
	assert.Equal(t, `"Amount"`, ByName("Amount").String())
	assert.Equal(t, "#2", ByIndex(2).String())
}

func TestRaw_Directory(t *testing.T) {
	t.Setenv("TALLY_TEST_DATA", "/data")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		value    interface{}
		expected string
	}{
		{"/srv/bank/", "/srv/bank"},
		{"$TALLY_TEST_DATA/chase", "/data/chase"},
		{"~/bank", filepath.Join(home, "bank")},
	}
	for _, tt := range tests {
		raw := rawOf(map[string]interface{}{FieldDirectory: tt.value})
		dir, err := raw.Directory()
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(tt.expected), dir)
	}

	_, err = rawOf(map[string]interface{}{}).Directory()
	assertInvalid(t, err, FieldDirectory)
}
