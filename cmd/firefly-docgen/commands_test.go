package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firefly/internal/stamper"

	"codeberg.org/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 10)
	doc.Text(40, 40, "Fire Safety Assessment")
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	path := filepath.Join(dir, "template.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestStampCmd(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir)
	values := filepath.Join(dir, "values.json")
	require.NoError(t, os.WriteFile(values, []byte(`{"company_name":"Acme","unknown_field":"x"}`), 0o644))
	out := filepath.Join(dir, "out.pdf")

	stdout, err := execute(t, "", "stamp", "--template", tpl, "--values", values, "--out", out)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "company_name")
	assert.Contains(t, stdout, string(stamper.SkippedNoMapping))
	assert.Contains(t, stdout, "1 placed, 1 skipped, 1 pages")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())
}

func TestStampCmd_ValuesFromStdin(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir)
	out := filepath.Join(dir, "out.pdf")

	stdout, err := execute(t, `{"company_name":""}`, "stamp", "--template", tpl, "--values", "-", "--out", out)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, string(stamper.SkippedEmpty))
	assert.Contains(t, stdout, "0 placed, 1 skipped")
}

func TestStampCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir)

	_, err := execute(t, "", "stamp", "--template", tpl)
	require.Error(t, err)

	_, err = execute(t, "not json", "stamp", "--template", tpl, "--values", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse values")

	_, err = execute(t, "{}", "stamp", "--template", filepath.Join(dir, "missing.pdf"), "--values", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read template")
}

func TestPositionsCmd(t *testing.T) {
	stdout, err := execute(t, "", "positions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "FIELD"))
	assert.Contains(t, stdout, "company_name")

	// --yaml 输出可以再次被 --positions 读取
	yamlOut, err := execute(t, "", "positions", "--yaml")
	require.NoError(t, err)
	table, err := stamper.ParsePositionTable(strings.NewReader(yamlOut))
	require.NoError(t, err)
	def, err := stamper.DefaultPositionTable()
	require.NoError(t, err)
	assert.Equal(t, def.Entries(), table.Entries())

	path := filepath.Join(t.TempDir(), "positions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  only_field: {page: 2, x: 10, y: 20}\n"), 0o644))
	stdout, err = execute(t, "", "--positions", path, "positions")
	require.NoError(t, err)
	assert.Contains(t, stdout, "only_field")
	assert.NotContains(t, stdout, "company_name")
}
