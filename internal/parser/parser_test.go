package parser

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRegistry_DispatchByExtension(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		path string
		want any
	}{
		{"notes.txt", Text{}},
		{"NOTES.TXT", Text{}},
		{"readme.md", Text{}},
		{"paper.PDF", PDF{}},
		{"letter.docx", Docx{}},
		{"budget.xlsx", Xlsx{}},
		{"page.htm", HTML{}},
		{"page.html", HTML{}},
		{"main.go", Text{}},
		{"Makefile", Text{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.IsType(t, tt.want, r.For(tt.path))
		})
	}
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register(HTML{}, "xml")
	assert.IsType(t, HTML{}, r.For("feed.XML"))
	assert.Contains(t, r.Extensions(), ".xml")
}

func TestText(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", "hello\nworld")
	got, err := NewRegistry().Parse(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", got)

	_, err = Text{}.Parse(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTML_DropsScriptsAndStyles(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "page.html", `<html><head><title>Quarterly report</title>
<style>body{color:red}</style></head>
<body><h1>Revenue</h1>
<script>var x = 1;</script>
<p>Revenue   grew
 by ten percent.</p></body></html>`)

	got, err := HTML{}.Parse(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report\nRevenue Revenue grew by ten percent.", got)
}

func TestDocx(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "letter.docx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Dear</w:t></w:r><w:r><w:t xml:space="preserve"> reader,</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	got, err := Docx{}.Parse(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Dear reader,\nSecond\tline", got)
}

func TestDocx_NotAZip(t *testing.T) {
	p := writeFile(t, t.TempDir(), "broken.docx", "plain text")
	_, err := Docx{}.Parse(context.Background(), p)
	assert.Error(t, err)
}

func TestXlsx(t *testing.T) {
	p := filepath.Join(t.TempDir(), "budget.xlsx")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "item"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "cost"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "paper, A4"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", 12))
	require.NoError(t, wb.SaveAs(p))
	require.NoError(t, wb.Close())

	got, err := Xlsx{}.Parse(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Sheet: Sheet1\nitem,cost\n\"paper, A4\",12\n\n\n", got)
}

func TestPDF_InvalidFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "fake.pdf", "not a pdf")
	_, err := PDF{}.Parse(context.Background(), p)
	assert.Error(t, err)
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := writeFile(t, t.TempDir(), "a.txt", "x")
	_, err := NewRegistry().Parse(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}
