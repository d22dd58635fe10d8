package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "in"),
		filepath.Join(root, "out"),
		filepath.Join(root, "in_archive"),
		filepath.Join(root, "out_archive"),
	)
	fm.Now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newManager(t)
	touch(t, filepath.Join(fm.InputDir, "b.CSV"))
	touch(t, filepath.Join(fm.InputDir, "a.xlsx"))
	touch(t, filepath.Join(fm.InputDir, "notes.txt"))
	touch(t, filepath.Join(fm.InputDir, "sub", "c.csv"))

	files, err := fm.DiscoverInputFiles(false, ".csv", ".xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.xlsx"),
		filepath.Join(fm.InputDir, "b.CSV"),
	}, files)

	files, err = fm.DiscoverInputFiles(true, ".csv")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGenerateOutputFileName(t *testing.T) {
	fm := newManager(t)

	name := fm.GenerateOutputFileName("{partner}_{invoice}_{date}", ".edi", map[string]string{
		"partner": "ACME",
		"invoice": "INV/7",
	})
	assert.Equal(t, "ACME_INV_7_20240301.edi", name)

	name = fm.GenerateOutputFileName("{uuid}.json", ".json", nil)
	assert.True(t, strings.HasSuffix(name, ".json"))
	assert.Len(t, strings.TrimSuffix(name, ".json"), 36)
}

func TestWriteAndArchive(t *testing.T) {
	fm := newManager(t)
	fm.UseTimestampSubdirs = true

	out, err := fm.WriteOutputFile("x.edi", []byte("UNB+UNOC:3'"))
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "UNB+UNOC:3'", string(data))

	archived, err := fm.ArchiveOutputFile(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.OutputArchiveDir, "2024", "03", "01", "x.edi"), archived)
	assert.FileExists(t, out)

	in := filepath.Join(fm.InputDir, "lines.csv")
	touch(t, in)
	moved, err := fm.ArchiveInputFile(in)
	require.NoError(t, err)
	assert.FileExists(t, moved)
	assert.NoFileExists(t, in)

	entries, err := os.ReadDir(fm.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2020", "old.edi")
	fresh := filepath.Join(dir, "fresh.edi")
	touch(t, old)
	touch(t, fresh)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := CleanOldArchives(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestLogs(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "lines.csv",
		ErrorType:    "validation",
		ErrorMessage: "required field 'net_price' is empty",
		RowNumber:    4,
		InvoiceKey:   "INV-1",
	}}, dir)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Invoice:        INV-1")
	assert.Contains(t, string(data), "Row Number:     4")

	path, err = WriteSummaryLog(ProcessingSummary{
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalInvoices:   3,
		FailedFilesList: []FailedFileInfo{{InputFile: "bad.csv", ErrorMessage: "boom"}},
	}, dir)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Invoices:     3")
	assert.Contains(t, string(data), "bad.csv")
}
