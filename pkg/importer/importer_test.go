package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"it-inventory-manager/internal/log"
	"it-inventory-manager/internal/models"
	"it-inventory-manager/internal/store"
	"it-inventory-manager/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return testutil.NewTestStore(t)
}

// workbook builds an .xlsx with one sheet holding rows as plain strings.
func workbook(t *testing.T, sheetName string, rows ...[]string) *bytes.Buffer {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, values := range rows {
		row := sh.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

var labelHeader = []string{
	"Assigned To", "Brand", "Model", "Serial Number",
	"MAC Address", "IP Address", "Warranty Expiration", "Notes",
}

func opts() ImportOptions {
	return ImportOptions{Log: log.Discard()}
}

func TestImportExcelInsertsRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	wb := workbook(t, "Assets",
		labelHeader,
		[]string{"Alice", "Dell", "XPS13", "SN1", "AA:BB", "10.0.0.1", "2026-01-01", "none"},
		[]string{"", "", "", "", "", "", "", ""},
		[]string{"Bob", "Lenovo", "T14", "SN2", "CC:DD", "10.0.0.2", "2027-06-30", "dock"},
	)

	sum, err := ImportExcel(ctx, s, wb, opts())
	require.NoError(t, err)
	assert.Equal(t, "Assets", sum.Sheet)
	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Errors)
	assert.NotEmpty(t, sum.RunID)

	rows, err := s.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].AssignedTo)
	assert.Equal(t, "SN2", rows[1].SerialNumber)
}

func TestImportExcelAliasesAndColumnOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	wb := workbook(t, "Sheet1",
		[]string{"S/N", "Owner", "Vendor", "model", "MAC", "IP", "Warranty", "Comments", "Location"},
		[]string{"SN9", "Dana", "HP", "EliteBook", "EE:FF", "10.0.0.9", "2028-02-02", "loaner", "HQ"},
	)

	sum, err := ImportExcel(ctx, s, wb, opts())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)

	a, found, err := s.FindBySerial(ctx, "SN9")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Dana", a.AssignedTo)
	assert.Equal(t, "HP", a.Brand)
	assert.Equal(t, "loaner", a.Notes)
}

func TestImportExcelUpdatesBySerial(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InsertAsset(ctx, models.AssetFromValues([]string{"Alice", "Dell", "XPS13", "SN1", "AA:BB", "10.0.0.1", "2026-01-01", "none"}))
	require.NoError(t, err)

	wb := workbook(t, "Assets",
		labelHeader,
		[]string{"Carol", "Dell", "XPS13", "SN1", "AA:BB", "10.0.0.5", "2026-01-01", "moved"},
	)
	sum, err := ImportExcel(ctx, s, wb, opts())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)
	assert.Zero(t, sum.Inserted)

	a, err := s.GetAsset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Carol", a.AssignedTo)
	assert.Equal(t, "10.0.0.5", a.IPAddress)
}

func TestImportExcelRowErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	wb := workbook(t, "Assets",
		labelHeader,
		[]string{"Alice", "Dell", "XPS13", "SN1", "AA:BB", "", "2026-01-01", "none"},
		[]string{"Bob", "Lenovo", "T14", "SN2", "CC:DD", "10.0.0.2", "2027-06-30", "dock"},
	)

	sum, err := ImportExcel(ctx, s, wb, opts())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 1, sum.Inserted)
	require.Len(t, sum.Samples, 1)
	assert.Equal(t, 2, sum.Samples[0].Row)
	assert.Contains(t, sum.Samples[0].Message, "IP Address")
}

func TestImportExcelStopsAfterMaxErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	bad := []string{"Alice", "", "", "", "", "", "", ""}
	wb := workbook(t, "Assets", labelHeader, bad, bad, bad)

	o := opts()
	o.MaxErrors = 1
	sum, err := ImportExcel(ctx, s, wb, o)
	assert.Error(t, err)
	assert.Equal(t, 2, sum.Errors)
}

func TestImportExcelDryRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	wb := workbook(t, "Assets",
		labelHeader,
		[]string{"Alice", "Dell", "XPS13", "SN1", "AA:BB", "10.0.0.1", "2026-01-01", "none"},
	)
	o := opts()
	o.DryRun = true
	sum, err := ImportExcel(ctx, s, wb, o)
	require.NoError(t, err)
	assert.True(t, sum.DryRun)
	assert.Equal(t, 1, sum.Inserted)

	n, err := s.CountAssets(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportExcelMissingColumns(t *testing.T) {
	s := newTestStore(t)
	wb := workbook(t, "Assets", []string{"Assigned To", "Brand"}, []string{"Alice", "Dell"})

	_, err := ImportExcel(context.Background(), s, wb, opts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Serial Number")
}

func TestImportExcelRejectsGarbage(t *testing.T) {
	s := newTestStore(t)
	_, err := ImportExcel(context.Background(), s, bytes.NewBufferString("not a workbook"), opts())
	assert.Error(t, err)
}

func TestExportThenImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	for _, values := range [][]string{
		{"Alice", "Dell", "XPS13", "SN1", "AA:BB", "10.0.0.1", "2026-01-01", "none"},
		{"Bob", "Lenovo", "T14", "SN2", "CC:DD", "10.0.0.2", "2027-06-30", "dock"},
	} {
		_, err := src.InsertAsset(ctx, models.AssetFromValues(values))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := ExportExcel(ctx, src, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dst := newTestStore(t)
	sum, err := ImportExcel(ctx, dst, &buf, opts())
	require.NoError(t, err)
	assert.Equal(t, ExportSheet, sum.Sheet)
	assert.Equal(t, 2, sum.Inserted)

	want, err := src.AllAssets(ctx)
	require.NoError(t, err)
	got, err := dst.AllAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMapping(t *testing.T) {
	m, err := LoadMapping("")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, []string{"Assets", "Inventory", "Equipment"}, m.Sheets)

	idx, ok := m.resolve("s/n")
	require.True(t, ok)
	assert.Equal(t, "SerialNumber", models.Fields[idx].Key)

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\naliases:\n  brand: [\"OEM\"]\n"), 0o600))
	m, err = LoadMapping(path)
	require.NoError(t, err)
	idx, ok = m.resolve("oem")
	require.True(t, ok)
	assert.Equal(t, "Brand", models.Fields[idx].Key)

	_, err = parseMapping([]byte("version: 2\n"))
	assert.Error(t, err)
	_, err = parseMapping([]byte("version: 1\naliases:\n  site: [\"Location\"]\n"))
	assert.Error(t, err)
}

func TestParseMappingRejectsAmbiguousAliases(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"alias under two columns", "version: 1\naliases:\n  brand: [\"Make\"]\n  model: [\" make \"]\n"},
		{"alias naming another column", "version: 1\naliases:\n  model: [\"Brand\"]\n"},
		{"empty alias", "version: 1\naliases:\n  notes: [\"  \"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMapping([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	// repeating an alias under its own column is harmless
	m, err := parseMapping([]byte("version: 1\naliases:\n  brand: [\"Make\", \"MAKE\", \"Brand\"]\n"))
	require.NoError(t, err)
	idx, ok := m.resolve("make")
	require.True(t, ok)
	assert.Equal(t, "Brand", models.Fields[idx].Key)
}

func TestImportExcelPicksSheetInMappingOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f := xlsx.NewFile()
	for _, sheet := range []struct {
		name   string
		serial string
	}{
		{"Equipment", "SN-EQ"},
		{"Assets", "SN-AS"},
	} {
		sh, err := f.AddSheet(sheet.name)
		require.NoError(t, err)
		header := sh.AddRow()
		for _, label := range labelHeader {
			header.AddCell().SetString(label)
		}
		row := sh.AddRow()
		for _, v := range []string{"Alice", "Dell", "XPS13", sheet.serial, "AA:BB", "10.0.0.1", "2026-01-01", "none"} {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	sum, err := ImportExcel(ctx, s, &buf, opts())
	require.NoError(t, err)
	assert.Equal(t, "Assets", sum.Sheet)

	_, found, err := s.FindBySerial(ctx, "SN-AS")
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = s.FindBySerial(ctx, "SN-EQ")
	require.NoError(t, err)
	assert.False(t, found)
}
