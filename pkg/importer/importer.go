// Package importer moves assets between the store and .xlsx workbooks.
package importer

import (
	"context"
	"io"
	"strings"

	"it-inventory-manager/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx/v3"
)

// ExportSheet is the sheet name written by ExportExcel.
const ExportSheet = "Assets"

// Store is the persistence the importer needs.
type Store interface {
	FindBySerial(ctx context.Context, serial string) (models.Asset, bool, error)
	InsertAsset(ctx context.Context, a models.Asset) (int64, error)
	UpdateAsset(ctx context.Context, id int64, a models.Asset) error
	AllAssets(ctx context.Context) ([]models.Asset, error)
}

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // empty uses the built-in mapping
	DryRun      bool
	MaxErrors   int // default 50
	Log         logrus.FieldLogger
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary contains the import statistics
type ImportSummary struct {
	RunID    string     `json:"run_id"`
	Sheet    string     `json:"sheet"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
	DryRun   bool       `json:"dry_run"`
}

const maxSamples = 20

// ImportExcel reads one sheet of the workbook and writes its rows to the store.
// A row whose serial number already exists updates that asset; any other row
// is inserted. Rows must fill all eight fields, like the form.
func ImportExcel(ctx context.Context, st Store, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
	}

	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("run_id", summary.RunID)

	mapping, err := LoadMapping(opts.MappingPath)
	if err != nil {
		return summary, errors.Wrap(err, "failed to load mapping config")
	}

	// xlsx needs random access, so read everything first
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, errors.Wrap(err, "failed to read Excel file")
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, errors.Wrap(err, "failed to open Excel file")
	}

	sheet := pickSheet(xlFile, mapping)
	if sheet == nil {
		return summary, errors.New("workbook has no sheets")
	}
	summary.Sheet = sheet.Name

	columns, err := readHeader(sheet, mapping)
	if err != nil {
		return summary, err
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		values, empty, err := readRow(sheet, rowIdx, columns)
		if err != nil {
			summary.addError(rowIdx, err.Error())
		} else if empty {
			summary.Skipped++
			continue
		} else if err := importRow(ctx, st, values, opts.DryRun, &summary); err != nil {
			summary.addError(rowIdx, err.Error())
		}

		if summary.Errors > opts.MaxErrors {
			return summary, errors.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	log.WithFields(logrus.Fields{
		"sheet":    summary.Sheet,
		"inserted": summary.Inserted,
		"updated":  summary.Updated,
		"skipped":  summary.Skipped,
		"errors":   summary.Errors,
		"dry_run":  summary.DryRun,
	}).Info("excel import finished")

	return summary, nil
}

// ExportExcel writes every asset to a single sheet with a header row of form
// labels preceded by an ID column. It returns the number of assets written.
func ExportExcel(ctx context.Context, st Store, w io.Writer) (int, error) {
	assets, err := st.AllAssets(ctx)
	if err != nil {
		return 0, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(ExportSheet)
	if err != nil {
		return 0, errors.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("ID")
	for _, f := range models.Fields {
		header.AddCell().SetString(f.Label)
	}

	for _, a := range assets {
		row := sheet.AddRow()
		row.AddCell().SetInt64(a.ID)
		for _, v := range a.Values() {
			row.AddCell().SetString(v)
		}
	}

	if err := file.Write(w); err != nil {
		return 0, errors.Wrap(err, "write workbook")
	}
	return len(assets), nil
}

func (s *ImportSummary) addError(rowIdx int, msg string) {
	s.Errors++
	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, RowError{Row: rowIdx + 1, Message: msg})
	}
}

// pickSheet returns the first sheet named in the mapping, trying the mapping's
// names in order, or else the workbook's first sheet.
func pickSheet(f *xlsx.File, m *MappingConfig) *xlsx.Sheet {
	for _, want := range m.Sheets {
		for _, sheet := range f.Sheets {
			if sameSheetName(want, sheet.Name) {
				return sheet
			}
		}
	}
	if len(f.Sheets) == 0 {
		return nil
	}
	return f.Sheets[0]
}

// readHeader returns, for each field in models.Fields order, the column index
// holding it.
func readHeader(sheet *xlsx.Sheet, m *MappingConfig) ([]int, error) {
	columns := make([]int, len(models.Fields))
	for i := range columns {
		columns[i] = -1
	}

	for col := 0; col < sheet.MaxCol; col++ {
		cell, err := sheet.Cell(0, col)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read header row")
		}
		idx, ok := m.resolve(cell.String())
		if !ok || columns[idx] != -1 {
			continue
		}
		columns[idx] = col
	}

	var missing []string
	for i, col := range columns {
		if col == -1 {
			missing = append(missing, models.Fields[i].Label)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("sheet %q has no column for %s", sheet.Name, strings.Join(missing, ", "))
	}
	return columns, nil
}

func readRow(sheet *xlsx.Sheet, rowIdx int, columns []int) ([]string, bool, error) {
	values := make([]string, len(columns))
	empty := true
	for i, col := range columns {
		cell, err := sheet.Cell(rowIdx, col)
		if err != nil {
			return nil, false, errors.Wrapf(err, "read cell %d", col+1)
		}
		values[i] = strings.TrimSpace(cell.String())
		if values[i] != "" {
			empty = false
		}
	}
	return values, empty, nil
}

func importRow(ctx context.Context, st Store, values []string, dryRun bool, summary *ImportSummary) error {
	a := models.AssetFromValues(values)
	if missing := models.MissingFields(a); len(missing) > 0 {
		return errors.Errorf("missing %s", strings.Join(missing, ", "))
	}

	existing, found, err := st.FindBySerial(ctx, a.SerialNumber)
	if err != nil {
		return err
	}

	if found {
		if !dryRun {
			if err := st.UpdateAsset(ctx, existing.ID, a); err != nil {
				return err
			}
		}
		summary.Updated++
		return nil
	}

	if !dryRun {
		if _, err := st.InsertAsset(ctx, a); err != nil {
			return err
		}
	}
	summary.Inserted++
	return nil
}
