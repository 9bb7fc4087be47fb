package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"it-inventory-manager/pkg/importer"
)

// RequestError is an upload the handler refused before importing anything.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// ImportsHandler handles spreadsheet import and export
type ImportsHandler struct {
	Store       importer.Store
	MaxBytes    int64
	MappingPath string
	Log         logrus.FieldLogger
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(st importer.Store, maxBytes int64, mappingPath string, log logrus.FieldLogger) *ImportsHandler {
	if maxBytes <= 0 {
		maxBytes = 20 << 20 // 20 MB
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ImportsHandler{
		Store:       st,
		MaxBytes:    maxBytes,
		MappingPath: mappingPath,
		Log:         log,
	}
}

// Import validates a multipart upload and imports its workbook. Refused
// uploads are reported as *RequestError.
func (h *ImportsHandler) Import(w http.ResponseWriter, r *http.Request) (importer.ImportSummary, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		return importer.ImportSummary{}, &RequestError{http.StatusBadRequest, "content-type must be multipart/form-data"}
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		return importer.ImportSummary{}, &RequestError{http.StatusBadRequest, "invalid multipart form: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return importer.ImportSummary{}, &RequestError{http.StatusBadRequest, "file is required: " + err.Error()}
	}
	defer file.Close()

	if !isXLSX(header) {
		return importer.ImportSummary{}, &RequestError{http.StatusBadRequest, "only .xlsx files are accepted"}
	}

	sum, err := importer.ImportExcel(r.Context(), h.Store, file, importer.ImportOptions{
		MappingPath: h.MappingPath,
		DryRun:      r.FormValue("dry_run") == "true",
		Log:         h.Log.WithField("file", header.Filename),
	})
	if err != nil {
		return sum, errors.Wrap(err, "import failed")
	}
	return sum, nil
}

// ExportExcel streams every asset as an .xlsx attachment
func (h *ImportsHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	n, err := importer.ExportExcel(r.Context(), h.Store, w)
	if err != nil {
		h.Log.WithError(err).Error("excel export failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.Log.WithField("assets", n).Info("excel export finished")
}

// Summary renders an import result as one line for a dialog.
func Summary(sum importer.ImportSummary) string {
	prefix := "Imported"
	if sum.DryRun {
		prefix = "Dry run"
	}
	msg := fmt.Sprintf("%s sheet %q: %d inserted, %d updated, %d skipped, %d errors.",
		prefix, sum.Sheet, sum.Inserted, sum.Updated, sum.Skipped, sum.Errors)
	if len(sum.Samples) > 0 {
		first := sum.Samples[0]
		msg += fmt.Sprintf(" Row %d: %s", first.Row, first.Message)
	}
	return msg
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}
