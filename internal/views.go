package internal

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"it-inventory-manager/internal/controller"
	"it-inventory-manager/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// dialog is one modal shown on the next render of the window.
type dialog struct {
	Kind    string // info, warn or confirm
	Title   string
	Message string
}

// webDialogs collects the feedback of one action. Confirmation takes two
// posts: the first records the question, the second carries the answer.
type webDialogs struct {
	answer  string
	shown   []dialog
	confirm *dialog
}

func (d *webDialogs) Info(title, message string) {
	d.shown = append(d.shown, dialog{Kind: "info", Title: title, Message: message})
}

func (d *webDialogs) Warn(title, message string) {
	d.shown = append(d.shown, dialog{Kind: "warn", Title: title, Message: message})
}

func (d *webDialogs) Confirm(title, message string) bool {
	switch d.answer {
	case "yes":
		return true
	case "no":
		return false
	}
	d.confirm = &dialog{Kind: "confirm", Title: title, Message: message}
	return false
}

var _ controller.Dialogs = (*webDialogs)(nil)

type fieldView struct {
	Key   string
	Label string
	Value string
}

type windowData struct {
	Fields      []fieldView
	Columns     []string
	Rows        []models.AssetRow
	Selected    int64
	SaveEnabled bool
	Dialogs     []dialog
	Confirm     *dialog
}

func newWindowData(snap controller.Snapshot, dialogs []dialog, confirm *dialog) windowData {
	values := snap.Form.Values()
	fields := make([]fieldView, len(models.Fields))
	for i, f := range models.Fields {
		fields[i] = fieldView{Key: f.Key, Label: f.Label, Value: values[i]}
	}
	return windowData{
		Fields:      fields,
		Columns:     models.ListColumns,
		Rows:        snap.Rows,
		Selected:    snap.Selected,
		SaveEnabled: snap.SaveEnabled,
		Dialogs:     dialogs,
		Confirm:     confirm,
	}
}

// formAsset reads the eight form fields from a parsed request.
func formAsset(r *http.Request) models.Asset {
	values := make([]string, len(models.Fields))
	for i, f := range models.Fields {
		values[i] = r.PostFormValue(f.Key)
	}
	return models.AssetFromValues(values)
}

// formSelection reads the chosen list row. ok is false when none is chosen.
func formSelection(r *http.Request) (int64, bool) {
	s := strings.TrimSpace(r.PostFormValue("selected"))
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
