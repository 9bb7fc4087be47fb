package models

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Asset represents one inventory record
type Asset struct {
	ID                 int64  `json:"id"`
	AssignedTo         string `json:"assigned_to" validate:"required"`
	Brand              string `json:"brand" validate:"required"`
	Model              string `json:"model" validate:"required"`
	SerialNumber       string `json:"serial_number" validate:"required"`
	MACAddress         string `json:"mac_address" validate:"required"`
	IPAddress          string `json:"ip_address" validate:"required"`
	WarrantyExpiration string `json:"warranty_expiration" validate:"required"`
	Notes              string `json:"notes" validate:"required"`
}

// AssetRow is the projection shown in the asset list
type AssetRow struct {
	ID           int64  `json:"id"`
	AssignedTo   string `json:"assigned_to"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// Field describes one editable asset attribute.
type Field struct {
	Key    string // form key and struct field name
	Column string
	Label  string
}

// Fields lists the editable attributes in form and column order. The id is
// never part of the form.
var Fields = []Field{
	{Key: "AssignedTo", Column: "assigned_to", Label: "Assigned To"},
	{Key: "Brand", Column: "brand", Label: "Brand"},
	{Key: "Model", Column: "model", Label: "Model"},
	{Key: "SerialNumber", Column: "serial_number", Label: "Serial Number"},
	{Key: "MACAddress", Column: "mac_address", Label: "MAC Address"},
	{Key: "IPAddress", Column: "ip_address", Label: "IP Address"},
	{Key: "WarrantyExpiration", Column: "warranty_expiration", Label: "Warranty Expiration"},
	{Key: "Notes", Column: "notes", Label: "Notes"},
}

// ListColumns are the headings of the asset list.
var ListColumns = []string{"Assigned To", "Brand", "Model", "Serial Number"}

// Values returns the eight editable values in Fields order.
func (a Asset) Values() []string {
	return []string{
		a.AssignedTo, a.Brand, a.Model, a.SerialNumber,
		a.MACAddress, a.IPAddress, a.WarrantyExpiration, a.Notes,
	}
}

// AssetFromValues builds an Asset from values in Fields order. Missing
// trailing values are left empty.
func AssetFromValues(values []string) Asset {
	v := make([]string, len(Fields))
	copy(v, values)
	return Asset{
		AssignedTo:         v[0],
		Brand:              v[1],
		Model:              v[2],
		SerialNumber:       v[3],
		MACAddress:         v[4],
		IPAddress:          v[5],
		WarrantyExpiration: v[6],
		Notes:              v[7],
	}
}

// Row returns the list projection of the asset.
func (a Asset) Row() AssetRow {
	return AssetRow{
		ID:           a.ID,
		AssignedTo:   a.AssignedTo,
		Brand:        a.Brand,
		Model:        a.Model,
		SerialNumber: a.SerialNumber,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func assetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// MissingFields returns the labels of every empty editable field, in form
// order. Only presence is checked; formats are not.
func MissingFields(a Asset) []string {
	err := assetValidator().Struct(a)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = true
	}
	missing := make([]string, 0, len(failed))
	for _, f := range Fields {
		if failed[f.Key] {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// FieldByHeader resolves a column heading to a field, ignoring case and
// surrounding spaces. Both labels ("Serial Number") and column names
// ("serial_number") match.
func FieldByHeader(header string) (Field, bool) {
	h := strings.ToUpper(strings.TrimSpace(header))
	for _, f := range Fields {
		if h == strings.ToUpper(f.Label) || h == strings.ToUpper(f.Column) {
			return f, true
		}
	}
	return Field{}, false
}
