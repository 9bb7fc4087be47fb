package importer

import (
	"embed"
	"os"
	"strings"

	"it-inventory-manager/internal/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed mapping/default.yaml
var mappingFS embed.FS

// MappingConfig represents the YAML mapping configuration
type MappingConfig struct {
	Version int                 `yaml:"version"`
	Sheets  []string            `yaml:"sheets"`
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadMapping reads the mapping at path, or the built-in mapping when path is
// empty.
func LoadMapping(path string) (*MappingConfig, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(path) == "" {
		data, err = mappingFS.ReadFile("mapping/default.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read mapping")
	}
	return parseMapping(data)
}

func parseMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parse mapping")
	}
	if m.Version != 1 {
		return nil, errors.Errorf("unsupported mapping version %d", m.Version)
	}
	// each alias names exactly one column
	owner := make(map[string]string)
	for column, aliases := range m.Aliases {
		field, ok := models.FieldByHeader(column)
		if !ok {
			return nil, errors.Errorf("mapping alias for unknown column %q", column)
		}
		for _, alias := range aliases {
			key := strings.ToUpper(strings.TrimSpace(alias))
			if key == "" {
				return nil, errors.Errorf("empty alias for column %q", column)
			}
			if named, ok := models.FieldByHeader(alias); ok && named.Key != field.Key {
				return nil, errors.Errorf("alias %q for column %q is the name of column %q", alias, column, named.Column)
			}
			if prev, ok := owner[key]; ok && prev != field.Key {
				return nil, errors.Errorf("alias %q is listed for more than one column", alias)
			}
			owner[key] = field.Key
		}
	}
	return &m, nil
}

// resolve maps a header cell to the index of an asset field in models.Fields.
func (m *MappingConfig) resolve(header string) (int, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	if f, ok := models.FieldByHeader(header); ok {
		return fieldIndex(f), true
	}
	for column, aliases := range m.Aliases {
		for _, alias := range aliases {
			if strings.EqualFold(strings.TrimSpace(alias), header) {
				f, _ := models.FieldByHeader(column)
				return fieldIndex(f), true
			}
		}
	}
	return 0, false
}

func sameSheetName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func fieldIndex(f models.Field) int {
	for i, candidate := range models.Fields {
		if candidate.Key == f.Key {
			return i
		}
	}
	return -1
}
