package export

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"kirum/internal/derive"
)

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// ReadVariables loads a flat name: value YAML (or JSON) file.
func ReadVariables(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading variables file %s: %w", path, err)
	}
	vars := make(map[string]string)
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("error parsing variables file %s: %w", path, err)
	}
	return vars, nil
}

// ApplyVariables replaces every {{name}} in the record definitions with its
// value. Names missing from vars become empty.
func ApplyVariables(recs []derive.Record, vars map[string]string) {
	for i := range recs {
		recs[i].Definition = placeholder.ReplaceAllStringFunc(recs[i].Definition, func(m string) string {
			return vars[placeholder.FindStringSubmatch(m)[1]]
		})
	}
}
