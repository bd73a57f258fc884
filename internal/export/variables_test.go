package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirum/internal/derive"
)

func TestVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("place: the <north>\nruler: queen\n"), 0o644))
	vars, err := ReadVariables(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"place": "the <north>", "ruler": "queen"}, vars)

	recs := []derive.Record{
		{ID: "a", Definition: "a town in {{place}}, ruled by the {{ ruler }}"},
		{ID: "b", Definition: "{{missing}}gone"},
		{ID: "c", Definition: "{ plain } {{}}"},
	}
	ApplyVariables(recs, vars)
	assert.Equal(t, "a town in the <north>, ruled by the queen", recs[0].Definition)
	assert.Equal(t, "gone", recs[1].Definition)
	assert.Equal(t, "{ plain } {{}}", recs[2].Definition)
}

func TestReadVariablesErrors(t *testing.T) {
	_, err := ReadVariables(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "error reading variables file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o644))
	_, err = ReadVariables(path)
	assert.ErrorContains(t, err, "error parsing variables file")
}
