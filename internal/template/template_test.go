package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/ebbinghaus/internal/marker"
)

func TestApply_OffsetsQuery(t *testing.T) {
	out := Apply(OffsetsQuery, NewOffsetsVariables("created", "@ebbinghaus-created"))

	assert.Contains(t, out, `{:title "Ebbinghaus created offsets (exclude today)"`)
	assert.Contains(t, out, `[(get ?props :created) ?c]`)
	assert.Contains(t, out, `:inputs [["20000101"]]}`)
	assert.True(t, marker.HasInputsClause(out))
	assert.True(t, marker.Contains(out, "@ebbinghaus-created"))
	assert.NotContains(t, out, "{{")
}

func TestApply_RangeQueryUsesDefaultRange(t *testing.T) {
	def := &marker.Sentinel{Start: "20250301", End: "20250331"}
	out := Apply(RangeQuery, NewRangeVariables("created", "@ebbinghaus-range", def))

	assert.Contains(t, out, ";; @ebbinghaus-range RANGE:20250301-20250331")
	s, ok := marker.ExtractRangeSentinel(out)
	require.True(t, ok)
	assert.Equal(t, *def, s)
}

func TestNewRangeVariables_Fallback(t *testing.T) {
	tests := []struct {
		name string
		def  *marker.Sentinel
	}{
		{"nil", nil},
		{"empty", &marker.Sentinel{}},
		{"invalid", &marker.Sentinel{Start: "20250229", End: "20250301"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := NewRangeVariables("created", "m", tt.def)
			assert.Equal(t, "RANGE:20250101-20251010", vars.Sentinel)
		})
	}
}

func TestApply_EscapesAndUnknown(t *testing.T) {
	vars := &Variables{Title: "T", Marker: "m"}

	assert.Equal(t, "{{title}} T {{unknown}}", Apply(`\{{title\}} {{title}} {{unknown}}`, vars))
	assert.Equal(t, "", Apply("", vars))
	assert.Equal(t, "{{title}}", Apply("{{title}}", nil))
}

func TestLoad(t *testing.T) {
	graph := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(graph, "templates"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(graph, "templates", "range.txt"), []byte("custom {{marker}}\n"), 0o644))

	got, err := Load(graph, "range.txt", "templates", RangeQuery)
	require.NoError(t, err)
	assert.Equal(t, "custom {{marker}}", got)

	got, err = Load(graph, "", "templates", RangeQuery)
	require.NoError(t, err)
	assert.Equal(t, RangeQuery, got)

	_, err = Load(graph, "../outside.txt", "", RangeQuery)
	assert.Error(t, err)

	_, err = Load(graph, "missing.txt", "templates", RangeQuery)
	assert.ErrorContains(t, err, "template file not found")

	_, err = Load(graph, "a\nb", "", RangeQuery)
	assert.ErrorContains(t, err, "inline template")
}
