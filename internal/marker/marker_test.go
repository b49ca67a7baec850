package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains(";; @ebbinghaus-range", "@ebbinghaus-range"))
	assert.False(t, Contains(";; @Ebbinghaus-Range", "@ebbinghaus-range"))
	assert.False(t, Contains("anything", ""))
}

func TestExtractRangeSentinel(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Sentinel
		ok   bool
	}{
		{"dash", "see RANGE:20250301-20250303 here", Sentinel{"20250301", "20250303"}, true},
		{"dots", "RANGE:20250301..20250303", Sentinel{"20250301", "20250303"}, true},
		{"spaces", "RANGE:20250301 - 20250303", Sentinel{"20250301", "20250303"}, true},
		{"spaced dots", "RANGE:20250301 .. 20250303", Sentinel{"20250301", "20250303"}, true},
		{"first wins", "RANGE:20250101-20250102 RANGE:20260101-20260102", Sentinel{"20250101", "20250102"}, true},
		{"not calendar checked", "RANGE:20251399-20250000", Sentinel{"20251399", "20250000"}, true},
		{"short token", "RANGE:2025031-20250303", Sentinel{}, false},
		{"lowercase", "range:20250301-20250303", Sentinel{}, false},
		{"missing", "no sentinel", Sentinel{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractRangeSentinel(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSentinelString(t *testing.T) {
	assert.Equal(t, "RANGE:20250101-20251010", Sentinel{Start: "20250101", End: "20251010"}.String())
}

func TestFormatInputs(t *testing.T) {
	assert.Equal(t, `:inputs [["20250101"]]`, FormatInputs([]string{"20250101"}))
	assert.Equal(t,
		":inputs [[\"20250101\"\n          \"20250102\"\n          \"20250103\"]]",
		FormatInputs([]string{"20250101", "20250102", "20250103"}))
}

func TestReplaceInputs(t *testing.T) {
	text := "{:title \"x\"\n :inputs [[\"20000101\"]]}\n#+END_QUERY"
	clause := FormatInputs([]string{"20250301", "20250302"})

	out, changed := ReplaceInputs(text, clause)
	assert.True(t, changed)
	assert.Equal(t, "{:title \"x\"\n "+clause+"}\n#+END_QUERY", out)

	again, changed := ReplaceInputs(out, clause)
	assert.False(t, changed)
	assert.Equal(t, out, again)
}

func TestReplaceInputs_MultiLineClause(t *testing.T) {
	text := ":inputs [[\"20250101\"\n           \"20250102\"]]} tail :inputs [[\"x\"]]"
	out, changed := ReplaceInputs(text, `:inputs [["20250105"]]`)
	assert.True(t, changed)
	assert.Equal(t, `:inputs [["20250105"]]} tail :inputs [["x"]]`, out)
}

func TestReplaceInputs_NoClause(t *testing.T) {
	out, changed := ReplaceInputs("plain block", `:inputs [["20250101"]]`)
	assert.False(t, changed)
	assert.Equal(t, "plain block", out)
	assert.False(t, HasInputsClause("plain :inputs [ \"x\" ]"))
	assert.True(t, HasInputsClause(":inputs\n[[\"x\"]]"))
}
