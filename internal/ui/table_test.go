package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableAlignsColumns(t *testing.T) {
	tbl := NewTable(2)
	tbl.AddRow("Templates", "pages/Templates.md")
	tbl.AddRow("2025_03_10", "journals/2025_03_10.md")

	want := "Templates   pages/Templates.md\n" +
		"2025_03_10  journals/2025_03_10.md\n"
	assert.Equal(t, want, tbl.String())
}

func TestTableEmpty(t *testing.T) {
	assert.Equal(t, "", NewTable(3).String())
}

func TestList(t *testing.T) {
	l := NewList()
	l.Add("20250309")
	l.Add("20250308")
	assert.Equal(t, "  • 20250309\n  • 20250308\n", l.String())
}
