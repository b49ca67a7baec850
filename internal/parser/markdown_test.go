package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHeadings(t *testing.T) {
	content := "# Reading\n\n- ## Weekly\n  body\n- plain\n"
	hs := ExtractHeadings(content)
	require.Len(t, hs, 2)
	assert.Equal(t, Heading{Level: 1, Text: "Reading", Line: 1}, hs[0])
	assert.Equal(t, "Weekly", hs[1].Text)
	assert.Equal(t, 2, hs[1].Level)
	assert.Equal(t, 3, hs[1].Line)
}

func TestPageTitle(t *testing.T) {
	assert.Equal(t, "Spaced", PageTitle("title:: Spaced\n- # Heading\n"))
	assert.Equal(t, "Heading", PageTitle("- # Heading\n- body\n"))
	assert.Equal(t, "", PageTitle("- body\n"))
}
