package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailableWidth(t *testing.T) {
	d := &DisplayContext{TermWidth: 100}
	assert.Equal(t, 98, d.AvailableWidth(MarkdownRenderMargin))

	narrow := &DisplayContext{TermWidth: 10}
	assert.Equal(t, minRenderWidth, narrow.AvailableWidth(MarkdownRenderMargin))
}

func TestNewDisplayContextHasWidth(t *testing.T) {
	assert.Positive(t, NewDisplayContext().TermWidth)
}
