package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForest() []Block {
	return []Block{
		{ID: "a", Text: "root a", Children: []Block{
			{ID: "a1", Text: "child a1", Children: []Block{
				{ID: "a1x", Text: "grandchild"},
			}},
			{ID: "a2", Text: "child a2"},
		}},
		{ID: "b", Text: "root b"},
	}
}

func TestFlatten_DocumentOrder(t *testing.T) {
	idx := Flatten(sampleForest())

	var ids []string
	for _, b := range idx.Blocks() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"a", "a1", "a1x", "a2", "b"}, ids)
	assert.Equal(t, 5, idx.Len())
}

func TestFlatten_ParentChildrenInverse(t *testing.T) {
	idx := Flatten(sampleForest())

	_, ok := idx.Parent("a")
	assert.False(t, ok, "root has no parent")
	_, ok = idx.Parent("b")
	assert.False(t, ok)

	for _, b := range idx.Blocks() {
		for _, child := range idx.Children(b.ID) {
			parent, ok := idx.Parent(child)
			require.True(t, ok)
			assert.Equal(t, b.ID, parent)
		}
		if parent, ok := idx.Parent(b.ID); ok {
			assert.Contains(t, idx.Children(parent), b.ID)
		}
	}
	assert.Equal(t, []string{"a1", "a2"}, idx.Children("a"))
	assert.Empty(t, idx.Children("b"))
}

func TestFlatten_DuplicateIDKeptOnce(t *testing.T) {
	idx := Flatten([]Block{{ID: "x", Text: "one"}, {ID: "x", Text: "two"}})
	assert.Equal(t, 1, idx.Len())
	b, ok := idx.Block("x")
	require.True(t, ok)
	assert.Equal(t, "one", b.Text)
}

func TestSubtree(t *testing.T) {
	idx := Flatten(sampleForest())

	assert.Equal(t, []string{"a", "a1", "a1x", "a2"}, idx.Subtree("a"))
	assert.Equal(t, []string{"a1", "a1x"}, idx.Subtree("a1"))
	assert.Equal(t, []string{"b"}, idx.Subtree("b"))
	assert.Nil(t, idx.Subtree("missing"))
}

func TestFlatten_Empty(t *testing.T) {
	idx := Flatten(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Subtree("a"))
}
