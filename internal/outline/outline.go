// Package outline models a page's block tree and its flattened lookup index.
package outline

// Block is one outliner block: an id unique within its page, its text and
// its ordered children.
type Block struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Children []Block `json:"children,omitempty"`
}

// Index is the flattened form of a block forest. It is rebuilt for every pass
// and never cached.
type Index struct {
	blocks     []Block
	position   map[string]int
	parentOf   map[string]string
	childrenOf map[string][]string
}

// Flatten walks forest depth-first in document order. Blocks keep their
// Children slices; the index only adds parent/child lookups. A repeated id
// keeps its first occurrence.
func Flatten(forest []Block) *Index {
	idx := &Index{
		position:   make(map[string]int),
		parentOf:   make(map[string]string),
		childrenOf: make(map[string][]string),
	}
	idx.walk(forest, "")
	return idx
}

func (idx *Index) walk(blocks []Block, parent string) {
	for _, b := range blocks {
		if _, seen := idx.position[b.ID]; seen {
			continue
		}
		idx.position[b.ID] = len(idx.blocks)
		idx.blocks = append(idx.blocks, b)
		if parent != "" {
			idx.parentOf[b.ID] = parent
			idx.childrenOf[parent] = append(idx.childrenOf[parent], b.ID)
		}
		idx.walk(b.Children, b.ID)
	}
}

// Blocks returns every block in document order.
func (idx *Index) Blocks() []Block {
	return idx.blocks
}

// Len returns the number of indexed blocks.
func (idx *Index) Len() int {
	return len(idx.blocks)
}

// Block looks up a block by id.
func (idx *Index) Block(id string) (Block, bool) {
	i, ok := idx.position[id]
	if !ok {
		return Block{}, false
	}
	return idx.blocks[i], true
}

// Parent returns the parent id of id; false for root-level or unknown blocks.
func (idx *Index) Parent(id string) (string, bool) {
	p, ok := idx.parentOf[id]
	return p, ok
}

// Children returns the ordered child ids of id.
func (idx *Index) Children(id string) []string {
	return idx.childrenOf[id]
}

// Subtree returns rootID followed by all of its descendants in document order.
// An unknown root yields nil.
func (idx *Index) Subtree(rootID string) []string {
	if _, ok := idx.position[rootID]; !ok {
		return nil
	}
	var out []string
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, id)

		kids := idx.childrenOf[id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
