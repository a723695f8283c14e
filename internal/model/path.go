package model

import "sort"

// Path is a set of top-level blocks forming one complete traversal through
// the survey. Paths are compared by membership, not order.
type Path struct {
	blocks map[string]*Block
}

// NewPath builds a path from the given blocks.
func NewPath(blocks ...*Block) *Path {
	p := &Path{blocks: make(map[string]*Block)}
	for _, b := range blocks {
		p.Add(b)
	}
	return p
}

// Add inserts a block into the path.
func (p *Path) Add(b *Block) {
	p.blocks[b.ID] = b
}

// Contains reports whether b is on the path.
func (p *Path) Contains(b *Block) bool {
	_, ok := p.blocks[b.ID]
	return ok
}

// ContainsAll reports whether every block of other is on this path.
func (p *Path) ContainsAll(other *Path) bool {
	for id := range other.blocks {
		if _, ok := p.blocks[id]; !ok {
			return false
		}
	}
	return true
}

// Len is the number of blocks on the path.
func (p *Path) Len() int {
	return len(p.blocks)
}

// Blocks returns the path's blocks sorted by natural block order.
func (p *Path) Blocks() []*Block {
	out := make([]*Block, 0, len(p.blocks))
	for _, b := range p.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// BlockIDs returns the sorted block IDs, for reporting.
func (p *Path) BlockIDs() []string {
	ids := make([]string, 0, len(p.blocks))
	for id := range p.blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
