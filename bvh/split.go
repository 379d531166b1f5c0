package bvh

import (
	"sort"
)

// Split rebuilds the node partition: children are sorted by their center
// along the longest axis of the node bounds, then the sorted sequence is cut
// at its middle. Each half is wrapped in a partition node, split again when
// it holds more than one child.
//
// The node children order is left untouched. A node with less than two
// children ends up without partition.
func (n *Node) Split() {
	if n.disposed {
		return
	}

	n.disposePartition()
	if len(n.children) < 2 {
		return
	}

	axis := n.bounds.LongestAxis()

	sorted := make([]*Node, len(n.children))
	copy(sorted, n.children)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].bounds.Center().component(axis) <
			sorted[j].bounds.Center().component(axis)
	})

	mid := len(sorted) / 2
	n.left = newPartition(n, sorted[:mid:mid])
	n.right = newPartition(n, sorted[mid:])
}

func newPartition(parent *Node, children []*Node) *Node {
	p := &Node{
		ID:        parent.ID,
		bounds:    unionOf(children),
		parent:    parent,
		children:  children,
		synthetic: true,
	}

	if len(children) > 1 {
		p.Split()
	}
	return p
}

func refreshPartition(p *Node) {
	if p == nil {
		return
	}

	refreshPartition(p.left)
	refreshPartition(p.right)
	p.bounds = unionOf(p.children)
}
