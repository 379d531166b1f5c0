package bvh

// Stats describes the shape of a hierarchy.
type Stats struct {
	NodeCount      int `json:"node_count"`
	LeafCount      int `json:"leaf_count"`
	Depth          int `json:"depth"`
	PartitionDepth int `json:"partition_depth"`
	Bounds         Box `json:"bounds"`
}

// Walk calls fn for the node and each of its descendants, depth first,
// parents before children. Partition nodes are not walked. Returning false
// from fn skips the descendants of the given node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}

	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

// Query returns the leaf descendants whose bounds overlap the given region.
// Subtrees whose stored bounds do not overlap the region are skipped.
func (n *Node) Query(region Box) []*Node {
	var leaves []*Node

	n.Walk(func(node *Node, depth int) bool {
		if node.disposed || !node.bounds.Overlaps(region) {
			return false
		}

		if node.IsLeaf() && depth > 0 {
			leaves = append(leaves, node)
		}
		return true
	})

	return leaves
}

// Stats returns the node hierarchy statistics.
func (n *Node) Stats() Stats {
	stats := Stats{
		Bounds:         n.bounds,
		PartitionDepth: partitionDepth(n),
	}

	n.Walk(func(node *Node, depth int) bool {
		stats.NodeCount++
		if node.IsLeaf() {
			stats.LeafCount++
		}
		if depth > stats.Depth {
			stats.Depth = depth
		}
		return true
	})

	return stats
}

func partitionDepth(n *Node) int {
	if n == nil || !n.IsSplit() {
		return 0
	}

	l := partitionDepth(n.left)
	r := partitionDepth(n.right)
	if r > l {
		l = r
	}
	return l + 1
}
